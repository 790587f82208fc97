package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Client talks to the owner process listening on Path.
type Client struct {
	Path string
	// Timeout bounds a whole exchange, so turn commands need room for
	// recognition, chat, and playback.
	Timeout time.Duration
}

// Do performs one request/response roundtrip.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	dialer := net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if c.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return Response{}, fmt.Errorf("set deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read %s response: %w", req.Command, err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Forward is Do for callers that have a fallback when no owner runs.
// reached is false only when nothing listens on Path; an owner that answers
// OK=false is reached and its error text is returned with the response.
func (c Client) Forward(ctx context.Context, req Request) (resp Response, reached bool, err error) {
	resp, err = c.Do(ctx, req)
	switch {
	case err == nil && resp.OK:
		return resp, true, nil
	case err == nil:
		return resp, true, errors.New(resp.Error)
	case Unreachable(err):
		return Response{}, false, nil
	default:
		return Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
	}
}

// Probe reports whether a responsive owner is listening.
func (c Client) Probe(ctx context.Context) (bool, error) {
	_, err := c.Do(ctx, Request{Command: CommandStatus})
	if err == nil {
		return true, nil
	}
	if Unreachable(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}

// Unreachable reports dial failures that mean nothing is listening on the
// socket, as opposed to an owner that answered badly.
func Unreachable(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
