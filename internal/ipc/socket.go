package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning reports a responsive owner on the socket.
var ErrAlreadyRunning = errors.New("assist owner already running")

const (
	socketName = "assist.sock"
	// claimAttempts bounds bind retries after unlinking a stale socket.
	claimAttempts = 8
)

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/assist.sock.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, socketName), nil
}

// Owner is a bound owner socket.
type Owner struct {
	net.Listener
	Path string
}

// Release closes the listener and unlinks the socket path.
func (o *Owner) Release() {
	_ = o.Listener.Close()
	_ = os.Remove(o.Path)
}

// Claim binds path for this process. A socket nobody answers on is treated
// as left behind by a dead owner, unlinked, and bound again. probe bounds
// the liveness check.
func Claim(ctx context.Context, path string, probe time.Duration) (*Owner, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	client := Client{Path: path, Timeout: probe}
	for attempt := 1; attempt <= claimAttempts; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return &Owner{Listener: listener, Path: path}, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := client.Probe(ctx)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if probeErr != nil {
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*attempt) * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("socket %s still busy after %d attempts", path, claimAttempts)
}
