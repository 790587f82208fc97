// Package hypr talks to a running Hyprland compositor through hyprctl.
package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Running reports whether a Hyprland session is reachable from this process.
func Running() bool {
	if strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) == "" {
		return false
	}
	_, err := exec.LookPath("hyprctl")
	return err == nil
}

// Version returns the compositor tag, or the commit for untagged builds.
func Version(ctx context.Context) (string, error) {
	var v struct {
		Tag    string `json:"tag"`
		Commit string `json:"commit"`
	}
	if err := query(ctx, "version", &v); err != nil {
		return "", err
	}
	if tag := strings.TrimSpace(v.Tag); tag != "" {
		return tag, nil
	}
	return strings.TrimSpace(v.Commit), nil
}

// query runs `hyprctl -j <topic>` and decodes the reply into v.
func query(ctx context.Context, topic string, v any) error {
	out, err := run(ctx, "-j", topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("decode hyprctl %s reply: %w", topic, err)
	}
	return nil
}

func dispatch(ctx context.Context, dispatcher string, args ...string) error {
	_, err := run(ctx, append([]string{"--quiet", "dispatch", dispatcher}, args...)...)
	return err
}

// run includes hyprctl's own output in the error since its exit codes say
// little on their own.
func run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	call := "hyprctl " + strings.Join(args, " ")
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return nil, fmt.Errorf("%s: %w (%s)", call, err, detail)
	}
	return nil, fmt.Errorf("%s: %w", call, err)
}
