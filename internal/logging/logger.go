// Package logging opens the JSONL log under the user's state directory.
package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	logName = "log.jsonl"

	// maxLogBytes is the size at which the log is moved aside to log.jsonl.1
	// on the next start.
	maxLogBytes = 8 << 20
)

// Runtime is an open logger and the file behind it.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	file   *os.File
}

// Close closes the log file.
func (r Runtime) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// New opens StateDir()/log.jsonl at level and tags every record with the
// process id, since owner and client processes share the file.
func New(level string) (Runtime, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return Runtime{}, err
	}

	dir, err := StateDir()
	if err != nil {
		return Runtime{}, err
	}
	path := filepath.Join(dir, logName)
	if err := rotate(path, maxLogBytes); err != nil {
		return Runtime{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl})).With("pid", os.Getpid())
	return Runtime{Logger: logger, Path: path, file: f}, nil
}

// StateDir returns (and creates) $XDG_STATE_HOME/assist, falling back to
// ~/.local/state/assist.
func StateDir() (string, error) {
	base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, "assist")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

// rotate keeps one previous generation once path grows past limit.
func rotate(path string, limit int64) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < limit {
		return nil
	}
	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
// Empty means info.
func ParseLevel(raw string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		name = "warn"
	case "debug", "info", "warn", "error":
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
	return lvl, nil
}
