// Package app binds the command tree to configuration, the owner-process
// socket, and the assistant runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/assist/internal/cli"
	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/version"
)

// Runner executes one command line. It implements cli.Handler.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Execute runs args and returns the process exit status.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

// Execute returns 0 on success, 2 for usage mistakes, and 1 otherwise.
func (r Runner) Execute(ctx context.Context, args []string) int {
	root := cli.NewRootCommand(r)
	root.SetArgs(args)
	root.SetOut(r.Stdout)
	root.SetErr(r.Stderr)
	if r.Stdin != nil {
		root.SetIn(r.Stdin)
	}

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	var exit exitError
	switch {
	case cli.IsUsage(err):
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		if cmd == nil {
			cmd = root
		}
		fmt.Fprint(r.Stderr, cmd.UsageString())
		return 2
	case errors.As(err, &exit):
		return exit.code
	default:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
}

// exitError ends a command with a status but no extra message; the command
// already printed its own report.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// environment is the per-command config and logger.
type environment struct {
	loaded config.Loaded
	logger *slog.Logger
	close  func() error
}

func (e *environment) cfg() config.Config { return e.loaded.Config }

func (r Runner) setup(g cli.Globals, command string) (*environment, error) {
	loaded, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
	}

	env := &environment{loaded: loaded, logger: r.Logger, close: func() error { return nil }}
	logPath := ""
	if env.logger == nil {
		rt, err := logging.New(loaded.Config.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("setup logging: %w", err)
		}
		env.logger, env.close, logPath = rt.Logger, rt.Close, rt.Path
	}

	for _, w := range loaded.Warnings {
		env.logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}
	env.logger.Info("command start",
		"command", command,
		"config", loaded.Path,
		"log", logPath,
	)
	return env, nil
}

// Version prints build metadata without touching config.
func (r Runner) Version(context.Context) error {
	fmt.Fprintln(r.Stdout, version.String())
	return nil
}
