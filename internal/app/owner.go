package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/assist/internal/cli"
	"github.com/rbright/assist/internal/ipc"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/pipeline"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/transcript"
	"github.com/rbright/assist/internal/voice"
)

const (
	probeTimeout = 220 * time.Millisecond
	turnTimeout  = 3 * time.Minute
)

var errNoOwner = errors.New("no active assist owner process")

func ownerClient(timeout time.Duration) (ipc.Client, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Client{}, err
	}
	return ipc.Client{Path: socketPath, Timeout: timeout}, nil
}

// forwardOrFail requires a running owner.
func forwardOrFail(ctx context.Context, req ipc.Request, timeout time.Duration) (ipc.Response, error) {
	client, err := ownerClient(timeout)
	if err != nil {
		return ipc.Response{}, err
	}
	resp, reached, err := client.Forward(ctx, req)
	if !reached {
		return ipc.Response{}, errNoOwner
	}
	return resp, err
}

func (r Runner) Listen(ctx context.Context, g cli.Globals) error {
	return r.turn(ctx, g, ipc.Request{Command: ipc.CommandListen})
}

func (r Runner) Say(ctx context.Context, g cli.Globals, text string) error {
	return r.turn(ctx, g, ipc.Request{Command: ipc.CommandSay, Args: []string{text}})
}

// turn runs one turn on the running owner, or becomes a short-lived owner
// for the duration of the turn when there is none.
func (r Runner) turn(ctx context.Context, g cli.Globals, req ipc.Request) error {
	env, err := r.setup(g, req.Command)
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	client, err := ownerClient(turnTimeout)
	if err != nil {
		return err
	}

	resp, reached, err := client.Forward(ctx, req)
	if reached {
		r.printEntries(resp.Entries, false)
		return err
	}

	owner, err := ipc.Claim(ctx, client.Path, probeTimeout)
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		// Another process claimed the socket first.
		resp, _, err := client.Forward(ctx, req)
		r.printEntries(resp.Entries, false)
		return err
	}
	if err != nil {
		return err
	}
	defer owner.Release()

	rt, err := pipeline.Build(ctx, env.cfg(), env.logger, pipeline.Options{})
	if err != nil {
		return err
	}
	defer closeRuntime(rt, env)

	serveCtx, stopServing := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() {
		served <- ipc.Serve(serveCtx, owner, rt.Orchestrator)
	}()

	resp = rt.Orchestrator.Handle(ctx, req)
	stopServing()
	if serveErr := <-served; serveErr != nil {
		env.logger.Warn("ipc server failed", "error", serveErr.Error())
	}

	r.printEntries(resp.Entries, false)
	if !resp.OK {
		return errors.New(resp.Error)
	}
	return nil
}

func (r Runner) Status(ctx context.Context, g cli.Globals) error {
	env, err := r.setup(g, "status")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	client, err := ownerClient(probeTimeout)
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle (no owner process)")
		return nil
	}
	resp, reached, err := client.Forward(ctx, ipc.Request{Command: ipc.CommandStatus})
	if !reached {
		fmt.Fprintln(r.Stdout, "idle (no owner process)")
		return nil
	}
	if err != nil {
		return err
	}
	state := resp.State
	if state == "" {
		state = "idle"
	}
	fmt.Fprintln(r.Stdout, strings.TrimSpace(state+" "+resp.Message))
	return nil
}

func (r Runner) Transcript(ctx context.Context, g cli.Globals) error {
	env, err := r.setup(g, "transcript")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	resp, err := forwardOrFail(ctx, ipc.Request{Command: ipc.CommandTranscript}, probeTimeout)
	if err != nil {
		return err
	}
	if len(resp.Entries) == 0 {
		fmt.Fprintln(r.Stdout, "transcript is empty")
		return nil
	}
	r.printEntries(resp.Entries, true)
	return nil
}

// Mood shows or switches the persona. Without an owner the choice goes
// straight to the settings store and applies on the next start.
func (r Runner) Mood(ctx context.Context, g cli.Globals, name string) error {
	env, err := r.setup(g, "mood")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	if resp, reached, err := forwardSelection(ctx, ipc.CommandMood, name); reached {
		if err != nil {
			return err
		}
		fmt.Fprintln(r.Stdout, resp.Message)
		return nil
	}

	store, closer, err := pipeline.OpenSettings(ctx, env.cfg().Settings)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if strings.TrimSpace(name) == "" {
		raw, _, err := store.String(ctx, settings.Mood)
		if err != nil {
			return err
		}
		mood, err := persona.Parse(raw)
		if err != nil {
			mood = persona.Neutral
		}
		fmt.Fprintln(r.Stdout, mood)
		return nil
	}

	mood, err := persona.Parse(name)
	if err != nil {
		return err
	}
	if err := store.SetString(ctx, settings.Mood, string(mood)); err != nil {
		return fmt.Errorf("save mood selection: %w", err)
	}
	env.logger.Info("mood saved", "mood", string(mood))
	fmt.Fprintln(r.Stdout, mood)
	return nil
}

// Voice shows or switches the language/voice pairing.
func (r Runner) Voice(ctx context.Context, g cli.Globals, query string) error {
	env, err := r.setup(g, "voice")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	if resp, reached, err := forwardSelection(ctx, ipc.CommandVoice, query); reached {
		if err != nil {
			return err
		}
		fmt.Fprintln(r.Stdout, resp.Message)
		return nil
	}

	store, closer, err := pipeline.OpenSettings(ctx, env.cfg().Settings)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if strings.TrimSpace(query) == "" {
		locale, _, err := store.String(ctx, settings.LanguageLocale)
		if err != nil {
			return err
		}
		name, _, err := store.String(ctx, settings.VoiceName)
		if err != nil {
			return err
		}
		lv, ok := voice.Find(locale, name)
		if !ok {
			lv = voice.Default()
		}
		fmt.Fprintln(r.Stdout, lv.NameAndVoice())
		return nil
	}

	lv, err := voice.Resolve(query)
	if err != nil {
		return err
	}
	if err := store.SetString(ctx, settings.LanguageLocale, lv.Locale); err != nil {
		return fmt.Errorf("save voice selection: %w", err)
	}
	if err := store.SetString(ctx, settings.VoiceName, lv.Voice); err != nil {
		return fmt.Errorf("save voice selection: %w", err)
	}
	env.logger.Info("voice saved", "locale", lv.Locale, "voice", lv.Voice)
	fmt.Fprintln(r.Stdout, lv.NameAndVoice())
	return nil
}

func forwardSelection(ctx context.Context, command, value string) (ipc.Response, bool, error) {
	client, err := ownerClient(probeTimeout)
	if err != nil {
		return ipc.Response{}, false, nil
	}
	req := ipc.Request{Command: command}
	if value = strings.TrimSpace(value); value != "" {
		req.Args = []string{value}
	}
	return client.Forward(ctx, req)
}

// Serve holds the owner socket until interrupted or asked to quit.
func (r Runner) Serve(ctx context.Context, g cli.Globals) error {
	env, err := r.setup(g, "serve")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}
	owner, err := ipc.Claim(ctx, socketPath, probeTimeout)
	if errors.Is(err, ipc.ErrAlreadyRunning) {
		return fmt.Errorf("%w; use `assist status` to inspect it", err)
	}
	if err != nil {
		return err
	}
	defer owner.Release()

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := pipeline.Build(serveCtx, env.cfg(), env.logger, pipeline.Options{OnQuit: cancel})
	if err != nil {
		return err
	}
	defer closeRuntime(rt, env)

	out := &lockedWriter{w: r.Stdout}
	stop := follow(rt.Orchestrator.Log(), out)
	defer stop()

	fmt.Fprintf(out, "serving on %s\n", socketPath)
	env.logger.Info("owner serving", "socket", socketPath)
	return ipc.Serve(serveCtx, owner, rt.Orchestrator)
}

func closeRuntime(rt *pipeline.Runtime, env *environment) {
	if err := rt.Close(); err != nil {
		env.logger.Warn("runtime close failed", "error", err.Error())
	}
}

// printEntries writes entries one per line, numbered when asked so the
// numbers line up with `assist copy N`.
func (r Runner) printEntries(entries []ipc.EntryView, numbered bool) {
	for i, e := range entries {
		line := formatEntry(transcript.Kind(e.Kind), e.Text)
		if numbered {
			fmt.Fprintf(r.Stdout, "%3d  %s\n", i+1, line)
			continue
		}
		fmt.Fprintln(r.Stdout, line)
	}
}
