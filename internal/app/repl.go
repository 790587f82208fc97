package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/rbright/assist/internal/cli"
	"github.com/rbright/assist/internal/ipc"
	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/pipeline"
	"github.com/rbright/assist/internal/transcript"
)

const replHelp = `type a message and press enter to send it
press enter on an empty line to speak instead
/mood [NAME]    show or switch the mood
/voice [QUERY]  show or switch the language/voice
/moods /voices  list the choices
/status         show the turn state and selection
/transcript     show the numbered transcript
/dialogue       show the chat context sent to the model
exit            leave`

// assistant is the slice of the orchestrator the REPL drives.
type assistant interface {
	Handle(context.Context, ipc.Request) ipc.Response
	Log() *transcript.Log
}

type lineReader interface {
	Readline() (string, error)
}

// Chat runs an interactive session that also owns the socket, so `assist
// say` from another terminal lands in the same conversation.
func (r Runner) Chat(ctx context.Context, g cli.Globals) error {
	env, err := r.setup(g, "chat")
	if err != nil {
		return err
	}
	defer func() { _ = env.close() }()

	var owner *ipc.Owner
	socketPath, pathErr := ipc.RuntimeSocketPath()
	if pathErr != nil {
		env.logger.Warn("owner socket unavailable; chat runs without ipc", "error", pathErr.Error())
	} else {
		owner, err = ipc.Claim(ctx, socketPath, probeTimeout)
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return fmt.Errorf("%w; use `assist say` or `assist listen` to talk to it", err)
		}
		if err != nil {
			return err
		}
		defer owner.Release()
	}

	chatCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := pipeline.Build(chatCtx, env.cfg(), env.logger, pipeline.Options{OnQuit: cancel})
	if err != nil {
		return err
	}
	defer closeRuntime(rt, env)

	if owner != nil {
		served := make(chan error, 1)
		go func() {
			served <- ipc.Serve(chatCtx, owner, rt.Orchestrator)
		}()
		defer func() {
			cancel()
			if err := <-served; err != nil {
				env.logger.Warn("ipc server failed", "error", err.Error())
			}
		}()
	}

	lines, out, closeLines := r.openLines()
	defer closeLines()
	return runREPL(chatCtx, rt.Orchestrator, lines, out)
}

// openLines prefers readline on a terminal and falls back to plain line
// scanning for pipes and tests.
func (r Runner) openLines() (lineReader, io.Writer, func()) {
	if tty, ok := terminal(r.Stdin); ok {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "> ",
			HistoryFile:     historyPath(),
			HistoryLimit:    200,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           tty,
			Stdout:          r.Stdout,
			Stderr:          r.Stderr,
		})
		if err == nil {
			return rl, rl.Stdout(), func() { _ = rl.Close() }
		}
		fmt.Fprintf(r.Stderr, "warning: readline unavailable (%v); using simple input\n", err)
	}
	in := r.Stdin
	if in == nil {
		in = strings.NewReader("")
	}
	return &scanLines{scanner: bufio.NewScanner(in)}, r.Stdout, func() {}
}

func historyPath() string {
	dir, err := logging.StateDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

type scanLines struct {
	scanner *bufio.Scanner
}

func (s *scanLines) Readline() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func runREPL(ctx context.Context, a assistant, lines lineReader, out io.Writer) error {
	w := &lockedWriter{w: out}
	stop := follow(a.Log(), w)
	defer stop()

	fmt.Fprintln(w, "type a message, press enter on an empty line to speak, /help for commands")
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := lines.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		var req ipc.Request
		switch {
		case line == "exit" || line == "quit":
			return nil
		case line == "":
			req = ipc.Request{Command: ipc.CommandListen}
		case strings.HasPrefix(line, "/"):
			name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
			rest = strings.TrimSpace(rest)
			switch name {
			case "help":
				fmt.Fprintln(w, replHelp)
				continue
			case "moods":
				printMoods(w)
				continue
			case "voices":
				printVoices(w)
				continue
			case "mood", "voice":
				req = ipc.Request{Command: name}
				if rest != "" {
					req.Args = []string{rest}
				}
			case "status":
				req = ipc.Request{Command: ipc.CommandStatus}
			case "transcript":
				req = ipc.Request{Command: ipc.CommandTranscript}
			case "dialogue":
				req = ipc.Request{Command: ipc.CommandDialogue}
			default:
				fmt.Fprintf(w, "unknown command /%s; /help lists commands\n", name)
				continue
			}
		default:
			req = ipc.Request{Command: ipc.CommandSay, Args: []string{line}}
		}

		printResponse(w, req, a.Handle(ctx, req))
	}
}

// printResponse shows what the follower does not. Turn entries already
// stream through the transcript subscription.
func printResponse(w io.Writer, req ipc.Request, resp ipc.Response) {
	switch req.Command {
	case ipc.CommandListen, ipc.CommandSay:
		if !resp.OK && len(resp.Entries) == 0 {
			fmt.Fprintf(w, "error: %s\n", resp.Error)
		}
		return
	case ipc.CommandTranscript:
		for i, e := range resp.Entries {
			fmt.Fprintf(w, "%3d  %s\n", i+1, formatEntry(transcript.Kind(e.Kind), e.Text))
		}
	case ipc.CommandDialogue:
		for _, e := range resp.Entries {
			fmt.Fprintf(w, "[%s] %s\n", e.Kind, e.Text)
		}
	case ipc.CommandStatus:
		fmt.Fprintln(w, strings.TrimSpace(resp.State+" "+resp.Message))
	default:
		if resp.Message != "" {
			fmt.Fprintln(w, resp.Message)
		}
	}
	if !resp.OK {
		fmt.Fprintf(w, "error: %s\n", resp.Error)
	}
}

// follow prints the current transcript and then every later change until
// stop is called. stop drains pending events before returning.
func follow(log *transcript.Log, out io.Writer) (stop func()) {
	events, unsubscribe := log.Subscribe(64)
	backlog := log.Entries()
	for _, e := range backlog {
		fmt.Fprintln(out, formatEntry(e.Kind, e.Text))
	}

	// Appends below printed were delivered after the snapshot already
	// included them.
	printed := len(backlog)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Lagged {
				fmt.Fprintln(out, "info: some transcript lines were skipped")
			}
			switch ev.Op {
			case transcript.OpAppend:
				if ev.Index < printed {
					continue
				}
				printed = ev.Index + 1
				fmt.Fprintln(out, formatEntry(ev.Entry.Kind, ev.Entry.Text))
			case transcript.OpReplace:
				fmt.Fprintln(out, formatEntry(ev.Entry.Kind, ev.Entry.Text))
			case transcript.OpRemove:
				if ev.Index < printed {
					printed = ev.Index
				}
			}
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

func formatEntry(kind transcript.Kind, text string) string {
	switch kind {
	case transcript.UserUtterance:
		return "you: " + text
	case transcript.BotReply:
		return "assistant: " + text
	case transcript.Error:
		return "error: " + text
	default:
		return "info: " + text
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
