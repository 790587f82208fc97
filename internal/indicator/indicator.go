// Package indicator mirrors turn phases as desktop notifications and short
// audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/hypr"
	"github.com/rbright/assist/internal/logging"
)

const (
	backendHypr    = "hypr"
	backendDesktop = "desktop"
)

// Notifier is the runtime indicator. Listening, thinking and speaking are
// shown as long-lived notifications on the hypr backend; the desktop backend
// only surfaces listening and errors since its bubbles cannot be replaced.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	notify  func(ctx context.Context, icon int, timeoutMS int, color string, text string) error
	dismiss func(ctx context.Context) error
	play    func(ctx context.Context, kind cueKind) error

	soundMu sync.Mutex
	cues    sync.WaitGroup
}

// New creates a notifier from the indicator config section.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = logging.Discard()
	}
	n := &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFrom(cfg),
		play:     emitCue,
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), backendDesktop) {
		appName := strings.TrimSpace(cfg.DesktopAppName)
		n.notify = func(_ context.Context, _ int, _ int, _ string, text string) error {
			return beeep.Notify(appName, text, "")
		}
		n.dismiss = func(context.Context) error { return nil }
	} else {
		n.notify = hypr.Notify
		n.dismiss = hypr.DismissNotify
	}
	return n
}

// ShowListening signals that the microphone is open.
func (n *Notifier) ShowListening(ctx context.Context) {
	n.playCue(cueListen)
	n.show(ctx, 1, 300000, hypr.ColorInfo, n.messages.listening, true)
}

// ShowThinking signals that a chat request is in flight.
func (n *Notifier) ShowThinking(ctx context.Context) {
	n.show(ctx, 1, 300000, "rgb(cba6f7)", n.messages.thinking, false)
}

// ShowSpeaking signals that the reply is being synthesized.
func (n *Notifier) ShowSpeaking(ctx context.Context) {
	n.show(ctx, 1, 300000, "rgb(a6e3a1)", n.messages.speaking, false)
}

// ShowError displays a failed turn. Empty text falls back to the configured
// error message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	n.playCue(cueError)
	if strings.TrimSpace(text) == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.show(ctx, 3, timeout, hypr.ColorError, text, true)
}

// CueComplete plays the completion cue.
func (n *Notifier) CueComplete(context.Context) {
	n.playCue(cueComplete)
}

// Hide clears the indicator surface.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// Wait blocks until queued cues finish playing.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) show(ctx context.Context, icon int, timeoutMS int, color string, text string, desktop bool) {
	if !n.cfg.Enable {
		return
	}
	if !desktop && n.desktopBackend() {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, icon, timeoutMS, color, text)
	})
}

func (n *Notifier) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), backendDesktop)
}

// run bounds an indicator dispatch so a stuck notifier never stalls a turn.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}

// playCue serializes cue playback off the caller's goroutine.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.play(ctx, kind); err != nil {
			n.logger.Debug("indicator audio cue failed", "cue", kind.String(), "error", err.Error())
		}
	}()
}
