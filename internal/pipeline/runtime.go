// Package pipeline wires configuration and stored settings into a running
// assistant: audio devices, speech engines, chat client, and the turn
// orchestrator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/assist/internal/audio"
	"github.com/rbright/assist/internal/chat"
	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/indicator"
	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/session"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/speech"
)

// Options tune Build.
type Options struct {
	// OnQuit runs when the owner process receives a quit request.
	OnQuit func()
	// Indicator replaces the config-driven notifier.
	Indicator session.Indicator
}

// Runtime is one fully wired assistant.
type Runtime struct {
	Config       config.Config
	Settings     *settings.Store
	Values       settings.Values
	Session      *session.Session
	Orchestrator *session.Orchestrator

	settingsCloser io.Closer
	debug          *debugArtifacts
	notifier       *indicator.Notifier
	logger         *slog.Logger
}

// Build opens the settings backend, takes the startup settings snapshot, and
// assembles the session and orchestrator. Engines are created lazily on the
// first turn that needs them.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*Runtime, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	store, closer, err := OpenSettings(ctx, cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	rt, err := assemble(ctx, cfg, store, logger, opts)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	rt.settingsCloser = closer
	return rt, nil
}

func assemble(ctx context.Context, cfg config.Config, store *settings.Store, logger *slog.Logger, opts Options) (*Runtime, error) {
	values, err := store.Load(ctx, settings.ServiceFields())
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	logger.Info("settings loaded",
		"backend", cfg.Settings.Backend,
		"complete", values.Complete(),
		"missing", values.Missing,
	)

	debug := &debugArtifacts{audioDump: cfg.Debug.EnableAudioDump}

	recognize, err := recognitionFactory(cfg.Recognition, values, debug, cfg.Debug.EnableResponseDump, logger)
	if err != nil {
		return nil, err
	}
	synthesize, err := synthesisFactory(cfg, values, logger)
	if err != nil {
		return nil, err
	}

	mic := audio.Microphone{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback}
	source := &microphoneSource{resolve: mic.Check, debug: debug, logger: logger, capture: audio.CaptureUtterance}
	sink := speakerSink{sink: cfg.Audio.Output, play: audio.Play}

	sess := session.New(session.Components{
		Permission: session.PermissionFunc(func(ctx context.Context) error {
			_, err := mic.Check(ctx)
			return err
		}),
		Recognizer: speech.NewRecognizer(recognize, source, speech.RecognizerOptions{
			Capture:   captureOptions(cfg.Recognition, values),
			Profanity: cfg.Recognition.Profanity,
			Logger:    logger,
		}),
		Synthesizer: speech.NewSynthesizer(synthesize, sink, logger),
		Chat:        chat.New(chatConfig(cfg.Chat, values), nil, logger),
		Settings:    store,
	}, logger)

	rt := &Runtime{
		Config:   cfg,
		Settings: store,
		Values:   values,
		Session:  sess,
		debug:    debug,
		logger:   logger,
	}

	ind := opts.Indicator
	if ind == nil {
		rt.notifier = indicator.New(cfg.Indicator, logger)
		ind = rt.notifier
	}

	orch, err := session.NewOrchestrator(ctx, sess, session.Options{
		MaxHistoryTurns: cfg.Chat.MaxHistoryTurns,
		Indicator:       ind,
		Logger:          logger,
		OnQuit:          opts.OnQuit,
	})
	if err != nil {
		sess.Close()
		return nil, err
	}
	rt.Orchestrator = orch
	return rt, nil
}

// Close tears down engine handles, waits for pending cues, and releases the
// settings backend.
func (r *Runtime) Close() error {
	if r.Session != nil {
		r.Session.Close()
	}
	if r.notifier != nil {
		r.notifier.Wait()
	}
	var errs []error
	if err := r.debug.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close debug artifacts: %w", err))
	}
	if r.settingsCloser != nil {
		if err := r.settingsCloser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close settings: %w", err))
		}
	}
	return errors.Join(errs...)
}
