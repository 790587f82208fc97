// Package session owns the assistant's service handles and runs
// listen, chat, and speak turns against them.
package session

import (
	"context"
	"io"
	"log/slog"

	"github.com/rbright/assist/internal/chat"
	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/speech"
	"github.com/rbright/assist/internal/voice"
)

// Permission checks (and if needed requests) microphone access.
type Permission interface {
	CheckMicrophone(ctx context.Context) error
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func(context.Context) error

func (f PermissionFunc) CheckMicrophone(ctx context.Context) error { return f(ctx) }

// Recognizer is the turn-facing speech recognition adapter.
type Recognizer interface {
	RecognizeOnce(ctx context.Context, lv voice.LanguageVoice) speech.RecognitionResult
}

// Synthesizer is the turn-facing speech synthesis adapter.
type Synthesizer interface {
	Speak(ctx context.Context, text string, lv voice.LanguageVoice, style persona.Style) speech.SynthesisResult
}

// Completer is the turn-facing chat adapter.
type Completer interface {
	Complete(ctx context.Context, messages []chat.Message) (string, error)
}

// Components are the handles a Session owns.
type Components struct {
	Permission  Permission
	Recognizer  Recognizer
	Synthesizer Synthesizer
	Chat        Completer
	Settings    *settings.Store
}

// Session holds the engine and client handles shared by every turn.
// Reconfiguration happens inside the adapters; the orchestrator serializes
// access to them.
type Session struct {
	permission  Permission
	recognizer  Recognizer
	synthesizer Synthesizer
	chat        Completer
	settings    *settings.Store
	logger      *slog.Logger
}

// New builds a session. A nil Permission always grants access.
func New(c Components, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	permission := c.Permission
	if permission == nil {
		permission = PermissionFunc(func(context.Context) error { return nil })
	}
	return &Session{
		permission:  permission,
		recognizer:  c.Recognizer,
		synthesizer: c.Synthesizer,
		chat:        c.Chat,
		settings:    c.Settings,
		logger:      logger,
	}
}

// Settings returns the backing settings store.
func (s *Session) Settings() *settings.Store { return s.settings }

// Close releases every handle that holds resources. Failures are logged
// and dropped.
func (s *Session) Close() {
	handles := []struct {
		name   string
		handle any
	}{
		{"recognizer", s.recognizer},
		{"synthesizer", s.synthesizer},
		{"chat", s.chat},
	}
	for _, h := range handles {
		switch closer := h.handle.(type) {
		case io.Closer:
			if err := closer.Close(); err != nil {
				s.logger.Debug("session teardown failed", "handle", h.name, "error", err.Error())
			}
		case interface{ Close() }:
			closer.Close()
		}
	}
}
