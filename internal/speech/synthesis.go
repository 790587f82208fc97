package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/voice"
)

// SynthesisRequest is one styled utterance to render.
type SynthesisRequest struct {
	Text   string
	Locale string
	Voice  string
	Style  persona.Style
}

// Audio is rendered mono s16le PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
}

// SynthesisEngine renders text. Service-side failures are returned as a
// *CanceledError so the adapter can report them with a reason.
type SynthesisEngine interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (Audio, error)
}

// SynthesisFactory builds an engine for a language/voice selection.
type SynthesisFactory func(ctx context.Context, lv voice.LanguageVoice) (SynthesisEngine, error)

// AudioSink plays rendered audio to completion.
type AudioSink interface {
	Play(ctx context.Context, audio Audio) error
}

// CanceledError carries a service-reported cancellation out of an engine.
type CanceledError struct {
	Cancellation Cancellation
}

func (e *CanceledError) Error() string {
	return e.Cancellation.Text()
}

// SynthesisResult is one of Completed, Canceled, or Failed.
type SynthesisResult struct {
	Kind         ResultKind
	Cancellation Cancellation
	Err          error
}

// Synthesizer lazily (re)creates its engine when the selection changes and
// plays the rendered audio. Calls are serialized.
type Synthesizer struct {
	factory SynthesisFactory
	sink    AudioSink
	logger  *slog.Logger

	mu      sync.Mutex
	engine  SynthesisEngine
	current voice.LanguageVoice
}

// NewSynthesizer wires a factory and sink.
func NewSynthesizer(factory SynthesisFactory, sink AudioSink, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Synthesizer{factory: factory, sink: sink, logger: logger}
}

// Speak renders and plays text with the voice and style given.
func (s *Synthesizer) Speak(ctx context.Context, text string, lv voice.LanguageVoice, style persona.Style) (result SynthesisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			result = SynthesisResult{Kind: Failed, Err: fmt.Errorf("synthesizer panic: %v", p)}
		}
	}()

	if s.engine == nil || s.current != lv {
		s.closeEngine()
		engine, err := s.factory(ctx, lv)
		if err != nil {
			return SynthesisResult{Kind: Failed, Err: fmt.Errorf("create synthesis engine for %s: %w", lv.Voice, err)}
		}
		s.engine = engine
		s.current = lv
		s.logger.Info("synthesis engine configured", "locale", lv.Locale, "voice", lv.Voice)
	}

	audio, err := s.engine.Synthesize(ctx, SynthesisRequest{
		Text:   text,
		Locale: lv.Locale,
		Voice:  lv.Voice,
		Style:  style,
	})
	if err != nil {
		return synthesisFailure(err)
	}

	if err := s.sink.Play(ctx, audio); err != nil {
		if errors.Is(err, context.Canceled) {
			return SynthesisResult{Kind: Canceled, Cancellation: Cancellation{Reason: ReasonCancelledByUser}}
		}
		return SynthesisResult{Kind: Failed, Err: fmt.Errorf("play reply: %w", err)}
	}

	s.logger.Debug("synthesis finished", "voice", lv.Voice, "style", string(style), "bytes", len(audio.PCM))
	return SynthesisResult{Kind: Completed}
}

func synthesisFailure(err error) SynthesisResult {
	var canceled *CanceledError
	switch {
	case errors.As(err, &canceled):
		return SynthesisResult{Kind: Canceled, Cancellation: canceled.Cancellation}
	case errors.Is(err, context.Canceled):
		return SynthesisResult{Kind: Canceled, Cancellation: Cancellation{Reason: ReasonCancelledByUser}}
	default:
		return SynthesisResult{Kind: Failed, Err: err}
	}
}

func (s *Synthesizer) closeEngine() {
	if closer, ok := s.engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Debug("close synthesis engine", "error", err.Error())
		}
	}
	s.engine = nil
}

// Close releases the engine. Errors are swallowed.
func (s *Synthesizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeEngine()
}
