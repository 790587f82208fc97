package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/voice"
)

// Utterance is captured mono s16le PCM.
type Utterance struct {
	PCM        []byte
	SampleRate int
}

// CaptureOptions bound one capture.
type CaptureOptions struct {
	InitialSilence time.Duration
	EndSilence     time.Duration
	MaxUtterance   time.Duration
}

// AudioSource records one utterance. An empty PCM means no speech was heard.
type AudioSource interface {
	Capture(ctx context.Context, opts CaptureOptions) (Utterance, error)
}

// RecognitionConfig is passed with every engine call.
type RecognitionConfig struct {
	Locale string
	// Profanity is "raw", "masked", or "removed".
	Profanity string
}

// RecognitionEngine transcribes one utterance. Engines report service-side
// failures as Canceled results and reserve the error return for local faults.
type RecognitionEngine interface {
	Recognize(ctx context.Context, utt Utterance, cfg RecognitionConfig) (RecognitionResult, error)
}

// RecognitionFactory builds an engine for a language/voice selection.
type RecognitionFactory func(ctx context.Context, lv voice.LanguageVoice) (RecognitionEngine, error)

// ResultKind tags adapter outcomes.
type ResultKind string

const (
	Recognized ResultKind = "recognized"
	NoMatch    ResultKind = "no_match"
	Canceled   ResultKind = "canceled"
	Failed     ResultKind = "failed"
	Completed  ResultKind = "completed"
)

// RecognitionResult is one of Recognized, NoMatch, Canceled, or Failed.
type RecognitionResult struct {
	Kind         ResultKind
	Text         string
	Cancellation Cancellation
	Err          error
}

// RecognizedText builds a Recognized result.
func RecognizedText(text string) RecognitionResult {
	return RecognitionResult{Kind: Recognized, Text: text}
}

// NoMatchResult builds a NoMatch result.
func NoMatchResult() RecognitionResult {
	return RecognitionResult{Kind: NoMatch}
}

// CanceledRecognition builds a Canceled result.
func CanceledRecognition(c Cancellation) RecognitionResult {
	return RecognitionResult{Kind: Canceled, Cancellation: c}
}

// Recognizer lazily (re)creates its engine whenever the selection changes and
// converts every failure into a tagged result. Calls are serialized.
type Recognizer struct {
	factory   RecognitionFactory
	source    AudioSource
	capture   CaptureOptions
	profanity string
	logger    *slog.Logger

	mu      sync.Mutex
	engine  RecognitionEngine
	current voice.LanguageVoice
}

// RecognizerOptions configure a Recognizer.
type RecognizerOptions struct {
	Capture   CaptureOptions
	Profanity string
	Logger    *slog.Logger
}

// NewRecognizer wires a factory and audio source.
func NewRecognizer(factory RecognitionFactory, source AudioSource, opts RecognizerOptions) *Recognizer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	profanity := opts.Profanity
	if profanity == "" {
		profanity = "raw"
	}
	return &Recognizer{
		factory:   factory,
		source:    source,
		capture:   opts.Capture,
		profanity: profanity,
		logger:    logger,
	}
}

// RecognizeOnce captures one utterance and transcribes it for lv.
func (r *Recognizer) RecognizeOnce(ctx context.Context, lv voice.LanguageVoice) (result RecognitionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			result = RecognitionResult{Kind: Failed, Err: fmt.Errorf("recognizer panic: %v", p)}
		}
	}()

	if err := r.ensureEngine(ctx, lv); err != nil {
		return RecognitionResult{Kind: Failed, Err: err}
	}

	utt, err := r.source.Capture(ctx, r.capture)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return CanceledRecognition(Cancellation{Reason: ReasonCancelledByUser})
		}
		return RecognitionResult{Kind: Failed, Err: fmt.Errorf("capture audio: %w", err)}
	}
	if len(utt.PCM) == 0 {
		r.logger.Debug("capture heard no speech", "locale", lv.Locale)
		return NoMatchResult()
	}

	result, err = r.engine.Recognize(ctx, utt, RecognitionConfig{Locale: lv.Locale, Profanity: r.profanity})
	switch {
	case errors.Is(err, context.Canceled):
		return CanceledRecognition(Cancellation{Reason: ReasonCancelledByUser})
	case err != nil:
		return RecognitionResult{Kind: Failed, Err: err}
	}

	if result.Kind == Recognized {
		result.Text = strings.Join(strings.Fields(result.Text), " ")
		if result.Text == "" {
			return NoMatchResult()
		}
	}
	r.logger.Debug("recognition finished", "locale", lv.Locale, "kind", string(result.Kind))
	return result
}

func (r *Recognizer) ensureEngine(ctx context.Context, lv voice.LanguageVoice) error {
	if r.engine != nil && r.current == lv {
		return nil
	}

	r.closeEngine()
	engine, err := r.factory(ctx, lv)
	if err != nil {
		return fmt.Errorf("create recognition engine for %s: %w", lv.Locale, err)
	}
	r.engine = engine
	r.current = lv
	r.logger.Info("recognition engine configured", "locale", lv.Locale, "voice", lv.Voice)
	return nil
}

func (r *Recognizer) closeEngine() {
	if closer, ok := r.engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			r.logger.Debug("close recognition engine", "error", err.Error())
		}
	}
	r.engine = nil
}

// Close releases the engine. Errors are swallowed.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeEngine()
}
