package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/assist/internal/chat"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/speech"
	"github.com/rbright/assist/internal/voice"
)

type fakeRecognizer struct {
	mu      sync.Mutex
	results []speech.RecognitionResult
	voices  []voice.LanguageVoice
	panicOn bool
	closed  atomic.Bool
}

func (f *fakeRecognizer) RecognizeOnce(_ context.Context, lv voice.LanguageVoice) speech.RecognitionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn {
		panic("microphone on fire")
	}
	f.voices = append(f.voices, lv)
	if len(f.results) == 0 {
		return speech.NoMatchResult()
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next
}

func (f *fakeRecognizer) Close() { f.closed.Store(true) }

func (f *fakeRecognizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.voices)
}

type spokenCall struct {
	Text  string
	Voice voice.LanguageVoice
	Style persona.Style
}

type fakeSynthesizer struct {
	mu     sync.Mutex
	result speech.SynthesisResult
	spoken []spokenCall
}

func (f *fakeSynthesizer) Speak(_ context.Context, text string, lv voice.LanguageVoice, style persona.Style) speech.SynthesisResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, spokenCall{Text: text, Voice: lv, Style: style})
	if f.result.Kind == "" {
		return speech.SynthesisResult{Kind: speech.Completed}
	}
	return f.result
}

func (f *fakeSynthesizer) calls() []spokenCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]spokenCall(nil), f.spoken...)
}

type fakeChat struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests [][]chat.Message
	block    chan struct{}
	entered  chan struct{}
	closed   bool
}

func (f *fakeChat) Complete(_ context.Context, messages []chat.Message) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, append([]chat.Message(nil), messages...))
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(f.replies) == 0 {
		return "Okay.", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeChat) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return errors.New("already closed")
}

func (f *fakeChat) calls() [][]chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]chat.Message(nil), f.requests...)
}

type fakeIndicator struct {
	listening atomic.Int32
	thinking  atomic.Int32
	speaking  atomic.Int32
	errors    atomic.Int32
	complete  atomic.Int32
	hides     atomic.Int32
}

func (f *fakeIndicator) ShowListening(context.Context)     { f.listening.Add(1) }
func (f *fakeIndicator) ShowThinking(context.Context)      { f.thinking.Add(1) }
func (f *fakeIndicator) ShowSpeaking(context.Context)      { f.speaking.Add(1) }
func (f *fakeIndicator) ShowError(context.Context, string) { f.errors.Add(1) }
func (f *fakeIndicator) CueComplete(context.Context)       { f.complete.Add(1) }
func (f *fakeIndicator) Hide(context.Context)              { f.hides.Add(1) }

type harness struct {
	recognizer  *fakeRecognizer
	synthesizer *fakeSynthesizer
	chat        *fakeChat
	indicator   *fakeIndicator
	store       *settings.Store
	permission  error
	session     *Session
	orch        *Orchestrator
}

func configuredStore(t *testing.T) *settings.Store {
	t.Helper()
	ctx := context.Background()
	store := settings.NewStore(settings.NewMemory(), settings.NewMemory())
	require.NoError(t, store.SetString(ctx, settings.SpeechSubscriptionKey, "speech-key"))
	require.NoError(t, store.SetString(ctx, settings.SpeechServiceRegion, "westeurope"))
	require.NoError(t, store.SetInt(ctx, settings.InitialSilenceTimeoutMS, 5000))
	require.NoError(t, store.SetInt(ctx, settings.EndSilenceTimeoutMS, 1000))
	require.NoError(t, store.SetString(ctx, settings.OpenAIServiceKey, "openai-key"))
	require.NoError(t, store.SetString(ctx, settings.OpenAIServiceEndpoint, "https://example.openai.azure.com"))
	require.NoError(t, store.SetString(ctx, settings.LLMDeploymentName, "gpt-4o"))
	require.NoError(t, store.SetInt(ctx, settings.LLMMaxTokens, 800))
	return store
}

func newHarness(t *testing.T, store *settings.Store, opts Options) *harness {
	t.Helper()
	h := &harness{
		recognizer:  &fakeRecognizer{},
		synthesizer: &fakeSynthesizer{},
		chat:        &fakeChat{},
		indicator:   &fakeIndicator{},
		store:       store,
	}
	h.session = New(Components{
		Permission:  PermissionFunc(func(context.Context) error { return h.permission }),
		Recognizer:  h.recognizer,
		Synthesizer: h.synthesizer,
		Chat:        h.chat,
		Settings:    store,
	}, nil)

	if opts.Indicator == nil {
		opts.Indicator = h.indicator
	}
	orch, err := NewOrchestrator(context.Background(), h.session, opts)
	require.NoError(t, err)
	h.orch = orch
	return h
}

func english() voice.LanguageVoice { return voice.Default() }

func german(t *testing.T) voice.LanguageVoice {
	t.Helper()
	lv, ok := voice.Find("de-DE", "de-DE-KatjaNeural")
	require.True(t, ok)
	return lv
}
