package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/assist/internal/chat"
	"github.com/rbright/assist/internal/fsm"
	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/persona"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/speech"
	"github.com/rbright/assist/internal/transcript"
	"github.com/rbright/assist/internal/voice"
)

// ErrEmptyMessage rejects a typed turn with no text.
var ErrEmptyMessage = errors.New("message is empty")

// Indicator mirrors turn phases on the desktop.
type Indicator interface {
	ShowListening(context.Context)
	ShowThinking(context.Context)
	ShowSpeaking(context.Context)
	ShowError(context.Context, string)
	CueComplete(context.Context)
	Hide(context.Context)
}

type noopIndicator struct{}

func (noopIndicator) ShowListening(context.Context)     {}
func (noopIndicator) ShowThinking(context.Context)      {}
func (noopIndicator) ShowSpeaking(context.Context)      {}
func (noopIndicator) ShowError(context.Context, string) {}
func (noopIndicator) CueComplete(context.Context)       {}
func (noopIndicator) Hide(context.Context)              {}

// Selection is the active language/voice and mood.
type Selection struct {
	Voice voice.LanguageVoice
	Mood  persona.Mood
}

// Options tune an Orchestrator.
type Options struct {
	// Required lists settings that must be present before any turn runs.
	// Nil means settings.ServiceFields().
	Required []settings.Field
	// MaxHistoryTurns caps retained user/assistant pairs. Zero keeps all.
	MaxHistoryTurns int
	Indicator       Indicator
	Log             *transcript.Log
	Logger          *slog.Logger
	// OnQuit runs when a quit command arrives over IPC.
	OnQuit func()
}

// Orchestrator runs one turn at a time and owns the dialogue context.
type Orchestrator struct {
	session    *Session
	log        *transcript.Log
	indicator  Indicator
	logger     *slog.Logger
	maxHistory int
	onQuit     func()

	mu        sync.Mutex
	state     fsm.State
	selection Selection
	dialogue  []chat.Message
	missing   []string
	last      *Outcome
}

// NewOrchestrator loads settings once, restores the persisted selection,
// and records a sticky error when required settings are missing.
func NewOrchestrator(ctx context.Context, sess *Session, opts Options) (*Orchestrator, error) {
	if sess == nil {
		return nil, errors.New("session is nil")
	}
	if sess.recognizer == nil || sess.synthesizer == nil || sess.chat == nil {
		return nil, errors.New("session is missing a recognizer, synthesizer, or chat client")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}
	log := opts.Log
	if log == nil {
		log = transcript.New()
	}
	required := opts.Required
	if required == nil {
		required = settings.ServiceFields()
	}

	o := &Orchestrator{
		session:    sess,
		log:        log,
		indicator:  indicator,
		logger:     logger,
		maxHistory: opts.MaxHistoryTurns,
		onQuit:     opts.OnQuit,
		state:      fsm.StateIdle,
		selection:  Selection{Voice: voice.Default(), Mood: persona.Neutral},
		dialogue:   []chat.Message{{Role: chat.RoleSystem}},
	}

	if sess.settings == nil {
		for _, f := range required {
			o.missing = append(o.missing, f.Key())
		}
	} else {
		values, err := sess.settings.Load(ctx, required)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		o.missing = values.Missing
		o.selection = restoreSelection(values)
	}

	if len(o.missing) > 0 {
		log.Append(transcript.Error, textSettingsMissing)
		logger.Warn("settings incomplete", "missing", o.missing)
	}
	return o, nil
}

func restoreSelection(values settings.Values) Selection {
	sel := Selection{Voice: voice.Default(), Mood: persona.Neutral}
	if lv, ok := voice.Find(values.String(settings.LanguageLocale), values.String(settings.VoiceName)); ok {
		sel.Voice = lv
	}
	if mood, err := persona.Parse(values.String(settings.Mood)); err == nil {
		sel.Mood = mood
	}
	return sel
}

// Log returns the transcript log.
func (o *Orchestrator) Log() *transcript.Log { return o.log }

// Selection returns the active language/voice and mood.
func (o *Orchestrator) Selection() Selection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selection
}

// SelectVoice switches the language/voice and persists it. The dialogue
// context is kept.
func (o *Orchestrator) SelectVoice(ctx context.Context, lv voice.LanguageVoice) error {
	if _, ok := voice.Find(lv.Locale, lv.Voice); !ok {
		return fmt.Errorf("unknown voice %s/%s", lv.Locale, lv.Voice)
	}
	if store := o.session.settings; store != nil {
		if err := store.SetString(ctx, settings.LanguageLocale, lv.Locale); err != nil {
			return fmt.Errorf("save voice selection: %w", err)
		}
		if err := store.SetString(ctx, settings.VoiceName, lv.Voice); err != nil {
			return fmt.Errorf("save voice selection: %w", err)
		}
	}

	o.mu.Lock()
	o.selection.Voice = lv
	o.mu.Unlock()
	return nil
}

// SelectMood switches the persona and persists it.
func (o *Orchestrator) SelectMood(ctx context.Context, mood persona.Mood) error {
	parsed, err := persona.Parse(string(mood))
	if err != nil {
		return err
	}
	if store := o.session.settings; store != nil {
		if err := store.SetString(ctx, settings.Mood, string(parsed)); err != nil {
			return fmt.Errorf("save mood selection: %w", err)
		}
	}

	o.mu.Lock()
	o.selection.Mood = parsed
	o.mu.Unlock()
	return nil
}

// Dialogue returns a copy of the dialogue context. Position 0 is the
// system message of the latest turn.
func (o *Orchestrator) Dialogue() []chat.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]chat.Message(nil), o.dialogue...)
}

// Listen runs ListenAndRespond with the active selection.
func (o *Orchestrator) Listen(ctx context.Context) Outcome {
	sel := o.Selection()
	return o.ListenAndRespond(ctx, sel.Voice, sel.Mood)
}

// Say runs Respond with the active selection.
func (o *Orchestrator) Say(ctx context.Context, text string) Outcome {
	sel := o.Selection()
	return o.Respond(ctx, text, sel.Voice, sel.Mood)
}

// ListenAndRespond captures one utterance and, when speech is recognized,
// answers it through Respond.
func (o *Orchestrator) ListenAndRespond(ctx context.Context, lv voice.LanguageVoice, mood persona.Mood) (out Outcome) {
	out = Outcome{TurnID: uuid.NewString()}
	if err := o.checkConfigured(out.TurnID); err != nil {
		return out.fail(FailureConfigurationIncomplete, err)
	}
	if err := o.begin(fsm.EventListen); err != nil {
		return out.fail(FailureNone, err)
	}
	defer o.finish(&out, time.Now(), lv, mood)

	if err := o.session.permission.CheckMicrophone(ctx); err != nil {
		denied := fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		o.log.AppendTurn(out.TurnID, transcript.Error, denied.Error())
		return out.fail(FailurePermissionDenied, denied)
	}

	o.indicator.ShowListening(ctx)
	o.log.AppendTurn(out.TurnID, transcript.Info, textListening)

	result := o.session.recognizer.RecognizeOnce(ctx, lv)
	switch result.Kind {
	case speech.Recognized:
		o.log.RemoveLast()
		out.Recognized = result.Text
		o.transition(fsm.EventRecognized)
		return o.respond(ctx, out, result.Text, lv, mood)
	case speech.NoMatch:
		o.log.ReplaceLast(transcript.Info, textNotRecognized)
		return out.fail(FailureRecognitionNoMatch, nil)
	case speech.Canceled:
		details := result.Cancellation.Text()
		o.log.ReplaceLast(transcript.Error, details)
		return out.fail(FailureRecognitionCanceled, errors.New(details))
	default:
		err := result.Err
		if err == nil {
			err = fmt.Errorf("unexpected recognition result %q", result.Kind)
		}
		o.log.ReplaceLast(transcript.Error, err.Error())
		return out.fail(FailureUnexpectedException, err)
	}
}

// Respond sends text to the chat service with the persona's system message,
// records the reply, and speaks it.
func (o *Orchestrator) Respond(ctx context.Context, text string, lv voice.LanguageVoice, mood persona.Mood) (out Outcome) {
	out = Outcome{TurnID: uuid.NewString()}
	text = strings.TrimSpace(text)
	if text == "" {
		return out.fail(FailureNone, ErrEmptyMessage)
	}
	if err := o.checkConfigured(out.TurnID); err != nil {
		return out.fail(FailureConfigurationIncomplete, err)
	}
	if err := o.begin(fsm.EventSubmit); err != nil {
		return out.fail(FailureNone, err)
	}
	defer o.finish(&out, time.Now(), lv, mood)

	return o.respond(ctx, out, text, lv, mood)
}

func (o *Orchestrator) respond(ctx context.Context, out Outcome, text string, lv voice.LanguageVoice, mood persona.Mood) Outcome {
	o.log.AppendTurn(out.TurnID, transcript.UserUtterance, text)
	o.indicator.ShowThinking(ctx)

	system, err := o.systemPrompt(ctx, mood)
	if err != nil {
		o.log.AppendTurn(out.TurnID, transcript.Error, err.Error())
		return out.fail(FailureUnexpectedException, err)
	}
	messages := o.pushUser(system, persona.ReplyInstruction(text, lv.Locale))

	reply, err := o.session.chat.Complete(ctx, messages)
	if err != nil {
		o.log.AppendTurn(out.TurnID, transcript.Error, err.Error())
		return out.fail(FailureChatRequestFailed, err)
	}
	if strings.TrimSpace(reply) == "" {
		o.log.AppendTurn(out.TurnID, transcript.Error, textNoResponse)
		return out.fail(FailureNoResponse, ErrNoResponse)
	}

	o.pushAssistant(reply)
	out.Reply = reply
	o.log.AppendTurn(out.TurnID, transcript.BotReply, reply)
	o.transition(fsm.EventReplied)

	o.indicator.ShowSpeaking(ctx)
	result := o.session.synthesizer.Speak(ctx, reply, lv, persona.StyleFor(mood))
	switch result.Kind {
	case speech.Completed:
	case speech.Canceled:
		details := result.Cancellation.Text()
		o.log.AppendTurn(out.TurnID, transcript.Error, details)
		return out.fail(FailureSynthesisCanceled, errors.New(details))
	default:
		err := result.Err
		if err == nil {
			err = fmt.Errorf("unexpected synthesis result %q", result.Kind)
		}
		o.log.AppendTurn(out.TurnID, transcript.Error, err.Error())
		return out.fail(FailureUnexpectedException, err)
	}

	o.transition(fsm.EventSpoken)
	return out
}

// systemPrompt resolves the persona text. Custom reads the live setting.
func (o *Orchestrator) systemPrompt(ctx context.Context, mood persona.Mood) (string, error) {
	if mood != persona.Custom {
		return persona.SystemPrompt(mood, ""), nil
	}
	var custom string
	if store := o.session.settings; store != nil {
		value, _, err := store.String(ctx, settings.CustomSystemMessage)
		if err != nil {
			return "", fmt.Errorf("read custom system message: %w", err)
		}
		custom = value
	}
	return persona.SystemPrompt(mood, custom), nil
}

// pushUser overwrites the system slot, appends the user prompt, trims old
// pairs past the history cap, and returns a snapshot for the chat call.
func (o *Orchestrator) pushUser(system, prompt string) []chat.Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dialogue[0] = chat.Message{Role: chat.RoleSystem, Content: system}
	o.dialogue = append(o.dialogue, chat.Message{Role: chat.RoleUser, Content: prompt})

	if o.maxHistory > 0 {
		history := o.dialogue[1:]
		limit := 2*o.maxHistory + 1
		if len(history) > limit {
			history = history[len(history)-limit:]
			for len(history) > 1 && history[0].Role != chat.RoleUser {
				history = history[1:]
			}
			o.dialogue = append([]chat.Message{o.dialogue[0]}, history...)
		}
	}
	return append([]chat.Message(nil), o.dialogue...)
}

func (o *Orchestrator) pushAssistant(reply string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dialogue = append(o.dialogue, chat.Message{Role: chat.RoleAssistant, Content: reply})
}

// checkConfigured records the sticky settings error for a refused turn.
func (o *Orchestrator) checkConfigured(turn string) error {
	o.mu.Lock()
	missing := len(o.missing)
	o.mu.Unlock()
	if missing == 0 {
		return nil
	}
	o.log.AppendTurn(turn, transcript.Error, textSettingsMissing)
	return ErrConfigurationIncomplete
}

func (o *Orchestrator) begin(event fsm.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Busy() {
		return ErrTurnInProgress
	}
	next, err := fsm.Transition(o.state, event)
	if err != nil {
		return err
	}
	o.state = next
	return nil
}

func (o *Orchestrator) transition(event fsm.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := fsm.Transition(o.state, event)
	if err != nil {
		o.logger.Debug("turn transition rejected", "state", string(o.state), "event", string(event))
		return
	}
	o.state = next
}

// finish recovers panics, returns the state machine to idle, and reports
// the turn to the indicator and the log.
func (o *Orchestrator) finish(out *Outcome, started time.Time, lv voice.LanguageVoice, mood persona.Mood) {
	if r := recover(); r != nil {
		err := fmt.Errorf("turn panic: %v", r)
		o.log.AppendTurn(out.TurnID, transcript.Error, err.Error())
		*out = out.fail(FailureUnexpectedException, err)
	}

	o.mu.Lock()
	if out.Failed || o.state != fsm.StateIdle {
		o.state, _ = fsm.Transition(o.state, fsm.EventFail)
		o.state, _ = fsm.Transition(o.state, fsm.EventReset)
	}
	snapshot := *out
	o.last = &snapshot
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	if out.Failed {
		o.indicator.ShowError(ctx, indicatorText(out.Failure))
	} else {
		o.indicator.CueComplete(ctx)
		o.indicator.Hide(ctx)
	}

	attrs := []any{
		"turn_id", out.TurnID,
		"locale", lv.Locale,
		"voice", lv.Voice,
		"mood", string(mood),
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if out.Failed {
		attrs = append(attrs, "failure", string(out.Failure))
		if out.Err != nil {
			attrs = append(attrs, "error", out.Err.Error())
		}
		o.logger.Warn("turn failed", attrs...)
		return
	}
	o.logger.Info("turn finished", attrs...)
}

func indicatorText(f Failure) string {
	switch f {
	case FailureRecognitionNoMatch:
		return "Speech not recognized"
	case FailurePermissionDenied:
		return "Microphone unavailable"
	case FailureNoResponse:
		return "No response"
	default:
		return ""
	}
}
