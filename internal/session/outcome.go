package session

import "errors"

var (
	// ErrConfigurationIncomplete gates every turn while required settings are missing.
	ErrConfigurationIncomplete = errors.New("configuration incomplete")
	// ErrPermissionDenied reports a refused microphone check.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrNoResponse reports an empty chat reply.
	ErrNoResponse = errors.New("no response")
	// ErrTurnInProgress rejects a turn while another one runs.
	ErrTurnInProgress = errors.New("turn already in progress")
)

// Failure classifies why a turn failed.
type Failure string

const (
	FailureNone                    Failure = ""
	FailurePermissionDenied        Failure = "PermissionDenied"
	FailureConfigurationIncomplete Failure = "ConfigurationIncomplete"
	FailureRecognitionNoMatch      Failure = "RecognitionNoMatch"
	FailureRecognitionCanceled     Failure = "RecognitionCanceled"
	FailureSynthesisCanceled       Failure = "SynthesisCanceled"
	FailureChatRequestFailed       Failure = "ChatRequestFailed"
	FailureNoResponse              Failure = "NoResponse"
	FailureUnexpectedException     Failure = "UnexpectedException"
)

// Outcome is the result of one turn. Failed tells a caller whether to keep
// its pending input.
type Outcome struct {
	TurnID     string
	Failed     bool
	Failure    Failure
	Err        error
	Recognized string
	Reply      string
}

func (o Outcome) fail(failure Failure, err error) Outcome {
	o.Failed = true
	o.Failure = failure
	o.Err = err
	return o
}

// Transcript entry texts.
const (
	textListening       = "Listening..."
	textNotRecognized   = "SPEECH NOT RECOGNIZED"
	textNoResponse      = "NO RESPONSE"
	textSettingsMissing = "SETTINGS MISSING. Fill in the settings (assist settings set ...) and restart."
)
