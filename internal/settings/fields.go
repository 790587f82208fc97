package settings

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownField reports a key outside the field enumeration.
var ErrUnknownField = errors.New("unknown settings field")

// Kind is the value type of a field.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
)

// Field is one named setting.
type Field interface {
	Key() string
	Secure() bool
	Kind() Kind
}

// StringField is a text-valued setting.
type StringField struct {
	key    string
	secure bool
}

func (f StringField) Key() string  { return f.key }
func (f StringField) Secure() bool { return f.secure }
func (StringField) Kind() Kind     { return KindString }

// IntField is an integer-valued setting stored as decimal text.
type IntField struct {
	key    string
	secure bool
}

func (f IntField) Key() string  { return f.key }
func (f IntField) Secure() bool { return f.secure }
func (IntField) Kind() Kind     { return KindInt }

// Secure fields.
var (
	SpeechSubscriptionKey   = StringField{key: "speech_subscription_key", secure: true}
	SpeechServiceRegion     = StringField{key: "speech_service_region", secure: true}
	InitialSilenceTimeoutMS = IntField{key: "initial_silence_timeout_ms", secure: true}
	EndSilenceTimeoutMS     = IntField{key: "end_silence_timeout_ms", secure: true}
	OpenAIServiceKey        = StringField{key: "openai_service_key", secure: true}
	OpenAIServiceEndpoint   = StringField{key: "openai_service_endpoint", secure: true}
	LLMDeploymentName       = StringField{key: "llm_deployment_name", secure: true}
	LLMMaxTokens            = IntField{key: "llm_max_tokens", secure: true}
)

// Plain fields.
var (
	CustomSystemMessage = StringField{key: "custom_system_message_text"}
	LanguageLocale      = StringField{key: "assist_language_locale"}
	VoiceName           = StringField{key: "assist_voice_name"}
	Mood                = StringField{key: "assist_mood"}
)

var allFields = []Field{
	SpeechSubscriptionKey,
	SpeechServiceRegion,
	InitialSilenceTimeoutMS,
	EndSilenceTimeoutMS,
	OpenAIServiceKey,
	OpenAIServiceEndpoint,
	LLMDeploymentName,
	LLMMaxTokens,
	CustomSystemMessage,
	LanguageLocale,
	VoiceName,
	Mood,
}

// Fields returns every known field, secure ones first.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// ServiceFields are the secure fields a fully configured session needs.
func ServiceFields() []Field {
	out := make([]Field, 0, 8)
	for _, f := range allFields {
		if f.Secure() {
			out = append(out, f)
		}
	}
	return out
}

// Lookup resolves a field by key.
func Lookup(key string) (Field, error) {
	for _, f := range allFields {
		if f.Key() == key {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Keys returns all field keys sorted.
func Keys() []string {
	keys := make([]string, 0, len(allFields))
	for _, f := range allFields {
		keys = append(keys, f.Key())
	}
	sort.Strings(keys)
	return keys
}
