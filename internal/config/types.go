// Package config resolves, parses, validates, and defaults assist configuration.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	Recognition RecognitionConfig
	Synthesis   SynthesisConfig
	Chat        ChatConfig
	Audio       AudioConfig
	Settings    SettingsConfig
	Indicator   IndicatorConfig
	Output      OutputConfig
	Log         LogConfig
	Debug       DebugConfig
}

// RecognitionConfig selects and tunes the speech-to-text engine.
type RecognitionConfig struct {
	Provider              string `env:"ASSIST_RECOGNITION_PROVIDER"`
	Profanity             string `env:"ASSIST_RECOGNITION_PROFANITY"`
	GoogleCredentialsFile string `env:"ASSIST_RECOGNITION_GOOGLE_CREDENTIALS_FILE"`
	Model                 string `env:"ASSIST_RECOGNITION_MODEL"`
	MaxUtteranceMS        int    `env:"ASSIST_RECOGNITION_MAX_UTTERANCE_MS"`
}

// SynthesisConfig selects and tunes the text-to-speech engine.
type SynthesisConfig struct {
	Provider    string `env:"ASSIST_SYNTHESIS_PROVIDER"`
	OpenAIModel string `env:"ASSIST_SYNTHESIS_OPENAI_MODEL"`
	OpenAIVoice string `env:"ASSIST_SYNTHESIS_OPENAI_VOICE"`
}

// ChatConfig controls the chat-completion client. Endpoint, key, and
// deployment live in the settings store.
type ChatConfig struct {
	Provider         string `env:"ASSIST_CHAT_PROVIDER"`
	APIVersion       string `env:"ASSIST_CHAT_API_VERSION"`
	RequestTimeoutMS int    `env:"ASSIST_CHAT_REQUEST_TIMEOUT_MS"`
	// MaxHistoryTurns caps retained user/assistant pairs. Zero keeps everything.
	MaxHistoryTurns int `env:"ASSIST_CHAT_MAX_HISTORY_TURNS"`
}

// AudioConfig controls preferred and fallback PulseAudio devices.
type AudioConfig struct {
	Input    string `env:"ASSIST_AUDIO_INPUT"`
	Fallback string `env:"ASSIST_AUDIO_FALLBACK"`
	Output   string `env:"ASSIST_AUDIO_OUTPUT"`
}

// SettingsConfig selects the key/value backend for persisted settings.
type SettingsConfig struct {
	Backend       string `env:"ASSIST_SETTINGS_BACKEND"`
	SQLitePath    string `env:"ASSIST_SETTINGS_SQLITE_PATH"`
	RedisAddr     string `env:"ASSIST_SETTINGS_REDIS_ADDR"`
	RedisPassword string `env:"ASSIST_SETTINGS_REDIS_PASSWORD"`
	RedisDB       int    `env:"ASSIST_SETTINGS_REDIS_DB"`
	RedisPrefix   string `env:"ASSIST_SETTINGS_REDIS_PREFIX"`
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool   `env:"ASSIST_INDICATOR_ENABLE"`
	Backend        string `env:"ASSIST_INDICATOR_BACKEND"`
	DesktopAppName string
	SoundEnable    bool `env:"ASSIST_INDICATOR_SOUND_ENABLE"`
	TextListening  string
	TextThinking   string
	TextSpeaking   string
	TextError      string
	ErrorTimeoutMS int
}

// OutputConfig controls transcript export.
type OutputConfig struct {
	Clipboard CommandConfig
	// PasteCmd replaces the Hyprland shortcut dispatch when set.
	PasteCmd CommandConfig
	Paste    PasteConfig
}

// PasteConfig controls pasting a copied entry into the active window.
type PasteConfig struct {
	Enable   bool `env:"ASSIST_OUTPUT_PASTE_ENABLE"`
	Shortcut string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// LogConfig controls the JSONL runtime log.
type LogConfig struct {
	Level string `env:"ASSIST_LOG_LEVEL"`
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump    bool `env:"ASSIST_DEBUG_AUDIO_DUMP"`
	EnableResponseDump bool `env:"ASSIST_DEBUG_RESPONSE_DUMP"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Provider names accepted by the engine sections.
const (
	ProviderAzure  = "azure"
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
)
