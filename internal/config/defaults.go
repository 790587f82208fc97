package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Recognition: RecognitionConfig{
			Provider:       ProviderAzure,
			Profanity:      "raw",
			MaxUtteranceMS: 30000,
		},
		Synthesis: SynthesisConfig{
			Provider:    ProviderAzure,
			OpenAIModel: "gpt-4o-mini-tts",
			OpenAIVoice: "alloy",
		},
		Chat: ChatConfig{
			Provider:         ProviderAzure,
			APIVersion:       "2024-06-01",
			RequestTimeoutMS: 60000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Settings: SettingsConfig{
			Backend:     "sqlite",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "assist",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "desktop",
			DesktopAppName: "assist",
			SoundEnable:    true,
			TextListening:  "Listening...",
			TextThinking:   "Thinking...",
			TextSpeaking:   "Speaking...",
			TextError:      "Assistant error",
			ErrorTimeoutMS: 1600,
		},
		Output: OutputConfig{
			Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseCommand(clipboard)},
			Paste:     PasteConfig{Shortcut: "CTRL,V"},
		},
		Log: LogConfig{Level: "info"},
	}
}
