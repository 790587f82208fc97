package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type filePayload struct {
	Recognition *struct {
		Provider              *string `json:"provider"`
		Profanity             *string `json:"profanity"`
		GoogleCredentialsFile *string `json:"google_credentials_file"`
		Model                 *string `json:"model"`
		MaxUtteranceMS        *int    `json:"max_utterance_ms"`
	} `json:"recognition"`
	Synthesis *struct {
		Provider    *string `json:"provider"`
		OpenAIModel *string `json:"openai_model"`
		OpenAIVoice *string `json:"openai_voice"`
	} `json:"synthesis"`
	Chat *struct {
		Provider         *string `json:"provider"`
		APIVersion       *string `json:"api_version"`
		RequestTimeoutMS *int    `json:"request_timeout_ms"`
		MaxHistoryTurns  *int    `json:"max_history_turns"`
	} `json:"chat"`
	Audio *struct {
		Input    *string `json:"input"`
		Fallback *string `json:"fallback"`
		Output   *string `json:"output"`
	} `json:"audio"`
	Settings *struct {
		Backend       *string `json:"backend"`
		SQLitePath    *string `json:"sqlite_path"`
		RedisAddr     *string `json:"redis_addr"`
		RedisPassword *string `json:"redis_password"`
		RedisDB       *int    `json:"redis_db"`
		RedisPrefix   *string `json:"redis_prefix"`
	} `json:"settings"`
	Indicator *struct {
		Enable         *bool   `json:"enable"`
		Backend        *string `json:"backend"`
		DesktopAppName *string `json:"desktop_app_name"`
		SoundEnable    *bool   `json:"sound_enable"`
		TextListening  *string `json:"text_listening"`
		TextThinking   *string `json:"text_thinking"`
		TextSpeaking   *string `json:"text_speaking"`
		TextError      *string `json:"text_error"`
		ErrorTimeoutMS *int    `json:"error_timeout_ms"`
	} `json:"indicator"`
	Output *struct {
		ClipboardCmd  *string `json:"clipboard_cmd"`
		PasteCmd      *string `json:"paste_cmd"`
		PasteEnable   *bool   `json:"paste_enable"`
		PasteShortcut *string `json:"paste_shortcut"`
	} `json:"output"`
	Log *struct {
		Level *string `json:"level"`
	} `json:"log"`
	Debug *struct {
		AudioDump    *bool `json:"audio_dump"`
		ResponseDump *bool `json:"response_dump"`
	} `json:"debug"`
}

// Parse decodes JSONC content onto base and validates the result. Only keys
// present in the file override base values; unknown keys are rejected.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	if strings.TrimSpace(content) != "" {
		normalized, err := normalizeJSONC(content)
		if err != nil {
			return Config{}, nil, err
		}

		decoder := json.NewDecoder(strings.NewReader(normalized))
		decoder.DisallowUnknownFields()

		var payload filePayload
		if err := decoder.Decode(&payload); err != nil {
			return Config{}, nil, wrapJSONDecodeError(normalized, err)
		}
		if err := ensureSingleJSONValue(decoder); err != nil {
			return Config{}, nil, wrapJSONDecodeError(normalized, err)
		}
		if err := payload.applyTo(&cfg); err != nil {
			return Config{}, nil, err
		}
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (p filePayload) applyTo(cfg *Config) error {
	if r := p.Recognition; r != nil {
		setTrimmed(&cfg.Recognition.Provider, r.Provider)
		setTrimmed(&cfg.Recognition.Profanity, r.Profanity)
		setTrimmed(&cfg.Recognition.GoogleCredentialsFile, r.GoogleCredentialsFile)
		setTrimmed(&cfg.Recognition.Model, r.Model)
		set(&cfg.Recognition.MaxUtteranceMS, r.MaxUtteranceMS)
	}

	if s := p.Synthesis; s != nil {
		setTrimmed(&cfg.Synthesis.Provider, s.Provider)
		setTrimmed(&cfg.Synthesis.OpenAIModel, s.OpenAIModel)
		setTrimmed(&cfg.Synthesis.OpenAIVoice, s.OpenAIVoice)
	}

	if c := p.Chat; c != nil {
		setTrimmed(&cfg.Chat.Provider, c.Provider)
		setTrimmed(&cfg.Chat.APIVersion, c.APIVersion)
		set(&cfg.Chat.RequestTimeoutMS, c.RequestTimeoutMS)
		set(&cfg.Chat.MaxHistoryTurns, c.MaxHistoryTurns)
	}

	if a := p.Audio; a != nil {
		set(&cfg.Audio.Input, a.Input)
		set(&cfg.Audio.Fallback, a.Fallback)
		set(&cfg.Audio.Output, a.Output)
	}

	if s := p.Settings; s != nil {
		setTrimmed(&cfg.Settings.Backend, s.Backend)
		setTrimmed(&cfg.Settings.SQLitePath, s.SQLitePath)
		setTrimmed(&cfg.Settings.RedisAddr, s.RedisAddr)
		set(&cfg.Settings.RedisPassword, s.RedisPassword)
		set(&cfg.Settings.RedisDB, s.RedisDB)
		setTrimmed(&cfg.Settings.RedisPrefix, s.RedisPrefix)
	}

	if i := p.Indicator; i != nil {
		set(&cfg.Indicator.Enable, i.Enable)
		setTrimmed(&cfg.Indicator.Backend, i.Backend)
		setTrimmed(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
		set(&cfg.Indicator.TextListening, i.TextListening)
		set(&cfg.Indicator.TextThinking, i.TextThinking)
		set(&cfg.Indicator.TextSpeaking, i.TextSpeaking)
		set(&cfg.Indicator.TextError, i.TextError)
		set(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if o := p.Output; o != nil {
		if o.ClipboardCmd != nil {
			argv, err := ParseCommand(*o.ClipboardCmd)
			if err != nil {
				return fmt.Errorf("invalid output.clipboard_cmd: %w", err)
			}
			cfg.Output.Clipboard = CommandConfig{Raw: *o.ClipboardCmd, Argv: argv}
		}
		if o.PasteCmd != nil {
			argv, err := ParseCommand(*o.PasteCmd)
			if err != nil {
				return fmt.Errorf("invalid output.paste_cmd: %w", err)
			}
			cfg.Output.PasteCmd = CommandConfig{Raw: *o.PasteCmd, Argv: argv}
		}
		set(&cfg.Output.Paste.Enable, o.PasteEnable)
		setTrimmed(&cfg.Output.Paste.Shortcut, o.PasteShortcut)
	}

	if l := p.Log; l != nil {
		setTrimmed(&cfg.Log.Level, l.Level)
	}

	if d := p.Debug; d != nil {
		set(&cfg.Debug.EnableAudioDump, d.AudioDump)
		set(&cfg.Debug.EnableResponseDump, d.ResponseDump)
	}
	return nil
}
