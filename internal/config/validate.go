package config

import (
	"fmt"
	"strings"

	"github.com/rbright/assist/internal/logging"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	var warnings []Warning

	if err := oneOf("recognition.provider", cfg.Recognition.Provider, ProviderAzure, ProviderGoogle); err != nil {
		return nil, err
	}
	if err := oneOf("recognition.profanity", cfg.Recognition.Profanity, "raw", "masked", "removed"); err != nil {
		return nil, err
	}
	if cfg.Recognition.MaxUtteranceMS <= 0 {
		return nil, fmt.Errorf("recognition.max_utterance_ms must be > 0")
	}
	if cfg.Recognition.Provider == ProviderGoogle && cfg.Recognition.GoogleCredentialsFile == "" {
		warnings = append(warnings, Warning{Message: "recognition.google_credentials_file is empty; falling back to application default credentials"})
	}

	if err := oneOf("synthesis.provider", cfg.Synthesis.Provider, ProviderAzure, ProviderOpenAI); err != nil {
		return nil, err
	}
	if cfg.Synthesis.Provider == ProviderOpenAI {
		if cfg.Synthesis.OpenAIModel == "" {
			return nil, fmt.Errorf("synthesis.openai_model must not be empty when synthesis.provider=openai")
		}
		if cfg.Synthesis.OpenAIVoice == "" {
			return nil, fmt.Errorf("synthesis.openai_voice must not be empty when synthesis.provider=openai")
		}
	}

	if err := oneOf("chat.provider", cfg.Chat.Provider, ProviderAzure, ProviderOpenAI); err != nil {
		return nil, err
	}
	if cfg.Chat.Provider == ProviderAzure && cfg.Chat.APIVersion == "" {
		return nil, fmt.Errorf("chat.api_version must not be empty when chat.provider=azure")
	}
	if cfg.Chat.RequestTimeoutMS < 0 {
		return nil, fmt.Errorf("chat.request_timeout_ms must be >= 0")
	}
	if cfg.Chat.MaxHistoryTurns < 0 {
		return nil, fmt.Errorf("chat.max_history_turns must be >= 0")
	}

	if err := oneOf("settings.backend", cfg.Settings.Backend, "sqlite", "redis"); err != nil {
		return nil, err
	}
	if cfg.Settings.Backend == "redis" && cfg.Settings.RedisAddr == "" {
		return nil, fmt.Errorf("settings.redis_addr must not be empty when settings.backend=redis")
	}
	if cfg.Settings.RedisDB < 0 {
		return nil, fmt.Errorf("settings.redis_db must be >= 0")
	}

	backend := strings.ToLower(cfg.Indicator.Backend)
	if err := oneOf("indicator.backend", backend, "hypr", "desktop"); err != nil {
		return nil, err
	}
	if backend == "desktop" && cfg.Indicator.DesktopAppName == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if len(cfg.Output.Clipboard.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "output.clipboard_cmd is empty; `assist copy` is disabled"})
	}
	if cfg.Output.Paste.Enable && len(cfg.Output.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Output.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("output.paste_shortcut must not be empty when output.paste_enable=true and output.paste_cmd is unset")
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	return warnings, nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}
