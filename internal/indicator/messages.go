package indicator

import (
	"strings"

	"github.com/rbright/assist/internal/config"
)

type messages struct {
	listening string
	thinking  string
	speaking  string
	errorText string
}

func messagesFrom(cfg config.IndicatorConfig) messages {
	return messages{
		listening: textOr(cfg.TextListening, "Listening..."),
		thinking:  textOr(cfg.TextThinking, "Thinking..."),
		speaking:  textOr(cfg.TextSpeaking, "Speaking..."),
		errorText: textOr(cfg.TextError, "Assistant error"),
	}
}

func textOr(value string, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
