package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3/option"

	"github.com/rbright/assist/internal/chat"
	"github.com/rbright/assist/internal/config"
	"github.com/rbright/assist/internal/settings"
	"github.com/rbright/assist/internal/speech"
	"github.com/rbright/assist/internal/version"
	"github.com/rbright/assist/internal/voice"
)

// recognitionFactory returns the engine constructor for the configured
// provider. Credentials come from the settings snapshot taken at startup.
func recognitionFactory(cfg config.RecognitionConfig, values settings.Values, debug *debugArtifacts, responseDump bool, logger *slog.Logger) (speech.RecognitionFactory, error) {
	dump := func() io.Writer {
		if !responseDump {
			return nil
		}
		w, err := debug.responseSink()
		if err != nil {
			logger.Warn("unable to open debug response dump", "error", err.Error())
			return nil
		}
		return w
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderAzure, "":
		return func(_ context.Context, lv voice.LanguageVoice) (speech.RecognitionEngine, error) {
			logger.Debug("building azure recognition engine", "locale", lv.Locale)
			return &speech.AzureRecognizer{
				Key:    values.String(settings.SpeechSubscriptionKey),
				Region: values.String(settings.SpeechServiceRegion),
				Dump:   dump(),
			}, nil
		}, nil
	case config.ProviderGoogle:
		return func(ctx context.Context, lv voice.LanguageVoice) (speech.RecognitionEngine, error) {
			logger.Debug("building google recognition engine", "locale", lv.Locale)
			engine, err := speech.NewGoogleRecognizer(ctx, speech.GoogleOptions{
				CredentialsFile: cfg.GoogleCredentialsFile,
				Model:           cfg.Model,
				Dump:            dump(),
			})
			if err != nil {
				return nil, err
			}
			return engine, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported recognition provider %q", cfg.Provider)
	}
}

// synthesisFactory returns the engine constructor for the configured provider.
func synthesisFactory(cfg config.Config, values settings.Values, logger *slog.Logger) (speech.SynthesisFactory, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Synthesis.Provider)) {
	case config.ProviderAzure, "":
		return func(_ context.Context, lv voice.LanguageVoice) (speech.SynthesisEngine, error) {
			logger.Debug("building azure synthesis engine", "locale", lv.Locale, "voice", lv.Voice)
			return &speech.AzureSynthesizer{
				Key:    values.String(settings.SpeechSubscriptionKey),
				Region: values.String(settings.SpeechServiceRegion),
			}, nil
		}, nil
	case config.ProviderOpenAI:
		opts := []option.RequestOption{
			option.WithAPIKey(values.String(settings.OpenAIServiceKey)),
			option.WithHeader("User-Agent", version.UserAgent()),
		}
		if cfg.Chat.Provider == config.ProviderOpenAI {
			if endpoint := strings.TrimSpace(values.String(settings.OpenAIServiceEndpoint)); endpoint != "" {
				opts = append(opts, option.WithBaseURL(endpoint))
			}
		}
		return func(_ context.Context, lv voice.LanguageVoice) (speech.SynthesisEngine, error) {
			logger.Debug("building openai synthesis engine", "locale", lv.Locale, "voice", cfg.Synthesis.OpenAIVoice)
			return speech.NewOpenAISynthesizer(cfg.Synthesis.OpenAIModel, cfg.Synthesis.OpenAIVoice, opts...), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported synthesis provider %q", cfg.Synthesis.Provider)
	}
}

func chatConfig(cfg config.ChatConfig, values settings.Values) chat.Config {
	return chat.Config{
		Provider:   cfg.Provider,
		Endpoint:   values.String(settings.OpenAIServiceEndpoint),
		APIKey:     values.String(settings.OpenAIServiceKey),
		APIVersion: cfg.APIVersion,
		Deployment: values.String(settings.LLMDeploymentName),
		MaxTokens:  values.Int(settings.LLMMaxTokens),
		Timeout:    milliseconds(cfg.RequestTimeoutMS),
	}
}

func captureOptions(cfg config.RecognitionConfig, values settings.Values) speech.CaptureOptions {
	return speech.CaptureOptions{
		InitialSilence: milliseconds(values.Int(settings.InitialSilenceTimeoutMS)),
		EndSilence:     milliseconds(values.Int(settings.EndSilenceTimeoutMS)),
		MaxUtterance:   milliseconds(cfg.MaxUtteranceMS),
	}
}

func milliseconds(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
