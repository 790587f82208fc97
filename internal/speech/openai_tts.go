package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/rbright/assist/internal/persona"
)

// OpenAISynthesizer renders speech through the audio/speech endpoint. The
// catalog voice is ignored in favour of the configured OpenAI voice; the
// locale is conveyed through the instructions.
type OpenAISynthesizer struct {
	client openai.Client
	model  string
	voice  string
}

// NewOpenAISynthesizer builds a synthesizer from request options such as
// option.WithAPIKey and option.WithBaseURL.
func NewOpenAISynthesizer(model, voiceName string, opts ...option.RequestOption) *OpenAISynthesizer {
	return &OpenAISynthesizer{
		client: openai.NewClient(opts...),
		model:  model,
		voice:  voiceName,
	}
}

// openAISampleRate is fixed by the pcm response format.
const openAISampleRate = 24000

func (o *OpenAISynthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (Audio, error) {
	params := openai.AudioSpeechNewParams{
		Input:          req.Text,
		Model:          o.model,
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	}
	if instructions := styleInstructions(req.Style, req.Locale); instructions != "" {
		params.Instructions = openai.String(instructions)
	}

	resp, err := o.client.Audio.Speech.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Audio{}, err
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Audio{}, &CanceledError{Cancellation: errorCancellation(codeForHTTPStatus(apiErr.StatusCode), apiErrorDetails(apiErr))}
		}
		return Audio{}, &CanceledError{Cancellation: errorCancellation(CodeConnectionFailure, err.Error())}
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, &CanceledError{Cancellation: errorCancellation(CodeConnectionFailure, err.Error())}
	}
	return Audio{PCM: pcm, SampleRate: openAISampleRate}, nil
}

func styleInstructions(style persona.Style, locale string) string {
	var tone string
	switch style {
	case persona.StyleHopeful:
		tone = "Speak in a hopeful tone."
	case persona.StyleExcited:
		tone = "Speak in an excited tone."
	case persona.StyleUnfriendly:
		tone = "Speak in an unfriendly tone."
	default:
		return ""
	}
	if locale == "" {
		return tone
	}
	return fmt.Sprintf("%s The text is in %s.", tone, locale)
}

// apiErrorDetails falls back to the HTTP status when the error body carried
// no message.
func apiErrorDetails(apiErr *openai.Error) string {
	return firstNonBlank(apiErr.Message, strings.TrimSpace(fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))))
}
