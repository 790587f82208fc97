package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rbright/assist/internal/audio"
	"github.com/rbright/assist/internal/version"
)

// AzureRecognizer calls the Azure short-audio recognition REST endpoint.
type AzureRecognizer struct {
	Key      string
	Region   string
	Endpoint string // overrides the region-derived base URL
	Client   *http.Client
	// Dump receives each raw response body followed by a newline.
	Dump io.Writer
}

type azureRecognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

func (a *AzureRecognizer) baseURL() string {
	if a.Endpoint != "" {
		return strings.TrimRight(a.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.stt.speech.microsoft.com", a.Region)
}

func (a *AzureRecognizer) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// Recognize posts the utterance as WAV and maps the service status.
func (a *AzureRecognizer) Recognize(ctx context.Context, utt Utterance, cfg RecognitionConfig) (RecognitionResult, error) {
	var body bytes.Buffer
	if err := audio.EncodeWAV(&body, utt.PCM, utt.SampleRate); err != nil {
		return RecognitionResult{}, fmt.Errorf("encode wav: %w", err)
	}

	query := url.Values{}
	query.Set("language", cfg.Locale)
	query.Set("format", "simple")
	query.Set("profanity", cfg.Profanity)
	endpoint := a.baseURL() + "/speech/recognition/conversation/cognitiveservices/v1?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return RecognitionResult{}, fmt.Errorf("build recognition request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.Key)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", utt.SampleRate))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := a.httpClient().Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return RecognitionResult{}, ctx.Err()
		}
		return CanceledRecognition(errorCancellation(CodeConnectionFailure, err.Error())), nil
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CanceledRecognition(errorCancellation(CodeConnectionFailure, err.Error())), nil
	}
	if a.Dump != nil {
		_, _ = a.Dump.Write(append(bytes.TrimSpace(payload), '\n'))
	}

	if resp.StatusCode != http.StatusOK {
		return CanceledRecognition(errorCancellation(codeForHTTPStatus(resp.StatusCode), httpDetails(resp.Status, payload))), nil
	}

	var decoded azureRecognitionResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return CanceledRecognition(errorCancellation(CodeServiceError, "malformed recognition response: "+err.Error())), nil
	}

	switch decoded.RecognitionStatus {
	case "Success":
		if strings.TrimSpace(decoded.DisplayText) == "" {
			return NoMatchResult(), nil
		}
		return RecognizedText(decoded.DisplayText), nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return NoMatchResult(), nil
	case "EndOfDictation":
		return CanceledRecognition(Cancellation{Reason: ReasonEndOfStream}), nil
	default:
		return CanceledRecognition(errorCancellation(CodeServiceError, "recognition status "+decoded.RecognitionStatus)), nil
	}
}

const maxDetailBytes = 512

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func httpDetails(status string, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	text = truncateUTF8(text, maxDetailBytes)
	return status + ": " + text
}
