package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rbright/assist/internal/version"
)

const azureOutputFormat = "raw-16khz-16bit-mono-pcm"

// AzureSynthesizer calls the Azure text-to-speech REST endpoint with SSML.
type AzureSynthesizer struct {
	Key      string
	Region   string
	Endpoint string // overrides the region-derived base URL
	Client   *http.Client
}

func (a *AzureSynthesizer) baseURL() string {
	if a.Endpoint != "" {
		return strings.TrimRight(a.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com", a.Region)
}

// Synthesize returns 16 kHz mono PCM.
func (a *AzureSynthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (Audio, error) {
	body := BuildSSML(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL()+"/cognitiveservices/v1", strings.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("build synthesis request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", a.Key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	httpReq.Header.Set("User-Agent", version.UserAgent())

	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Audio{}, ctx.Err()
		}
		return Audio{}, &CanceledError{Cancellation: errorCancellation(CodeConnectionFailure, err.Error())}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Audio{}, &CanceledError{Cancellation: errorCancellation(codeForHTTPStatus(resp.StatusCode), httpDetails(resp.Status, payload))}
	}

	var pcm bytes.Buffer
	if _, err := io.Copy(&pcm, resp.Body); err != nil {
		return Audio{}, &CanceledError{Cancellation: errorCancellation(CodeConnectionFailure, err.Error())}
	}
	return Audio{PCM: pcm.Bytes(), SampleRate: 16000}, nil
}
