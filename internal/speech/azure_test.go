package speech

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/assist/internal/persona"
)

func TestAzureRecognizerSuccess(t *testing.T) {
	var gotQuery, gotKey, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/speech/recognition/conversation/cognitiveservices/v1", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"What's the weather?","Offset":100,"Duration":900}`))
	}))
	defer server.Close()

	var dump bytes.Buffer
	rec := &AzureRecognizer{Key: "k1", Endpoint: server.URL, Dump: &dump}
	result, err := rec.Recognize(context.Background(), speechUtterance(), RecognitionConfig{Locale: "en-US", Profanity: "raw"})
	require.NoError(t, err)
	require.Equal(t, Recognized, result.Kind)
	require.Equal(t, "What's the weather?", result.Text)

	require.Contains(t, gotQuery, "language=en-US")
	require.Contains(t, gotQuery, "profanity=raw")
	require.Contains(t, gotQuery, "format=simple")
	require.Equal(t, "k1", gotKey)
	require.Equal(t, "audio/wav; codecs=audio/pcm; samplerate=16000", gotType)
	require.Equal(t, "RIFF", string(gotBody[:4]))
	require.Len(t, gotBody, 44+4)
	require.Contains(t, dump.String(), "RecognitionStatus")
}

func TestAzureRecognizerStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ResultKind
		wantCode string
	}{
		{name: "no match", status: 200, body: `{"RecognitionStatus":"NoMatch"}`, wantKind: NoMatch},
		{name: "initial silence", status: 200, body: `{"RecognitionStatus":"InitialSilenceTimeout"}`, wantKind: NoMatch},
		{name: "babble", status: 200, body: `{"RecognitionStatus":"BabbleTimeout"}`, wantKind: NoMatch},
		{name: "service error status", status: 200, body: `{"RecognitionStatus":"Error"}`, wantKind: Canceled, wantCode: CodeServiceError},
		{name: "unauthorized", status: 401, body: `{"error":"denied"}`, wantKind: Canceled, wantCode: CodeAuthenticationFailure},
		{name: "throttled", status: 429, body: ``, wantKind: Canceled, wantCode: CodeTooManyRequests},
		{name: "bad request", status: 400, body: `bad`, wantKind: Canceled, wantCode: CodeBadRequest},
		{name: "malformed json", status: 200, body: `{`, wantKind: Canceled, wantCode: CodeServiceError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			rec := &AzureRecognizer{Key: "k", Endpoint: server.URL}
			result, err := rec.Recognize(context.Background(), speechUtterance(), RecognitionConfig{Locale: "en-US", Profanity: "raw"})
			require.NoError(t, err)
			require.Equal(t, tc.wantKind, result.Kind)
			if tc.wantCode != "" {
				require.Equal(t, ReasonError, result.Cancellation.Reason)
				require.Equal(t, tc.wantCode, result.Cancellation.ErrorCode)
				require.NotEmpty(t, result.Cancellation.ErrorDetails)
			}
		})
	}
}

func TestAzureRecognizerConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rec := &AzureRecognizer{Key: "k", Endpoint: url}
	result, err := rec.Recognize(context.Background(), speechUtterance(), RecognitionConfig{Locale: "en-US"})
	require.NoError(t, err)
	require.Equal(t, Canceled, result.Kind)
	require.Equal(t, CodeConnectionFailure, result.Cancellation.ErrorCode)
}

func TestAzureRecognizerRegionURL(t *testing.T) {
	require.Equal(t, "https://westeurope.stt.speech.microsoft.com", (&AzureRecognizer{Region: "westeurope"}).baseURL())
	require.Equal(t, "https://westeurope.tts.speech.microsoft.com", (&AzureSynthesizer{Region: "westeurope"}).baseURL())
}

func TestAzureSynthesizerPostsSSML(t *testing.T) {
	var gotBody []byte
	var gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cognitiveservices/v1", r.URL.Path)
		require.Equal(t, "application/ssml+xml", r.Header.Get("Content-Type"))
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte{9, 8, 7, 6})
	}))
	defer server.Close()

	synth := &AzureSynthesizer{Key: "k", Endpoint: server.URL}
	out, err := synth.Synthesize(context.Background(), SynthesisRequest{
		Text: "1 < 2", Locale: "de-DE", Voice: "de-DE-KatjaNeural", Style: persona.StyleUnfriendly,
	})
	require.NoError(t, err)
	require.Equal(t, []byte{9, 8, 7, 6}, out.PCM)
	require.Equal(t, 16000, out.SampleRate)
	require.Equal(t, "raw-16khz-16bit-mono-pcm", gotFormat)
	require.Contains(t, string(gotBody), `style="Unfriendly"`)
	require.Contains(t, string(gotBody), "1 &lt; 2")
}

func TestAzureSynthesizerHTTPErrorIsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := (&AzureSynthesizer{Key: "k", Endpoint: server.URL}).Synthesize(context.Background(), SynthesisRequest{Text: "x"})
	var canceled *CanceledError
	require.ErrorAs(t, err, &canceled)
	require.Equal(t, CodeTooManyRequests, canceled.Cancellation.ErrorCode)
	require.Contains(t, canceled.Error(), "CANCELED: Reason = Error")
}
