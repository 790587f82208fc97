package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path    string
	Query   string
	APIKey  string
	Auth    string
	Payload struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens"`
		Messages  []Message `json:"messages"`
	}
}

func completionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Path = r.URL.Path
			captured.Query = r.URL.RawQuery
			captured.APIKey = r.Header.Get("Api-Key")
			captured.Auth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Payload))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

const okBody = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Sunny and warm."}}],"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`

func sampleDialogue() []Message {
	return []Message{
		{Role: RoleSystem, Content: "You are an AI assistant that helps people find information."},
		{Role: RoleUser, Content: "Weather? Write your reply in en-US language."},
	}
}

func TestCompleteAzureDeployment(t *testing.T) {
	var captured capturedRequest
	server := completionServer(t, http.StatusOK, okBody, &captured)

	client := New(Config{
		Provider:   ProviderAzure,
		Endpoint:   server.URL,
		APIKey:     "azure-key",
		APIVersion: "2024-06-01",
		Deployment: "gpt-35",
		MaxTokens:  400,
	}, nil, nil)

	reply, err := client.Complete(context.Background(), sampleDialogue())
	require.NoError(t, err)
	require.Equal(t, "Sunny and warm.", reply)

	require.Equal(t, "/openai/deployments/gpt-35/chat/completions", captured.Path)
	require.Contains(t, captured.Query, "api-version=2024-06-01")
	require.Equal(t, "azure-key", captured.APIKey)
	require.Equal(t, "gpt-35", captured.Payload.Model)
	require.Equal(t, 400, captured.Payload.MaxTokens)
	require.Equal(t, sampleDialogue(), captured.Payload.Messages)
}

func TestCompleteOpenAIOmitsZeroMaxTokens(t *testing.T) {
	var captured capturedRequest
	server := completionServer(t, http.StatusOK, okBody, &captured)

	client := New(Config{Provider: ProviderOpenAI, Endpoint: server.URL + "/", APIKey: "sk", Deployment: "gpt-4o-mini"}, nil, nil)
	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}})
	require.NoError(t, err)

	require.Equal(t, "/chat/completions", captured.Path)
	require.Equal(t, "Bearer sk", captured.Auth)
	require.Zero(t, captured.Payload.MaxTokens)
	require.Equal(t, RoleAssistant, captured.Payload.Messages[1].Role)
}

func TestCompleteEmptyChoicesReturnsEmptyReply(t *testing.T) {
	server := completionServer(t, http.StatusOK, `{"id":"c","object":"chat.completion","created":1,"model":"gpt","choices":[]}`, nil)

	client := New(Config{Provider: ProviderOpenAI, Endpoint: server.URL, APIKey: "sk", Deployment: "gpt"}, nil, nil)
	reply, err := client.Complete(context.Background(), sampleDialogue())
	require.NoError(t, err)
	require.Empty(t, reply)
}

func TestCompleteAPIErrorIsRequestError(t *testing.T) {
	server := completionServer(t, http.StatusUnauthorized, `{"error":{"message":"Access denied due to invalid subscription key.","type":"invalid_request_error","code":"401"}}`, nil)

	client := New(Config{Provider: ProviderOpenAI, Endpoint: server.URL, APIKey: "bad", Deployment: "gpt"}, nil, nil)
	_, err := client.Complete(context.Background(), sampleDialogue())
	require.ErrorIs(t, err, ErrRequestFailed)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	require.Equal(t, "Access denied due to invalid subscription key.", reqErr.Message)
	require.Contains(t, err.Error(), "status=401")
}

func TestCompleteInvalidConfigIsRequestError(t *testing.T) {
	client := New(Config{Provider: ProviderAzure, APIKey: "k", APIVersion: "2024-06-01", Deployment: "gpt"}, nil, nil)
	_, err := client.Complete(context.Background(), sampleDialogue())
	require.ErrorIs(t, err, ErrRequestFailed)
	require.Contains(t, err.Error(), "chat endpoint is empty")

	client = New(Config{Provider: "bard", Endpoint: "x", APIKey: "k", Deployment: "gpt"}, nil, nil)
	_, err = client.Complete(context.Background(), sampleDialogue())
	require.ErrorContains(t, err, `unsupported chat provider "bard"`)
}

func TestConfigureRebuildsClient(t *testing.T) {
	var firstHits, secondHits atomic.Int32
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		firstHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		secondHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer second.Close()

	cfg := Config{Provider: ProviderOpenAI, Endpoint: first.URL, APIKey: "sk", Deployment: "gpt"}
	client := New(cfg, nil, nil)
	_, err := client.Complete(context.Background(), sampleDialogue())
	require.NoError(t, err)

	cfg.Endpoint = second.URL
	client.Configure(cfg)
	_, err = client.Complete(context.Background(), sampleDialogue())
	require.NoError(t, err)

	require.EqualValues(t, 1, firstHits.Load())
	require.EqualValues(t, 1, secondHits.Load())
}

func TestRequestErrorWithoutStatus(t *testing.T) {
	err := &RequestError{Err: errors.New("dial tcp: refused")}
	require.Equal(t, "chat request failed: dial tcp: refused", err.Error())
	require.True(t, errors.Is(err, ErrRequestFailed))
}
