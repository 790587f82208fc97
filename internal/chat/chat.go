// Package chat adapts chat-completion services to the assistant dialogue.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"

	"github.com/rbright/assist/internal/logging"
	"github.com/rbright/assist/internal/version"
)

// Role tags a dialogue message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged dialogue entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrRequestFailed marks every failure reported by Complete.
var ErrRequestFailed = errors.New("chat request failed")

// RequestError carries the service status for a failed completion.
type RequestError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("chat request failed (status=%d): %s", e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("chat request failed (status=%d)", e.StatusCode)
	case e.Err != nil:
		return "chat request failed: " + e.Err.Error()
	default:
		return ErrRequestFailed.Error()
	}
}

func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

func (e *RequestError) Unwrap() error { return e.Err }

// Provider names.
const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

// Config describes the chat service. Deployment is the Azure deployment
// name or the OpenAI model id.
type Config struct {
	Provider   string
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
	MaxTokens  int
	Timeout    time.Duration
}

func (c Config) validate() error {
	switch c.Provider {
	case ProviderAzure, "":
		if strings.TrimSpace(c.Endpoint) == "" {
			return errors.New("chat endpoint is empty")
		}
		if strings.TrimSpace(c.APIVersion) == "" {
			return errors.New("chat api version is empty")
		}
	case ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported chat provider %q", c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("chat api key is empty")
	}
	if strings.TrimSpace(c.Deployment) == "" {
		return errors.New("chat deployment is empty")
	}
	return nil
}

// Client completes dialogues. The underlying SDK client is built on first
// use and rebuilt whenever Configure changes the service description.
type Client struct {
	mu         sync.Mutex
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	sdk   *openai.Client
	built Config
}

// New returns a client for cfg. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Configure replaces the service description used by the next Complete.
func (c *Client) Configure(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Complete sends messages in order and returns the first choice's text.
// An empty string means the service returned no choices or no content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sdk, err := c.ensureClient()
	if err != nil {
		return "", &RequestError{Err: err}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.Deployment),
		Messages: buildMessages(messages),
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}

	started := time.Now()
	resp, err := sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", &RequestError{Err: err}
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.logger.Warn("chat completion rejected", "status", apiErr.StatusCode, "code", apiErr.Code)
			return "", &RequestError{StatusCode: apiErr.StatusCode, Message: strings.TrimSpace(apiErr.Message), Err: err}
		}
		c.logger.Warn("chat completion failed", "error", err.Error())
		return "", &RequestError{Err: err}
	}

	c.logger.Debug("chat completion finished",
		"messages", len(messages),
		"choices", len(resp.Choices),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) ensureClient() (*openai.Client, error) {
	if c.sdk != nil && c.built == c.cfg {
		return c.sdk, nil
	}
	if err := c.cfg.validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithHeader("User-Agent", version.UserAgent()),
	}
	if c.cfg.Provider == ProviderOpenAI {
		if endpoint := strings.TrimRight(strings.TrimSpace(c.cfg.Endpoint), "/"); endpoint != "" {
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		opts = append(opts, option.WithAPIKey(c.cfg.APIKey))
	} else {
		opts = append(opts,
			azure.WithEndpoint(strings.TrimSpace(c.cfg.Endpoint), c.cfg.APIVersion),
			azure.WithAPIKey(c.cfg.APIKey),
		)
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	if c.cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.cfg.Timeout))
	}

	client := openai.NewClient(opts...)
	c.sdk = &client
	c.built = c.cfg
	c.logger.Debug("chat client initialized", "provider", c.cfg.Provider, "deployment", c.cfg.Deployment)
	return c.sdk, nil
}

// Close drops the SDK client; the next Complete rebuilds it.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sdk = nil
	c.built = Config{}
	return nil
}

func buildMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
