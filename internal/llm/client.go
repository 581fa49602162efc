// Package llm sends receipt text to an OpenAI-compatible chat-completion
// service and returns the raw model response. Interpretation of that
// response lives elsewhere; this package only handles transport.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// MaxInputChars bounds the document text sent in one request. Longer text
// is truncated with a warning, never rejected.
const MaxInputChars = 100000

var (
	ErrEmptyInput    = errors.New("empty input text")
	ErrEmptyResponse = errors.New("empty llm response")
	ErrCommunication = errors.New("llm communication failed")
)

type Config struct {
	Model   string
	BaseURL string // any OpenAI-compatible endpoint, e.g. a local ollama
	APIKey  string
	Timeout time.Duration // enforced by the HTTP client; no retry on expiry
}

type Client struct {
	api    *openai.Client
	model  string
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		api:    openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// Complete sends one user-role message composed of the prompt template and
// the document text inside a four-backtick fence, and returns the first
// choice's content. There is no automatic retry; retry policy belongs to
// the caller.
func (c *Client) Complete(ctx context.Context, text, promptTemplate string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	if n := utf8.RuneCountInString(text); n > MaxInputChars {
		c.logger.Warn("input text too long, truncating", "chars", n, "limit", MaxInputChars)
		text = string([]rune(text)[:MaxInputChars])
	}

	content := promptTemplate + "\n\n````\n" + text + "\n````\n"

	reqID := uuid.New().String()
	c.logger.Info("llm.complete.start",
		"request_id", reqID,
		"model", c.model,
		"context_chars", len(content),
	)

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	if err != nil {
		c.logger.Error("llm.complete.failed", "request_id", reqID, "error", err)
		return "", mapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyResponse)
	}
	out := resp.Choices[0].Message.Content
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: blank content", ErrEmptyResponse)
	}

	c.logger.Info("llm.complete.ok",
		"request_id", reqID,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_chars", len(out),
	)
	return out, nil
}

// mapAPIError folds the client library's error types into ErrCommunication,
// keeping the HTTP status where one exists.
func mapAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d: %s", ErrCommunication, reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrCommunication, apiErr.HTTPStatusCode, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrCommunication, err)
}
