package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aikona/internal/observability"
	"aikona/internal/pkg/retry"
)

var (
	ErrRateLimited     = errors.New("Rate limit exceeded. Please wait a moment before trying again.")
	ErrMessageTooLong  = errors.New("Message too long. Please try a shorter message.")
	ErrRequestFormat   = errors.New("API request format error. Please try again.")
	ErrUnavailable     = errors.New("AI service temporarily unavailable. Please try again in a moment.")
	ErrInvalidResponse = errors.New("Invalid response format from AI service")
)

const (
	defaultMaxAttempts = 3
	defaultTimeout     = 90 * time.Second
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxAttempts int
	// BackoffUnit is the base delay: transient statuses wait attempt*2 units,
	// transport failures attempt*1 unit.
	BackoffUnit time.Duration
}

// StatusError is a non-2xx answer from the completion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
	cause      error
}

func (e *StatusError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return fmt.Sprintf("completion API responded with status: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.cause }

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}

type OpenAICompatibleClient struct {
	cfg        ChatConfig
	httpClient *http.Client
}

func NewOpenAICompatibleClient(cfg ChatConfig) *OpenAICompatibleClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	return &OpenAICompatibleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends messages to <base_url>/chat/completions and returns the
// first choice. 429 and 500/502/503 answers and transport failures are retried.
func (c *OpenAICompatibleClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	var content string
	err := retry.Do(ctx, retry.Policy{
		Attempts:  c.cfg.MaxAttempts,
		Backoff:   c.backoff,
		Retryable: func(err error) bool {
			return ctx.Err() == nil && retryable(err)
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			slog.WarnContext(ctx, "completion attempt failed, retrying",
				"attempt", attempt, "delay", delay, "error", err)
		},
	}, func(ctx context.Context, _ int) error {
		text, err := c.completeOnce(ctx, messages)
		observability.CompletionAttempts.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			return err
		}
		content = text
		return nil
	})
	if err != nil {
		return "", exhausted(err)
	}
	return content, nil
}

func (c *OpenAICompatibleClient) completeOnce(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": c.cfg.Temperature,
		"stream":      false,
	}
	if c.cfg.MaxTokens > 0 {
		reqBody["max_tokens"] = c.cfg.MaxTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp.StatusCode, raw)
	}

	var parsed struct {
		Choices []struct {
			Message *struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return "", ErrInvalidResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAICompatibleClient) backoff(attempt int, err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		return time.Duration(attempt*2) * c.cfg.BackoffUnit
	}
	return time.Duration(attempt) * c.cfg.BackoffUnit
}

func statusError(code int, body []byte) *StatusError {
	se := &StatusError{StatusCode: code, Body: string(body)}
	switch code {
	case http.StatusRequestEntityTooLarge:
		se.cause = ErrMessageTooLong
	case 420:
		se.cause = ErrRequestFormat
	}
	return se
}

func retryable(err error) bool {
	if errors.Is(err, ErrInvalidResponse) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return true
}

// exhausted turns a final transient status into its user-facing error.
func exhausted(err error) error {
	var se *StatusError
	if !errors.As(err, &se) || se.cause != nil {
		return err
	}
	switch se.StatusCode {
	case http.StatusTooManyRequests:
		se.cause = ErrRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		se.cause = ErrUnavailable
	}
	return se
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var se *StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("status_%d", se.StatusCode)
	}
	if errors.Is(err, ErrInvalidResponse) {
		return "invalid_response"
	}
	return "transport_error"
}
