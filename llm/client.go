package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cozelabs/agentgraph/types"
)

// ClientConfig configures the HTTP completion client.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Model   string        `yaml:"model" json:"model"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// RequestsPerSecond caps the client-side call rate across all runs.
	// Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	// HistoryTokenLimit trims conversation history before sending.
	// Zero disables trimming.
	HistoryTokenLimit int `yaml:"history_token_limit" json:"history_token_limit"`
}

// Client is an OpenAI-compatible chat completion client.
// It is safe for concurrent use from multiple workflow runs.
type Client struct {
	config  ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	trimmer *historyTrimmer
	logger  *zap.Logger
}

// NewClient creates a completion client.
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	var trimmer *historyTrimmer
	if config.HistoryTokenLimit > 0 {
		trimmer = newHistoryTrimmer(config.HistoryTokenLimit, logger)
	}
	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		limiter: limiter,
		trimmer: trimmer,
		logger:  logger.With(zap.String("component", "llm_client")),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete implements Completer against an OpenAI-compatible endpoint.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", types.NewError(types.ErrLLMTimeout, "rate limit wait cancelled").WithCause(err)
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := req.Messages
	if c.trimmer != nil {
		messages = c.trimmer.trim(messages)
	}

	body := chatRequest{
		Model:       c.config.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: string(types.RoleSystem), Content: req.SystemPrompt})
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", types.NewError(types.ErrLLMInvalidRequest, "failed to encode request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", types.NewError(types.ErrLLMInvalidRequest, "failed to build request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", types.NewError(types.ErrLLMTimeout, "completion request timed out").WithRetryable(true).WithCause(err)
		}
		return "", types.NewError(types.ErrLLMTimeout, "completion request failed").WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewError(types.ErrLLMInvalidRequest, "failed to read response").WithCause(err)
	}

	c.logger.Debug("completion call finished",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return "", mapStatusError(resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", types.NewError(types.ErrLLMInvalidRequest, "unexpected response structure").WithCause(err)
	}
	if parsed.Error != nil {
		return "", types.NewError(types.ErrLLMInvalidRequest, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", types.NewError(types.ErrLLMInvalidRequest, "empty choices in response")
	}

	return parsed.Choices[0].Message.Content, nil
}

func mapStatusError(status int, body []byte) error {
	msg := fmt.Sprintf("completion endpoint returned %d", status)
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrLLMRateLimited, msg).WithRetryable(true)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrLLMTimeout, msg).WithRetryable(true)
	case status >= 500:
		return types.NewError(types.ErrLLMTimeout, msg).WithRetryable(true).WithCause(errors.New(string(body)))
	default:
		return types.NewError(types.ErrLLMInvalidRequest, msg).WithCause(errors.New(string(body)))
	}
}
