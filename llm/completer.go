// Package llm provides the completion interface the workflow engine consumes
// and an OpenAI-compatible HTTP client implementation.
package llm

import (
	"context"
	"time"

	"github.com/cozelabs/agentgraph/types"
)

// CompletionRequest describes one completion call made by a node handler.
type CompletionRequest struct {
	SystemPrompt string          `json:"system_prompt,omitempty"`
	Messages     []types.Message `json:"messages"`
	Temperature  float64         `json:"temperature,omitempty"`
	MaxTokens    int             `json:"max_tokens,omitempty"`
	Timeout      time.Duration   `json:"-"`
}

// Completer is the LLM completion service consumed by planner, llm_call, and
// synthesizer handlers. Implementations must be safe for concurrent use from
// multiple workflow runs. Failures carry an LLM error code
// (timeout, rate_limited, invalid_request) via types.Error.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
