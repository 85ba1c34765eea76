// Package mocks provides configurable fakes for the external collaborators
// (LLM completion, retrieval, tool invocation) used across package tests.
package mocks

import (
	"context"
	"sync"

	"github.com/cozelabs/agentgraph/llm"
	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/types"
)

// MockCompleter is a configurable llm.Completer.
type MockCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	failAfter int
	calls     []llm.CompletionRequest
}

// NewMockCompleter creates a completer that answers "ok" by default.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{failAfter: -1}
}

// WithResponse queues responses returned in order; the last repeats.
func (m *MockCompleter) WithResponse(responses ...string) *MockCompleter {
	m.responses = responses
	return m
}

// WithError makes every call fail with err.
func (m *MockCompleter) WithError(err error) *MockCompleter {
	m.err = err
	return m
}

// WithFailAfter makes calls fail with err once n calls have succeeded.
func (m *MockCompleter) WithFailAfter(n int, err error) *MockCompleter {
	m.failAfter = n
	m.err = err
	return m
}

// Complete implements llm.Completer.
func (m *MockCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	call := len(m.calls)
	m.calls = append(m.calls, req)

	if m.err != nil && (m.failAfter < 0 || call >= m.failAfter) {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "ok", nil
	}
	if call < len(m.responses) {
		return m.responses[call], nil
	}
	return m.responses[len(m.responses)-1], nil
}

// Calls returns the recorded completion requests.
func (m *MockCompleter) Calls() []llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.CompletionRequest(nil), m.calls...)
}

// SearchResult builds a retrieval result for test fixtures.
func SearchResult(text string, score float64, source string) retrieval.Result {
	return retrieval.Result{Text: text, Score: score, Source: source}
}

// MockSearcher is a configurable retrieval.Searcher.
type MockSearcher struct {
	mu      sync.Mutex
	results []retrieval.Result
	err     error
	queries []string
}

// NewMockSearcher creates a searcher returning no results.
func NewMockSearcher() *MockSearcher {
	return &MockSearcher{}
}

// WithResults sets the results every search returns.
func (m *MockSearcher) WithResults(results ...retrieval.Result) *MockSearcher {
	m.results = results
	return m
}

// WithError makes every search fail with err.
func (m *MockSearcher) WithError(err error) *MockSearcher {
	m.err = err
	return m
}

// Search implements retrieval.Searcher.
func (m *MockSearcher) Search(ctx context.Context, query string, topK int, minScore float64) ([]retrieval.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	results := m.results
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	out := make([]retrieval.Result, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out, nil
}

// Queries returns the recorded search queries.
func (m *MockSearcher) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// ToolCall records one invocation seen by a MockInvoker.
type ToolCall struct {
	ToolID string
	Args   map[string]any
}

// MockInvoker is a configurable tools.Invoker.
type MockInvoker struct {
	mu        sync.Mutex
	results   map[string]any
	errs      map[string]error
	succeedOn int
	calls     []ToolCall
}

// NewMockInvoker creates an invoker that fails every tool with
// TOOL_NOT_FOUND until results are configured.
func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		results:   make(map[string]any),
		errs:      make(map[string]error),
		succeedOn: -1,
	}
}

// WithResult sets the result for one tool id.
func (m *MockInvoker) WithResult(toolID string, result any) *MockInvoker {
	m.results[toolID] = result
	return m
}

// WithToolError makes one tool id fail with err.
func (m *MockInvoker) WithToolError(toolID string, err error) *MockInvoker {
	m.errs[toolID] = err
	return m
}

// SucceedOnAttempt makes configured errors clear from the n-th call on
// (1-based), simulating a transient failure that a retry recovers.
func (m *MockInvoker) SucceedOnAttempt(n int) *MockInvoker {
	m.succeedOn = n
	return m
}

// Invoke implements tools.Invoker.
func (m *MockInvoker) Invoke(ctx context.Context, toolID string, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ToolCall{ToolID: toolID, Args: args})

	if err, ok := m.errs[toolID]; ok {
		if m.succeedOn < 0 || len(m.calls) < m.succeedOn {
			return nil, err
		}
	}
	if result, ok := m.results[toolID]; ok {
		return result, nil
	}
	return nil, types.NewError(types.ErrToolNotFound, "tool "+toolID+" is not registered")
}

// Calls returns the recorded tool invocations.
func (m *MockInvoker) Calls() []ToolCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ToolCall(nil), m.calls...)
}
