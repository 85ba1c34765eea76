package engine

import (
	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/types"
)

// Well-known execution state keys.
const (
	KeyUserQuery           = "user_query"
	KeyConversationHistory = "conversation_history"
	KeyPlan                = "plan"
	KeyRetrievedContexts   = "retrieved_contexts"
	KeyToolResult          = "tool_result"
	KeyLLMResponse         = "llm_response"
	KeyFinalAnswer         = "final_answer"
)

// State is the single mutable key-value bag threaded through one run.
// It is created fresh per chat turn, mutated only through Apply, and
// discarded when the run ends. It is NOT safe for concurrent use; the driver
// is its only writer.
type State struct {
	values map[string]any

	// StepCount counts node executions against the global step budget.
	StepCount int
	// LoopCounters tracks per-loop-node iteration counts.
	LoopCounters map[string]int
	// Visited counts executions per node id.
	Visited map[string]int
}

// NewState creates a run state from the incoming user query and prior
// conversation.
func NewState(userQuery string, history []types.Message) *State {
	s := &State{
		values:       make(map[string]any),
		LoopCounters: make(map[string]int),
		Visited:      make(map[string]int),
	}
	s.values[KeyUserQuery] = userQuery
	s.values[KeyConversationHistory] = history
	s.values[KeyRetrievedContexts] = []retrieval.Result(nil)
	return s
}

// NewStateFromValues creates a run state seeded with arbitrary initial
// values. Used by the batch entrypoint.
func NewStateFromValues(values map[string]any) *State {
	query, _ := values[KeyUserQuery].(string)
	history, _ := values[KeyConversationHistory].([]types.Message)
	s := NewState(query, history)
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Lookup implements template.Lookup.
func (s *State) Lookup(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Get returns a state value, or nil when absent.
func (s *State) Get(key string) any {
	return s.values[key]
}

// GetString returns a state value as a string, or "" when absent or not a
// string.
func (s *State) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// History returns the conversation history.
func (s *State) History() []types.Message {
	h, _ := s.values[KeyConversationHistory].([]types.Message)
	return h
}

// Contexts returns the retrieved document fragments accumulated so far.
func (s *State) Contexts() []retrieval.Result {
	c, _ := s.values[KeyRetrievedContexts].([]retrieval.Result)
	return c
}

// Apply merges a handler delta into the state. retrieved_contexts is
// append-only; every other key is last-write-wins.
func (s *State) Apply(delta map[string]any) {
	for key, value := range delta {
		if key == KeyRetrievedContexts {
			if update, ok := value.([]retrieval.Result); ok {
				s.values[key] = append(s.Contexts(), update...)
				continue
			}
		}
		s.values[key] = value
	}
}

// Snapshot returns a shallow copy of the state values, used by the batch
// entrypoint to expose the final state. The step count is included under
// the step_count key.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values)+1)
	for k, v := range s.values {
		out[k] = v
	}
	out["step_count"] = s.StepCount
	return out
}
