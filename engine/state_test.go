package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/types"
)

func TestNewStateSeedsQueryAndHistory(t *testing.T) {
	history := []types.Message{types.NewUserMessage("hi"), types.NewAssistantMessage("hello")}
	st := NewState("Beijing weather today", history)

	assert.Equal(t, "Beijing weather today", st.GetString(KeyUserQuery))
	assert.Len(t, st.History(), 2)
	assert.Empty(t, st.Contexts())
	assert.Zero(t, st.StepCount)
}

func TestApplyLastWriteWins(t *testing.T) {
	st := NewState("q", nil)
	st.Apply(map[string]any{KeyPlan: "v1"})
	st.Apply(map[string]any{KeyPlan: "v2"})
	assert.Equal(t, "v2", st.GetString(KeyPlan))
}

func TestApplyAppendsRetrievedContexts(t *testing.T) {
	st := NewState("q", nil)
	st.Apply(map[string]any{KeyRetrievedContexts: []retrieval.Result{{Text: "a"}}})
	st.Apply(map[string]any{KeyRetrievedContexts: []retrieval.Result{{Text: "b"}, {Text: "c"}}})

	contexts := st.Contexts()
	require.Len(t, contexts, 3)
	assert.Equal(t, "a", contexts[0].Text)
	assert.Equal(t, "c", contexts[2].Text)
}

func TestLookupImplementsTemplateSource(t *testing.T) {
	st := NewState("q", nil)
	st.Apply(map[string]any{"city": "Beijing"})

	v, ok := st.Lookup("city")
	require.True(t, ok)
	assert.Equal(t, "Beijing", v)

	_, ok = st.Lookup("missing")
	assert.False(t, ok)
}

func TestSnapshotIsACopy(t *testing.T) {
	st := NewState("q", nil)
	snap := st.Snapshot()
	snap["city"] = "Beijing"
	_, ok := st.Lookup("city")
	assert.False(t, ok)
}

func TestNewStateFromValues(t *testing.T) {
	st := NewStateFromValues(map[string]any{
		KeyUserQuery: "q",
		"budget":     float64(12),
	})
	assert.Equal(t, "q", st.GetString(KeyUserQuery))
	assert.Equal(t, float64(12), st.Get("budget"))
}
