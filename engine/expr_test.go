package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/types"
)

func exprState(t *testing.T, values map[string]any) *State {
	t.Helper()
	st := NewState("", nil)
	st.Apply(values)
	return st
}

func TestEvalBoolComparisons(t *testing.T) {
	st := exprState(t, map[string]any{
		"tool_result": map[string]any{"temp": 20},
		"city":        "Beijing",
		"count":       float64(3),
		"flag":        true,
	})

	cases := []struct {
		expr string
		want bool
	}{
		{`state["tool_result"] != null`, true},
		{`state["missing"] != null`, false},
		{`state["missing"] == null`, true},
		{`state["city"] == "Beijing"`, true},
		{`state["city"] != "Shanghai"`, true},
		{`state.count == 3`, true},
		{`count == 4`, false},
		{`state["flag"] == true`, true},
		{`state["city"] contains "jing"`, true},
		{`city`, true},
		{`missing`, false},
		{`!missing`, true},
	}
	for _, tc := range cases {
		got, err := EvalBool(tc.expr, st)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvalBoolEmptyCollectionsAreFalse(t *testing.T) {
	st := NewState("", nil)

	got, err := EvalBool("retrieved_contexts", st)
	require.NoError(t, err)
	assert.False(t, got)

	st.Apply(map[string]any{KeyRetrievedContexts: []retrieval.Result{{Text: "doc"}}})
	got, err = EvalBool("retrieved_contexts", st)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalBoolRejectsMalformedExpressions(t *testing.T) {
	st := NewState("", nil)
	for _, expr := range []string{
		"",
		`state[city] == "x"`,
		`state["city"] == `,
		`"literal only"`,
		`a == b == c`,
	} {
		_, err := EvalBool(expr, st)
		require.Error(t, err, expr)
		assert.Equal(t, types.ErrRouting, types.GetErrorCode(err), expr)
	}
}

func TestEvalValueBareReference(t *testing.T) {
	st := exprState(t, map[string]any{"route": "needs_tool"})

	v, err := EvalValue(`state["route"]`, st)
	require.NoError(t, err)
	assert.Equal(t, "needs_tool", v)

	v, err = EvalValue(`state["route"] == "needs_tool"`, st)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestSplitOperatorIgnoresQuotedText(t *testing.T) {
	left, right, ok := splitOperator(`state["a=="] == "x == y"`, "==")
	require.True(t, ok)
	assert.Equal(t, `state["a=="]`, left)
	assert.Equal(t, `"x == y"`, right)
}
