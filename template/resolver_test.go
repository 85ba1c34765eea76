package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cozelabs/agentgraph/types"
)

func TestResolveSubstitutesKnownKeys(t *testing.T) {
	state := MapLookup{
		"user_query": "Beijing weather today",
		"plan":       "1. check weather",
	}
	resolver := NewResolver()

	out, err := resolver.Resolve("Question: {{user_query}}\nPlan: {{ plan }}", state)
	require.NoError(t, err)
	assert.Equal(t, "Question: Beijing weather today\nPlan: 1. check weather", out)
}

func TestResolveUnknownKeyLenient(t *testing.T) {
	resolver := NewResolver()
	out, err := resolver.Resolve("value={{missing}}", MapLookup{})
	require.NoError(t, err)
	assert.Equal(t, "value=", out)
}

func TestResolveUnknownKeyStrict(t *testing.T) {
	resolver := NewResolver(Strict(true))
	_, err := resolver.Resolve("value={{missing}}", MapLookup{})
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestResolveNoDoubleSubstitution(t *testing.T) {
	// A substituted value containing placeholder syntax must not be rescanned.
	state := MapLookup{
		"outer": "{{inner}}",
		"inner": "should never appear",
	}
	resolver := NewResolver()

	out, err := resolver.Resolve("{{outer}}", state)
	require.NoError(t, err)
	assert.Equal(t, "{{inner}}", out)
}

func TestResolveStringifiesCompositeValues(t *testing.T) {
	state := MapLookup{
		"tool_result": map[string]any{"temp": 20, "condition": "cloudy"},
		"count":       3,
	}
	resolver := NewResolver()

	out, err := resolver.Resolve("result={{tool_result}} count={{count}}", state)
	require.NoError(t, err)
	assert.Contains(t, out, `"temp":20`)
	assert.Contains(t, out, "count=3")
}

func TestResolveArgs(t *testing.T) {
	state := MapLookup{"user_query": "Beijing weather"}
	resolver := NewResolver()

	args, err := resolver.ResolveArgs(map[string]any{
		"city":   "{{user_query}}",
		"top_k":  5,
		"nested": map[string]any{"q": "{{user_query}}"},
		"list":   []any{"{{user_query}}", 1},
	}, state)
	require.NoError(t, err)

	assert.Equal(t, "Beijing weather", args["city"])
	assert.Equal(t, 5, args["top_k"])
	assert.Equal(t, "Beijing weather", args["nested"].(map[string]any)["q"])
	assert.Equal(t, "Beijing weather", args["list"].([]any)[0])
}

func TestResolveIdempotentProperty(t *testing.T) {
	resolver := NewResolver()
	rapid.Check(t, func(t *rapid.T) {
		keys := []string{"user_query", "plan", "tool_result", "final_answer"}
		state := MapLookup{}
		for _, k := range keys {
			// Values without placeholder syntax keep resolution idempotent.
			state[k] = strings.ReplaceAll(rapid.StringN(0, 40, -1).Draw(t, k), "{", "")
		}

		var sb strings.Builder
		pieces := rapid.IntRange(1, 6).Draw(t, "pieces")
		for i := 0; i < pieces; i++ {
			if rapid.Bool().Draw(t, "placeholder") {
				sb.WriteString("{{" + rapid.SampledFrom(keys).Draw(t, "key") + "}}")
			} else {
				sb.WriteString(strings.ReplaceAll(rapid.StringN(0, 20, -1).Draw(t, "text"), "{", "<"))
			}
		}

		once, err := resolver.Resolve(sb.String(), state)
		require.NoError(t, err)
		twice, err := resolver.Resolve(once, state)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "plain", Stringify("plain"))
	assert.Equal(t, "3.5", Stringify(3.5))
	assert.Equal(t, `["a","b"]`, Stringify([]string{"a", "b"}))
}
