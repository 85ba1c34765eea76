package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDefinition() *Definition {
	return &Definition{
		Name: "weather-flow",
		Nodes: []Node{
			{ID: "plan", Type: NodeTypePlanner},
			{ID: "tool", Type: NodeTypeToolExecutor, Config: map[string]any{"tool_id": "weather"}},
			{ID: "answer", Type: NodeTypeSynthesizer},
		},
		Edges: []Edge{
			{Source: "plan", Target: "tool"},
			{Source: "tool", Target: "answer"},
		},
	}
}

func TestCompileValidDefinition(t *testing.T) {
	compiled, err := Compile(validDefinition())
	require.NoError(t, err)

	assert.Equal(t, "plan", compiled.Start())
	assert.Equal(t, 3, compiled.Len())
	assert.Equal(t, "tool", compiled.Successor("plan"))
	assert.Equal(t, "", compiled.Successor("answer"))

	node, ok := compiled.Node("tool")
	require.True(t, ok)
	assert.Equal(t, NodeTypeToolExecutor, node.Type)
}

func TestCompileRejectsDuplicateNodeID(t *testing.T) {
	def := validDefinition()
	def.Nodes = append(def.Nodes, Node{ID: "plan", Type: NodeTypePlanner})

	_, err := Compile(def)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plan", verr.NodeID)
	assert.Contains(t, verr.Reason, "duplicate")
}

func TestCompileRejectsUnknownNodeType(t *testing.T) {
	def := validDefinition()
	def.Nodes[1].Type = "teleporter"

	_, err := Compile(def)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "unknown node type")
}

func TestCompileRejectsDanglingEdge(t *testing.T) {
	def := validDefinition()
	def.Edges = append(def.Edges, Edge{Source: "tool", Target: "ghost"})

	_, err := Compile(def)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "unknown target")
}

func TestCompileRequiresConfigKeys(t *testing.T) {
	cases := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "tool executor without tool_id",
			node: Node{ID: "n", Type: NodeTypeToolExecutor},
			want: `"tool_id"`,
		},
		{
			name: "condition without branches",
			node: Node{ID: "n", Type: NodeTypeCondition, Config: map[string]any{"condition": "x"}},
			want: `"true_branch"`,
		},
		{
			name: "loop without max_iterations",
			node: Node{ID: "n", Type: NodeTypeLoop},
			want: `"max_iterations"`,
		},
		{
			name: "delay without seconds",
			node: Node{ID: "n", Type: NodeTypeDelay},
			want: `"seconds"`,
		},
		{
			name: "router without rule or expression",
			node: Node{ID: "n", Type: NodeTypeRouter},
			want: `"rule" or "expression"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := validDefinition()
			tc.node.ID = "extra"
			def.Nodes = append(def.Nodes, tc.node)
			def.Edges = append(def.Edges, Edge{Source: "answer", Target: "extra"})

			_, err := Compile(def)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, tc.want)
		})
	}
}

func TestCompileRequiresExactlyOneStart(t *testing.T) {
	def := validDefinition()
	def.Nodes = append(def.Nodes, Node{ID: "orphan", Type: NodeTypePlanner})

	_, err := Compile(def)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "exactly one start node")
}

func TestCompileRequiresTerminalNode(t *testing.T) {
	def := &Definition{
		Nodes: []Node{
			{ID: "plan", Type: NodeTypePlanner},
			{ID: "llm", Type: NodeTypeLLMCall, Config: map[string]any{"system_prompt": "answer"}},
		},
		Edges: []Edge{{Source: "plan", Target: "llm"}},
	}

	_, err := Compile(def)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "terminal-capable")
}

func TestCompileRejectsNonStartCapableEntry(t *testing.T) {
	def := &Definition{
		Nodes: []Node{
			{ID: "answer", Type: NodeTypeSynthesizer},
			{ID: "plan", Type: NodeTypePlanner},
		},
		Edges: []Edge{{Source: "answer", Target: "plan"}},
	}

	// "answer" has no incoming edge but a synthesizer cannot start a run.
	_, err := Compile(def)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "cannot start")
	assert.Equal(t, "answer", verr.NodeID)
}

func TestImportExportRoundTrip(t *testing.T) {
	def := validDefinition()
	data, err := def.Export()
	require.NoError(t, err)

	imported, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, def.Name, imported.Name)
	assert.Len(t, imported.Nodes, 3)
	assert.Equal(t, "weather", imported.Nodes[1].ConfigString("tool_id", ""))
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	_, err := Import([]byte("{nodes:"))
	assert.Error(t, err)
}

func TestNodeConfigAccessors(t *testing.T) {
	node := Node{Config: map[string]any{
		"seconds":     float64(2), // JSON numbers decode as float64
		"count":       3,
		"temperature": 0.4,
		"strict":      true,
		"name":        "plan",
		"args":        map[string]any{"city": "Beijing"},
	}}

	assert.Equal(t, 2, node.ConfigInt("seconds", 0))
	assert.Equal(t, 3, node.ConfigInt("count", 0))
	assert.Equal(t, 9, node.ConfigInt("missing", 9))
	assert.Equal(t, 0.4, node.ConfigFloat("temperature", 0))
	assert.Equal(t, 3.0, node.ConfigFloat("count", 0))
	assert.True(t, node.ConfigBool("strict", false))
	assert.Equal(t, "plan", node.ConfigString("name", ""))
	assert.Equal(t, "Beijing", node.ConfigMap("args")["city"])
	assert.Nil(t, node.ConfigMap("missing"))
}
