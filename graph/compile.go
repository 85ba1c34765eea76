package graph

import "fmt"

// ValidationError describes a malformed workflow definition.
// It is surfaced to the workflow author, never to a chat user, and is not
// retried.
type ValidationError struct {
	Reason string `json:"reason"`
	NodeID string `json:"node_id,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("invalid workflow: %s (node %s)", e.Reason, e.NodeID)
	}
	return fmt.Sprintf("invalid workflow: %s", e.Reason)
}

// requiredConfig lists the config keys each node type must carry.
// Missing keys fail compilation; optional keys default inside the handler.
var requiredConfig = map[NodeType][]string{
	NodeTypePlanner:         nil,
	NodeTypeRouter:          nil, // requires rule OR expression, checked below
	NodeTypeKnowledgeSearch: nil,
	NodeTypeToolExecutor:    {"tool_id"},
	NodeTypeCondition:       {"condition", "true_branch", "false_branch"},
	NodeTypeLLMCall:         {"system_prompt"},
	NodeTypeSynthesizer:     nil,
	NodeTypeDelay:           {"seconds"},
	NodeTypeVariable:        {"variable_name"},
	NodeTypeLoop:            {"max_iterations"},
}

// startCapable marks node types that may begin a run.
var startCapable = map[NodeType]bool{
	NodeTypePlanner:         true,
	NodeTypeRouter:          true,
	NodeTypeKnowledgeSearch: true,
	NodeTypeToolExecutor:    true,
	NodeTypeCondition:       true,
	NodeTypeLLMCall:         true,
	NodeTypeVariable:        true,
	NodeTypeLoop:            true,
}

// terminalCapable marks node types that may end a run.
var terminalCapable = map[NodeType]bool{
	NodeTypeSynthesizer: true,
}

// Compiled is the validated, run-ready form of a workflow definition.
// It is immutable after Compile and safe for concurrent runs.
type Compiled struct {
	def      *Definition
	nodes    map[string]*Node
	outgoing map[string][]string
	incoming map[string]int
	start    string
}

// Compile validates a definition and produces its executable form.
// Checks: unique node ids, known node types, per-type required config,
// edge endpoints exist, exactly one start node (no incoming edge,
// start-capable type), and at least one terminal-capable node.
func Compile(def *Definition) (*Compiled, error) {
	if def == nil || len(def.Nodes) == 0 {
		return nil, &ValidationError{Reason: "workflow must have at least one node"}
	}

	c := &Compiled{
		def:      def,
		nodes:    make(map[string]*Node, len(def.Nodes)),
		outgoing: make(map[string][]string),
		incoming: make(map[string]int),
	}

	hasTerminal := false
	for i := range def.Nodes {
		node := &def.Nodes[i]
		if node.ID == "" {
			return nil, &ValidationError{Reason: "node id must not be empty"}
		}
		if _, dup := c.nodes[node.ID]; dup {
			return nil, &ValidationError{Reason: "duplicate node id", NodeID: node.ID}
		}
		if !IsKnownNodeType(node.Type) {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown node type %q", node.Type), NodeID: node.ID}
		}
		if err := checkConfig(node); err != nil {
			return nil, err
		}
		if terminalCapable[node.Type] {
			hasTerminal = true
		}
		c.nodes[node.ID] = node
	}
	if !hasTerminal {
		return nil, &ValidationError{Reason: "workflow must have at least one terminal-capable node (synthesizer)"}
	}

	for _, edge := range def.Edges {
		if _, ok := c.nodes[edge.Source]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge references unknown source %q", edge.Source)}
		}
		if _, ok := c.nodes[edge.Target]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge references unknown target %q", edge.Target)}
		}
		c.outgoing[edge.Source] = append(c.outgoing[edge.Source], edge.Target)
		c.incoming[edge.Target]++
	}

	var entries []string
	for i := range def.Nodes {
		node := &def.Nodes[i]
		if c.incoming[node.ID] == 0 {
			entries = append(entries, node.ID)
		}
	}
	switch len(entries) {
	case 0:
		return nil, &ValidationError{Reason: "workflow has no start node (every node has an incoming edge)"}
	case 1:
		// ok
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("workflow must have exactly one start node, found %d", len(entries))}
	}
	start := entries[0]
	if !startCapable[c.nodes[start].Type] {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("node type %q cannot start a workflow", c.nodes[start].Type),
			NodeID: start,
		}
	}
	c.start = start

	return c, nil
}

func checkConfig(node *Node) error {
	for _, key := range requiredConfig[node.Type] {
		if _, ok := node.Config[key]; !ok {
			return &ValidationError{
				Reason: fmt.Sprintf("node type %q requires config key %q", node.Type, key),
				NodeID: node.ID,
			}
		}
	}
	if node.Type == NodeTypeRouter {
		_, hasRule := node.Config["rule"]
		_, hasExpr := node.Config["expression"]
		if !hasRule && !hasExpr {
			return &ValidationError{
				Reason: `router requires config key "rule" or "expression"`,
				NodeID: node.ID,
			}
		}
	}
	return nil
}

// Definition returns the underlying authored definition.
func (c *Compiled) Definition() *Definition {
	return c.def
}

// Start returns the ID of the start node.
func (c *Compiled) Start() string {
	return c.start
}

// Node retrieves a node by ID.
func (c *Compiled) Node(id string) (*Node, bool) {
	node, ok := c.nodes[id]
	return node, ok
}

// Outgoing returns the static successor IDs of a node.
func (c *Compiled) Outgoing(id string) []string {
	return c.outgoing[id]
}

// Successor returns the single static successor of a node, or "" when the
// node has no outgoing edge. Nodes with multiple static edges rely on their
// handler to pick the target; the first edge is the declared default.
func (c *Compiled) Successor(id string) string {
	targets := c.outgoing[id]
	if len(targets) == 0 {
		return ""
	}
	return targets[0]
}

// Len returns the number of nodes in the graph.
func (c *Compiled) Len() int {
	return len(c.nodes)
}
