// Package graph defines the immutable workflow graph model consumed by the
// execution engine: nodes, edges, per-node configuration, and the compile
// step that validates an authored definition before any run starts.
package graph

import (
	"encoding/json"
	"fmt"
	"time"
)

// NodeType defines the type of a workflow node.
type NodeType string

const (
	// NodeTypePlanner calls the LLM with a planning prompt and writes a plan.
	NodeTypePlanner NodeType = "planner"
	// NodeTypeRouter picks the next node from a fixed rule or custom expression.
	NodeTypeRouter NodeType = "router"
	// NodeTypeKnowledgeSearch retrieves supporting documents for the query.
	NodeTypeKnowledgeSearch NodeType = "knowledge_search"
	// NodeTypeToolExecutor invokes an external tool with templated arguments.
	NodeTypeToolExecutor NodeType = "tool_executor"
	// NodeTypeCondition branches on a boolean expression over state.
	NodeTypeCondition NodeType = "condition"
	// NodeTypeLLMCall performs a free-form LLM completion.
	NodeTypeLLMCall NodeType = "llm_call"
	// NodeTypeSynthesizer combines prior outputs into the final answer.
	NodeTypeSynthesizer NodeType = "synthesizer"
	// NodeTypeDelay suspends the run for a configured duration.
	NodeTypeDelay NodeType = "delay"
	// NodeTypeVariable writes one templated value into state.
	NodeTypeVariable NodeType = "variable"
	// NodeTypeLoop re-enters its successor chain until an exit condition holds.
	NodeTypeLoop NodeType = "loop"
)

// KnownNodeTypes lists every node type the engine can dispatch.
var KnownNodeTypes = []NodeType{
	NodeTypePlanner,
	NodeTypeRouter,
	NodeTypeKnowledgeSearch,
	NodeTypeToolExecutor,
	NodeTypeCondition,
	NodeTypeLLMCall,
	NodeTypeSynthesizer,
	NodeTypeDelay,
	NodeTypeVariable,
	NodeTypeLoop,
}

// IsKnownNodeType reports whether t is a type the engine can dispatch.
func IsKnownNodeType(t NodeType) bool {
	for _, known := range KnownNodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Node represents a single node in an authored workflow.
// Inputs and Outputs are documentation only; they are not enforced at run time.
type Node struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Label       string         `json:"label,omitempty"`
	Description string         `json:"description,omitempty"`
	Config      map[string]any `json:"data,omitempty"`
	Inputs      []string       `json:"inputs,omitempty"`
	Outputs     []string       `json:"outputs,omitempty"`
}

// Edge represents the default successor relation between two nodes.
// Condition, router, and loop nodes may override it at run time.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Definition is the saved, author-produced description of a workflow.
// Built once per saved workflow and immutable thereafter; a new version is a
// new Definition.
type Definition struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Nodes       []Node         `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

// Export exports the definition to JSON.
func (d *Definition) Export() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Import imports a workflow definition from JSON.
func Import(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow definition: %w", err)
	}
	return &def, nil
}

// ConfigString returns a string config value, or fallback when absent.
func (n *Node) ConfigString(key, fallback string) string {
	if v, ok := n.Config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// ConfigInt returns an integer config value, or fallback when absent.
// JSON numbers decode as float64, so both forms are accepted.
func (n *Node) ConfigInt(key string, fallback int) int {
	switch v := n.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// ConfigFloat returns a float config value, or fallback when absent.
func (n *Node) ConfigFloat(key string, fallback float64) float64 {
	switch v := n.Config[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// ConfigBool returns a boolean config value, or fallback when absent.
func (n *Node) ConfigBool(key string, fallback bool) bool {
	if v, ok := n.Config[key].(bool); ok {
		return v
	}
	return fallback
}

// ConfigMap returns a map config value, or nil when absent.
func (n *Node) ConfigMap(key string) map[string]any {
	if v, ok := n.Config[key].(map[string]any); ok {
		return v
	}
	return nil
}
