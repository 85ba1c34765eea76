package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/types"
)

// Router rules are fixed predicates over well-known state keys. A rule that
// holds routes to routes[rule]; one that does not routes to routes["else"]
// or falls through to the static edge.
const (
	ruleNeedsTool          = "needs_tool"
	ruleNeedsKnowledge     = "needs_knowledge"
	ruleCanAnswer          = "can_answer"
	ruleNeedsClarification = "needs_clarification"
)

type routerHandler struct {
	deps Dependencies
}

func (h *routerHandler) Type() graph.NodeType { return graph.NodeTypeRouter }

func (h *routerHandler) Execute(_ context.Context, st *State, node *graph.Node, g *graph.Compiled) (*Result, error) {
	routes := stringMap(node.ConfigMap("routes"))

	outcome, err := h.decide(st, node)
	if err != nil {
		return nil, err
	}

	target, ok := routes[outcome]
	if !ok {
		// No route entry for this outcome: fall through to the static edge
		// when one exists.
		if g.Successor(node.ID) != "" {
			return &Result{Thought: fmt.Sprintf("decision %q, following default edge", outcome)}, nil
		}
		return nil, types.NewError(types.ErrRouting,
			fmt.Sprintf("no route for outcome %q and no default edge", outcome))
	}
	if _, ok := g.Node(target); !ok {
		return nil, types.NewError(types.ErrRouting,
			fmt.Sprintf("route %q targets unknown node %q", outcome, target))
	}

	return &Result{
		Next:    target,
		Thought: fmt.Sprintf("decision %q, routing to %s", outcome, target),
	}, nil
}

// decide reduces the node configuration to a route outcome key.
func (h *routerHandler) decide(st *State, node *graph.Node) (string, error) {
	if expr := node.ConfigString("expression", ""); expr != "" {
		value, err := EvalValue(expr, st)
		if err != nil {
			return "", err
		}
		if s, ok := value.(string); ok {
			return s, nil
		}
		if b, ok := value.(bool); ok {
			return strconv.FormatBool(b), nil
		}
		return strconv.FormatBool(truthy(value)), nil
	}

	rule := node.ConfigString("rule", "")
	holds, err := evalRule(rule, st)
	if err != nil {
		return "", err
	}
	if holds {
		return rule, nil
	}
	return "else", nil
}

func evalRule(rule string, st *State) (bool, error) {
	switch rule {
	case ruleNeedsClarification:
		return strings.TrimSpace(st.GetString(KeyUserQuery)) == "", nil
	case ruleNeedsKnowledge:
		return len(st.Contexts()) == 0, nil
	case ruleNeedsTool:
		return st.Get(KeyToolResult) == nil, nil
	case ruleCanAnswer:
		return st.Get(KeyToolResult) != nil ||
			len(st.Contexts()) > 0 ||
			st.GetString(KeyLLMResponse) != "", nil
	default:
		return false, types.NewError(types.ErrRouting, fmt.Sprintf("unknown router rule %q", rule))
	}
}

func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
