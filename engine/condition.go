package engine

import (
	"context"
	"fmt"

	"github.com/cozelabs/agentgraph/graph"
)

type conditionHandler struct{}

func (h *conditionHandler) Type() graph.NodeType { return graph.NodeTypeCondition }

func (h *conditionHandler) Execute(_ context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	expr := node.ConfigString("condition", "")
	holds, err := EvalBool(expr, st)
	if err != nil {
		return nil, err
	}

	target := node.ConfigString("false_branch", "")
	if holds {
		target = node.ConfigString("true_branch", "")
	}
	return &Result{
		Next:    target,
		Thought: fmt.Sprintf("condition %q is %t, taking %s", expr, holds, target),
	}, nil
}
