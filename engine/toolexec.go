package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/template"
	"github.com/cozelabs/agentgraph/types"
)

// Failure policies for tool_executor nodes.
const (
	OnErrorContinue = "continue"
	OnErrorRetry    = "retry"
	OnErrorFail     = "fail"
)

type toolExecutorHandler struct {
	deps Dependencies
}

func (h *toolExecutorHandler) Type() graph.NodeType { return graph.NodeTypeToolExecutor }

func (h *toolExecutorHandler) Execute(ctx context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	toolID := node.ConfigString("tool_id", "")
	args, err := h.deps.resolver().ResolveArgs(node.ConfigMap("arguments"), st)
	if err != nil {
		return nil, err
	}
	policy := node.ConfigString("on_error", OnErrorContinue)

	result, invokeErr := h.deps.Invoker.Invoke(ctx, toolID, args)
	if invokeErr != nil && policy == OnErrorRetry && ctx.Err() == nil {
		h.deps.logger().Info("retrying tool once",
			zap.String("node_id", node.ID), zap.String("tool_id", toolID), zap.Error(invokeErr))
		result, invokeErr = h.deps.Invoker.Invoke(ctx, toolID, args)
	}

	if invokeErr != nil {
		if ctx.Err() != nil {
			return nil, invokeErr
		}
		if policy == OnErrorFail {
			return nil, invokeErr
		}
		// continue, and retry after its second failure: record the error as
		// an event, leave tool_result unset, proceed along the normal edge.
		h.deps.logger().Warn("tool failed, continuing per policy",
			zap.String("node_id", node.ID), zap.String("tool_id", toolID),
			zap.String("on_error", policy), zap.Error(invokeErr))
		return &Result{
			Observation: fmt.Sprintf("tool %s failed, continuing", toolID),
			Events:      []types.ExecutionEvent{types.NewErrorEvent(node.ID, invokeErr.Error())},
		}, nil
	}

	return &Result{
		Delta:       map[string]any{KeyToolResult: result},
		Observation: fmt.Sprintf("tool %s returned %s", toolID, template.Stringify(result)),
	}, nil
}
