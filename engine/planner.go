package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/llm"
	"github.com/cozelabs/agentgraph/types"
)

const defaultPlannerPrompt = "Break the user question into a short numbered plan.\n\nQuestion: {{user_query}}"

const plannerSystemPrompt = "You are a planning assistant for an agent workflow. " +
	"Produce a concise numbered plan of at most %d steps. Reply with the plan only."

// fallbackPlan is the static plan used when planning degrades on LLM failure.
const fallbackPlan = "1. Understand the question\n2. Gather relevant information\n3. Compose the answer"

type plannerHandler struct {
	deps Dependencies
}

func (h *plannerHandler) Type() graph.NodeType { return graph.NodeTypePlanner }

func (h *plannerHandler) Execute(ctx context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	prompt, err := h.deps.resolver().Resolve(node.ConfigString("prompt", defaultPlannerPrompt), st)
	if err != nil {
		return nil, err
	}
	maxSteps := node.ConfigInt("max_steps", 5)

	plan, err := h.deps.Completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(plannerSystemPrompt, maxSteps),
		Messages:     []types.Message{types.NewUserMessage(prompt)},
		Temperature:  node.ConfigFloat("temperature", 0.3),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Planning degrades to a static plan only when the node opts in.
		if node.ConfigString("on_error", "fail") != "fallback" {
			return nil, err
		}
		h.deps.logger().Warn("planner degraded to fallback plan",
			zap.String("node_id", node.ID), zap.Error(err))
		return &Result{
			Delta:   map[string]any{KeyPlan: fallbackPlan},
			Thought: "planning service unavailable, using a generic plan",
			Events:  []types.ExecutionEvent{types.NewErrorEvent(node.ID, err.Error())},
		}, nil
	}

	return &Result{
		Delta:   map[string]any{KeyPlan: plan},
		Thought: plan,
	}, nil
}
