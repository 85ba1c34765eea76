package engine

import (
	"context"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/llm"
	"github.com/cozelabs/agentgraph/types"
)

type llmCallHandler struct {
	deps Dependencies
}

func (h *llmCallHandler) Type() graph.NodeType { return graph.NodeTypeLLMCall }

func (h *llmCallHandler) Execute(ctx context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	systemPrompt, err := h.deps.resolver().Resolve(node.ConfigString("system_prompt", ""), st)
	if err != nil {
		return nil, err
	}

	messages := append([]types.Message(nil), st.History()...)
	if query := st.GetString(KeyUserQuery); query != "" {
		messages = append(messages, types.NewUserMessage(query))
	}

	response, err := h.deps.Completer.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     messages,
		Temperature:  node.ConfigFloat("temperature", 0.7),
		MaxTokens:    node.ConfigInt("max_tokens", 0),
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Delta:   map[string]any{KeyLLMResponse: response},
		Thought: "model responded",
	}, nil
}
