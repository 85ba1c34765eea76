package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/llm"
	"github.com/cozelabs/agentgraph/template"
	"github.com/cozelabs/agentgraph/types"
)

const synthesizerSystemPrompt = "You are an assistant composing the final answer for a user. " +
	"Use the collected material faithfully. Answer in clear prose and do not invent facts."

type synthesizerHandler struct {
	deps Dependencies
}

func (h *synthesizerHandler) Type() graph.NodeType { return graph.NodeTypeSynthesizer }

func (h *synthesizerHandler) Execute(ctx context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	prompt, err := h.buildPrompt(st, node)
	if err != nil {
		return nil, err
	}

	answer := ""
	if h.deps.Completer != nil {
		answer, err = h.deps.Completer.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: synthesizerSystemPrompt,
			Messages:     []types.Message{types.NewUserMessage(prompt)},
			Temperature:  node.ConfigFloat("temperature", 0.5),
		})
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
		if err != nil {
			h.deps.logger().Warn("synthesis degraded to plain concatenation",
				zap.String("node_id", node.ID), zap.Error(err))
		}
	}
	if answer == "" {
		answer = h.concatenate(st)
	}

	if node.ConfigBool("include_sources", false) {
		if sources := h.sources(st); sources != "" {
			answer += "\n\n" + sources
		}
	}

	return &Result{
		Delta:    map[string]any{KeyFinalAnswer: answer},
		Thought:  "composed final answer",
		Terminal: true,
	}, nil
}

func (h *synthesizerHandler) buildPrompt(st *State, node *graph.Node) (string, error) {
	if custom := node.ConfigString("synthesis_prompt", ""); custom != "" {
		return h.deps.resolver().Resolve(custom, st)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", st.GetString(KeyUserQuery))
	if plan := st.GetString(KeyPlan); plan != "" {
		fmt.Fprintf(&b, "\nPlan:\n%s\n", plan)
	}
	if result := st.Get(KeyToolResult); result != nil {
		fmt.Fprintf(&b, "\nTool result: %s\n", template.Stringify(result))
	}
	if contexts := st.Contexts(); len(contexts) > 0 {
		b.WriteString("\nRetrieved documents:\n")
		for i, c := range contexts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Text)
		}
	}
	if response := st.GetString(KeyLLMResponse); response != "" {
		fmt.Fprintf(&b, "\nDraft response: %s\n", response)
	}
	b.WriteString("\nCompose the final answer.")
	return b.String(), nil
}

// concatenate is the degraded path when no model is available: stitch the
// collected material together verbatim.
func (h *synthesizerHandler) concatenate(st *State) string {
	var parts []string
	if result := st.Get(KeyToolResult); result != nil {
		parts = append(parts, template.Stringify(result))
	}
	for _, c := range st.Contexts() {
		parts = append(parts, c.Text)
	}
	if response := st.GetString(KeyLLMResponse); response != "" {
		parts = append(parts, response)
	}
	if len(parts) == 0 {
		return "I could not gather enough information to answer."
	}
	return strings.Join(parts, "\n\n")
}

func (h *synthesizerHandler) sources(st *State) string {
	seen := make(map[string]bool)
	var lines []string
	for _, c := range st.Contexts() {
		if c.Source == "" || seen[c.Source] {
			continue
		}
		seen[c.Source] = true
		lines = append(lines, fmt.Sprintf("- %s", c.Source))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Sources:\n" + strings.Join(lines, "\n")
}
