package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/types"
)

type knowledgeSearchHandler struct {
	deps Dependencies
}

func (h *knowledgeSearchHandler) Type() graph.NodeType { return graph.NodeTypeKnowledgeSearch }

func (h *knowledgeSearchHandler) Execute(ctx context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	query, err := h.deps.resolver().Resolve(node.ConfigString("query", "{{user_query}}"), st)
	if err != nil {
		return nil, err
	}
	topK := node.ConfigInt("top_k", defaultTopK)
	minScore := node.ConfigFloat("min_score", 0)

	if h.deps.Searcher == nil {
		return h.degrade(node, types.NewError(types.ErrRetrievalUnavailable, "no retrieval backend configured")), nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, h.deps.searchTimeout())
	defer cancel()

	results, err := h.deps.Searcher.Search(searchCtx, query, topK, minScore)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Retrieval failure is never fatal. The run continues without
		// documents and the UI sees what happened.
		h.deps.logger().Warn("knowledge search degraded to empty result",
			zap.String("node_id", node.ID), zap.String("query", query), zap.Error(err))
		return h.degrade(node, err), nil
	}

	return &Result{
		Delta:       map[string]any{KeyRetrievedContexts: results},
		Observation: fmt.Sprintf("found %d relevant documents", len(results)),
	}, nil
}

func (h *knowledgeSearchHandler) degrade(node *graph.Node, err error) *Result {
	return &Result{
		Delta:       map[string]any{KeyRetrievedContexts: []retrieval.Result{}},
		Observation: "knowledge base unavailable, continuing without documents",
		Events:      []types.ExecutionEvent{types.NewErrorEvent(node.ID, err.Error())},
	}
}
