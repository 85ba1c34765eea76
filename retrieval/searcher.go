// Package retrieval provides the document search interface consumed by
// knowledge_search handlers, an HTTP client for the retrieval service, and a
// Redis-backed result cache.
package retrieval

import "context"

// Result is one retrieved document fragment.
type Result struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// Searcher is the retrieval service consumed by knowledge_search handlers.
// Implementations must be safe for concurrent use from multiple workflow
// runs. An unavailable backend should return an error; the handler degrades
// to an empty result rather than failing the run.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, minScore float64) ([]Result, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string, topK int, minScore float64) ([]Result, error)

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, query string, topK int, minScore float64) ([]Result, error) {
	return f(ctx, query, topK, minScore)
}
