package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/types"
)

// ClientConfig configures the retrieval service client.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Client calls a remote retrieval service over HTTP.
type Client struct {
	config ClientConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a retrieval client.
func NewClient(config ClientConfig, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		logger: logger.With(zap.String("component", "retrieval_client")),
	}
}

type searchRequest struct {
	Query    string  `json:"query"`
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search implements Searcher against the retrieval service.
func (c *Client) Search(ctx context.Context, query string, topK int, minScore float64) ([]Result, error) {
	payload, err := json.Marshal(searchRequest{Query: query, TopK: topK, MinScore: minScore})
	if err != nil {
		return nil, types.NewError(types.ErrRetrievalUnavailable, "failed to encode search request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrRetrievalUnavailable, "failed to build search request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrRetrievalUnavailable, "search request failed").WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("retrieval service error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, types.NewError(types.ErrRetrievalUnavailable,
			fmt.Sprintf("retrieval service returned %d", resp.StatusCode)).WithRetryable(resp.StatusCode >= 500)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewError(types.ErrRetrievalUnavailable, "unexpected search response").WithCause(err)
	}
	return parsed.Results, nil
}
