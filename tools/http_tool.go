package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cozelabs/agentgraph/types"
)

// HTTPTool invokes a remote tool endpoint by POSTing its arguments as JSON.
// Non-2xx responses and transport failures map to tool error codes.
type HTTPTool struct {
	id          string
	description string
	endpoint    string
	client      *http.Client
}

// NewHTTPTool creates a tool that proxies to a remote endpoint.
func NewHTTPTool(id, description, endpoint string, timeout time.Duration) *HTTPTool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTool{
		id:          id,
		description: description,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTool) ID() string          { return t.id }
func (t *HTTPTool) Description() string { return t.description }

// Execute implements Tool.
func (t *HTTPTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, types.NewError(types.ErrToolRemote, "failed to encode tool arguments").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrToolRemote, "failed to build tool request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, types.NewError(types.ErrToolTimeout, fmt.Sprintf("tool %q timed out", t.id)).WithRetryable(true).WithCause(err)
		}
		return nil, types.NewError(types.ErrToolRemote, fmt.Sprintf("tool %q request failed", t.id)).WithRetryable(true).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrToolRemote, "failed to read tool response").WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, types.NewError(types.ErrToolRemote,
			fmt.Sprintf("tool %q returned %d", t.id, resp.StatusCode)).WithRetryable(resp.StatusCode >= 500)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		// Plain text responses are valid tool output.
		return string(body), nil
	}
	return result, nil
}
