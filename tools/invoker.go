// Package tools provides the tool invocation interface consumed by
// tool_executor handlers, an in-process registry, and an HTTP-backed tool.
package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/types"
)

// Invoker is the tool invocation service consumed by tool_executor handlers.
// Implementations must be safe for concurrent use from multiple workflow
// runs. Failures carry a tool error code (not_found, timeout, remote_error)
// via types.Error.
type Invoker interface {
	Invoke(ctx context.Context, toolID string, args map[string]any) (any, error)
}

// Tool is one executable tool registered with a Registry.
type Tool interface {
	ID() string
	Description() string
	Execute(ctx context.Context, args map[string]any) (any, error)
}

// FuncTool adapts a function to the Tool interface.
type FuncTool struct {
	id          string
	description string
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFuncTool creates a tool backed by a Go function.
func NewFuncTool(id, description string, fn func(ctx context.Context, args map[string]any) (any, error)) *FuncTool {
	return &FuncTool{id: id, description: description, fn: fn}
}

func (t *FuncTool) ID() string          { return t.id }
func (t *FuncTool) Description() string { return t.description }

func (t *FuncTool) Execute(ctx context.Context, args map[string]any) (any, error) {
	return t.fn(ctx, args)
}

// Registry maps tool IDs to Tool implementations and implements Invoker.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	timeout time.Duration
	logger  *zap.Logger
}

// NewRegistry creates an empty tool registry. timeout bounds each
// invocation; zero means no per-call deadline beyond the caller's.
func NewRegistry(timeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: timeout,
		logger:  logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool. Registering an existing ID replaces it.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.ID()] = tool
}

// Get returns a tool by ID.
func (r *Registry) Get(toolID string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[toolID]
	return tool, ok
}

// List returns the registered tool IDs.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	return ids
}

// Invoke implements Invoker.
func (r *Registry) Invoke(ctx context.Context, toolID string, args map[string]any) (any, error) {
	tool, ok := r.Get(toolID)
	if !ok {
		return nil, types.NewError(types.ErrToolNotFound, fmt.Sprintf("tool %q is not registered", toolID))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	duration := time.Since(start)

	if err != nil {
		r.logger.Warn("tool execution failed",
			zap.String("tool_id", toolID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, types.NewError(types.ErrToolTimeout, fmt.Sprintf("tool %q timed out", toolID)).WithRetryable(true).WithCause(err)
		}
		if types.IsToolError(err) {
			return nil, err
		}
		return nil, types.NewError(types.ErrToolRemote, fmt.Sprintf("tool %q failed", toolID)).WithCause(err)
	}

	r.logger.Debug("tool executed",
		zap.String("tool_id", toolID),
		zap.Duration("duration", duration),
	)
	return result, nil
}
