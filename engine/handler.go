package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/llm"
	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/template"
	"github.com/cozelabs/agentgraph/tools"
	"github.com/cozelabs/agentgraph/types"
)

// Result is what a handler hands back to the driver.
type Result struct {
	// Delta holds state writes to merge into the run state.
	Delta map[string]any
	// Next, when non-empty, names the node to execute next and overrides
	// static edges.
	Next string
	// Thought and Observation are attached to the node_end event so chat
	// frontends can show what the step decided and saw.
	Thought     string
	Observation string
	// Events are extra handler-level events, such as absorbed errors,
	// forwarded to the run sink before node_end.
	Events []types.ExecutionEvent
	// Terminal marks the run as completed after this node.
	Terminal bool
}

// Handler executes one node type. Handlers read the run state, perform
// side effects, and report writes through the Result delta; they never
// mutate the state directly. A handler must honor ctx cancellation on any
// blocking work.
type Handler interface {
	Type() graph.NodeType
	Execute(ctx context.Context, st *State, node *graph.Node, g *graph.Compiled) (*Result, error)
}

// Dependencies carries the external collaborators shared by the built-in
// handlers.
type Dependencies struct {
	Completer llm.Completer
	Searcher  retrieval.Searcher
	Invoker   tools.Invoker
	Resolver  *template.Resolver
	Logger    *zap.Logger

	// LoopCap is the hard ceiling on loop iterations regardless of node
	// configuration. Zero applies the default.
	LoopCap int
	// SearchTimeout bounds each knowledge search call. Zero applies the
	// default.
	SearchTimeout time.Duration
}

const (
	defaultLoopCap       = 100
	defaultSearchTimeout = 10 * time.Second
	defaultTopK          = 4
)

func (d *Dependencies) loopCap() int {
	if d.LoopCap > 0 {
		return d.LoopCap
	}
	return defaultLoopCap
}

func (d *Dependencies) searchTimeout() time.Duration {
	if d.SearchTimeout > 0 {
		return d.SearchTimeout
	}
	return defaultSearchTimeout
}

func (d *Dependencies) resolver() *template.Resolver {
	if d.Resolver != nil {
		return d.Resolver
	}
	return template.NewResolver()
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

// Registry maps node types to handlers.
type Registry struct {
	handlers map[graph.NodeType]Handler
}

// NewRegistry creates a registry holding the given handlers.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[graph.NodeType]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Type()] = h
	}
	return r
}

// DefaultRegistry creates a registry with the ten built-in handlers wired
// to the given collaborators.
func DefaultRegistry(deps Dependencies) *Registry {
	logger := deps.logger().With(zap.String("component", "engine"))
	deps.Logger = logger
	return NewRegistry(
		&plannerHandler{deps: deps},
		&routerHandler{deps: deps},
		&knowledgeSearchHandler{deps: deps},
		&toolExecutorHandler{deps: deps},
		&conditionHandler{},
		&llmCallHandler{deps: deps},
		&synthesizerHandler{deps: deps},
		&delayHandler{},
		&variableHandler{deps: deps},
		&loopHandler{deps: deps},
	)
}

// Register adds or replaces the handler for a node type, letting embedders
// override a built-in.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Get returns the handler for a node type.
func (r *Registry) Get(nodeType graph.NodeType) (Handler, error) {
	h, ok := r.handlers[nodeType]
	if !ok {
		return nil, types.NewError(types.ErrValidation, fmt.Sprintf("no handler registered for node type %q", nodeType))
	}
	return h, nil
}

// nodeIcons decorate streamed events so chat frontends can render the
// executing step.
var nodeIcons = map[graph.NodeType]string{
	graph.NodeTypePlanner:         "🧠",
	graph.NodeTypeRouter:          "🧭",
	graph.NodeTypeKnowledgeSearch: "📚",
	graph.NodeTypeToolExecutor:    "🔧",
	graph.NodeTypeCondition:       "🔀",
	graph.NodeTypeLLMCall:         "💬",
	graph.NodeTypeSynthesizer:     "✨",
	graph.NodeTypeDelay:           "⏱️",
	graph.NodeTypeVariable:        "📝",
	graph.NodeTypeLoop:            "🔁",
}

// NodeIcon returns the display icon for a node type.
func NodeIcon(nodeType graph.NodeType) string {
	return nodeIcons[nodeType]
}
