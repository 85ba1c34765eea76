// Package agentgraph provides the top-level entry point for executing
// authored workflow graphs: compile a definition once, then run it per chat
// turn in batch or streaming mode.
//
// Usage:
//
//	eng := agentgraph.New(engine.Dependencies{
//	    Completer: llmClient,
//	    Searcher:  searchClient,
//	    Invoker:   toolRegistry,
//	}, agentgraph.WithStepBudget(200))
//
//	final, err := eng.Run(ctx, def, "Beijing weather today", nil)
//	sink, err := eng.Stream(ctx, def, "Beijing weather today", nil)
package agentgraph

import (
	"context"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/engine"
	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/internal/metrics"
	"github.com/cozelabs/agentgraph/types"
)

// Engine executes workflow definitions. Safe for concurrent use; each call
// creates an independent run.
type Engine struct {
	registry     *engine.Registry
	driver       *engine.Driver
	sinkCapacity int
}

// Option configures the Engine created by New.
type Option func(*settings)

type settings struct {
	stepBudget   int
	loopCap      int
	sinkCapacity int
	logger       *zap.Logger
	metrics      *metrics.Collector
}

// WithStepBudget caps total node executions per run.
func WithStepBudget(budget int) Option {
	return func(s *settings) { s.stepBudget = budget }
}

// WithLoopCap sets the hard ceiling on loop iterations per loop node.
func WithLoopCap(cap int) Option {
	return func(s *settings) { s.loopCap = cap }
}

// WithSinkCapacity sets the per-run event buffer size.
func WithSinkCapacity(capacity int) Option {
	return func(s *settings) { s.sinkCapacity = capacity }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMetrics wires a Prometheus collector into the driver.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *settings) { s.metrics = collector }
}

// New creates an Engine with the given external collaborators.
func New(deps engine.Dependencies, opts ...Option) *Engine {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger != nil {
		deps.Logger = s.logger
	}
	if s.loopCap > 0 {
		deps.LoopCap = s.loopCap
	}

	registry := engine.DefaultRegistry(deps)
	driver := engine.NewDriver(registry, engine.Options{
		StepBudget: s.stepBudget,
		Logger:     s.logger,
		Metrics:    s.metrics,
	})
	return &Engine{registry: registry, driver: driver, sinkCapacity: s.sinkCapacity}
}

// Register adds or replaces the handler for a node type.
func (e *Engine) Register(h engine.Handler) {
	e.registry.Register(h)
}

// Run compiles def and executes it to completion in batch mode, returning
// the final execution state.
func (e *Engine) Run(ctx context.Context, def *graph.Definition, query string, history []types.Message) (map[string]any, error) {
	g, err := graph.Compile(def)
	if err != nil {
		return nil, err
	}
	st, err := e.driver.Run(ctx, g, engine.NewState(query, history))
	if err != nil {
		return nil, err
	}
	return st.Snapshot(), nil
}

// RunState is like Run but seeds the execution state with arbitrary initial
// values.
func (e *Engine) RunState(ctx context.Context, def *graph.Definition, initial map[string]any) (map[string]any, error) {
	g, err := graph.Compile(def)
	if err != nil {
		return nil, err
	}
	st, err := e.driver.Run(ctx, g, engine.NewStateFromValues(initial))
	if err != nil {
		return nil, err
	}
	return st.Snapshot(), nil
}

// Stream compiles def and executes it asynchronously, returning the run's
// event sink. The event sequence ends with a content event carrying the
// final answer, or an error event; the sink channel closes when the run
// ends. Cancel ctx to abort the run.
func (e *Engine) Stream(ctx context.Context, def *graph.Definition, query string, history []types.Message) (*engine.Sink, error) {
	g, err := graph.Compile(def)
	if err != nil {
		return nil, err
	}
	sink := engine.NewSink(e.sinkCapacity)
	go func() {
		// Failures surface as error events on the sink.
		_, _ = e.driver.Stream(ctx, g, engine.NewState(query, history), sink)
	}()
	return sink, nil
}
