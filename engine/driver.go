package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/internal/metrics"
	"github.com/cozelabs/agentgraph/types"
)

// Status is the lifecycle state of one workflow run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

// DefaultStepBudget caps total node executions per run. It is the backstop
// against runaway cycles and misconfigured or nested loops; loop nodes
// enforce their own max_iterations independently.
const DefaultStepBudget = 200

// Options configure a Driver.
type Options struct {
	// StepBudget caps node executions per run. Zero applies
	// DefaultStepBudget.
	StepBudget int
	Logger     *zap.Logger
	Metrics    *metrics.Collector
	Tracer     trace.Tracer
}

// Driver walks a compiled graph one node at a time: dispatch the handler,
// merge its delta, forward its events, then move to the handler's dynamic
// target or the static edge. Drivers are stateless across runs and safe for
// concurrent use.
type Driver struct {
	registry   *Registry
	stepBudget int
	logger     *zap.Logger
	metrics    *metrics.Collector
	tracer     trace.Tracer
}

// NewDriver creates a driver dispatching to the given handler registry.
func NewDriver(registry *Registry, opts Options) *Driver {
	budget := opts.StepBudget
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("agentgraph/engine")
	}
	return &Driver{
		registry:   registry,
		stepBudget: budget,
		logger:     logger.With(zap.String("component", "driver")),
		metrics:    opts.Metrics,
		tracer:     tracer,
	}
}

// Run executes the graph to completion in batch mode, discarding events,
// and returns the final state.
func (d *Driver) Run(ctx context.Context, g *graph.Compiled, st *State) (*State, error) {
	if err := d.execute(ctx, g, st, nil); err != nil {
		return nil, err
	}
	return st, nil
}

// Stream executes the graph while emitting execution events to sink. The
// stream ends with a content event carrying the final answer, or an error
// event; the sink is closed either way.
func (d *Driver) Stream(ctx context.Context, g *graph.Compiled, st *State, sink *Sink) (*State, error) {
	defer sink.Close()
	sink.OnDrop(d.metrics.EventDropped)
	if err := d.execute(ctx, g, st, sink); err != nil {
		return nil, err
	}
	return st, nil
}

func (d *Driver) execute(ctx context.Context, g *graph.Compiled, st *State, sink *Sink) error {
	runID, _ := types.RunID(ctx)
	logger := d.logger.With(zap.String("run_id", runID))
	runStart := time.Now()

	ctx, span := d.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("workflow.run_id", runID),
			attribute.Int("workflow.nodes", g.Len()),
		))
	defer span.End()

	fail := func(status Status, err error) error {
		span.SetStatus(codes.Error, err.Error())
		d.metrics.RunFinished(string(status), time.Since(runStart))
		logger.Warn("run ended abnormally",
			zap.String("status", string(status)),
			zap.Int("steps", st.StepCount),
			zap.Error(err))
		emit(sink, types.NewErrorEvent("", err.Error()))
		return err
	}

	current := g.Start()
	for current != "" {
		if ctx.Err() != nil {
			return fail(StatusAborted, types.NewError(types.ErrRunAborted, "run cancelled").WithCause(ctx.Err()))
		}
		if st.StepCount >= d.stepBudget {
			return fail(StatusFailed, types.NewError(types.ErrStepLimitExceeded,
				fmt.Sprintf("step budget of %d exhausted", d.stepBudget)))
		}

		node, ok := g.Node(current)
		if !ok {
			return fail(StatusFailed, types.NewError(types.ErrRouting,
				fmt.Sprintf("transfer to unknown node %q", current)))
		}
		handler, err := d.registry.Get(node.Type)
		if err != nil {
			return fail(StatusFailed, err)
		}

		emit(sink, types.NewNodeStartEvent(node.ID, string(node.Type), NodeIcon(node.Type)))

		nodeStart := time.Now()
		nodeCtx, nodeSpan := d.tracer.Start(ctx, "workflow.node",
			trace.WithAttributes(
				attribute.String("workflow.node_id", node.ID),
				attribute.String("workflow.node_type", string(node.Type)),
			))
		result, err := handler.Execute(nodeCtx, st, node, g)
		nodeDuration := time.Since(nodeStart)

		if err != nil {
			nodeSpan.SetStatus(codes.Error, err.Error())
			nodeSpan.End()
			d.metrics.NodeExecuted(string(node.Type), "failed", nodeDuration)
			emit(sink, types.NewNodeEndEvent(node.ID, string(node.Type), "failed"))

			if ctx.Err() != nil {
				return fail(StatusAborted, types.NewError(types.ErrRunAborted, "run cancelled").WithCause(err))
			}
			return fail(StatusFailed, withNodeID(err, node.ID))
		}
		nodeSpan.End()
		d.metrics.NodeExecuted(string(node.Type), "completed", nodeDuration)

		st.Apply(result.Delta)
		st.StepCount++
		st.Visited[node.ID]++

		for _, ev := range result.Events {
			emit(sink, ev)
		}
		end := types.NewNodeEndEvent(node.ID, string(node.Type), "completed")
		end.Icon = NodeIcon(node.Type)
		end.Thought = result.Thought
		end.Observation = result.Observation
		emit(sink, end)

		logger.Debug("node executed",
			zap.String("node_id", node.ID),
			zap.String("node_type", string(node.Type)),
			zap.Duration("duration", nodeDuration),
			zap.Int("step", st.StepCount))

		if result.Terminal {
			break
		}

		next := result.Next
		if next == "" {
			next = g.Successor(current)
		} else if _, ok := g.Node(next); !ok {
			return fail(StatusFailed, types.NewError(types.ErrRouting,
				fmt.Sprintf("handler for %s targeted unknown node %q", node.ID, next)).WithNodeID(node.ID))
		}
		current = next
	}

	span.SetStatus(codes.Ok, "")
	d.metrics.RunFinished(string(StatusCompleted), time.Since(runStart))
	logger.Info("run completed",
		zap.Int("steps", st.StepCount),
		zap.Duration("duration", time.Since(runStart)))
	emit(sink, types.NewContentEvent(st.GetString(KeyFinalAnswer)))
	return nil
}

func emit(sink *Sink, ev types.ExecutionEvent) {
	if sink != nil {
		sink.Emit(ev)
	}
}

// withNodeID stamps the failing node onto a typed error that does not carry
// one yet.
func withNodeID(err error, nodeID string) error {
	var typed *types.Error
	if errors.As(err, &typed) && typed.NodeID == "" {
		typed.NodeID = nodeID
	}
	return err
}
