package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/types"
)

type delayHandler struct{}

func (h *delayHandler) Type() graph.NodeType { return graph.NodeTypeDelay }

// Execute suspends only this run. Other runs keep making progress because
// the wait is a channel select, not a lock.
func (h *delayHandler) Execute(ctx context.Context, _ *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	seconds := node.ConfigFloat("seconds", 0)
	if seconds <= 0 {
		return &Result{}, nil
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Result{Observation: fmt.Sprintf("waited %.1fs", seconds)}, nil
}

type variableHandler struct {
	deps Dependencies
}

func (h *variableHandler) Type() graph.NodeType { return graph.NodeTypeVariable }

func (h *variableHandler) Execute(_ context.Context, st *State, node *graph.Node, _ *graph.Compiled) (*Result, error) {
	name := node.ConfigString("variable_name", "")
	value, err := h.deps.resolver().ResolveValue(node.Config["variable_value"], st)
	if err != nil {
		return nil, err
	}
	return &Result{
		Delta:   map[string]any{name: value},
		Thought: fmt.Sprintf("set %s", name),
	}, nil
}

// loopHandler re-enters the loop node's own successor chain. The first
// outgoing edge is the body entry; the body's last node carries a back-edge
// to the loop node. The loop exits to exit_target config, then the second
// outgoing edge, and completes the run when neither exists.
type loopHandler struct {
	deps Dependencies
}

func (h *loopHandler) Type() graph.NodeType { return graph.NodeTypeLoop }

func (h *loopHandler) Execute(_ context.Context, st *State, node *graph.Node, g *graph.Compiled) (*Result, error) {
	maxIterations := node.ConfigInt("max_iterations", 1)
	counter := st.LoopCounters[node.ID]

	if counter >= h.deps.loopCap() {
		return nil, types.NewError(types.ErrLoopLimitExceeded,
			fmt.Sprintf("loop %s exceeded the iteration ceiling of %d", node.ID, h.deps.loopCap())).WithNodeID(node.ID)
	}

	exit := counter >= maxIterations
	if !exit {
		if expr := node.ConfigString("exit_condition", ""); expr != "" {
			holds, err := EvalBool(expr, st)
			if err != nil {
				return nil, err
			}
			exit = holds
		}
	}

	if exit {
		return h.exitResult(st, node, g, counter)
	}

	st.LoopCounters[node.ID] = counter + 1
	body := g.Successor(node.ID)
	if body == "" {
		return nil, types.NewError(types.ErrRouting,
			fmt.Sprintf("loop %s has no body edge", node.ID)).WithNodeID(node.ID)
	}
	return &Result{
		Next:    body,
		Thought: fmt.Sprintf("iteration %d of %d", counter+1, maxIterations),
	}, nil
}

func (h *loopHandler) exitResult(st *State, node *graph.Node, g *graph.Compiled, counter int) (*Result, error) {
	thought := fmt.Sprintf("loop finished after %d iterations", counter)

	if target := node.ConfigString("exit_target", ""); target != "" {
		if _, ok := g.Node(target); !ok {
			return nil, types.NewError(types.ErrRouting,
				fmt.Sprintf("loop %s exit_target %q is not a node", node.ID, target)).WithNodeID(node.ID)
		}
		return &Result{Next: target, Thought: thought}, nil
	}
	if outgoing := g.Outgoing(node.ID); len(outgoing) > 1 {
		return &Result{Next: outgoing[1], Thought: thought}, nil
	}
	// Nothing past the loop: the run is done.
	return &Result{Thought: thought, Terminal: true}, nil
}
