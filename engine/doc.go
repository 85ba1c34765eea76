// Package engine executes compiled workflow graphs: it threads a single
// mutable execution state along one path through the graph, dispatches node
// handlers, applies dynamic control transfer, enforces step and loop budgets,
// and streams progress events to a per-run sink.
//
// One chat turn creates one run. Runs are independent and may execute
// concurrently; within a run, handlers execute strictly sequentially.
package engine
