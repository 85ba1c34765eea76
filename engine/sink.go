package engine

import (
	"sync/atomic"

	"github.com/cozelabs/agentgraph/internal/channel"
	"github.com/cozelabs/agentgraph/types"
)

const defaultSinkCapacity = 256

// Sink buffers the execution events of one run. The producer never blocks:
// when the buffer is full the oldest event is dropped to make room, so a
// slow or absent consumer cannot stall the run. Delivery order of retained
// events matches emission order.
//
// One Sink serves one run. The driver is the only producer and closes the
// Sink when the run ends.
type Sink struct {
	ch      *channel.Bounded[types.ExecutionEvent]
	closed  atomic.Bool
	dropped atomic.Int64

	// onDrop, when set, is called once per dropped event.
	onDrop func()
}

// NewSink creates a sink with the given buffer capacity. Zero or negative
// applies the default.
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = defaultSinkCapacity
	}
	return &Sink{ch: channel.NewBounded[types.ExecutionEvent](capacity)}
}

// OnDrop registers a callback invoked for every dropped event. Must be set
// before the run starts.
func (s *Sink) OnDrop(fn func()) {
	s.onDrop = fn
}

// Emit buffers an event, discarding the oldest buffered event when full.
// Safe to call after Close, where it is a no-op.
func (s *Sink) Emit(ev types.ExecutionEvent) {
	if s.closed.Load() {
		return
	}
	for !s.ch.TrySend(ev) {
		if _, ok := s.ch.TryReceive(); ok {
			s.dropped.Add(1)
			if s.onDrop != nil {
				s.onDrop()
			}
			continue
		}
		// Buffer drained by the consumer between attempts; retry the send.
	}
}

// Events returns the consumer side of the sink. The channel closes when the
// run ends.
func (s *Sink) Events() <-chan types.ExecutionEvent {
	return s.ch.Chan()
}

// Dropped reports how many events were discarded.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close marks the sink finished. Idempotent.
func (s *Sink) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.ch.Close()
	}
}
