// Package channel provides the bounded channel primitive backing per-run
// event sinks.
package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Bounded is a fixed-capacity buffered channel with non-blocking send and
// receive variants and idempotent close. It carries the event stream of one
// workflow run.
type Bounded[T any] struct {
	ch        chan T
	closeOnce sync.Once

	sends    atomic.Int64
	receives atomic.Int64
	rejects  atomic.Int64
}

// NewBounded creates a bounded channel with the given capacity.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		capacity = 64
	}
	return &Bounded[T]{ch: make(chan T, capacity)}
}

// Send sends a value, blocking until space is available or ctx is done.
func (b *Bounded[T]) Send(ctx context.Context, v T) error {
	select {
	case b.ch <- v:
		b.sends.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend attempts a non-blocking send.
func (b *Bounded[T]) TrySend(v T) bool {
	select {
	case b.ch <- v:
		b.sends.Add(1)
		return true
	default:
		b.rejects.Add(1)
		return false
	}
}

// Receive receives a value, blocking until one is available or ctx is done.
// The second return is false once the channel is closed and drained.
func (b *Bounded[T]) Receive(ctx context.Context) (T, bool, error) {
	select {
	case v, ok := <-b.ch:
		if ok {
			b.receives.Add(1)
		}
		return v, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// TryReceive attempts a non-blocking receive.
func (b *Bounded[T]) TryReceive() (T, bool) {
	select {
	case v, ok := <-b.ch:
		if ok {
			b.receives.Add(1)
		}
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Chan exposes the underlying receive channel for range consumption.
func (b *Bounded[T]) Chan() <-chan T {
	return b.ch
}

// Close closes the channel. Safe to call more than once.
func (b *Bounded[T]) Close() {
	b.closeOnce.Do(func() { close(b.ch) })
}

// Len returns the number of buffered values.
func (b *Bounded[T]) Len() int { return len(b.ch) }

// Cap returns the channel capacity.
func (b *Bounded[T]) Cap() int { return cap(b.ch) }

// Stats reports send, receive, and rejected-send counts.
func (b *Bounded[T]) Stats() (sends, receives, rejects int64) {
	return b.sends.Load(), b.receives.Load(), b.rejects.Load()
}
