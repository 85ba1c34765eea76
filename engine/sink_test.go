package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozelabs/agentgraph/types"
)

func TestSinkDeliversInOrder(t *testing.T) {
	sink := NewSink(8)
	sink.Emit(types.NewNodeStartEvent("a", "planner", ""))
	sink.Emit(types.NewNodeEndEvent("a", "planner", "completed"))
	sink.Emit(types.NewContentEvent("done"))
	sink.Close()

	var kinds []types.EventKind
	for ev := range sink.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []types.EventKind{types.EventNodeStart, types.EventNodeEnd, types.EventContent}, kinds)
}

func TestSinkDropsOldestWhenFull(t *testing.T) {
	sink := NewSink(2)
	dropped := 0
	sink.OnDrop(func() { dropped++ })

	sink.Emit(types.NewContentEvent("1"))
	sink.Emit(types.NewContentEvent("2"))
	sink.Emit(types.NewContentEvent("3"))
	sink.Close()

	var contents []string
	for ev := range sink.Events() {
		contents = append(contents, ev.Content)
	}
	assert.Equal(t, []string{"2", "3"}, contents)
	assert.Equal(t, int64(1), sink.Dropped())
	assert.Equal(t, 1, dropped)
}

func TestSinkEmitAfterCloseIsNoop(t *testing.T) {
	sink := NewSink(2)
	sink.Close()
	require.NotPanics(t, func() {
		sink.Emit(types.NewContentEvent("late"))
	})

	_, open := <-sink.Events()
	assert.False(t, open)
}
