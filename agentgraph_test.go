package agentgraph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozelabs/agentgraph/engine"
	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/testutil/mocks"
	"github.com/cozelabs/agentgraph/types"
)

func simpleDefinition() *graph.Definition {
	return &graph.Definition{
		Nodes: []graph.Node{
			{ID: "plan", Type: graph.NodeTypePlanner},
			{ID: "answer", Type: graph.NodeTypeSynthesizer},
		},
		Edges: []graph.Edge{{Source: "plan", Target: "answer"}},
	}
}

func TestEngineRunReturnsFinalState(t *testing.T) {
	completer := mocks.NewMockCompleter().WithResponse("1. answer directly", "Hello there.")
	eng := New(engine.Dependencies{Completer: completer})

	final, err := eng.Run(context.Background(), simpleDefinition(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", final[engine.KeyFinalAnswer])
	assert.Equal(t, "hi", final[engine.KeyUserQuery])
}

func TestEngineRunRejectsInvalidDefinition(t *testing.T) {
	eng := New(engine.Dependencies{Completer: mocks.NewMockCompleter()})
	def := simpleDefinition()
	def.Nodes = def.Nodes[:1] // no terminal node

	_, err := eng.Run(context.Background(), def, "hi", nil)
	require.Error(t, err)
	var verr *graph.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEngineStreamEndsWithContent(t *testing.T) {
	completer := mocks.NewMockCompleter().WithResponse("1. answer", "Done.")
	eng := New(engine.Dependencies{Completer: completer}, WithSinkCapacity(32))

	sink, err := eng.Stream(context.Background(), simpleDefinition(), "hi", nil)
	require.NoError(t, err)

	var last types.ExecutionEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-sink.Events():
			if !ok {
				assert.Equal(t, types.EventContent, last.Kind)
				assert.Equal(t, "Done.", last.Content)
				return
			}
			last = ev
		case <-deadline:
			t.Fatal("stream did not finish")
		}
	}
}
