package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedTrySendRejectsWhenFull(t *testing.T) {
	b := NewBounded[int](2)
	assert.True(t, b.TrySend(1))
	assert.True(t, b.TrySend(2))
	assert.False(t, b.TrySend(3))

	_, _, rejects := b.Stats()
	assert.Equal(t, int64(1), rejects)
}

func TestBoundedSendReceiveOrder(t *testing.T) {
	b := NewBounded[string](4)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, "a"))
	require.NoError(t, b.Send(ctx, "b"))

	v, ok, err := b.Receive(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = b.TryReceive()
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = b.TryReceive()
	assert.False(t, ok)
}

func TestBoundedSendHonorsContext(t *testing.T) {
	b := NewBounded[int](1)
	require.True(t, b.TrySend(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := b.Send(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBoundedCloseIsIdempotent(t *testing.T) {
	b := NewBounded[int](1)
	b.TrySend(7)
	b.Close()
	b.Close()

	v, ok := b.TryReceive()
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = b.TryReceive()
	assert.False(t, ok)
}
