package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/types"
)

func TestRegistryInvoke(t *testing.T) {
	registry := NewRegistry(0, zap.NewNop())
	registry.Register(NewFuncTool("weather", "queries weather", func(ctx context.Context, args map[string]any) (any, error) {
		assert.Equal(t, "Beijing", args["city"])
		return map[string]any{"temp": 20, "condition": "cloudy"}, nil
	}))

	result, err := registry.Invoke(context.Background(), "weather", map[string]any{"city": "Beijing"})
	require.NoError(t, err)
	assert.Equal(t, "cloudy", result.(map[string]any)["condition"])
}

func TestRegistryUnknownTool(t *testing.T) {
	registry := NewRegistry(0, zap.NewNop())
	_, err := registry.Invoke(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrToolNotFound, types.GetErrorCode(err))
}

func TestRegistryWrapsRemoteError(t *testing.T) {
	registry := NewRegistry(0, zap.NewNop())
	registry.Register(NewFuncTool("flaky", "", func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("upstream exploded")
	}))

	_, err := registry.Invoke(context.Background(), "flaky", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrToolRemote, types.GetErrorCode(err))
}

func TestRegistryTimeout(t *testing.T) {
	registry := NewRegistry(20*time.Millisecond, zap.NewNop())
	registry.Register(NewFuncTool("slow", "", func(ctx context.Context, args map[string]any) (any, error) {
		select {
		case <-time.After(time.Second):
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}))

	_, err := registry.Invoke(context.Background(), "slow", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrToolTimeout, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestRegistryList(t *testing.T) {
	registry := NewRegistry(0, zap.NewNop())
	registry.Register(NewFuncTool("a", "", nil))
	registry.Register(NewFuncTool("b", "", nil))
	assert.ElementsMatch(t, []string{"a", "b"}, registry.List())
}

func TestHTTPToolExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"temp":20,"condition":"cloudy"}`))
	}))
	defer srv.Close()

	tool := NewHTTPTool("weather", "remote weather", srv.URL, time.Second)
	result, err := tool.Execute(context.Background(), map[string]any{"city": "Beijing"})
	require.NoError(t, err)
	assert.Equal(t, "cloudy", result.(map[string]any)["condition"])
}

func TestHTTPToolRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := NewHTTPTool("weather", "", srv.URL, time.Second)
	_, err := tool.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrToolRemote, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestHTTPToolPlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sunny, 25C"))
	}))
	defer srv.Close()

	tool := NewHTTPTool("weather", "", srv.URL, time.Second)
	result, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "sunny, 25C", result)
}
