package retrieval

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/types"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type countingSearcher struct {
	calls   int
	results []Result
	err     error
}

func (c *countingSearcher) Search(ctx context.Context, query string, topK int, minScore float64) ([]Result, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.results, nil
}

func TestCachedSearcherReadThrough(t *testing.T) {
	backend := &countingSearcher{results: []Result{{Text: "fragment", Score: 0.9, Source: "doc.md"}}}
	cached := NewCachedSearcher(backend, newTestRedis(t), CacheConfig{TTL: time.Minute}, zap.NewNop())

	ctx := context.Background()
	first, err := cached.Search(ctx, "beijing weather", 3, 0.5)
	require.NoError(t, err)
	second, err := cached.Search(ctx, "beijing weather", 3, 0.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.calls, "second call should hit the cache")
}

func TestCachedSearcherDistinctParams(t *testing.T) {
	backend := &countingSearcher{results: []Result{{Text: "x"}}}
	cached := NewCachedSearcher(backend, newTestRedis(t), CacheConfig{}, zap.NewNop())

	ctx := context.Background()
	_, err := cached.Search(ctx, "q", 3, 0.5)
	require.NoError(t, err)
	_, err = cached.Search(ctx, "q", 5, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 2, backend.calls)
}

func TestCachedSearcherBackendError(t *testing.T) {
	backend := &countingSearcher{err: errors.New("vector store down")}
	cached := NewCachedSearcher(backend, newTestRedis(t), CacheConfig{}, zap.NewNop())

	_, err := cached.Search(context.Background(), "q", 3, 0)
	assert.Error(t, err)
}

func TestClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		w.Write([]byte(`{"results":[{"text":"beijing facts","score":0.82,"source":"cities.md"}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, zap.NewNop())
	results, err := client.Search(context.Background(), "beijing", 4, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cities.md", results[0].Source)
}

func TestClientSearchUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, zap.NewNop())
	_, err := client.Search(context.Background(), "beijing", 4, 0.3)
	require.Error(t, err)
	assert.Equal(t, types.ErrRetrievalUnavailable, types.GetErrorCode(err))
}
