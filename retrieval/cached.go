package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheConfig configures the Redis-backed search cache.
type CacheConfig struct {
	TTL       time.Duration `yaml:"ttl" json:"ttl"`
	KeyPrefix string        `yaml:"key_prefix" json:"key_prefix"`
}

// CachedSearcher wraps a Searcher with a Redis result cache. Identical
// queries within the TTL are served from the cache; cache failures fall
// through to the backend rather than failing the search.
type CachedSearcher struct {
	backend Searcher
	redis   redis.UniversalClient
	config  CacheConfig
	logger  *zap.Logger
}

// NewCachedSearcher creates a cached searcher.
func NewCachedSearcher(backend Searcher, rdb redis.UniversalClient, config CacheConfig, logger *zap.Logger) *CachedSearcher {
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "agentgraph:search"
	}
	return &CachedSearcher{
		backend: backend,
		redis:   rdb,
		config:  config,
		logger:  logger.With(zap.String("component", "search_cache")),
	}
}

func (s *CachedSearcher) cacheKey(query string, topK int, minScore float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%.4f", query, topK, minScore)))
	return s.config.KeyPrefix + ":" + hex.EncodeToString(sum[:16])
}

// Search implements Searcher with read-through caching.
func (s *CachedSearcher) Search(ctx context.Context, query string, topK int, minScore float64) ([]Result, error) {
	key := s.cacheKey(query, topK, minScore)

	if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
		var results []Result
		if err := json.Unmarshal(cached, &results); err == nil {
			s.logger.Debug("search cache hit", zap.String("key", key))
			return results, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn("search cache read failed", zap.Error(err))
	}

	results, err := s.backend.Search(ctx, query, topK, minScore)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		if err := s.redis.Set(ctx, key, data, s.config.TTL).Err(); err != nil {
			s.logger.Warn("search cache write failed", zap.Error(err))
		}
	}
	return results, nil
}
