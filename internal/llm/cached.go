package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/cache"
)

// CachedEmbedder serves repeated texts from a cache. Keys include the model
// name so vectors from different models never mix.
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	model string
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCachedEmbedder wraps next with c. A zero ttl uses the cache default.
func NewCachedEmbedder(next Embedder, c cache.Cache, modelName string, ttl time.Duration, log logrus.FieldLogger) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: c, model: modelName, ttl: ttl, log: log}
}

// Name returns the wrapped provider name
func (c *CachedEmbedder) Name() string {
	return c.next.Name()
}

// Embed returns the cached vector for text or computes and stores it
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cache.CacheKey(cache.NamespaceEmbedding, c.model+"\x00"+text)

	if data, ok := c.cache.Get(key); ok {
		var vec []float64
		if err := json.Unmarshal(data, &vec); err == nil {
			return vec, nil
		}
		// Corrupt entry: recompute below and overwrite it
		_ = c.cache.Delete(key)
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(vec)
	if err == nil {
		err = c.cache.Set(key, data, c.ttl)
	}
	if err != nil {
		c.log.WithError(err).Warn("failed to cache embedding")
	}
	return vec, nil
}
