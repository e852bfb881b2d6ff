// Package cache stores embedding vectors and fetched pages between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/litscreen/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Namespaces keep keys of different kinds apart. Embedding keys include the
// model name so switching models never serves stale vectors.
const (
	NamespacePage      = "page"
	NamespaceEmbedding = "embedding"
)

// CacheKey derives a filesystem-safe key from a namespace and arbitrary text
func CacheKey(namespace, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "litscreen:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// New returns the cache described by cfg. A disabled cache never hits.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NoopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// NoopCache stores nothing
type NoopCache struct{}

func (NoopCache) Get(string) ([]byte, bool)               { return nil, false }
func (NoopCache) Set(string, []byte, time.Duration) error { return nil }
func (NoopCache) Delete(string) error                     { return nil }
func (NoopCache) Clear() error                            { return nil }
