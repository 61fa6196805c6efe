package embedding

import (
	"context"

	"github.com/dgraph-io/ristretto"
)

// CachedEmbedder memoizes an Embedder so repeated texts (re-run queries,
// reindex passes over unchanged entries) embed once.
type CachedEmbedder struct {
	inner Embedder
	cache *ristretto.Cache
}

// NewCached wraps inner with an in-process cache. Falls back to the bare
// embedder if the cache cannot be built.
func NewCached(inner Embedder) Embedder {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 24, // ~16MB of vectors
		BufferItems: 64,
	})
	if err != nil {
		return inner
	}
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.(Vector); ok {
			return vec, nil
		}
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, int64(4*len(vec)))
	c.cache.Wait()
	return vec, nil
}

func (c *CachedEmbedder) Dims() int { return c.inner.Dims() }
