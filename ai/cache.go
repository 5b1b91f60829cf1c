package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClient wraps an EmbeddingClient with an in-memory LRU cache keyed by
// content hash. Re-embedding identical text (common during re-ingestion and
// repeated queries) skips the backend call entirely, which also avoids
// re-billing paid providers.
type CachedClient struct {
	inner EmbeddingClient
	cache *lru.Cache[string, []float32]
}

// NewCachedClient wraps client with a cache of at most size entries.
// A non-positive size returns the client unwrapped.
func NewCachedClient(client EmbeddingClient, size int) EmbeddingClient {
	if size <= 0 {
		return client
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return client
	}
	return &CachedClient{inner: client, cache: cache}
}

// Embed returns cached vectors where available and delegates the rest to the
// wrapped client in one batch, preserving input order.
func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}

	result := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.key(text)); ok {
			result[i] = cloneVector(vec)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vectors, err := c.inner.Embed(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vectors {
			i := missingIdx[j]
			result[i] = vec
			c.cache.Add(c.key(missing[j]), cloneVector(vec))
		}
	}

	return result, nil
}

func (c *CachedClient) Name() ProviderName { return c.inner.Name() }
func (c *CachedClient) Model() string      { return c.inner.Model() }
func (c *CachedClient) Dimensions() int    { return c.inner.Dimensions() }
func (c *CachedClient) IsPaid() bool       { return c.inner.IsPaid() }
func (c *CachedClient) BatchSize() int     { return c.inner.BatchSize() }

// Close purges the cache and closes the wrapped client.
func (c *CachedClient) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

// key hashes text together with the model so two models never share entries.
func (c *CachedClient) key(text string) string {
	h := sha256.Sum256([]byte(c.inner.Model() + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// cloneVector copies a vector so cached entries are immune to caller mutation.
func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
