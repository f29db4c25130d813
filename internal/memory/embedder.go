package memory

import (
	"context"

	"github.com/thefailures/jarvis/internal/cohere"
	"github.com/thefailures/jarvis/internal/logging"
)

// CachedEmbedder fronts the embedding collaborator with the on-disk cache.
// A collaborator failure resolves to (nil, false): callers treat a missing
// embedding as "this turn cannot be indexed" and skip indexing.
type CachedEmbedder struct {
	cache  *EmbeddingCache
	remote cohere.Embedder
}

// NewCachedEmbedder wraps a remote embedder with a cache
func NewCachedEmbedder(cache *EmbeddingCache, remote cohere.Embedder) *CachedEmbedder {
	return &CachedEmbedder{cache: cache, remote: remote}
}

// GetEmbedding returns the vector for a text, consulting the cache first.
// Cache hits make no collaborator call. Misses call the collaborator, store
// the result, and persist the cache. No store lock is held while the
// collaborator call is in flight.
func (e *CachedEmbedder) GetEmbedding(ctx context.Context, text string) ([]float64, bool) {
	if vec, ok := e.cache.Get(text); ok {
		logging.Debug("embed", "cache hit for %q", logging.Truncate(text, 50))
		return vec, true
	}

	vec, err := e.remote.Embed(ctx, text)
	if err != nil {
		logging.Warn("embed", "collaborator failed for %q: %v", logging.Truncate(text, 50), err)
		return nil, false
	}

	e.cache.Put(text, vec)
	if err := e.cache.Save(); err != nil {
		logging.Warn("embed", "failed to persist cache: %v", err)
	}
	return vec, true
}
