package memory

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"sync"

	"github.com/zeebo/blake3"
)

// EmbeddingCache memoizes text → vector so the same text is never embedded
// twice. Pure memoization: entries are keyed by a hash of the exact text and
// never evicted.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[string][]float64
	path    string
}

// NewEmbeddingCache creates a cache persisted at path
func NewEmbeddingCache(path string) *EmbeddingCache {
	return &EmbeddingCache{
		entries: make(map[string][]float64),
		path:    path,
	}
}

// Key returns the stable cache key for a text
func Key(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for a text, if any
func (c *EmbeddingCache) Get(text string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.entries[Key(text)]
	return vec, ok
}

// Put stores a vector for a text
func (c *EmbeddingCache) Put(text string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(text)] = vector
}

// Len returns the number of cached entries
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load reads the cache from disk. A missing file leaves the cache empty.
func (c *EmbeddingCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	entries := make(map[string][]float64)
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	c.entries = entries
	return nil
}

// Save writes the cache to disk
func (c *EmbeddingCache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := json.Marshal(c.entries)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
