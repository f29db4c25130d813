package memory

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/thefailures/jarvis/internal/types"
)

// VectorStore is the append-only collection of vector entries, one per
// recorded turn. Insertion order is the only index: entry i carries id i.
type VectorStore struct {
	mu      sync.RWMutex
	entries []types.MemoryEntry
	path    string
}

// NewVectorStore creates a vector store persisted at path
func NewVectorStore(path string) *VectorStore {
	return &VectorStore{path: path}
}

// Append adds an entry to the store
func (s *VectorStore) Append(entry types.MemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// Get returns the entry with the given id
func (s *VectorStore) Get(id int) (types.MemoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.entries) {
		return types.MemoryEntry{}, false
	}
	return s.entries[id], true
}

// All returns a snapshot of all entries in insertion order
func (s *VectorStore) All() []types.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.MemoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Load reads entries from disk. A missing file leaves the store empty.
func (s *VectorStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []types.MemoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.entries = entries
	return nil
}

// Save writes entries to disk
func (s *VectorStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries
	if entries == nil {
		entries = []types.MemoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
