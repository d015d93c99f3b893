package core

import "sync/atomic"

// Store holds the active dataset. Replace swaps the whole dataset at once;
// readers calling Current observe either the previous or the new dataset,
// never a mix.
type Store interface {
	Replace(ds *Dataset)
	Current() *Dataset
}

// MemoryStore is a Store backed by an atomic pointer. The zero value is
// ready to use and reports an empty dataset.
type MemoryStore struct {
	current atomic.Pointer[Dataset]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Replace installs ds as the active dataset. A nil ds clears the store.
func (s *MemoryStore) Replace(ds *Dataset) {
	s.current.Store(ds)
}

// Current returns the active dataset, or an empty one if nothing was loaded.
func (s *MemoryStore) Current() *Dataset {
	if ds := s.current.Load(); ds != nil {
		return ds
	}
	return &Dataset{}
}
