package store

import (
	"context"
	"sort"
	"sync"

	"kllc.dev/kllc/internal/engine"
)

// MemoryStore keeps encoded states in process memory. Records are stored as
// bytes so callers never share maps with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

func (s *MemoryStore) Get(_ context.Context, branch string) (*engine.State, bool, error) {
	s.mu.RLock()
	data, ok := s.records[Key(branch)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	state, err := decode(branch, data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (s *MemoryStore) Set(_ context.Context, branch string, state *engine.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records[Key(branch)] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	branches := make([]string, 0, len(s.records))
	for key := range s.records {
		if branch, ok := BranchFromKey(key); ok {
			branches = append(branches, branch)
		}
	}
	sort.Strings(branches)
	return branches, nil
}
