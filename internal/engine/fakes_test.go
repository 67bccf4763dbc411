package engine_test

import (
	"context"
	"sync"
	"time"

	"kllc.dev/kllc/internal/engine"
)

type fakeVCS struct {
	branch    string
	clean     bool
	cleanErr  error
	createErr error
	commitErr error
	tagErr    error

	created  []string
	commits  []string
	tags     []string
	cleanRan int
}

func (f *fakeVCS) CurrentBranch(context.Context) (string, error) { return f.branch, nil }

func (f *fakeVCS) IsClean(context.Context) (bool, error) {
	f.cleanRan++
	return f.clean, f.cleanErr
}

func (f *fakeVCS) CreateBranch(_ context.Context, name, base string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, base+"->"+name)
	f.branch = name
	return nil
}

func (f *fakeVCS) Commit(_ context.Context, message string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeVCS) Tag(_ context.Context, name string) error {
	if f.tagErr != nil {
		return f.tagErr
	}
	f.tags = append(f.tags, name)
	return nil
}

type countingStore struct {
	mu     sync.Mutex
	states map[string]*engine.State
	sets   int
}

func newCountingStore() *countingStore {
	return &countingStore{states: map[string]*engine.State{}}
}

func (s *countingStore) Get(_ context.Context, branch string) (*engine.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[branch]
	return state.Clone(), ok, nil
}

func (s *countingStore) Set(_ context.Context, branch string, state *engine.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.states[branch] = state.Clone()
	return nil
}

func (s *countingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

var fixedNow = time.Date(2024, time.March, 5, 9, 7, 0, 0, time.Local)

func newEngine(vcs *fakeVCS, store *countingStore) *engine.Engine {
	return engine.New(vcs, store, engine.WithClock(func() time.Time { return fixedNow }))
}
