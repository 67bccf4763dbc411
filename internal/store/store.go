// Package store persists lifecycle state, one record per branch.
//
// Backends share the key scheme Key(branch) and the JSON encoding of
// engine.State. None of them evicts or deletes records.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kllc.dev/kllc/internal/engine"
)

// KeyPrefix is prepended to the branch name to form a record key
const KeyPrefix = "kl-lifecycle-state-"

// Backend names accepted by Open
const (
	BackendGitRef = "gitref"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Store reads and writes lifecycle state by branch name
type Store interface {
	// Get returns the state for branch; ok is false when none was stored
	Get(ctx context.Context, branch string) (state *engine.State, ok bool, err error)
	// Set replaces the state for branch
	Set(ctx context.Context, branch string, state *engine.State) error
	// List returns the branches that have a stored state
	List(ctx context.Context) ([]string, error)
}

// Key returns the record key for branch
func Key(branch string) string {
	return KeyPrefix + branch
}

// BranchFromKey reverses Key
func BranchFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, KeyPrefix), true
}

func encode(state *engine.State) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("cannot store a nil state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

func decode(branch string, data []byte) (*engine.State, error) {
	var state engine.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state for %s: %w", branch, err)
	}
	if state.Steps == nil {
		state.Steps = map[string]engine.StepRecord{}
	}
	return &state, nil
}
