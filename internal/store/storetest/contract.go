// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"kllc.dev/kllc/internal/engine"
)

// Store mirrors store.Store so backends can be checked without an import cycle.
type Store interface {
	Get(ctx context.Context, branch string) (*engine.State, bool, error)
	Set(ctx context.Context, branch string, state *engine.State) error
	List(ctx context.Context) ([]string, error)
}

// RunContract exercises s against the shared store contract. s must be empty.
func RunContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	branch := "feature/42-login"

	t.Run("missing branch is not found", func(t *testing.T) {
		state, ok, err := s.Get(ctx, branch)
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, state)
	})

	state := &engine.State{
		BranchName:       branch,
		BranchType:       engine.BranchFeature,
		CurrentStepIndex: 2,
		Steps: map[string]engine.StepRecord{
			engine.StepPrd:        {Status: engine.StatusCompleted, Value: "https://x.io/prd", Timestamp: 1709629620000},
			engine.StepTechDesign: {Status: engine.StatusCompleted},
		},
	}

	t.Run("round trips state", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, branch, state))

		got, ok, err := s.Get(ctx, branch)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, state, got)
	})

	t.Run("returned state does not alias the store", func(t *testing.T) {
		got, _, err := s.Get(ctx, branch)
		require.NoError(t, err)
		got.Steps[engine.StepEstimate] = engine.StepRecord{Status: engine.StatusPending, Value: "3"}
		got.CurrentStepIndex = 9

		again, _, err := s.Get(ctx, branch)
		require.NoError(t, err)
		require.Equal(t, state, again)
	})

	t.Run("set replaces state", func(t *testing.T) {
		next := state.Clone()
		next.CurrentStepIndex = 3
		require.NoError(t, s.Set(ctx, branch, next))

		got, ok, err := s.Get(ctx, branch)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, 3, got.CurrentStepIndex)
	})

	t.Run("lists stored branches", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "main", &engine.State{
			BranchName: "main",
			BranchType: engine.BranchNonFeature,
			Steps:      map[string]engine.StepRecord{},
		}))

		branches, err := s.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{branch, "main"}, branches)
	})

	t.Run("branch names nest without conflict", func(t *testing.T) {
		parent := &engine.State{BranchName: "feature", BranchType: engine.BranchNonFeature, Steps: map[string]engine.StepRecord{}}
		child := &engine.State{BranchName: "feature/7-nested", BranchType: engine.BranchFeature, Steps: map[string]engine.StepRecord{}}
		require.NoError(t, s.Set(ctx, "feature", parent))
		require.NoError(t, s.Set(ctx, "feature/7-nested", child))

		got, ok, err := s.Get(ctx, "feature")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, parent, got)

		got, ok, err = s.Get(ctx, "feature/7-nested")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, child, got)

		branches, err := s.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"feature", branch, "feature/7-nested", "main"}, branches)
	})

	t.Run("rejects nil state", func(t *testing.T) {
		require.Error(t, s.Set(ctx, "feature/1-nil", nil))
	})
}
