package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"kllc.dev/kllc/internal/engine"
	kllcerrors "kllc.dev/kllc/internal/errors"
)

const featureBranch = "feature/42-login"

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and persists initial state once", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{}, store)

		first, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		require.Equal(t, engine.BranchFeature, first.BranchType)
		require.Equal(t, 0, first.CurrentStepIndex)
		require.Empty(t, first.Steps)

		second, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, 1, store.setCount())
	})

	t.Run("classifies non-feature branches", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, "main")
		require.NoError(t, err)
		require.Equal(t, engine.BranchNonFeature, state.BranchType)
	})

	t.Run("never overwrites existing state", func(t *testing.T) {
		store := newCountingStore()
		require.NoError(t, store.Set(ctx, featureBranch, &engine.State{
			BranchName:       featureBranch,
			BranchType:       engine.BranchFeature,
			CurrentStepIndex: 3,
			Steps:            map[string]engine.StepRecord{},
		}))
		e := newEngine(&fakeVCS{}, store)

		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		require.Equal(t, 3, state.CurrentStepIndex)
		require.Equal(t, 1, store.setCount())
	})
}

func TestApplyStepEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("records pending value and keeps index", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{}, store)
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		next, err := e.ApplyStepEdit(ctx, state, engine.StepTechDesign, "https://x.io/td")
		require.NoError(t, err)
		require.Equal(t, 0, next.CurrentStepIndex)
		require.Equal(t, engine.StepRecord{
			Status:    engine.StatusPending,
			Value:     "https://x.io/td",
			Timestamp: fixedNow.UnixMilli(),
		}, next.Steps[engine.StepTechDesign])
		require.Empty(t, state.Steps, "input state must not be mutated")

		resolved, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		require.Equal(t, next, resolved)
	})

	t.Run("rejects unknown step", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		_, err = e.ApplyStepEdit(ctx, state, "bogus", "x")
		require.ErrorIs(t, err, kllcerrors.ErrInvalidStep)
	})

	t.Run("rejects intake steps", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		_, err = e.ApplyStepEdit(ctx, state, engine.StepPrd, "https://x.io/other")
		require.ErrorIs(t, err, kllcerrors.ErrInvalidStep)
	})

	t.Run("rejects passed steps", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		state, err = e.AdvanceStep(ctx, state, 0)
		require.NoError(t, err)

		_, err = e.ApplyStepEdit(ctx, state, engine.StepTechDesign, "late")
		require.ErrorIs(t, err, kllcerrors.ErrInvalidStep)
	})

	t.Run("rejects non-feature branches", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{}, store)
		state, err := e.Resolve(ctx, "main")
		require.NoError(t, err)

		_, err = e.ApplyStepEdit(ctx, state, engine.StepTechDesign, "x")
		require.ErrorIs(t, err, kllcerrors.ErrNotFeatureBranch)
		require.Equal(t, 1, store.setCount())
	})
}

func TestAdvanceStep(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong index leaves state untouched", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{}, store)
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		_, err = e.AdvanceStep(ctx, state, 2)
		require.ErrorIs(t, err, kllcerrors.ErrOutOfOrder)

		var oooErr *kllcerrors.OutOfOrderError
		require.True(t, errors.As(err, &oooErr))
		require.Equal(t, 0, oooErr.Current)
		require.Equal(t, 2, oooErr.Requested)
		require.Equal(t, 1, store.setCount())

		stored, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		require.Equal(t, state, stored)
	})

	t.Run("completes step keeping its value", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		state, err = e.ApplyStepEdit(ctx, state, engine.StepTechDesign, "https://x.io/td")
		require.NoError(t, err)

		state, err = e.AdvanceStep(ctx, state, 0)
		require.NoError(t, err)
		require.Equal(t, 1, state.CurrentStepIndex)
		require.Equal(t, engine.StatusCompleted, state.Steps[engine.StepTechDesign].Status)
		require.Equal(t, "https://x.io/td", state.Steps[engine.StepTechDesign].Value)
	})

	t.Run("required step needs a value", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state := &engine.State{
			BranchName:       featureBranch,
			BranchType:       engine.BranchFeature,
			CurrentStepIndex: 3,
			Steps:            map[string]engine.StepRecord{},
		}

		_, err := e.AdvanceStep(ctx, state, 3)
		require.ErrorIs(t, err, kllcerrors.ErrInvalidStep)
	})

	t.Run("choice must be allowed", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state := &engine.State{
			BranchName:       featureBranch,
			BranchType:       engine.BranchFeature,
			CurrentStepIndex: 3,
			Steps: map[string]engine.StepRecord{
				engine.StepSelfTest: {Status: engine.StatusPending, Value: "failed"},
			},
		}

		_, err := e.AdvanceStep(ctx, state, 3)
		require.ErrorIs(t, err, kllcerrors.ErrInvalidStep)

		state.Steps[engine.StepSelfTest] = engine.StepRecord{Status: engine.StatusPending, Value: "passed"}
		next, err := e.AdvanceStep(ctx, state, 3)
		require.NoError(t, err)
		require.Equal(t, 4, next.CurrentStepIndex)
	})

	t.Run("number must be numeric", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state := &engine.State{
			BranchName:       featureBranch,
			BranchType:       engine.BranchFeature,
			CurrentStepIndex: 1,
			Steps: map[string]engine.StepRecord{
				engine.StepEstimate: {Status: engine.StatusPending, Value: "three"},
			},
		}

		_, err := e.AdvanceStep(ctx, state, 1)
		require.ErrorIs(t, err, kllcerrors.ErrInvalidStep)
	})

	t.Run("full walk finishes the lifecycle", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{}, store)
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		for i := 0; i < engine.StepCount(); i++ {
			if i == 3 {
				state, err = e.ApplyStepEdit(ctx, state, engine.StepSelfTest, "passed")
				require.NoError(t, err)
			}
			state, err = e.AdvanceStep(ctx, state, i)
			require.NoError(t, err)
		}

		require.Equal(t, engine.StepCount(), state.CurrentStepIndex)
		require.True(t, state.Finished())
		require.Equal(t, engine.PhaseFinished, state.Phase())

		_, err = e.AdvanceStep(ctx, state, engine.StepCount())
		require.ErrorIs(t, err, kllcerrors.ErrLifecycleFinished)
	})
}

func TestSaveState(t *testing.T) {
	ctx := context.Background()
	session := engine.Session{Branch: featureBranch}

	t.Run("same index edits current step", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		submitted := state.Clone()
		submitted.Steps[engine.StepTechDesign] = engine.StepRecord{Status: engine.StatusCompleted, Value: "https://x.io/td", Timestamp: 1}

		saved, err := e.SaveState(ctx, session, submitted)
		require.NoError(t, err)
		require.Equal(t, 0, saved.CurrentStepIndex)
		require.Equal(t, engine.StatusPending, saved.Steps[engine.StepTechDesign].Status)
		require.Equal(t, fixedNow.UnixMilli(), saved.Steps[engine.StepTechDesign].Timestamp)
	})

	t.Run("next index edits then advances", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		submitted := state.Clone()
		submitted.CurrentStepIndex = 1
		submitted.Steps[engine.StepTechDesign] = engine.StepRecord{Status: engine.StatusCompleted, Value: "https://x.io/td"}

		saved, err := e.SaveState(ctx, session, submitted)
		require.NoError(t, err)
		require.Equal(t, 1, saved.CurrentStepIndex)
		require.Equal(t, engine.StatusCompleted, saved.Steps[engine.StepTechDesign].Status)
		require.Equal(t, "https://x.io/td", saved.Steps[engine.StepTechDesign].Value)
	})

	t.Run("skipping ahead is out of order", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{}, store)
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)

		submitted := state.Clone()
		submitted.CurrentStepIndex = 4

		_, err = e.SaveState(ctx, session, submitted)
		require.ErrorIs(t, err, kllcerrors.ErrOutOfOrder)
		require.Equal(t, 1, store.setCount())
	})

	t.Run("rolling back is out of order", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		state, err := e.Resolve(ctx, featureBranch)
		require.NoError(t, err)
		state, err = e.AdvanceStep(ctx, state, 0)
		require.NoError(t, err)

		submitted := state.Clone()
		submitted.CurrentStepIndex = 0

		_, err = e.SaveState(ctx, session, submitted)
		require.ErrorIs(t, err, kllcerrors.ErrOutOfOrder)
	})

	t.Run("branch mismatch is rejected", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		_, err := e.SaveState(ctx, engine.Session{Branch: "feature/1-other"}, &engine.State{
			BranchName: featureBranch,
			BranchType: engine.BranchFeature,
		})
		require.ErrorIs(t, err, kllcerrors.ErrInvalidRequest)
	})
}

func TestCreateCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("creates branch and populated state", func(t *testing.T) {
		vcs := &fakeVCS{clean: true}
		store := newCountingStore()
		e := newEngine(vcs, store)

		result, err := e.CreateCycle(ctx, engine.CycleRequest{
			PrdLink:  "https://x.io/specs/My Cool Feature!",
			MeegleID: "42",
		})
		require.NoError(t, err)
		require.Empty(t, result.Warnings)
		require.Equal(t, "feature/42-my-cool-feature-", result.Branch)
		require.Equal(t, []string{"master->feature/42-my-cool-feature-"}, vcs.created)

		state := result.State
		require.Equal(t, engine.BranchFeature, state.BranchType)
		require.Equal(t, 0, state.CurrentStepIndex)
		require.Equal(t, engine.StatusCompleted, state.Steps[engine.StepPrd].Status)
		require.Equal(t, "42", state.Steps[engine.StepMeegleID].Value)
		require.Equal(t, engine.StatusSkipped, state.Steps[engine.StepDesign].Status)

		stored, ok, err := store.Get(ctx, result.Branch)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, state, stored)
	})

	t.Run("design link completes design step", func(t *testing.T) {
		e := newEngine(&fakeVCS{clean: true}, newCountingStore())
		result, err := e.CreateCycle(ctx, engine.CycleRequest{
			PrdLink:    "https://x.io/specs/login",
			MeegleID:   "7",
			BaseBranch: "develop",
			DesignLink: "https://figma.example.com/file/abc",
		})
		require.NoError(t, err)
		require.Equal(t, engine.StepRecord{
			Status:    engine.StatusCompleted,
			Value:     "https://figma.example.com/file/abc",
			Timestamp: fixedNow.UnixMilli(),
		}, result.State.Steps[engine.StepDesign])
	})

	t.Run("dirty working copy stops before branching", func(t *testing.T) {
		vcs := &fakeVCS{clean: false}
		store := newCountingStore()
		e := newEngine(vcs, store)

		_, err := e.CreateCycle(ctx, engine.CycleRequest{PrdLink: "https://x.io/a", MeegleID: "1"})
		require.ErrorIs(t, err, kllcerrors.ErrDirtyWorkingCopy)
		require.Equal(t, kllcerrors.CodeDirtyWorkingCopy, kllcerrors.Code(err))
		require.Empty(t, vcs.created)
		require.Zero(t, store.setCount())
	})

	t.Run("scheme-less link keeps its slug", func(t *testing.T) {
		e := newEngine(&fakeVCS{clean: true}, newCountingStore())
		result, err := e.CreateCycle(ctx, engine.CycleRequest{PrdLink: "wiki/Login-Flow", MeegleID: "9"})
		require.NoError(t, err)
		require.Equal(t, "feature/9-login-flow", result.Branch)
		require.Empty(t, result.Warnings)
	})

	t.Run("unparseable link falls back with warning", func(t *testing.T) {
		e := newEngine(&fakeVCS{clean: true}, newCountingStore())
		result, err := e.CreateCycle(ctx, engine.CycleRequest{PrdLink: "https://x.io/prd/\x01login", MeegleID: "9"})
		require.NoError(t, err)
		require.Equal(t, "feature/9-new-feature", result.Branch)
		require.Len(t, result.Warnings, 1)
		require.Equal(t, kllcerrors.CodeLinkParse, result.Warnings[0].Code)
	})

	t.Run("branch failure persists nothing", func(t *testing.T) {
		store := newCountingStore()
		e := newEngine(&fakeVCS{clean: true, createErr: errors.New("boom")}, store)

		_, err := e.CreateCycle(ctx, engine.CycleRequest{PrdLink: "https://x.io/a", MeegleID: "1"})
		require.ErrorIs(t, err, kllcerrors.ErrBranchCreation)
		require.Zero(t, store.setCount())
	})

	t.Run("validates request", func(t *testing.T) {
		vcs := &fakeVCS{clean: true}
		e := newEngine(vcs, newCountingStore())

		_, err := e.CreateCycle(ctx, engine.CycleRequest{MeegleID: "1"})
		require.ErrorIs(t, err, kllcerrors.ErrInvalidRequest)

		_, err = e.CreateCycle(ctx, engine.CycleRequest{PrdLink: "https://x.io/a", MeegleID: "12a"})
		require.ErrorIs(t, err, kllcerrors.ErrInvalidRequest)
		require.Zero(t, vcs.cleanRan)
	})
}

func TestDispatchGitAction(t *testing.T) {
	ctx := context.Background()
	state := &engine.State{
		BranchName:       featureBranch,
		BranchType:       engine.BranchFeature,
		CurrentStepIndex: 4,
		Steps: map[string]engine.StepRecord{
			engine.StepMeegleID: {Status: engine.StatusCompleted, Value: "42"},
		},
	}

	t.Run("commits without tag", func(t *testing.T) {
		vcs := &fakeVCS{}
		e := newEngine(vcs, newCountingStore())

		result, err := e.DispatchGitAction(ctx, state, engine.GitAction{Action: engine.GitActionCommit, StepID: engine.StepDevelopment})
		require.NoError(t, err)
		require.Equal(t, "feat(42): update for development", result.Commit)
		require.Empty(t, result.Tag)
		require.Empty(t, vcs.tags)
	})

	t.Run("commits and tags", func(t *testing.T) {
		vcs := &fakeVCS{}
		e := newEngine(vcs, newCountingStore())

		result, err := e.DispatchGitAction(ctx, state, engine.GitAction{
			Action:    engine.GitActionCommit,
			StepID:    engine.StepTestDeploy,
			TagPrefix: "test",
		})
		require.NoError(t, err)
		require.Equal(t, "test-feature/42-0305-09-07", result.Tag)
		require.Equal(t, []string{"test-feature/42-0305-09-07"}, vcs.tags)
	})

	t.Run("missing meegle id uses placeholder", func(t *testing.T) {
		vcs := &fakeVCS{}
		e := newEngine(vcs, newCountingStore())
		bare := &engine.State{BranchName: featureBranch, BranchType: engine.BranchFeature, Steps: map[string]engine.StepRecord{}}

		result, err := e.DispatchGitAction(ctx, bare, engine.GitAction{Action: engine.GitActionCommit, StepID: engine.StepDevelopment})
		require.NoError(t, err)
		require.Equal(t, "feat(0000): update for development", result.Commit)
	})

	t.Run("commit failure skips tag", func(t *testing.T) {
		vcs := &fakeVCS{commitErr: errors.New("nothing to commit")}
		e := newEngine(vcs, newCountingStore())

		_, err := e.DispatchGitAction(ctx, state, engine.GitAction{Action: engine.GitActionCommit, StepID: engine.StepTestDeploy, TagPrefix: "test"})
		require.ErrorIs(t, err, kllcerrors.ErrCommit)
		require.Equal(t, kllcerrors.CodeCommit, kllcerrors.Code(err))
		require.Empty(t, vcs.tags)
	})

	t.Run("tag failure keeps commit", func(t *testing.T) {
		vcs := &fakeVCS{tagErr: errors.New("tag exists")}
		e := newEngine(vcs, newCountingStore())

		result, err := e.DispatchGitAction(ctx, state, engine.GitAction{Action: engine.GitActionCommit, StepID: engine.StepTestDeploy, TagPrefix: "test"})
		require.ErrorIs(t, err, kllcerrors.ErrTag)
		require.Equal(t, kllcerrors.CodeTag, kllcerrors.Code(err))
		require.Len(t, vcs.commits, 1)
		require.NotNil(t, result)

		var tagErr *kllcerrors.TagError
		require.True(t, errors.As(err, &tagErr))
		require.True(t, tagErr.Committed)
	})

	t.Run("rejects unknown action", func(t *testing.T) {
		e := newEngine(&fakeVCS{}, newCountingStore())
		_, err := e.DispatchGitAction(ctx, state, engine.GitAction{Action: "push"})
		require.ErrorIs(t, err, kllcerrors.ErrInvalidRequest)
	})
}
