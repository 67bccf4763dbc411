package engine

import (
	"context"
	"fmt"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

// DispatchGitAction runs a git action requested from a step. A commit
// failure returns a CommitError; a tag failure after a successful commit
// returns a TagError with Committed set, and the commit stays in place.
func (e *Engine) DispatchGitAction(ctx context.Context, state *State, action GitAction) (*GitActionResult, error) {
	if action.Action != GitActionCommit {
		return nil, fmt.Errorf("%w: unsupported git action %q", kllcerrors.ErrInvalidRequest, action.Action)
	}
	if state == nil {
		return nil, fmt.Errorf("%w: missing state", kllcerrors.ErrInvalidRequest)
	}
	if !state.IsFeature() {
		return nil, fmt.Errorf("%w: %s", kllcerrors.ErrNotFeatureBranch, state.BranchName)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	meegleID := state.Steps[StepMeegleID].Value
	message := CommitMessage(meegleID, action.StepID)
	if err := e.vcs.Commit(ctx, message); err != nil {
		return nil, kllcerrors.NewCommitError(message, err)
	}
	result := &GitActionResult{Commit: message}
	e.logger.Debug("committed", "branch", state.BranchName, "message", message)

	if action.TagPrefix == "" {
		return result, nil
	}

	tag := TagName(action.TagPrefix, meegleID, e.now())
	if err := e.vcs.Tag(ctx, tag); err != nil {
		return result, kllcerrors.NewTagError(tag, true, err)
	}
	result.Tag = tag
	e.logger.Debug("tagged", "branch", state.BranchName, "tag", tag)
	return result, nil
}
