package git

import (
	"context"
	"fmt"
)

// CommitStaged creates a commit from the index with the given message
func (c *Client) CommitStaged(ctx context.Context, message string) error {
	if _, err := c.runner.Run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Commit stages everything, commits and pushes the current branch. A push
// rejected for lack of upstream tracking is retried once with
// --set-upstream; any other push failure propagates.
func (c *Client) Commit(ctx context.Context, message string) error {
	if err := c.StageAll(ctx); err != nil {
		return err
	}
	if err := c.CommitStaged(ctx, message); err != nil {
		return err
	}

	err := c.Push(ctx)
	if err == nil {
		return nil
	}
	if !IsNoUpstreamError(err) {
		return err
	}

	branch, branchErr := c.CurrentBranch(ctx)
	if branchErr != nil {
		return branchErr
	}
	if branch == "" {
		return fmt.Errorf("cannot set upstream on a detached HEAD: %w", err)
	}
	return c.PushSetUpstream(ctx, branch)
}
