package git

import (
	"context"
	"fmt"
)

// PullFastForward syncs the current branch with its upstream, refusing merges
func (c *Client) PullFastForward(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "pull", "--ff-only"); err != nil {
		return fmt.Errorf("failed to pull: %w", err)
	}
	return nil
}
