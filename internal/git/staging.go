package git

import (
	"context"
	"fmt"
	"strings"
)

// StageAll stages all changes including untracked files
func (c *Client) StageAll(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "add", "-A")
	if err != nil {
		return fmt.Errorf("failed to stage all changes: %w", err)
	}
	return nil
}

// IsClean reports whether status shows no staged, unstaged or untracked changes
func (c *Client) IsClean(ctx context.Context) (bool, error) {
	output, err := c.runner.Run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	return strings.TrimSpace(output) == "", nil
}
