package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

// Push pushes the current branch to its upstream
func (c *Client) Push(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "push"); err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// PushSetUpstream pushes branch to the configured remote and records it as upstream
func (c *Client) PushSetUpstream(ctx context.Context, branch string) error {
	if _, err := c.runner.Run(ctx, "push", "--set-upstream", c.remote, branch); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branch, c.remote, err)
	}
	return nil
}

// PushTags pushes all local tags to the configured remote
func (c *Client) PushTags(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "push", c.remote, "--tags"); err != nil {
		return fmt.Errorf("failed to push tags to %s: %w", c.remote, err)
	}
	return nil
}

// IsNoUpstreamError reports whether err is git refusing to push a branch
// that has no upstream configured.
func IsNoUpstreamError(err error) bool {
	var gitErr *kllcerrors.GitCommandError
	if !errors.As(err, &gitErr) {
		return false
	}
	stderr := strings.ToLower(gitErr.Stderr)
	return strings.Contains(stderr, "has no upstream branch") ||
		strings.Contains(stderr, "no upstream configured")
}
