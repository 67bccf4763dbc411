package git

import (
	"context"
	"fmt"
	"path/filepath"
)

// DefaultRemote is the remote used for pushes when none is configured
const DefaultRemote = "origin"

// Client runs version-control operations against one working copy. It keeps
// no state beyond the working copy itself.
type Client struct {
	repo   *Repository
	runner *CommandRunner
	remote string
}

// Option configures a Client
type Option func(*Client)

// WithRemote sets the remote used for pushes
func WithRemote(remote string) Option {
	return func(c *Client) {
		if remote != "" {
			c.remote = remote
		}
	}
}

// NewClient opens the working copy containing dir
func NewClient(dir string, opts ...Option) (*Client, error) {
	repo, err := OpenRepository(dir)
	if err != nil {
		return nil, err
	}

	c := &Client{
		repo:   repo,
		runner: NewCommandRunner(repo.Root()),
		remote: DefaultRemote,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Root returns the working copy root
func (c *Client) Root() string {
	return c.repo.Root()
}

// CurrentBranch returns the checked-out branch, or "" when detached or unknown
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	branch, err := c.repo.HeadBranch()
	if err != nil {
		return "", fmt.Errorf("failed to read current branch: %w", err)
	}
	return branch, nil
}

// GitCommonDir returns the absolute git directory shared by every worktree of
// the repository. In a linked worktree this is the main repository's .git.
func (c *Client) GitCommonDir(ctx context.Context) (string, error) {
	dir, err := c.runner.Run(ctx, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("failed to resolve git directory: %w", err)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.repo.Root(), dir)
	}
	return filepath.Clean(dir), nil
}
