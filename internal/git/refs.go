package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

// GetRef returns the object a ref points at. A ref that does not exist
// yields an error matching ErrRefNotFound; any other failure (including a
// cancelled or timed-out command) is returned as is.
func (c *Client) GetRef(ctx context.Context, name string) (string, error) {
	sha, err := c.runner.Run(ctx, "rev-parse", "--verify", "--quiet", name)
	if err == nil {
		return sha, nil
	}
	// rev-parse --verify --quiet exits 1 without output for a missing ref.
	var gitErr *kllcerrors.GitCommandError
	if ctx.Err() == nil && errors.As(err, &gitErr) && gitErr.ExitCode() == 1 && strings.TrimSpace(gitErr.Stderr) == "" {
		return "", fmt.Errorf("%w: %s", kllcerrors.ErrRefNotFound, name)
	}
	return "", fmt.Errorf("failed to read ref %s: %w", name, err)
}

// UpdateRef points a ref at sha, creating it if needed
func (c *Client) UpdateRef(ctx context.Context, name, sha string) error {
	if _, err := c.runner.Run(ctx, "update-ref", name, sha); err != nil {
		return fmt.Errorf("failed to update ref %s: %w", name, err)
	}
	return nil
}

// CreateBlob writes content to the object database and returns its sha
func (c *Client) CreateBlob(ctx context.Context, content string) (string, error) {
	sha, err := c.runner.RunWithInput(ctx, content, "hash-object", "-w", "--stdin")
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	return sha, nil
}

// ReadBlob returns the content of a blob
func (c *Client) ReadBlob(ctx context.Context, sha string) (string, error) {
	content, err := c.runner.RunRaw(ctx, "cat-file", "-p", sha)
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s: %w", sha, err)
	}
	return content, nil
}

// ListRefs returns ref name to sha for every ref under prefix
func (c *Client) ListRefs(ctx context.Context, prefix string) (map[string]string, error) {
	lines, err := c.runner.RunLines(ctx, "for-each-ref", "--format=%(refname) %(objectname)", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}

	refs := make(map[string]string, len(lines))
	for _, line := range lines {
		name, sha, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		refs[name] = sha
	}
	return refs, nil
}
