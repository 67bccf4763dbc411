package git

import (
	"context"
	"fmt"
)

// CreateTag creates a lightweight tag at HEAD
func (c *Client) CreateTag(ctx context.Context, name string) error {
	if _, err := c.runner.Run(ctx, "tag", name); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

// Tag creates a tag at HEAD and pushes tags to the remote. The tag is left
// in place if the push fails.
func (c *Client) Tag(ctx context.Context, name string) error {
	if err := c.CreateTag(ctx, name); err != nil {
		return err
	}
	return c.PushTags(ctx)
}
