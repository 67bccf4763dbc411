package git

import (
	"context"
	"fmt"
)

// CheckoutBranch checks out an existing branch
func (c *Client) CheckoutBranch(ctx context.Context, branchName string) error {
	_, err := c.runner.Run(ctx, "checkout", branchName)
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branchName, err)
	}
	return nil
}

// CreateAndCheckoutBranch creates and checks out a new branch at HEAD
func (c *Client) CreateAndCheckoutBranch(ctx context.Context, branchName string) error {
	_, err := c.runner.Run(ctx, "checkout", "-b", branchName)
	if err != nil {
		return fmt.Errorf("failed to create and checkout branch %s: %w", branchName, err)
	}
	return nil
}

// CreateBranch checks out base, fast-forwards it from its upstream, then
// creates and checks out name from it. A failed sub-step aborts; an earlier
// successful checkout is not undone.
func (c *Client) CreateBranch(ctx context.Context, name, base string) error {
	if err := c.CheckoutBranch(ctx, base); err != nil {
		return err
	}
	if err := c.PullFastForward(ctx); err != nil {
		return err
	}
	return c.CreateAndCheckoutBranch(ctx, name)
}
