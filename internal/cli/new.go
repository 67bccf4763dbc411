package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
	"kllc.dev/kllc/internal/tui"
)

// newNewCmd creates the new command
func newNewCmd(dir *string) *cobra.Command {
	var req engine.CycleRequest

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a feature cycle on a new branch",
		Long: `Start a feature cycle on a new branch.

The working copy must be clean. The base branch is updated with a fast-forward
pull and feature/<meegle-id>-<slug> is created from it, where the slug is the
last path segment of the PRD link. Missing fields are asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, dir, func(ctx context.Context, rt *runtime.Context, _ *engine.State) error {
				if req.BaseBranch == "" {
					req.BaseBranch = rt.Engine.BaseBranch()
				}
				if req.PrdLink == "" || req.MeegleID == "" {
					answers, err := tui.PromptCycle(req)
					if err != nil {
						if errors.Is(err, tui.ErrInteractiveDisabled) {
							return fmt.Errorf("--prd and --meegle are required when not running interactively")
						}
						return err
					}
					req = answers
				}

				replies, err := rt.Dispatch(ctx, channel.CommandCreateBranch, req)
				if err != nil {
					return err
				}
				state, err := report(rt.Splog, replies)
				if err != nil {
					return err
				}
				if state != nil {
					rt.Splog.Newline()
					rt.Splog.Page(tui.RenderState(state))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.PrdLink, "prd", "", "PRD link")
	cmd.Flags().StringVarP(&req.MeegleID, "meegle", "m", "", "Meegle ticket id")
	cmd.Flags().StringVarP(&req.BaseBranch, "base", "b", "", "Branch to start from (defaults to base_branch)")
	cmd.Flags().StringVar(&req.DesignLink, "design", "", "Design link")

	return cmd
}
