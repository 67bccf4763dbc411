package cli

import (
	"context"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
)

// newCommitCmd creates the commit command
func newCommitCmd(dir *string) *cobra.Command {
	var (
		tagPrefix string
		noTag     bool
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Stage, commit and push all changes for the current step",
		Long: `Stage, commit and push all changes for the current step.

The message is feat(<meegle-id>): update for <step>. On deploy steps the commit
is also tagged <prefix>-feature/<meegle-id>-<MMDD>-<hh>-<mm> and the tag pushed;
use --tag to pick another prefix or --no-tag to skip tagging.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, dir, func(ctx context.Context, rt *runtime.Context, state *engine.State) error {
				if err := requireFeature(state); err != nil {
					return err
				}
				step, _ := engine.StepAt(state.CurrentStepIndex)

				prefix := tagPrefix
				if tagStep, ok := step.(engine.TagStep); ok && prefix == "" {
					prefix = tagStep.TagPrefix
				}
				if noTag {
					prefix = ""
				}

				replies, err := rt.Dispatch(ctx, channel.CommandExecuteGitAction, channel.GitActionPayload{
					Action:    string(engine.GitActionCommit),
					StepID:    step.ID(),
					TagPrefix: prefix,
				})
				if err != nil {
					return err
				}
				_, err = report(rt.Splog, replies)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&tagPrefix, "tag", "t", "", "Tag the commit with this prefix")
	cmd.Flags().BoolVar(&noTag, "no-tag", false, "Do not tag, even on deploy steps")

	return cmd
}
