package cli

import (
	"context"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
	"kllc.dev/kllc/internal/tui"
)

// newNextCmd creates the next command
func newNextCmd(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next [value]",
		Short: "Complete the current step and move to the next one",
		Long: `Complete the current step and move to the next one.

A value, when given, is recorded on the current step first. Required steps
need a value, and choice steps only accept one of their choices.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, dir, func(ctx context.Context, rt *runtime.Context, state *engine.State) error {
				if err := requireFeature(state); err != nil {
					return err
				}
				step, _ := engine.StepAt(state.CurrentStepIndex)

				submitted := state.Clone()
				if len(args) == 1 {
					submitted = withValue(state, step.ID(), args[0])
				}
				submitted.CurrentStepIndex++

				replies, err := saveState(ctx, rt, submitted)
				if err != nil {
					return err
				}
				updated, err := report(rt.Splog, replies)
				if err != nil {
					return err
				}
				rt.Splog.Info("Completed %s.", step.Label())
				if updated != nil {
					rt.Splog.Page(tui.RenderState(updated))
				}
				return nil
			})
		},
	}

	return cmd
}
