package cli

import (
	"context"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
	"kllc.dev/kllc/internal/tui"
)

// newSetCmd creates the set command
func newSetCmd(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set [value]",
		Short: "Set the value of the current step",
		Long: `Set the value of the current step without advancing.

Without a value, kllc prompts for one: a list for choice steps, a text field
otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, dir, func(ctx context.Context, rt *runtime.Context, state *engine.State) error {
				if err := requireFeature(state); err != nil {
					return err
				}
				step, _ := engine.StepAt(state.CurrentStepIndex)

				var value string
				if len(args) == 1 {
					value = args[0]
				} else {
					current, _ := state.Record(step.ID())
					v, err := tui.PromptStepValue(step, current.Value)
					if err != nil {
						return err
					}
					value = v
				}

				replies, err := saveState(ctx, rt, withValue(state, step.ID(), value))
				if err != nil {
					return err
				}
				updated, err := report(rt.Splog, replies)
				if err != nil {
					return err
				}
				rt.Splog.Info("%s set to %q.", step.Label(), value)
				if updated != nil {
					rt.Splog.Page(tui.RenderState(updated))
				}
				return nil
			})
		},
	}

	return cmd
}

// withValue returns a copy of state with stepID holding value
func withValue(state *engine.State, stepID, value string) *engine.State {
	next := state.Clone()
	rec := next.Steps[stepID]
	rec.Value = value
	next.Steps[stepID] = rec
	return next
}

func saveState(ctx context.Context, rt *runtime.Context, submitted *engine.State) ([]channel.Message, error) {
	return rt.Dispatch(ctx, channel.CommandSaveState, submitted)
}
