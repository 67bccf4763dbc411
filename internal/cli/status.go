package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/runtime"
	"kllc.dev/kllc/internal/tui"
)

// newStatusCmd creates the status command
func newStatusCmd(dir *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show the lifecycle of the current branch",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, dir, func(_ context.Context, rt *runtime.Context, state *engine.State) error {
				if state == nil {
					return nil
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(state)
				}
				rt.Splog.Page(tui.RenderState(state))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw lifecycle state")

	return cmd
}
