package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/server"
)

// newStepsCmd creates the steps command
func newStepsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List the lifecycle steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views := server.StepViews(engine.Sequence())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range views {
				required := ""
				if v.Required {
					required = "required"
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", v.Index, v.ID, v.Label, v.Kind, required)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print steps as JSON")

	return cmd
}
