package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:   "kllc",
		Short: "kllc tracks a feature branch through its delivery lifecycle",
		Long: `kllc tracks a feature branch through its delivery lifecycle.

A cycle starts from a PRD link and a Meegle ticket, creates feature/<id>-<slug>
and walks the branch through technical design, estimate, development, self test,
test and stage deploys, and release. Lifecycle state is kept per branch.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&dir, "cwd", "C", "", "Run as if kllc was started in this directory")

	rootCmd.AddCommand(newStatusCmd(&dir))
	rootCmd.AddCommand(newNewCmd(&dir))
	rootCmd.AddCommand(newSetCmd(&dir))
	rootCmd.AddCommand(newNextCmd(&dir))
	rootCmd.AddCommand(newCommitCmd(&dir))
	rootCmd.AddCommand(newStepsCmd())
	rootCmd.AddCommand(newServeCmd(&dir))

	return rootCmd
}
