package commands

import (
	"io"

	"github.com/spf13/cobra"
)

func newMetadataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata [manifest]",
		Short: "Show the workspace model",
		Long: `Build the workspace model from cargo metadata and print it.

For each package the output lists:
  - The flag that selects it on the cargo command line
  - Its edition and workspace membership
  - Resolved dependencies under the names used in its manifest
  - Targets with their kind and source root

Resolve entries that name packages cargo did not list are reported as skipped.`,
		Example: `  # Summarize the workspace in the current directory
  cargows metadata

  # Full model as JSON for a specific manifest
  cargows metadata --json ./crates/app/Cargo.toml

  # Include OUT_DIR and proc-macro libraries from cargo check
  cargows metadata --load-out-dirs-from-check --yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args)
			if err != nil {
				return err
			}
			defer s.shutdown()

			ws, err := s.build(s.ctx)
			if err != nil {
				return err
			}

			summary := summarize(ws)
			return render(cmd.OutOrStdout(), summary, func(w io.Writer) error {
				return writeSummaryText(w, summary)
			})
		},
	}

	return cmd
}
