package commands

import (
	"github.com/spf13/cobra"

	"github.com/cargows/cargows/pkg/workspace"
)

func newGraphCommand() *cobra.Command {
	var membersOnly bool

	cmd := &cobra.Command{
		Use:   "graph [manifest]",
		Short: "Print the package dependency graph in DOT format",
		Long: `Print the resolved package dependency graph as Graphviz DOT.

Workspace members and external dependencies are drawn in separate clusters.
Dependencies used under a different name than the package name are dashed
and labelled with that name.`,
		Example: `  cargows graph | dot -Tsvg > deps.svg
  cargows graph --members-only ./Cargo.toml`,
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

			return ws.WriteDOT(cmd.OutOrStdout(), workspace.DOTOptions{MembersOnly: membersOnly})
		},
	}

	cmd.Flags().BoolVar(&membersOnly, "members-only", false, "omit packages that are not workspace members")

	return cmd
}
