package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cargows/cargows/pkg/workspace"
)

func newResourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources [manifest]",
		Short: "Show build-script outputs and proc-macro libraries",
		Long: `Run cargo check --message-format=json and print what it reveals:
  - OUT_DIR of every build script that ran
  - cfg flags emitted by build scripts
  - Compiled proc-macro libraries

Compile errors do not stop the command; whatever cargo reported before
failing is still printed.`,
		Example: `  cargows resources
  cargows resources --features serde --json ./Cargo.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args)
			if err != nil {
				return err
			}
			defer s.shutdown()

			res, err := workspace.LoadExternResources(s.ctx, newRunner(s.settings.Cargo.Path), s.manifest, s.settings.Workspace())
			if err != nil {
				return err
			}

			summary := summarizeResources(res)
			return render(cmd.OutOrStdout(), summary, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PACKAGE ID\tOUT_DIR\tCFGS\tPROC MACRO")
				for _, r := range summary {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.PackageID, r.OutDir, strings.Join(r.Cfgs, ","), r.ProcMacroDylibPath)
				}
				return tw.Flush()
			})
		},
	}

	return cmd
}
