package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newFlagCommand() *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "flag <package>",
		Short: "Print the cargo -p flag for a package",
		Long: `Print the string that selects a package on the cargo command line.

The bare name is printed when it is unique in the workspace. When several
packages share the name, one name:version line is printed for each.`,
		Example: `  # Flag for a package in the current workspace
  cargows flag serde

  # Use it with cargo
  cargo build -p "$(cargows flag syn | head -n1)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var manifestArgs []string
			if manifest != "" {
				manifestArgs = []string{manifest}
			}

			s, err := openSession(cmd, manifestArgs)
			if err != nil {
				return err
			}
			defer s.shutdown()

			ws, err := s.build(s.ctx)
			if err != nil {
				return err
			}

			pkgs := ws.PackageByName(args[0])
			if len(pkgs) == 0 {
				return fmt.Errorf("package %q not found in %s", args[0], s.manifest)
			}

			flags := make([]string, 0, len(pkgs))
			for _, pkg := range pkgs {
				flags = append(flags, ws.PackageFlag(ws.Package(pkg)))
			}

			return render(cmd.OutOrStdout(), flags, func(w io.Writer) error {
				for _, f := range flags {
					if _, err := fmt.Fprintln(w, f); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest-path", "m", "", "path to Cargo.toml")

	return cmd
}
