package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

// targetMatch is the output of `cargows target`.
type targetMatch struct {
	Package     string `json:"package" yaml:"package"`
	Target      string `json:"target" yaml:"target"`
	Kind        string `json:"kind" yaml:"kind"`
	Root        string `json:"root" yaml:"root"`
	IsProcMacro bool   `json:"is_proc_macro" yaml:"is_proc_macro"`
}

func newTargetCommand() *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "target <file>",
		Short: "Find the target whose crate root is a file",
		Long: `Find the target whose crate root is the given source file and print the
owning package flag, the target name and its kind.`,
		Example: `  cargows target src/main.rs
  cargows target --json -m ./Cargo.toml crates/cli/src/bin/tool.rs`,
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

			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}

			ws, err := s.build(s.ctx)
			if err != nil {
				return err
			}

			idx, ok := ws.TargetByRoot(root)
			if !ok {
				return fmt.Errorf("no target has crate root %s", root)
			}

			t := ws.Target(idx)
			match := targetMatch{
				Package:     ws.PackageFlag(ws.Package(t.Package)),
				Target:      t.Name,
				Kind:        t.Kind.String(),
				Root:        t.Root,
				IsProcMacro: t.IsProcMacro,
			}

			return render(cmd.OutOrStdout(), match, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", match.Package, match.Target, match.Kind)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest-path", "m", "", "path to Cargo.toml")

	return cmd
}
