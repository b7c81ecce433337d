package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cargows/cargows/pkg/workspace"
)

// workspaceSummary is the serializable form of a Workspace.
type workspaceSummary struct {
	Root            string                    `json:"workspace_root" yaml:"workspace_root"`
	TargetDirectory string                    `json:"target_directory" yaml:"target_directory"`
	Packages        []packageSummary          `json:"packages" yaml:"packages"`
	Inconsistencies []workspace.Inconsistency `json:"inconsistencies,omitempty" yaml:"inconsistencies,omitempty"`
}

type packageSummary struct {
	Flag                  string `json:"flag" yaml:"flag"`
	workspace.PackageData `yaml:",inline"`
	Dependencies          []dependencySummary    `json:"dependencies" yaml:"dependencies"`
	Targets               []workspace.TargetData `json:"targets" yaml:"targets"`
}

type dependencySummary struct {
	Name    string `json:"name" yaml:"name"`
	Package string `json:"package" yaml:"package"`
}

func summarize(ws *workspace.Workspace) workspaceSummary {
	summary := workspaceSummary{
		Root:            ws.WorkspaceRoot(),
		TargetDirectory: ws.TargetDirectory(),
		Packages:        make([]packageSummary, 0, ws.Len()),
		Inconsistencies: ws.Inconsistencies(),
	}

	for _, idx := range ws.Packages() {
		pkg := ws.Package(idx)
		ps := packageSummary{
			Flag:         ws.PackageFlag(pkg),
			PackageData:  *pkg,
			Dependencies: make([]dependencySummary, 0, len(pkg.Dependencies)),
			Targets:      make([]workspace.TargetData, 0, len(pkg.Targets)),
		}
		for _, dep := range pkg.Dependencies {
			ps.Dependencies = append(ps.Dependencies, dependencySummary{
				Name:    dep.Name,
				Package: ws.PackageFlag(ws.Package(dep.Pkg)),
			})
		}
		for _, t := range pkg.Targets {
			ps.Targets = append(ps.Targets, *ws.Target(t))
		}
		summary.Packages = append(summary.Packages, ps)
	}

	return summary
}

// render writes v as JSON or YAML when requested, otherwise calls text.
func render(w io.Writer, v interface{}, text func(io.Writer) error) error {
	switch {
	case jsonOutput:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case yamlOutput:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

func writeSummaryText(w io.Writer, s workspaceSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "workspace\t%s\n", s.Root)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PACKAGE\tEDITION\tMEMBER\tTARGETS\tDEPENDENCIES")
	for _, p := range s.Packages {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%d\n", p.Flag, p.Edition, p.IsMember, len(p.Targets), len(p.Dependencies))
	}
	if len(s.Inconsistencies) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "SKIPPED\tPACKAGE ID")
		for _, inc := range s.Inconsistencies {
			fmt.Fprintf(tw, "%s\t%s\n", inc.Kind, inc.PackageID)
		}
	}
	return tw.Flush()
}

// resourceSummary is one package's entry in `cargows resources` output.
type resourceSummary struct {
	PackageID          string   `json:"package_id" yaml:"package_id"`
	OutDir             string   `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`
	Cfgs               []string `json:"cfgs,omitempty" yaml:"cfgs,omitempty"`
	ProcMacroDylibPath string   `json:"proc_macro_dylib_path,omitempty" yaml:"proc_macro_dylib_path,omitempty"`
}

func summarizeResources(res *workspace.ExternResources) []resourceSummary {
	out := make([]resourceSummary, 0, res.Len())
	for _, id := range res.IDs() {
		rs := resourceSummary{PackageID: id}
		rs.OutDir, _ = res.OutDir(id)
		rs.Cfgs, _ = res.Cfgs(id)
		rs.ProcMacroDylibPath, _ = res.ProcMacroDylibPath(id)
		out = append(out, rs)
	}
	return out
}
