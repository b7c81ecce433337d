package workspace

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DOTOptions controls WriteDOT output.
type DOTOptions struct {
	// MembersOnly omits packages that are not workspace members, and edges to them.
	MembersOnly bool
}

// WriteDOT writes the package dependency graph in Graphviz DOT format.
// Members and external packages are grouped in separate clusters. Edges for
// renamed dependencies are dashed and labelled with the local name.
func (w *Workspace) WriteDOT(out io.Writer, opts DOTOptions) error {
	bw := bufio.NewWriter(out)

	include := func(pkg *PackageData) bool {
		return !opts.MembersOnly || pkg.IsMember
	}
	nodeID := func(pkg Package) string {
		return fmt.Sprintf("p%d", pkg.Raw())
	}

	fmt.Fprintln(bw, "digraph Workspace {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box, style=rounded];")
	fmt.Fprintln(bw)

	clusters := []struct {
		name   string
		label  string
		member bool
		color  string
	}{
		{name: "members", label: "workspace", member: true, color: "lightblue"},
		{name: "external", label: "dependencies", member: false, color: "lightgray"},
	}
	for _, c := range clusters {
		var pkgs []Package
		w.packages.Each(func(idx Package, pkg *PackageData) bool {
			if pkg.IsMember == c.member && include(pkg) {
				pkgs = append(pkgs, idx)
			}
			return true
		})
		if len(pkgs) == 0 {
			continue
		}

		fmt.Fprintf(bw, "  subgraph cluster_%s {\n", c.name)
		fmt.Fprintf(bw, "    label=%q;\n", c.label)
		fmt.Fprintln(bw, "    style=dashed;")
		for _, idx := range pkgs {
			pkg := w.packages.Get(idx)
			fmt.Fprintf(bw, "    %s [label=%q, fillcolor=%q, style=\"filled,rounded\"];\n",
				nodeID(idx), w.PackageFlag(pkg), c.color)
		}
		fmt.Fprintln(bw, "  }")
		fmt.Fprintln(bw)
	}

	w.packages.Each(func(idx Package, pkg *PackageData) bool {
		if !include(pkg) {
			return true
		}
		for _, dep := range pkg.Dependencies {
			target := w.packages.Get(dep.Pkg)
			if !include(target) {
				continue
			}
			if !isRenamed(dep, target) {
				fmt.Fprintf(bw, "  %s -> %s;\n", nodeID(idx), nodeID(dep.Pkg))
			} else {
				fmt.Fprintf(bw, "  %s -> %s [style=dashed, label=%q];\n", nodeID(idx), nodeID(dep.Pkg), dep.Name)
			}
		}
		return true
	})

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// isRenamed reports whether dep uses a local name other than the crate name
// cargo derives from the package name, which has hyphens replaced.
func isRenamed(dep PackageDependency, target *PackageData) bool {
	return dep.Name != strings.ReplaceAll(target.Name, "-", "_")
}
