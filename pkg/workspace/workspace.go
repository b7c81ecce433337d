package workspace

import (
	"path/filepath"

	"github.com/cargows/cargows/pkg/arena"
)

// Workspace is the finished, read-only model of a cargo workspace. It is safe
// for concurrent readers. Callers must not modify the PackageData or
// TargetData returned by its accessors.
type Workspace struct {
	packages        *arena.Arena[PackageData]
	targets         *arena.Arena[TargetData]
	workspaceRoot   string
	targetDirectory string
	inconsistencies []Inconsistency
	nameCounts      map[string]int
}

// Package returns the data for pkg. It panics if pkg is not from this workspace.
func (w *Workspace) Package(pkg Package) *PackageData {
	return w.packages.Get(pkg)
}

// Target returns the data for target. It panics if target is not from this workspace.
func (w *Workspace) Target(target Target) *TargetData {
	return w.targets.Get(target)
}

// Packages returns every package index in allocation order.
func (w *Workspace) Packages() []Package {
	return w.packages.Indices()
}

// Len returns the number of packages.
func (w *Workspace) Len() int {
	return w.packages.Len()
}

// TargetCount returns the number of targets across all packages.
func (w *Workspace) TargetCount() int {
	return w.targets.Len()
}

// Members returns the workspace member packages in allocation order.
func (w *Workspace) Members() []Package {
	var members []Package
	w.packages.Each(func(idx Package, pkg *PackageData) bool {
		if pkg.IsMember {
			members = append(members, idx)
		}
		return true
	})
	return members
}

// PackageByName returns every package with the given name in allocation order.
func (w *Workspace) PackageByName(name string) []Package {
	var found []Package
	w.packages.Each(func(idx Package, pkg *PackageData) bool {
		if pkg.Name == name {
			found = append(found, idx)
		}
		return true
	})
	return found
}

// TargetByRoot returns the first target, in package then target order, whose
// source root is root.
func (w *Workspace) TargetByRoot(root string) (Target, bool) {
	root = filepath.Clean(root)
	var (
		found Target
		ok    bool
	)
	w.packages.Each(func(_ Package, pkg *PackageData) bool {
		for _, t := range pkg.Targets {
			if filepath.Clean(w.targets.Get(t).Root) == root {
				found, ok = t, true
				return false
			}
		}
		return true
	})
	return found, ok
}

// WorkspaceRoot returns the workspace root directory reported by cargo.
func (w *Workspace) WorkspaceRoot() string {
	return w.workspaceRoot
}

// TargetDirectory returns the build output directory reported by cargo.
func (w *Workspace) TargetDirectory() string {
	return w.targetDirectory
}

// PackageFlag returns the string that selects pkg on a cargo command line:
// the bare name when no other package shares it, otherwise name:version.
func (w *Workspace) PackageFlag(pkg *PackageData) string {
	if w.nameCounts[pkg.Name] <= 1 {
		return pkg.Name
	}
	return pkg.Name + ":" + pkg.Version
}

// Inconsistencies returns the resolve nodes and edges dropped while building.
func (w *Workspace) Inconsistencies() []Inconsistency {
	out := make([]Inconsistency, len(w.inconsistencies))
	copy(out, w.inconsistencies)
	return out
}
