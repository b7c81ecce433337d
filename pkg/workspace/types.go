package workspace

import (
	"path/filepath"

	"github.com/cargows/cargows/pkg/arena"
)

// Package is an index of a package in a Workspace.
type Package = arena.Idx[PackageData]

// Target is an index of a target in a Workspace.
type Target = arena.Idx[TargetData]

// PackageData is everything known about one package.
type PackageData struct {
	// Name is the package name as declared in its manifest.
	Name string `json:"name" yaml:"name"`

	// Version is the package version string.
	Version string `json:"version" yaml:"version"`

	// Manifest is the path to the package's Cargo.toml.
	Manifest string `json:"manifest" yaml:"manifest"`

	// Targets lists the package's targets in listing order.
	Targets []Target `json:"-" yaml:"-"`

	// IsMember is true for packages that are workspace members.
	IsMember bool `json:"is_member" yaml:"is_member"`

	// Dependencies lists resolved dependency edges in resolve order.
	Dependencies []PackageDependency `json:"-" yaml:"-"`

	// Edition is the package's language edition.
	Edition Edition `json:"edition" yaml:"edition"`

	// Features lists the features enabled for this package by the resolver.
	Features []string `json:"features" yaml:"features"`

	// Cfgs lists cfg flags emitted by the package's build script.
	Cfgs []string `json:"cfgs,omitempty" yaml:"cfgs,omitempty"`

	// OutDir is the build script's OUT_DIR. Empty when unknown.
	OutDir string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"`

	// ProcMacroDylibPath is the compiled proc-macro library. Empty when unknown.
	ProcMacroDylibPath string `json:"proc_macro_dylib_path,omitempty" yaml:"proc_macro_dylib_path,omitempty"`
}

// Root returns the directory containing the package manifest.
func (p *PackageData) Root() string {
	return filepath.Dir(p.Manifest)
}

// TargetData is a compilable unit within a package.
type TargetData struct {
	Package     Package    `json:"-" yaml:"-"`
	Name        string     `json:"name" yaml:"name"`
	Root        string     `json:"root" yaml:"root"`
	Kind        TargetKind `json:"kind" yaml:"kind"`
	IsProcMacro bool       `json:"is_proc_macro" yaml:"is_proc_macro"`
}

// PackageDependency is a resolved dependency edge. Name is the name the
// depending package uses for the dependency, which may differ from the
// dependency's package name when renamed.
type PackageDependency struct {
	Pkg  Package `json:"-" yaml:"-"`
	Name string  `json:"name" yaml:"name"`
}

// InconsistencyKind identifies which part of the resolve graph was dropped.
type InconsistencyKind string

const (
	// InconsistencyNode is a resolve node whose id is not in the package listing.
	InconsistencyNode InconsistencyKind = "node"

	// InconsistencyEdge is a dependency edge whose target id is not in the package listing.
	InconsistencyEdge InconsistencyKind = "edge"
)

// Inconsistency records a resolve node or edge that was dropped while building.
type Inconsistency struct {
	Kind InconsistencyKind `json:"kind" yaml:"kind"`

	// PackageID is the id that could not be found in the package listing.
	PackageID string `json:"package_id" yaml:"package_id"`

	// From is the node owning a dropped edge. Empty for node inconsistencies.
	From string `json:"from,omitempty" yaml:"from,omitempty"`

	// DependencyName is the dependency name of a dropped edge.
	DependencyName string `json:"dependency_name,omitempty" yaml:"dependency_name,omitempty"`
}

// String returns a human-readable description of the inconsistency.
func (i Inconsistency) String() string {
	if i.Kind == InconsistencyEdge {
		return "dependency " + i.DependencyName + " of " + i.From + " resolves to unknown package " + i.PackageID
	}
	return "resolve node for unknown package " + i.PackageID
}
