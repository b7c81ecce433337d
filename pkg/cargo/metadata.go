package cargo

import (
	"encoding/json"
	"fmt"
)

// DefaultEdition is the edition cargo assumes when a manifest does not set one.
const DefaultEdition = "2015"

// Metadata is the subset of `cargo metadata --format-version 1` output used to
// build a workspace.
type Metadata struct {
	Packages         []Package `json:"packages"`
	WorkspaceMembers []string  `json:"workspace_members"`
	Resolve          *Resolve  `json:"resolve"`
	WorkspaceRoot    string    `json:"workspace_root"`
	TargetDirectory  string    `json:"target_directory"`
	Version          int       `json:"version"`
}

// Package is one entry of the "packages" array.
type Package struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Edition      string   `json:"edition"`
	ManifestPath string   `json:"manifest_path"`
	Targets      []Target `json:"targets"`
}

// Target is one buildable unit of a package.
type Target struct {
	Name       string   `json:"name"`
	Kind       []string `json:"kind"`
	CrateTypes []string `json:"crate_types"`
	SrcPath    string   `json:"src_path"`
	Edition    string   `json:"edition,omitempty"`
	Test       bool     `json:"test"`
	Doctest    bool     `json:"doctest"`
}

// Resolve is the dependency-resolution graph after version and feature resolution.
type Resolve struct {
	Nodes []Node  `json:"nodes"`
	Root  *string `json:"root"`
}

// Node is one resolved package with its outgoing edges and activated features.
type Node struct {
	ID       string    `json:"id"`
	Deps     []NodeDep `json:"deps"`
	Features []string  `json:"features"`
}

// NodeDep is a resolved edge. Name is the local alias the dependent uses.
type NodeDep struct {
	Name string `json:"name"`
	Pkg  string `json:"pkg"`
}

// IsMember reports whether id is listed in workspace_members.
func (m *Metadata) IsMember(id string) bool {
	for _, member := range m.WorkspaceMembers {
		if member == id {
			return true
		}
	}
	return false
}

// ParseMetadata decodes a `cargo metadata` JSON document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cargo metadata: %w", err)
	}
	for i := range meta.Packages {
		if meta.Packages[i].Edition == "" {
			meta.Packages[i].Edition = DefaultEdition
		}
	}
	return &meta, nil
}
