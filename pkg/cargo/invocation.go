package cargo

import (
	"path/filepath"
	"strings"
)

// FeatureMode is the single feature-selection mode sent to cargo.
type FeatureMode int

const (
	// FeaturesDefault sends no feature flag at all.
	FeaturesDefault FeatureMode = iota
	// FeaturesAll sends --all-features.
	FeaturesAll
	// FeaturesNoDefault sends --no-default-features.
	FeaturesNoDefault
	// FeaturesSome sends --features with an explicit list.
	FeaturesSome
)

// String returns the flag-like name of the mode.
func (m FeatureMode) String() string {
	switch m {
	case FeaturesAll:
		return "all-features"
	case FeaturesNoDefault:
		return "no-default-features"
	case FeaturesSome:
		return "features"
	default:
		return "default"
	}
}

// FeatureSelection is one feature mode plus, for FeaturesSome, the feature list.
type FeatureSelection struct {
	Mode     FeatureMode
	Features []string
}

// Args renders the selection as cargo command-line arguments.
func (f FeatureSelection) Args() []string {
	switch f.Mode {
	case FeaturesAll:
		return []string{"--all-features"}
	case FeaturesNoDefault:
		return []string{"--no-default-features"}
	case FeaturesSome:
		if len(f.Features) == 0 {
			return nil
		}
		return []string{"--features", strings.Join(f.Features, ",")}
	default:
		return nil
	}
}

// Invocation holds the inputs common to both cargo queries.
type Invocation struct {
	// ManifestPath is the Cargo.toml to query.
	ManifestPath string

	// Features is the feature selection to transmit.
	Features FeatureSelection

	// FilterPlatform restricts metadata to one target triple. Only used by metadata.
	FilterPlatform string
}

// Dir returns the working directory cargo should run in: the manifest's parent.
func (inv *Invocation) Dir() string {
	if inv.ManifestPath == "" {
		return ""
	}
	return filepath.Dir(inv.ManifestPath)
}

// MetadataArgs returns the arguments for `cargo metadata`.
func (inv *Invocation) MetadataArgs() []string {
	args := []string{"metadata", "--format-version", "1", "--manifest-path", inv.ManifestPath}
	args = append(args, inv.Features.Args()...)
	if inv.FilterPlatform != "" {
		args = append(args, "--filter-platform", inv.FilterPlatform)
	}
	return args
}

// CheckArgs returns the arguments for `cargo check --message-format=json`.
func (inv *Invocation) CheckArgs() []string {
	args := []string{"check", "--message-format=json", "--manifest-path", inv.ManifestPath}
	return append(args, inv.Features.Args()...)
}
