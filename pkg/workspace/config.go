package workspace

import "github.com/cargows/cargows/pkg/cargo"

// Config controls how cargo is queried when building a workspace.
type Config struct {
	// NoDefaultFeatures disables the `default` feature.
	NoDefaultFeatures bool `yaml:"no_default_features" json:"no_default_features"`

	// AllFeatures activates all available features and overrides every other
	// feature setting.
	AllFeatures bool `yaml:"all_features" json:"all_features"`

	// Features lists features to activate. Ignored when AllFeatures or
	// NoDefaultFeatures is set.
	Features []string `yaml:"features" json:"features" validate:"dive,required"`

	// LoadOutDirsFromCheck runs `cargo check` to collect OUT_DIR values, cfgs
	// from build scripts, and proc-macro dylib paths.
	LoadOutDirsFromCheck bool `yaml:"load_out_dirs_from_check" json:"load_out_dirs_from_check"`

	// Target is a rustc target triple used to filter metadata by platform.
	Target string `yaml:"target" json:"target"`
}

// DefaultConfig returns the default configuration: all features, no check pass.
func DefaultConfig() *Config {
	return &Config{
		AllFeatures: true,
		Features:    []string{},
	}
}

// FeatureSelection resolves the three feature settings into the single mode
// cargo is given. AllFeatures wins over NoDefaultFeatures, which wins over an
// explicit list. cargo itself treats --no-default-features and --features as
// combinable; this order is kept as-is so both invocations agree.
func (c *Config) FeatureSelection() cargo.FeatureSelection {
	switch {
	case c.AllFeatures:
		return cargo.FeatureSelection{Mode: cargo.FeaturesAll}
	case c.NoDefaultFeatures:
		return cargo.FeatureSelection{Mode: cargo.FeaturesNoDefault}
	case len(c.Features) > 0:
		features := make([]string, len(c.Features))
		copy(features, c.Features)
		return cargo.FeatureSelection{Mode: cargo.FeaturesSome, Features: features}
	default:
		return cargo.FeatureSelection{Mode: cargo.FeaturesDefault}
	}
}

// invocation builds the cargo invocation shared by metadata and check.
func (c *Config) invocation(manifestPath string) *cargo.Invocation {
	return &cargo.Invocation{
		ManifestPath:   manifestPath,
		Features:       c.FeatureSelection(),
		FilterPlatform: c.Target,
	}
}
