package config

import (
	"github.com/cargows/cargows/pkg/telemetry"
	"github.com/cargows/cargows/pkg/workspace"
)

// File is the cargows configuration file.
type File struct {
	// Cargo controls how cargo is invoked.
	Cargo CargoSection `yaml:"cargo" json:"cargo"`

	// Logging configures structured logging.
	Logging telemetry.LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configures the prometheus registry and endpoint.
	Metrics telemetry.MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing telemetry.TracingConfig `yaml:"tracing" json:"tracing"`

	// Source is the path the file was loaded from. Empty for defaults.
	Source string `yaml:"-" json:"-"`
}

// CargoSection is the `cargo` block of the configuration file.
type CargoSection struct {
	// Path is the cargo executable. Empty uses $CARGO, then PATH.
	Path string `yaml:"path" json:"path"`

	// Manifest is the default Cargo.toml when none is given on the command line.
	Manifest string `yaml:"manifest" json:"manifest" validate:"omitempty,endswith=Cargo.toml"`

	// NoDefaultFeatures disables the `default` feature.
	NoDefaultFeatures bool `yaml:"no_default_features" json:"no_default_features"`

	// AllFeatures activates all features. Defaults to true.
	AllFeatures bool `yaml:"all_features" json:"all_features"`

	// Features lists features to activate.
	Features []string `yaml:"features" json:"features" validate:"dive,required,excludesall=0x2C"`

	// LoadOutDirsFromCheck runs cargo check to collect build-script outputs.
	LoadOutDirsFromCheck bool `yaml:"load_out_dirs_from_check" json:"load_out_dirs_from_check"`

	// Target is a rustc target triple used to filter metadata.
	Target string `yaml:"target" json:"target"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	tel := telemetry.DefaultConfig()
	ws := workspace.DefaultConfig()

	return &File{
		Cargo: CargoSection{
			NoDefaultFeatures:    ws.NoDefaultFeatures,
			AllFeatures:          ws.AllFeatures,
			Features:             ws.Features,
			LoadOutDirsFromCheck: ws.LoadOutDirsFromCheck,
			Target:               ws.Target,
		},
		Logging: tel.Logging,
		Metrics: tel.Metrics,
		Tracing: tel.Tracing,
	}
}

// Workspace returns the workspace build configuration described by the file.
func (f *File) Workspace() *workspace.Config {
	features := make([]string, len(f.Cargo.Features))
	copy(features, f.Cargo.Features)

	return &workspace.Config{
		NoDefaultFeatures:    f.Cargo.NoDefaultFeatures,
		AllFeatures:          f.Cargo.AllFeatures,
		Features:             features,
		LoadOutDirsFromCheck: f.Cargo.LoadOutDirsFromCheck,
		Target:               f.Cargo.Target,
	}
}

// Telemetry returns the telemetry configuration described by the file.
func (f *File) Telemetry(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if version != "" {
		cfg.ServiceVersion = version
	}
	cfg.Logging = f.Logging
	cfg.Metrics = f.Metrics
	cfg.Tracing = f.Tracing
	return cfg
}
