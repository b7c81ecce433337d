package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cargows/cargows/pkg/cargo"
	"github.com/cargows/cargows/pkg/config"
	"github.com/cargows/cargows/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
	yamlOutput bool

	// Cargo flags
	cargoPath         string
	allFeatures       bool
	noDefaultFeatures bool
	features          []string
	target            string
	loadOutDirs       bool

	appVersion = "dev"
)

// newRunner creates the cargo runner used by every command.
var newRunner = func(path string) cargo.Runner {
	return cargo.NewCommandRunner(path)
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	appVersion = version

	rootCmd := &cobra.Command{
		Use:   "cargows",
		Short: "cargows - Cargo workspace inspector",
		Long: `cargows builds a model of a Cargo workspace from cargo metadata and,
optionally, the build-script output of cargo check.

Features:
  - Package and target listing with resolved dependencies
  - Unambiguous package flags for cargo -p
  - Source file to target lookup
  - OUT_DIR, cfg and proc-macro library discovery
  - Rebuild on manifest change`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file path (.yaml, .yml or .cue)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.BoolVar(&yamlOutput, "yaml", false, "output in YAML format")

	pf.StringVar(&cargoPath, "cargo", "", "cargo executable (default $CARGO, then PATH)")
	pf.BoolVar(&allFeatures, "all-features", false, "activate all available features")
	pf.BoolVar(&noDefaultFeatures, "no-default-features", false, "do not activate the default feature")
	pf.StringSliceVar(&features, "features", nil, "features to activate")
	pf.StringVar(&target, "target", "", "filter metadata for a target triple")
	pf.BoolVar(&loadOutDirs, "load-out-dirs-from-check", false, "run cargo check to collect OUT_DIR, cfgs and proc-macro libraries")

	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(newMetadataCommand())
	rootCmd.AddCommand(newFlagCommand())
	rootCmd.AddCommand(newTargetCommand())
	rootCmd.AddCommand(newResourcesCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// loadSettings merges the config file, CARGOWS_* variables and command-line
// flags, in increasing order of precedence.
func loadSettings(cmd *cobra.Command) (*config.File, error) {
	f := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		f = loaded
	}

	// LOG_LEVEL is the process-wide variable main reads; CARGOWS_LOG_LEVEL
	// and --verbose override it
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		f.Logging.Level = level
	}
	if err := f.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("cargo") {
		f.Cargo.Path = cargoPath
	}
	if flags.Changed("target") {
		f.Cargo.Target = target
	}
	if flags.Changed("load-out-dirs-from-check") {
		f.Cargo.LoadOutDirsFromCheck = loadOutDirs
	}
	if flags.Changed("features") {
		f.Cargo.Features = features
	}
	if flags.Changed("no-default-features") {
		f.Cargo.NoDefaultFeatures = noDefaultFeatures
	}
	// all features is on by default, so asking for a narrower selection on the
	// command line switches it off unless --all-features is also given
	switch {
	case flags.Changed("all-features"):
		f.Cargo.AllFeatures = allFeatures
	case flags.Changed("features") || flags.Changed("no-default-features"):
		f.Cargo.AllFeatures = false
	}
	if verbose {
		f.Logging.Level = "debug"
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	// events below the global level are dropped by every zerolog logger
	zerolog.SetGlobalLevel(telemetry.ParseLevel(f.Logging.Level))

	log.Debug().
		Str("config", f.Source).
		Str("cargo", f.Cargo.Path).
		Str("features", f.Workspace().FeatureSelection().Mode.String()).
		Msg("Loaded settings")

	return f, nil
}

// startTelemetry attaches telemetry configured by f to ctx.
func startTelemetry(ctx context.Context, f *config.File, version string) (context.Context, *telemetry.Telemetry, error) {
	tel, err := telemetry.NewTelemetry(f.Telemetry(version))
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return tel.WithContext(ctx), tel, nil
}

// manifestPath resolves the manifest from the first argument, the config
// file, or ./Cargo.toml.
func manifestPath(args []string, f *config.File) (string, error) {
	path := "Cargo.toml"
	switch {
	case len(args) > 0:
		path = args[0]
	case f.Cargo.Manifest != "":
		path = f.Cargo.Manifest
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "Cargo.toml")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	return abs, nil
}
