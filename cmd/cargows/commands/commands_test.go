package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargows/cargows/pkg/cargo"
	"github.com/cargows/cargows/pkg/telemetry"
)

type fixtureRunner struct {
	meta  *cargo.Metadata
	check string
	seen  []*cargo.Invocation
}

func (r *fixtureRunner) Metadata(_ context.Context, inv *cargo.Invocation) (*cargo.Metadata, error) {
	r.seen = append(r.seen, inv)
	return r.meta, nil
}

func (r *fixtureRunner) Check(_ context.Context, inv *cargo.Invocation) (*cargo.CheckOutput, error) {
	r.seen = append(r.seen, inv)
	return &cargo.CheckOutput{Stdout: strings.NewReader(r.check)}, nil
}

func fixtureMetadata(root string) *cargo.Metadata {
	app := "app 0.1.0 (path+file://" + root + ")"
	oldLog := "log 0.3.9 (registry+https://github.com/rust-lang/crates.io-index)"
	newLog := "log 0.4.21 (registry+https://github.com/rust-lang/crates.io-index)"
	return &cargo.Metadata{
		WorkspaceRoot:    root,
		TargetDirectory:  filepath.Join(root, "target"),
		WorkspaceMembers: []string{app},
		Packages: []cargo.Package{
			{ID: app, Name: "app", Version: "0.1.0", Edition: "2021", ManifestPath: filepath.Join(root, "Cargo.toml"),
				Targets: []cargo.Target{{Name: "app", Kind: []string{"bin"}, SrcPath: filepath.Join(root, "src", "main.rs")}}},
			{ID: oldLog, Name: "log", Version: "0.3.9", Edition: "2015", ManifestPath: "/registry/log-0.3.9/Cargo.toml",
				Targets: []cargo.Target{{Name: "log", Kind: []string{"lib"}, SrcPath: "/registry/log-0.3.9/src/lib.rs"}}},
			{ID: newLog, Name: "log", Version: "0.4.21", Edition: "2021", ManifestPath: "/registry/log-0.4.21/Cargo.toml",
				Targets: []cargo.Target{{Name: "log", Kind: []string{"lib"}, SrcPath: "/registry/log-0.4.21/src/lib.rs"}}},
		},
		Resolve: &cargo.Resolve{Nodes: []cargo.Node{
			{ID: app, Deps: []cargo.NodeDep{{Name: "log", Pkg: newLog}, {Name: "log_compat", Pkg: oldLog}}},
			{ID: oldLog}, {ID: newLog, Features: []string{"std"}},
		}},
	}
}

// runCommand executes the CLI with runner in place of cargo.
func runCommand(t *testing.T, runner cargo.Runner, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CARGOWS_METRICS_ENABLED", "false")
	t.Setenv("CARGOWS_LOG_LEVEL", "error")

	prev := newRunner
	newRunner = func(string) cargo.Runner { return runner }
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		newRunner = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	cmd := newRootCommand("test", "none", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMetadataCommand_JSON(t *testing.T) {
	root := t.TempDir()
	runner := &fixtureRunner{meta: fixtureMetadata(root)}

	out, err := runCommand(t, runner, "metadata", "--json", filepath.Join(root, "Cargo.toml"))
	require.NoError(t, err)

	var summary struct {
		Root     string `json:"workspace_root"`
		Packages []struct {
			Flag         string `json:"flag"`
			Name         string `json:"name"`
			Edition      string `json:"edition"`
			IsMember     bool   `json:"is_member"`
			Dependencies []struct {
				Name    string `json:"name"`
				Package string `json:"package"`
			} `json:"dependencies"`
			Targets []struct {
				Kind string `json:"kind"`
			} `json:"targets"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	assert.Equal(t, root, summary.Root)
	require.Len(t, summary.Packages, 3)
	app := summary.Packages[0]
	assert.Equal(t, "app", app.Flag)
	assert.Equal(t, "2021", app.Edition)
	assert.True(t, app.IsMember)
	require.Len(t, app.Dependencies, 2)
	assert.Equal(t, "log", app.Dependencies[0].Name)
	assert.Equal(t, "log:0.4.21", app.Dependencies[0].Package)
	assert.Equal(t, "log_compat", app.Dependencies[1].Name)
	assert.Equal(t, "log:0.3.9", app.Dependencies[1].Package)
	assert.Equal(t, "bin", app.Targets[0].Kind)

	require.Len(t, runner.seen, 1)
	assert.Equal(t, cargo.FeaturesAll, runner.seen[0].Features.Mode)
}

func TestMetadataCommand_Text(t *testing.T) {
	root := t.TempDir()
	out, err := runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "metadata", root)
	require.NoError(t, err)

	assert.Contains(t, out, "PACKAGE")
	assert.Contains(t, out, "log:0.3.9")
	assert.Contains(t, out, "log:0.4.21")
}

func TestFeatureFlags(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "Cargo.toml")

	tests := []struct {
		name string
		args []string
		want cargo.FeatureSelection
	}{
		{name: "default is all features", want: cargo.FeatureSelection{Mode: cargo.FeaturesAll}},
		{name: "features switch off all", args: []string{"--features", "a,b"}, want: cargo.FeatureSelection{Mode: cargo.FeaturesSome, Features: []string{"a", "b"}}},
		{name: "no default", args: []string{"--no-default-features"}, want: cargo.FeatureSelection{Mode: cargo.FeaturesNoDefault}},
		{name: "explicit all wins", args: []string{"--all-features", "--no-default-features"}, want: cargo.FeatureSelection{Mode: cargo.FeaturesAll}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fixtureRunner{meta: fixtureMetadata(root)}
			args := append([]string{"metadata", "--json", manifest}, tt.args...)
			_, err := runCommand(t, runner, args...)
			require.NoError(t, err)
			require.Len(t, runner.seen, 1)
			assert.Equal(t, tt.want, runner.seen[0].Features)
		})
	}
}

func TestFlagCommand(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "Cargo.toml")

	out, err := runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "flag", "-m", manifest, "log")
	require.NoError(t, err)
	assert.Equal(t, "log:0.3.9\nlog:0.4.21\n", out)

	out, err = runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "flag", "-m", manifest, "app")
	require.NoError(t, err)
	assert.Equal(t, "app\n", out)

	_, err = runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "flag", "-m", manifest, "missing")
	assert.Error(t, err)
}

func TestTargetCommand(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "Cargo.toml")

	out, err := runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "target", "-m", manifest, filepath.Join(root, "src", "main.rs"))
	require.NoError(t, err)
	assert.Equal(t, "app\tapp\tbin\n", out)

	_, err = runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "target", "-m", manifest, filepath.Join(root, "src", "lib.rs"))
	assert.Error(t, err)
}

func TestResourcesCommand(t *testing.T) {
	root := t.TempDir()
	runner := &fixtureRunner{check: `{"reason":"build-script-executed","package_id":"log 0.4.21 (registry+https://github.com/rust-lang/crates.io-index)","out_dir":"/t/out","cfgs":["atomic_cas"]}
`}

	out, err := runCommand(t, runner, "resources", "--yaml", "--features", "std", filepath.Join(root, "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, out, "out_dir: /t/out")
	assert.Contains(t, out, "- atomic_cas")

	require.Len(t, runner.seen, 1)
	assert.Equal(t, []string{"std"}, runner.seen[0].Features.Features)
}

func TestGraphCommand(t *testing.T) {
	root := t.TempDir()
	out, err := runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, "graph", filepath.Join(root, "Cargo.toml"))
	require.NoError(t, err)

	assert.Contains(t, out, "digraph Workspace {")
	assert.Contains(t, out, `p0 -> p1 [style=dashed, label="log_compat"];`)
	assert.Contains(t, out, "p0 -> p2;")
}

func TestVerboseEnablesDebugLogging(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want zerolog.Level
	}{
		{name: "default from env", args: nil, want: zerolog.ErrorLevel},
		{name: "verbose", args: []string{"-v"}, want: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			args := append([]string{"metadata"}, tt.args...)
			args = append(args, root)

			_, err := runCommand(t, &fixtureRunner{meta: fixtureMetadata(root)}, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())

			var buf bytes.Buffer
			logger := telemetry.NewWriterLogger(&buf, "debug")
			logger.Debug("resolving workspace")
			assert.Equal(t, tt.want == zerolog.DebugLevel, buf.Len() > 0)
		})
	}
}

func TestLogLevelEnvVariable(t *testing.T) {
	root := t.TempDir()
	t.Setenv("CARGOWS_METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "warn")

	prevLevel := zerolog.GlobalLevel()
	prevRunner := newRunner
	newRunner = func(string) cargo.Runner { return &fixtureRunner{meta: fixtureMetadata(root)} }
	t.Cleanup(func() {
		newRunner = prevRunner
		zerolog.SetGlobalLevel(prevLevel)
	})

	cmd := newRootCommand("test", "none", "today")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"metadata", root})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
