package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cargows/cargows/pkg/cargo"
	"github.com/cargows/cargows/pkg/telemetry"
)

// ExternResources holds what `cargo check` reveals about build outputs, keyed
// by cargo package id.
type ExternResources struct {
	outDirs             map[string]string
	procMacroDylibPaths map[string]string
	cfgs                map[string][]string
}

func newExternResources() *ExternResources {
	return &ExternResources{
		outDirs:             make(map[string]string),
		procMacroDylibPaths: make(map[string]string),
		cfgs:                make(map[string][]string),
	}
}

// OutDir returns the build script OUT_DIR recorded for id.
func (r *ExternResources) OutDir(id string) (string, bool) {
	dir, ok := r.outDirs[id]
	return dir, ok
}

// Cfgs returns the build script cfgs recorded for id.
func (r *ExternResources) Cfgs(id string) ([]string, bool) {
	cfgs, ok := r.cfgs[id]
	return cfgs, ok
}

// ProcMacroDylibPath returns the proc-macro library recorded for id.
func (r *ExternResources) ProcMacroDylibPath(id string) (string, bool) {
	path, ok := r.procMacroDylibPaths[id]
	return path, ok
}

// Len returns the number of distinct package ids with any recorded resource.
func (r *ExternResources) Len() int {
	return len(r.IDs())
}

// IDs returns every package id with any recorded resource, sorted.
func (r *ExternResources) IDs() []string {
	seen := make(map[string]struct{}, len(r.outDirs)+len(r.procMacroDylibPaths))
	for id := range r.outDirs {
		seen[id] = struct{}{}
	}
	for id := range r.cfgs {
		seen[id] = struct{}{}
	}
	for id := range r.procMacroDylibPaths {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadExternResources runs `cargo check --message-format=json` for the
// manifest and collects build-script outputs and proc-macro libraries.
//
// A non-zero exit from cargo check is not an error: compile failures are
// routine and the messages emitted before them are still valid. Only failing
// to start the process or to read its output is fatal.
func LoadExternResources(ctx context.Context, runner cargo.Runner, manifestPath string, cfg *Config) (*ExternResources, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	op := telemetry.StartOperation(ctx, "workspace.load_extern_resources",
		telemetry.AttrManifestPath.String(manifestPath),
		telemetry.AttrFeatureMode.String(cfg.FeatureSelection().Mode.String()),
	)
	ctx = op.Ctx
	logger := op.Logger.NewComponentLogger("extern-resources")

	inv := cfg.invocation(manifestPath)

	var out *cargo.CheckOutput
	err := telemetry.RecordCargoOperation(ctx, "check", manifestPath, func(ctx context.Context) error {
		var err error
		out, err = runner.Check(ctx, inv)
		return err
	})
	if err != nil {
		wrapped := NewFetchError(fmt.Sprintf("failed to run `cargo check --manifest-path %s`", manifestPath), err).
			WithCode(ErrCodeCheckFailed)
		op.End(wrapped)
		return nil, wrapped
	}

	if out.ExitCode != 0 {
		logger.WithError(fmt.Errorf("cargo check: exit status %d", out.ExitCode)).
			WithField("stderr", out.Stderr).
			Warn("cargo check failed; using the messages it emitted")
	}

	res, err := ParseExternResources(ctx, out.Stdout)
	if err != nil {
		wrapped := NewFetchError("failed to read `cargo check` output", err).WithCode(ErrCodeCheckFailed)
		op.End(wrapped)
		return nil, wrapped
	}

	logger.Zerolog().Debug().
		Int("packages", res.Len()).
		Dur("duration", op.Timer.Duration()).
		Msg("Loaded extern resources")

	op.End(nil)
	return res, nil
}

// ParseExternResources decodes a cargo JSON message stream. Lines that are
// not cargo messages, and messages with other reasons, are skipped. Later
// messages for the same package overwrite earlier ones.
func ParseExternResources(ctx context.Context, r io.Reader) (*ExternResources, error) {
	logger := telemetry.FromContext(ctx)
	res := newExternResources()

	dec := cargo.NewDecoder(r)
	for {
		msg, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, cargo.ErrMalformedMessage) {
			telemetry.RecordMessage(ctx, "")
			logger.Zerolog().Debug().Err(err).Msg("Skipping malformed cargo message")
			continue
		}
		if err != nil {
			return nil, err
		}

		telemetry.RecordMessage(ctx, string(msg.Reason))

		switch msg.Reason {
		case cargo.ReasonBuildScriptExecuted:
			res.outDirs[msg.PackageID] = msg.OutDir
			res.cfgs[msg.PackageID] = msg.Cfgs
		case cargo.ReasonCompilerArtifact:
			if !msg.Target.HasKind(cargo.ProcMacroKind) {
				continue
			}
			if path, ok := firstDylib(msg.Filenames); ok {
				res.procMacroDylibPaths[msg.PackageID] = path
			}
		}
	}

	return res, nil
}

// firstDylib returns the first filename with a dynamic library extension.
func firstDylib(filenames []string) (string, bool) {
	for _, name := range filenames {
		if isDylib(name) {
			return name, true
		}
	}
	return "", false
}

func isDylib(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "dll", "dylib", "so":
		return true
	default:
		return false
	}
}
