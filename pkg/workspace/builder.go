package workspace

import (
	"context"
	"fmt"

	"github.com/cargows/cargows/pkg/arena"
	"github.com/cargows/cargows/pkg/cargo"
	"github.com/cargows/cargows/pkg/telemetry"
)

// Builder constructs Workspaces by querying cargo through a Runner.
type Builder struct {
	runner cargo.Runner
}

// NewBuilder creates a Builder that queries cargo through runner.
func NewBuilder(runner cargo.Runner) *Builder {
	return &Builder{runner: runner}
}

// FromCargoMetadata builds the workspace for manifestPath using the cargo
// executable found via $CARGO or PATH.
func FromCargoMetadata(ctx context.Context, manifestPath string, cfg *Config) (*Workspace, error) {
	return NewBuilder(cargo.NewCommandRunner("")).Build(ctx, manifestPath, cfg)
}

// Build queries cargo for manifestPath and assembles the Workspace. A nil cfg
// uses DefaultConfig.
func (b *Builder) Build(ctx context.Context, manifestPath string, cfg *Config) (ws *Workspace, err error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx = telemetry.WithBuildContext(ctx, manifestPath)
	logger := telemetry.FromContext(ctx).NewComponentLogger("workspace")

	defer func() {
		var summary telemetry.BuildSummary
		if ws != nil {
			summary = telemetry.BuildSummary{
				Packages:        ws.Len(),
				Targets:         ws.TargetCount(),
				Inconsistencies: len(ws.inconsistencies),
			}
		}
		class, code := "", ""
		if err != nil {
			class, code = classify(err)
		}
		telemetry.EndBuildContext(ctx, manifestPath, summary, err, class, code)
	}()

	logger.Zerolog().Debug().
		Str("manifest", manifestPath).
		Str("features", cfg.FeatureSelection().Mode.String()).
		Bool("load_out_dirs_from_check", cfg.LoadOutDirsFromCheck).
		Msg("Building workspace")

	var meta *cargo.Metadata
	err = telemetry.RecordCargoOperation(ctx, "metadata", manifestPath, func(ctx context.Context) error {
		var err error
		meta, err = b.runner.Metadata(ctx, cfg.invocation(manifestPath))
		return err
	})
	if err != nil {
		return nil, NewFetchError(fmt.Sprintf("failed to run `cargo metadata --manifest-path %s`", manifestPath), err)
	}
	if meta.Resolve == nil {
		return nil, NewFetchError("cargo metadata returned no resolve graph", nil).
			WithCode(ErrCodeMetadataInvalid).
			WithDetail("manifest", manifestPath)
	}

	resources := newExternResources()
	if cfg.LoadOutDirsFromCheck {
		resources, err = LoadExternResources(ctx, b.runner, manifestPath, cfg)
		if err != nil {
			return nil, err
		}
	}

	ws, err = assemble(meta, resources)
	if err != nil {
		return nil, err
	}

	for _, inc := range ws.inconsistencies {
		logger.Zerolog().Warn().
			Str("kind", string(inc.Kind)).
			Str("package_id", inc.PackageID).
			Str("from", inc.From).
			Msg(inc.String())
		telemetry.RecordInconsistency(ctx, manifestPath, string(inc.Kind), inc.PackageID, inc.String())
	}

	logger.Zerolog().Info().
		Int("packages", ws.Len()).
		Int("targets", ws.TargetCount()).
		Int("inconsistencies", len(ws.inconsistencies)).
		Msg("Workspace built")

	return ws, nil
}

// assemble turns a metadata response and extern resources into a Workspace.
// Packages and their targets are allocated in listing order, then the resolve
// graph is walked to attach features and dependency edges.
func assemble(meta *cargo.Metadata, resources *ExternResources) (*Workspace, error) {
	ws := &Workspace{
		packages:        arena.New[PackageData](len(meta.Packages)),
		targets:         arena.New[TargetData](0),
		workspaceRoot:   meta.WorkspaceRoot,
		targetDirectory: meta.TargetDirectory,
		nameCounts:      make(map[string]int, len(meta.Packages)),
	}

	members := make(map[string]bool, len(meta.WorkspaceMembers))
	for _, id := range meta.WorkspaceMembers {
		members[id] = true
	}

	pkgByID := make(map[string]Package, len(meta.Packages))
	for i := range meta.Packages {
		p := &meta.Packages[i]

		raw := p.Edition
		if raw == "" {
			raw = cargo.DefaultEdition
		}
		edition, err := ParseEdition(raw)
		if err != nil {
			return nil, NewEditionParseError(fmt.Sprintf("failed to parse edition %q", raw), err).
				WithPackage(p.ID)
		}

		data := PackageData{
			Name:     p.Name,
			Version:  p.Version,
			Manifest: p.ManifestPath,
			IsMember: members[p.ID],
			Edition:  edition,
			Features: []string{},
		}
		if dir, ok := resources.OutDir(p.ID); ok {
			data.OutDir = dir
		}
		if cfgs, ok := resources.Cfgs(p.ID); ok {
			data.Cfgs = cfgs
		}
		if path, ok := resources.ProcMacroDylibPath(p.ID); ok {
			data.ProcMacroDylibPath = path
		}

		pkg := ws.packages.Alloc(data)
		pkgByID[p.ID] = pkg
		ws.nameCounts[p.Name]++

		pkgData := ws.packages.Get(pkg)
		for _, t := range p.Targets {
			target := ws.targets.Alloc(TargetData{
				Package:     pkg,
				Name:        t.Name,
				Root:        t.SrcPath,
				Kind:        NewTargetKind(t.Kind),
				IsProcMacro: IsProcMacro(t.Kind),
			})
			pkgData.Targets = append(pkgData.Targets, target)
		}
	}

	for _, node := range meta.Resolve.Nodes {
		source, ok := pkgByID[node.ID]
		if !ok {
			ws.inconsistencies = append(ws.inconsistencies, Inconsistency{
				Kind:      InconsistencyNode,
				PackageID: node.ID,
			})
			continue
		}

		sourceData := ws.packages.Get(source)
		for _, dep := range node.Deps {
			pkg, ok := pkgByID[dep.Pkg]
			if !ok {
				ws.inconsistencies = append(ws.inconsistencies, Inconsistency{
					Kind:           InconsistencyEdge,
					PackageID:      dep.Pkg,
					From:           node.ID,
					DependencyName: dep.Name,
				})
				continue
			}
			sourceData.Dependencies = append(sourceData.Dependencies, PackageDependency{
				Pkg:  pkg,
				Name: dep.Name,
			})
		}
		sourceData.Features = append(sourceData.Features, node.Features...)
	}

	return ws, nil
}
