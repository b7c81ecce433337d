package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cargows/cargows/pkg/config"
	"github.com/cargows/cargows/pkg/workspace"
)

// session is the state shared by commands that build a workspace.
type session struct {
	settings *config.File
	manifest string
	ctx      context.Context
	shutdown func()
}

// openSession loads settings, resolves the manifest and starts telemetry.
// adjust runs after flags are applied and before telemetry starts.
func openSession(cmd *cobra.Command, args []string, adjust ...func(*config.File)) (*session, error) {
	f, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	for _, fn := range adjust {
		fn(f)
	}

	manifest, err := manifestPath(args, f)
	if err != nil {
		return nil, err
	}

	ctx, tel, err := startTelemetry(cmd.Context(), f, appVersion)
	if err != nil {
		return nil, err
	}

	return &session{
		settings: f,
		manifest: manifest,
		ctx:      ctx,
		shutdown: func() { _ = tel.Shutdown(context.Background()) },
	}, nil
}

// build runs a full workspace build for the session's manifest.
func (s *session) build(ctx context.Context) (*workspace.Workspace, error) {
	builder := workspace.NewBuilder(newRunner(s.settings.Cargo.Path))
	return builder.Build(ctx, s.manifest, s.settings.Workspace())
}
