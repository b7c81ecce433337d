package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cargows/cargows/pkg/config"
	"github.com/cargows/cargows/pkg/telemetry"
	"github.com/cargows/cargows/pkg/watch"
	"github.com/cargows/cargows/pkg/workspace"
)

func newWatchCommand() *cobra.Command {
	var (
		delay       time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch [manifest]",
		Short: "Rebuild the workspace model when manifests change",
		Long: `Build the workspace model, then rebuild it whenever Cargo.toml or
Cargo.lock changes in the workspace root or a member directory.

Each rebuild produces a fresh model and prints a one-line summary, preceded by
a line for every resolve entry that had to be skipped. Prometheus
metrics are served while watching unless metrics are disabled in the config.`,
		Example: `  cargows watch
  cargows watch --delay 1s --metrics-addr :9100 ./Cargo.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, args, func(f *config.File) {
				if metricsAddr != "" {
					f.Metrics.ListenAddress = metricsAddr
				}
			})
			if err != nil {
				return err
			}
			defer s.shutdown()

			tel := telemetry.FromTelemetryContext(s.ctx)
			srv, err := tel.Metrics.StartMetricsServer()
			if err != nil {
				return err
			}
			if srv != nil {
				defer shutdownServer(srv)
				log.Info().Str("addr", srv.Addr).Msg("Serving metrics")
			}

			out := cmd.OutOrStdout()
			tel.Events.Subscribe(func(e telemetry.Event) {
				fmt.Fprintf(out, "%s  skipped: %s\n", e.Timestamp.Format(time.TimeOnly), e.Message)
			},
				telemetry.FilterByManifest(s.manifest),
				telemetry.FilterByType(telemetry.EventTypeInconsistency),
			)

			w := watch.New(log.Logger, s.manifest, s.build, watch.WithDelay(delay))
			err = w.Watch(s.ctx, func(ws *workspace.Workspace, err error) {
				if err != nil {
					fmt.Fprintf(out, "%s  build failed: %v\n", time.Now().Format(time.TimeOnly), err)
					return
				}
				fmt.Fprintf(out, "%s  %d packages, %d targets, %d skipped\n",
					time.Now().Format(time.TimeOnly), ws.Len(), ws.TargetCount(), len(ws.Inconsistencies()))
			})
			if err != nil {
				return err
			}

			<-w.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "wait this long after the last change before rebuilding")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (overrides config)")

	return cmd
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("Failed to stop metrics server")
	}
}
