// Package telemetry provides observability instrumentation for cargows.
//
// The telemetry package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus), and event publishing into a unified system
// for monitoring workspace loads.
//
// # Architecture
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry spans around builds and cargo invocations
//  3. Metrics Collection - Prometheus counters for builds, cargo calls and skipped entries
//  4. Event Publishing - Subscribable events for builds and resolve inconsistencies
//
// # Usage
//
// Initialize telemetry at application startup and carry it in the context:
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//	ws, err := workspace.FromCargoMetadata(ctx, "Cargo.toml", workspace.DefaultConfig())
//
// Library code never requires telemetry: every helper in this package is a no-op
// when the context carries none, and FromContext falls back to the global zerolog
// logger.
//
// # Events
//
// Subscribers receive events synchronously unless EventsConfig.EnableAsync is set:
//
//	tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Println(e.Message)
//	}, telemetry.FilterByType(telemetry.EventTypeInconsistency))
package telemetry
