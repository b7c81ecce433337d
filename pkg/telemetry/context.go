package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides a unified telemetry interface combining logging, tracing, metrics, and events.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Events  *EventPublisher
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	events, err := NewEventPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Events:  events,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown stops all telemetry components in reverse order of
// initialization. Every component is stopped even when an earlier one fails.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Events.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
		t.Logger.Close(),
	)
}

// InstrumentedContext creates a context with telemetry, logger fields, and a trace span.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Span:   trace.SpanFromContext(ctx),
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)

	logger := FromContext(ctx).WithField("operation", operation)
	if traceID := TraceID(spanCtx); traceID != "" {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": traceID,
			"span_id":  SpanID(spanCtx),
		})
	}

	return &InstrumentedContext{
		Ctx:    logger.WithContext(spanCtx),
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
// Spans taken from a context without telemetry are left for their owner to end.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span == nil || FromTelemetryContext(ic.Ctx) == nil {
		return
	}
	if err != nil {
		RecordError(ic.Span, err)
	} else {
		RecordSuccess(ic.Span)
	}
	ic.Span.End()
}

// buildSpanKey is the context key for workspace build spans.
type buildSpanKey struct{}

// buildTimerKey is the context key for workspace build timers.
type buildTimerKey struct{}

// WithBuildContext creates a context enriched with build-specific telemetry.
func WithBuildContext(ctx context.Context, manifestPath string) context.Context {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx
	}

	spanCtx, span := tel.Tracer.StartBuildSpan(ctx, manifestPath)

	logger := FromContext(ctx).WithManifest(manifestPath)
	spanCtx = logger.WithContext(spanCtx)

	spanCtx = context.WithValue(spanCtx, buildSpanKey{}, span)
	spanCtx = context.WithValue(spanCtx, buildTimerKey{}, NewTimer())

	return spanCtx
}

// BuildSummary describes a finished build for EndBuildContext.
type BuildSummary struct {
	Packages        int
	Targets         int
	Inconsistencies int
}

// EndBuildContext completes the build context, recording metrics and events.
// errClass and errCode classify err when it is non-nil.
func EndBuildContext(ctx context.Context, manifestPath string, summary BuildSummary, err error, errClass, errCode string) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	if span, ok := ctx.Value(buildSpanKey{}).(trace.Span); ok {
		span.SetAttributes(
			AttrPackageCount.Int(summary.Packages),
			AttrTargetCount.Int(summary.Targets),
		)
		if err != nil {
			span.SetAttributes(AttrErrorClass.String(errClass), AttrErrorCode.String(errCode))
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
	}

	var duration time.Duration
	if timer, ok := ctx.Value(buildTimerKey{}).(*Timer); ok {
		duration = timer.Duration()
	}

	if err != nil {
		tel.Metrics.RecordBuild("failed", duration)
		tel.Metrics.RecordError(errClass, errCode)
		_ = tel.Events.PublishWorkspaceBuildFailed(manifestPath, err.Error())
		return
	}

	tel.Metrics.RecordBuild("succeeded", duration)
	tel.Metrics.RecordGraph(summary.Packages, summary.Targets)
	_ = tel.Events.PublishWorkspaceBuilt(manifestPath, summary.Packages, summary.Targets, summary.Inconsistencies, duration)
}

// RecordCargoOperation runs fn as one cargo invocation with metrics and tracing.
func RecordCargoOperation(ctx context.Context, command, manifestPath string, fn func(ctx context.Context) error) error {
	tel := FromTelemetryContext(ctx)

	var span trace.Span
	if tel != nil {
		ctx, span = tel.Tracer.StartCargoSpan(ctx, command, manifestPath)
		defer span.End()
	}

	timer := NewTimer()
	err := fn(ctx)

	if tel != nil {
		outcome := "succeeded"
		if err != nil {
			outcome = "failed"
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		tel.Metrics.RecordCargoInvocation(command, outcome, timer.Duration())
	}

	return err
}

// RecordInconsistency records a skipped resolve node or edge on every telemetry sink.
func RecordInconsistency(ctx context.Context, manifestPath, kind, packageID, message string) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	AddInconsistencyEvent(trace.SpanFromContext(ctx), kind, packageID)
	tel.Metrics.RecordInconsistency(kind)
	_ = tel.Events.PublishInconsistency(manifestPath, kind, packageID, message)
}

// RecordMessage counts a decoded cargo message, or a malformed line when reason is empty.
func RecordMessage(ctx context.Context, reason string) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}
	if reason == "" {
		tel.Metrics.RecordMalformedMessage()
		return
	}
	tel.Metrics.RecordMessage(reason)
}
