// Package observability wires OpenTelemetry tracing and metrics.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg.Tracer("newsroom-api", version.Version, "production"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanAuthenticate)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, cfg.Meter("newsroom-api", version.Version, "production"))
//	defer mp.Shutdown(ctx)
//
//	m, err := observability.NewAuthMetrics(observability.Meter("newsroom-api"))
//	m.RecordAttempt(ctx, "bearer", observability.OutcomeSuccess, time.Since(start))
package observability
