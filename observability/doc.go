// Package observability provides OpenTelemetry tracing and metrics for the
// layout pipeline.
//
// Tracing:
//
//	tcfg := observability.DefaultTracerConfig("pipegraph")
//	tp, err := observability.InitTracer(ctx, &tcfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanLayout)
//	defer span.End()
//
// Metrics:
//
//	mcfg := observability.DefaultMeterConfig("pipegraph")
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("pipegraph"))
//	metrics.RecordLayout(ctx, "provisional", "ok", duration, nodes)
//
// Health:
//
//	health := observability.Aggregate("pipegraph", version.GetShortVersion(),
//	    hub.Health(ctx), watcher.Health(ctx))
package observability
