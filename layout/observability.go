package layout

import (
	"context"
	"time"

	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
)

// WithTracing wraps a Layouter with OpenTelemetry span creation.
// Each pass creates a span named layout.layout or layout.relayout.
func WithTracing(l Layouter) Layouter {
	return &tracingLayouter{inner: l}
}

type tracingLayouter struct {
	inner Layouter
}

func (t *tracingLayouter) Layout(ctx context.Context, g *graph.Graph) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanLayout)
	defer span.End()
	return t.record(ctx, g, func(ctx context.Context) (*Result, error) { return t.inner.Layout(ctx, g) })
}

func (t *tracingLayouter) Relayout(ctx context.Context, g *graph.Graph, oracle SizeOracle) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRelayout)
	defer span.End()
	return t.record(ctx, g, func(ctx context.Context) (*Result, error) { return t.inner.Relayout(ctx, g, oracle) })
}

func (t *tracingLayouter) record(ctx context.Context, g *graph.Graph, fn func(context.Context) (*Result, error)) (*Result, error) {
	nodes, edges := counts(g)
	observability.SetSpanAttribute(ctx, observability.AttrNodes, nodes)
	observability.SetSpanAttribute(ctx, observability.AttrEdges, edges)

	res, err := fn(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return res, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrProvisional, res.Provisional)
	return res, nil
}

// WithMetrics wraps a Layouter with metric recording.
// Records pass count, duration and node count per phase.
func WithMetrics(l Layouter, metrics *observability.Metrics) Layouter {
	return &metricsLayouter{inner: l, metrics: metrics}
}

type metricsLayouter struct {
	inner   Layouter
	metrics *observability.Metrics
}

func (m *metricsLayouter) Layout(ctx context.Context, g *graph.Graph) (*Result, error) {
	start := time.Now()
	res, err := m.inner.Layout(ctx, g)
	m.metrics.RecordLayout(ctx, PhaseLayout, outcome(err), time.Since(start), nodeCount(g))
	return res, err
}

func (m *metricsLayouter) Relayout(ctx context.Context, g *graph.Graph, oracle SizeOracle) (*Result, error) {
	start := time.Now()
	res, err := m.inner.Relayout(ctx, g, oracle)
	m.metrics.RecordLayout(ctx, PhaseRelayout, outcome(err), time.Since(start), nodeCount(g))
	return res, err
}

// WithLogging wraps a Layouter with pass logging.
// Logs: phase, node count, duration and success/error status.
func WithLogging(l Layouter, log *logger.Logger) Layouter {
	return &loggingLayouter{inner: l, log: log}
}

type loggingLayouter struct {
	inner Layouter
	log   *logger.Logger
}

func (l *loggingLayouter) Layout(ctx context.Context, g *graph.Graph) (*Result, error) {
	start := time.Now()
	res, err := l.inner.Layout(ctx, g)
	l.logPass(PhaseLayout, g, time.Since(start), res, err)
	return res, err
}

func (l *loggingLayouter) Relayout(ctx context.Context, g *graph.Graph, oracle SizeOracle) (*Result, error) {
	start := time.Now()
	res, err := l.inner.Relayout(ctx, g, oracle)
	l.logPass(PhaseRelayout, g, time.Since(start), res, err)
	return res, err
}

func (l *loggingLayouter) logPass(phase string, g *graph.Graph, d time.Duration, res *Result, err error) {
	fields := map[string]interface{}{
		"phase":    phase,
		"nodes":    nodeCount(g),
		"duration": d.String(),
	}

	if err != nil {
		fields["error"] = err.Error()
		l.log.Error("layout pass failed", fields)
		return
	}
	fields["crossings"] = res.Crossings
	l.log.Debug("layout pass completed", fields)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func counts(g *graph.Graph) (nodes, edges int) {
	if g == nil {
		return 0, 0
	}
	return len(g.Nodes), len(g.Edges)
}

func nodeCount(g *graph.Graph) int {
	n, _ := counts(g)
	return n
}
