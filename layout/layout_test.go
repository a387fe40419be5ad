package layout

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/model"
	"github.com/kbukum/pipegraph/observability"
)

// --- test helpers ---

func chain(ids ...string) *graph.Graph {
	g := &graph.Graph{}
	for i, id := range ids {
		g.Nodes = append(g.Nodes, &graph.StageNode{Base: graph.Base{ID: id}})
		if i > 0 {
			g.Edges = append(g.Edges, graph.Edge{ID: ids[i-1] + "->" + id, Source: ids[i-1], Target: id})
		}
	}
	return g
}

func engine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	e, err := NewEngine(opts, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func positions(g *graph.Graph) map[string]graph.Point {
	out := make(map[string]graph.Point, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.Common().ID] = n.Common().Position
	}
	return out
}

func overlaps(a, b *graph.Base) bool {
	return a.Position.X < b.Position.X+b.Size.Width &&
		b.Position.X < a.Position.X+a.Size.Width &&
		a.Position.Y < b.Position.Y+b.Size.Height &&
		b.Position.Y < a.Position.Y+a.Size.Height
}

func assertNoOverlap(t *testing.T, g *graph.Graph) {
	t.Helper()
	for i := range g.Nodes {
		for j := i + 1; j < len(g.Nodes); j++ {
			a, b := g.Nodes[i].Common(), g.Nodes[j].Common()
			if overlaps(a, b) {
				t.Errorf("nodes %s %+v and %s %+v overlap", a.ID, a.Position, b.ID, b.Position)
			}
		}
	}
}

// --- Options tests ---

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		field  string
	}{
		{"bad direction", func(o *Options) { o.Direction = "XY" }, "direction"},
		{"zero zoom", func(o *Options) { o.Zoom = 0 }, "zoom"},
		{"negative node sep", func(o *Options) { o.NodeSep = -1 }, "node_sep"},
		{"empty default size", func(o *Options) { o.DefaultSize = graph.Size{} }, "default_size"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			_, err := NewEngine(opts)
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("expected %q in %v", tc.field, err)
			}
		})
	}

	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options must be valid: %v", err)
	}
}

// --- Engine tests ---

func TestLayoutChainLR(t *testing.T) {
	res, err := engine(t, nil).Layout(context.Background(), chain("a", "b", "c"))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	want := map[string]graph.Point{"a": {X: 0, Y: 0}, "b": {X: 400, Y: 0}, "c": {X: 800, Y: 0}}
	if diff := cmp.Diff(want, positions(res.Graph)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if res.Bounds != (Rect{Width: 1000, Height: 200}) {
		t.Errorf("unexpected bounds %+v", res.Bounds)
	}
	if !res.Provisional {
		t.Error("expected provisional result")
	}
}

func TestLayoutDirections(t *testing.T) {
	tests := []struct {
		dir  Direction
		want map[string]graph.Point
	}{
		{TopBottom, map[string]graph.Point{"a": {X: 0, Y: 0}, "b": {X: 0, Y: 400}, "c": {X: 0, Y: 800}}},
		{BottomTop, map[string]graph.Point{"a": {X: 0, Y: 800}, "b": {X: 0, Y: 400}, "c": {X: 0, Y: 0}}},
		{RightLeft, map[string]graph.Point{"a": {X: 800, Y: 0}, "b": {X: 400, Y: 0}, "c": {X: 0, Y: 0}}},
	}
	for _, tc := range tests {
		t.Run(string(tc.dir), func(t *testing.T) {
			e := engine(t, func(o *Options) { o.Direction = tc.dir })
			res, err := e.Layout(context.Background(), chain("a", "b", "c"))
			if err != nil {
				t.Fatalf("Layout: %v", err)
			}
			if diff := cmp.Diff(tc.want, positions(res.Graph)); diff != "" {
				t.Errorf("positions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRelayoutUsesMeasuredSizes(t *testing.T) {
	sizes := MeasuredSizes{
		"a": {Width: 100, Height: 50},
		"b": {Width: 300, Height: 80},
	}
	res, err := engine(t, nil).Relayout(context.Background(), chain("a", "b"), sizes)
	if err != nil {
		t.Fatalf("Relayout: %v", err)
	}
	want := map[string]graph.Point{"a": {X: 0, Y: 15}, "b": {X: 300, Y: 0}}
	if diff := cmp.Diff(want, positions(res.Graph)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if res.Provisional {
		t.Error("expected refined result")
	}
	if got := res.Graph.Node("b").Common().Size; got != sizes["b"] {
		t.Errorf("expected measured size on node, got %+v", got)
	}
}

func TestRelayoutFallbackSizes(t *testing.T) {
	g := &graph.Graph{}
	for _, id := range []string{"root", "missing", "zero", "negative", "panics"} {
		g.Nodes = append(g.Nodes, &graph.StageNode{Base: graph.Base{ID: id}})
		if id != "root" {
			g.Edges = append(g.Edges, graph.Edge{ID: "root->" + id, Source: "root", Target: id})
		}
	}
	oracle := SizeFunc(func(id string) (graph.Size, bool) {
		switch id {
		case "root":
			return graph.Size{Width: 120, Height: 60}, true
		case "zero":
			return graph.Size{}, true
		case "negative":
			return graph.Size{Width: -5, Height: 10}, true
		case "panics":
			panic("measurement exploded")
		}
		return graph.Size{}, false
	})

	e := engine(t, func(o *Options) { o.Zoom = 0.5 })
	res, err := e.Relayout(context.Background(), g, oracle)
	if err != nil {
		t.Fatalf("Relayout: %v", err)
	}
	fallback := graph.Size{Width: 100, Height: 100}
	for _, id := range []string{"missing", "zero", "negative", "panics"} {
		if got := res.Graph.Node(id).Common().Size; got != fallback {
			t.Errorf("%s: expected fallback %+v, got %+v", id, fallback, got)
		}
	}
	assertNoOverlap(t, res.Graph)
}

func TestLayoutDeterministic(t *testing.T) {
	p := &model.Pipeline{
		Stages: []*model.Stage{{ID: "dev"}, {ID: "qa"}, {ID: "staging"}, {ID: "prod"}},
		Edges: []*model.StageEdge{
			{ID: "e1", From: model.StageRef{ID: "dev"}, To: model.StageRef{ID: "qa"}, Gates: []*model.Gate{
				{ID: "a1", Type: model.GateApproval, State: model.GateOpen},
				{ID: "j1", Type: model.GateJob, State: model.GatePending},
			}},
			{ID: "e2", From: model.StageRef{ID: "dev"}, To: model.StageRef{ID: "staging"}},
			{ID: "e3", From: model.StageRef{ID: "qa"}, To: model.StageRef{ID: "prod"}, Gates: []*model.Gate{
				{ID: "t1", Type: model.GateWindow, State: model.GateClosed},
			}},
			{ID: "e4", From: model.StageRef{ID: "staging"}, To: model.StageRef{ID: "prod"}},
		},
	}
	e := engine(t, nil)
	first, err := e.Layout(context.Background(), graph.BuildPipeline(p))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for i := 0; i < 5; i++ {
		res, err := e.Layout(context.Background(), graph.BuildPipeline(p))
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		if diff := cmp.Diff(positions(first.Graph), positions(res.Graph)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
	assertNoOverlap(t, first.Graph)

	pos := positions(first.Graph)
	if !(pos["dev"].X < pos["e1-approval"].X && pos["e1-approval"].X < pos["qa"].X && pos["qa"].X < pos["prod"].X) {
		t.Errorf("expected ranks to advance left to right, got %+v", pos)
	}
}

func TestLayoutDoesNotMutateInput(t *testing.T) {
	g := chain("a", "b")
	if _, err := engine(t, nil).Layout(context.Background(), g); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for _, n := range g.Nodes {
		if n.Common().Position != (graph.Point{}) || n.Common().Size != (graph.Size{}) {
			t.Fatalf("input node %s was modified", n.Common().ID)
		}
	}
}

func TestLayoutMargin(t *testing.T) {
	res, err := engine(t, func(o *Options) { o.Margin = 20 }).Layout(context.Background(), chain("a"))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if got := res.Graph.Node("a").Common().Position; got != (graph.Point{X: 20, Y: 20}) {
		t.Errorf("expected margin offset, got %+v", got)
	}
	if res.Bounds != (Rect{Width: 240, Height: 240}) {
		t.Errorf("unexpected bounds %+v", res.Bounds)
	}
}

func TestLayoutCyclesAndDanglingEdges(t *testing.T) {
	g := chain("a", "b", "c")
	g.Edges = append(g.Edges,
		graph.Edge{ID: "c->a", Source: "c", Target: "a"},
		graph.Edge{ID: "a->a", Source: "a", Target: "a"},
		graph.Edge{ID: "a->ghost", Source: "a", Target: "ghost"},
	)
	res, err := engine(t, nil).Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	pos := positions(res.Graph)
	if !(pos["a"].X < pos["b"].X && pos["b"].X < pos["c"].X) {
		t.Errorf("expected cycle to keep chain order, got %+v", pos)
	}
	if len(res.Graph.Edges) != len(g.Edges) {
		t.Error("result must keep every input edge")
	}
}

func TestLayoutNodeWithoutPlacementKeepsPosition(t *testing.T) {
	g := chain("a")
	stray := &graph.StageNode{Base: graph.Base{Position: graph.Point{X: 7, Y: 9}}}
	g.Nodes = append(g.Nodes, stray)

	res, err := engine(t, nil).Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if got := res.Graph.Nodes[1].Common().Position; got != (graph.Point{X: 7, Y: 9}) {
		t.Errorf("expected previous position, got %+v", got)
	}
}

func TestLayoutRemovesCrossings(t *testing.T) {
	g := &graph.Graph{}
	for _, id := range []string{"a", "b", "c", "d"} {
		g.Nodes = append(g.Nodes, &graph.StageNode{Base: graph.Base{ID: id}})
	}
	g.Edges = []graph.Edge{
		{ID: "a->d", Source: "a", Target: "d"},
		{ID: "b->c", Source: "b", Target: "c"},
	}
	res, err := engine(t, nil).Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if res.Crossings != 0 {
		t.Errorf("expected no crossings, got %d", res.Crossings)
	}
	pos := positions(res.Graph)
	if (pos["a"].Y < pos["b"].Y) != (pos["d"].Y < pos["c"].Y) {
		t.Errorf("edges cross: %+v", pos)
	}
}

func TestLayoutEmptyAndNil(t *testing.T) {
	e := engine(t, nil)
	for _, g := range []*graph.Graph{nil, {}} {
		res, err := e.Layout(context.Background(), g)
		if err != nil {
			t.Fatalf("Layout: %v", err)
		}
		if len(res.Graph.Nodes) != 0 {
			t.Errorf("expected empty result, got %d nodes", len(res.Graph.Nodes))
		}
	}
}

func TestLayoutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine(t, nil).Layout(ctx, chain("a", "b"))
	if !errors.HasCode(err, errors.ErrCodeLayoutFailed) {
		t.Fatalf("expected LAYOUT_FAILED, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled cause, got %v", err)
	}
}

// --- Anchor tests ---

func TestAnchorRoundTrip(t *testing.T) {
	s := graph.Size{Width: 120, Height: 40}
	c := graph.Point{X: 300, Y: 100}
	tl := ToTopLeft(c, s)
	if tl != (graph.Point{X: 240, Y: 80}) {
		t.Errorf("unexpected top-left %+v", tl)
	}
	if got := ToCenter(tl, s); got != c {
		t.Errorf("expected %+v, got %+v", c, got)
	}
}

// --- Decorator tests ---

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	l := WithTracing(engine(t, nil))
	g := chain("a", "b")
	if _, err := l.Layout(context.Background(), g); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if _, err := l.Relayout(context.Background(), g, FixedSize{Width: 10, Height: 10}); err != nil {
		t.Fatalf("Relayout: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != observability.SpanLayout || spans[1].Name != observability.SpanRelayout {
		t.Errorf("unexpected span names %q, %q", spans[0].Name, spans[1].Name)
	}
}

func TestWithMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	l := WithMetrics(engine(t, nil), metrics)
	if _, err := l.Layout(context.Background(), chain("a")); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if _, err := l.Relayout(context.Background(), nil, nil); err != nil {
		t.Fatalf("Relayout: %v", err)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	l := WithLogging(engine(t, nil), log)

	if _, err := l.Layout(context.Background(), chain("a", "b")); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !strings.Contains(buf.String(), "layout pass completed") {
		t.Errorf("expected completion log, got %s", buf.String())
	}

	buf.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Relayout(ctx, chain("a"), nil); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !strings.Contains(buf.String(), "layout pass failed") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
}
