package layout

import (
	"context"
	"math"

	"github.com/kbukum/pipegraph/dag"
	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/logger"
)

// Layout phases.
const (
	PhaseLayout   = "layout"
	PhaseRelayout = "relayout"
)

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Result is a positioned copy of the input graph.
type Result struct {
	Graph *graph.Graph
	// Bounds covers every node plus the margin.
	Bounds Rect
	// Provisional is true when default sizes were used throughout.
	Provisional bool
	// Crossings is the number of edge crossings left after ordering.
	Crossings int
}

// Layouter computes positions. Engine is the base implementation; the
// decorators in this package wrap it.
type Layouter interface {
	Layout(ctx context.Context, g *graph.Graph) (*Result, error)
	Relayout(ctx context.Context, g *graph.Graph, oracle SizeOracle) (*Result, error)
}

// Engine is a stateless layered layout engine, safe for concurrent use.
type Engine struct {
	opts Options
	log  *logger.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for dropped edges and measurement fallbacks.
func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine validates opts and returns an engine.
func NewEngine(opts Options, options ...EngineOption) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, log: logger.Get("layout")}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

// Options returns the engine options.
func (e *Engine) Options() Options { return e.opts }

// Layout places every node at the default size.
func (e *Engine) Layout(ctx context.Context, g *graph.Graph) (*Result, error) {
	return e.run(ctx, PhaseLayout, g, nil)
}

// Relayout places nodes using the sizes reported by oracle. Nodes without a
// valid measurement use the default size.
func (e *Engine) Relayout(ctx context.Context, g *graph.Graph, oracle SizeOracle) (*Result, error) {
	return e.run(ctx, PhaseRelayout, g, oracle)
}

func (e *Engine) run(ctx context.Context, phase string, g *graph.Graph, oracle SizeOracle) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.LayoutFailed(phase, err)
	}

	out := g.Clone()
	res := &Result{Graph: out, Provisional: oracle == nil}
	sizes := e.sizes(out, oracle)

	dg := dag.New()
	placed := make([]bool, len(out.Nodes))
	for i, n := range out.Nodes {
		placed[i] = dg.AddNode(n.Common().ID)
	}
	for _, edge := range out.Edges {
		if err := dg.AddEdge(edge.Source, edge.Target); err != nil {
			e.log.Debug("edge dropped from layout", logger.Fields("edge", edge.ID, "reason", err.Error()))
		}
	}

	layered, err := dag.Layer(dg)
	if err != nil {
		return nil, errors.LayoutFailed(phase, err)
	}
	if len(layered.Reversed) > 0 {
		e.log.Debug("cycles broken", logger.Fields("reversed", len(layered.Reversed)))
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.LayoutFailed(phase, err)
	}

	res.Crossings = dag.Order(layered, dag.DefaultSweeps)
	if err := ctx.Err(); err != nil {
		return nil, errors.LayoutFailed(phase, err)
	}

	centers := e.place(layered, sizes)
	res.Bounds = e.apply(out, centers, sizes, placed)
	return res, nil
}

// sizes resolves and records the size of every node of g.
func (e *Engine) sizes(g *graph.Graph, oracle SizeOracle) map[string]graph.Size {
	fallback := e.opts.fallback()
	sizes := make(map[string]graph.Size, len(g.Nodes))
	for _, n := range g.Nodes {
		b := n.Common()
		s := fallback
		if oracle != nil {
			m, ok, err := measure(oracle, b.ID)
			switch {
			case err != nil:
				e.log.Warn("measurement failed, using default size", logger.Fields("node", b.ID, "error", err.Error()))
			case !ok:
				e.log.Debug("node not measured, using default size", logger.Fields("node", b.ID))
			case !m.Valid() || math.IsInf(m.Width, 0) || math.IsInf(m.Height, 0):
				e.log.Debug("invalid measurement, using default size", logger.Fields(
					"node", b.ID, "width", m.Width, "height", m.Height,
				))
			default:
				s = m
			}
		}
		if _, seen := sizes[b.ID]; !seen {
			sizes[b.ID] = s
		}
		b.Size = s
	}
	return sizes
}

// apply maps rank-major centers onto the configured direction, shifts them by
// the margin and writes top-left positions. Nodes without a placement keep
// their previous position.
func (e *Engine) apply(g *graph.Graph, centers map[string]graph.Point, sizes map[string]graph.Size, placed []bool) Rect {
	oriented := make(map[string]graph.Point, len(centers))
	minX, minY := math.Inf(1), math.Inf(1)
	for id, c := range centers {
		s, isNode := sizes[id]
		if !isNode {
			continue
		}
		p := e.orient(c)
		oriented[id] = p
		minX = math.Min(minX, p.X-s.Width/2)
		minY = math.Min(minY, p.Y-s.Height/2)
	}
	if len(oriented) == 0 {
		return Rect{Width: 2 * e.opts.Margin, Height: 2 * e.opts.Margin}
	}

	dx, dy := e.opts.Margin-minX, e.opts.Margin-minY
	var maxX, maxY float64
	for i, n := range g.Nodes {
		b := n.Common()
		c, ok := oriented[b.ID]
		if !ok || !placed[i] {
			continue
		}
		center := graph.Point{X: c.X + dx, Y: c.Y + dy}
		b.Position = ToTopLeft(center, b.Size)
		maxX = math.Max(maxX, b.Position.X+b.Size.Width)
		maxY = math.Max(maxY, b.Position.Y+b.Size.Height)
	}
	return Rect{Width: maxX + e.opts.Margin, Height: maxY + e.opts.Margin}
}

func (e *Engine) orient(c graph.Point) graph.Point {
	// c.X is the rank axis, c.Y the cross axis
	switch e.opts.Direction {
	case TopBottom:
		return graph.Point{X: c.Y, Y: c.X}
	case BottomTop:
		return graph.Point{X: c.Y, Y: -c.X}
	case RightLeft:
		return graph.Point{X: -c.X, Y: c.Y}
	default:
		return c
	}
}
