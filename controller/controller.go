// Package controller orchestrates the two-phase layout cycle of a view.
//
// A Controller owns one source snapshot at a time. Every new snapshot pointer
// bumps the version and rebuilds the graph. On the next Tick with a ready
// surface the graph is laid out at default sizes, presented, and the surface
// is asked to measure the rendered nodes. The surface answers with Measured;
// the refined layout is presented only if no newer snapshot arrived in the
// meantime.
//
//	c := controller.New(graph.BuildPipeline, engine, surface)
//	c.SetSource(p)
//	_ = c.Tick(ctx)
//	// surface renders, measures, then:
//	_ = c.Measured(ctx, version, layout.MeasuredSizes(sizes))
//
// Presentation is serialized: a snapshot reaches the surface only if it is
// still current when handed over, so the surface never sees a superseded
// version after a newer one.
package controller

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/layout"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
)

// State is the phase of the layout cycle.
type State int

const (
	Idle State = iota
	AwaitingMeasurement
	LaidOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingMeasurement:
		return "awaiting_measurement"
	case LaidOut:
		return "laid_out"
	}
	return "unknown"
}

// Snapshot is a positioned graph handed to the surface.
type Snapshot struct {
	Version     uint64       `json:"version"`
	CycleID     string       `json:"cycleId"`
	Graph       *graph.Graph `json:"graph"`
	Provisional bool         `json:"provisional"`
	Bounds      layout.Rect  `json:"bounds"`
}

// Surface is the rendering collaborator.
type Surface interface {
	// Ready reports whether the surface can render.
	Ready() bool
	Present(s Snapshot)
	// RequestMeasure asks the surface to measure the presented nodes and
	// report back through Controller.Measured with the same version.
	RequestMeasure(version uint64)
	ResetView()
}

// Builder turns a source snapshot into a graph.
type Builder[T any] func(*T) *graph.Graph

// Option configures a Controller.
type Option func(*settings)

type settings struct {
	name    string
	log     *logger.Logger
	metrics *observability.Metrics
}

// WithName sets the name used in logs and metrics.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetrics records snapshots and stale results.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// Controller drives the layout cycle for sources of type T. It is safe for
// concurrent use; layouts run outside the lock and are version checked
// before being applied.
type Controller[T any] struct {
	settings
	build    Builder[T]
	layouter layout.Layouter
	surface  Surface

	// presentMu orders the version check and Surface.Present of concurrent
	// passes. Acquired before mu.
	presentMu sync.Mutex

	mu          sync.Mutex
	source      *T
	graph       *graph.Graph
	version     uint64
	cycleID     string
	state       State
	needsLayout bool
	requested   uint64
	current     *Snapshot
}

// New creates an idle controller.
func New[T any](build Builder[T], l layout.Layouter, s Surface, opts ...Option) *Controller[T] {
	c := &Controller[T]{
		settings: settings{name: "controller"},
		build:    build,
		layouter: l,
		surface:  s,
	}
	for _, o := range opts {
		o(&c.settings)
	}
	if c.log == nil {
		c.log = logger.Get("controller").WithFields(logger.Fields("view", c.name))
	}
	return c
}

// SetSource installs a new snapshot. The same pointer is a no-op; it returns
// whether the snapshot was accepted.
func (c *Controller[T]) SetSource(src *T) bool {
	c.mu.Lock()
	if c.version > 0 && src == c.source {
		c.mu.Unlock()
		return false
	}
	c.source = src
	c.graph = c.build(src)
	if c.graph == nil {
		c.graph = &graph.Graph{}
	}
	c.version++
	c.cycleID = uuid.NewString()
	c.needsLayout = true
	c.requested = 0
	c.state = AwaitingMeasurement
	version, nodes := c.version, len(c.graph.Nodes)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordSnapshot(context.Background(), c.name)
	}
	c.log.Debug("snapshot accepted", logger.Fields("version", version, "nodes", nodes))
	return true
}

// Tick runs the provisional layout when one is due and the surface is ready,
// presents it and requests a measurement.
func (c *Controller[T]) Tick(ctx context.Context) error {
	c.mu.Lock()
	if !c.needsLayout || c.graph == nil || c.requested == c.version {
		c.mu.Unlock()
		return nil
	}
	if !c.surface.Ready() {
		c.mu.Unlock()
		return errors.SurfaceNotReady()
	}
	version, cycleID, g := c.version, c.cycleID, c.graph
	c.requested = version
	c.mu.Unlock()

	res, err := c.layouter.Layout(ctx, g)
	if err != nil {
		c.mu.Lock()
		if c.requested == version {
			c.requested = 0
		}
		c.mu.Unlock()
		c.log.Warn("provisional layout failed, keeping last positions", logger.ErrorFields("layout", err))
		return err
	}

	snap := Snapshot{Version: version, CycleID: cycleID, Graph: res.Graph, Provisional: true, Bounds: res.Bounds}
	if err := c.present(ctx, snap); err != nil {
		return err
	}
	// Outside presentMu: a surface may answer with Measured synchronously.
	c.surface.RequestMeasure(version)
	return nil
}

// Measured is called by the surface once the nodes of version have been
// rendered and can be measured. Results for a superseded version, or for a
// version whose provisional pass has not been requested in the current
// cycle, are rejected with a STALE_SNAPSHOT error.
func (c *Controller[T]) Measured(ctx context.Context, version uint64, oracle layout.SizeOracle) error {
	return c.MeasuredCycle(ctx, version, "", oracle)
}

// MeasuredCycle is Measured for a measurement taken in cycle cycleID. An
// empty cycleID matches the current cycle.
func (c *Controller[T]) MeasuredCycle(ctx context.Context, version uint64, cycleID string, oracle layout.SizeOracle) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanMeasured)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrVersion, version)
	observability.SetSpanAttribute(ctx, observability.AttrCycleID, cycleID)

	c.mu.Lock()
	current, currentCycle, requested, g := c.version, c.cycleID, c.requested, c.graph
	c.mu.Unlock()

	var err error
	switch {
	case version != current || g == nil:
		err = c.stale(ctx, version, current)
	case requested != version:
		// A Relayout re-armed the cycle; its provisional pass comes first.
		err = c.stale(ctx, version, current).WithDetail("reason", "no measurement requested")
	case cycleID != "" && cycleID != currentCycle:
		err = c.stale(ctx, version, current).WithDetail("cycle_id", cycleID).WithDetail("current_cycle_id", currentCycle)
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}

	res, err := c.layouter.Relayout(ctx, g, oracle)
	if err != nil {
		observability.SetSpanError(ctx, err)
		c.log.Warn("layout refinement failed, keeping last positions", logger.ErrorFields("relayout", err))
		return err
	}

	snap := Snapshot{Version: version, CycleID: currentCycle, Graph: res.Graph, Bounds: res.Bounds}
	if err := c.present(ctx, snap); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	return nil
}

// present records snap as current and hands it to the surface, unless a
// newer snapshot or cycle has started. presentMu is held across both steps.
func (c *Controller[T]) present(ctx context.Context, snap Snapshot) error {
	c.presentMu.Lock()
	defer c.presentMu.Unlock()

	c.mu.Lock()
	if snap.Version != c.version || snap.CycleID != c.cycleID {
		current := c.version
		c.mu.Unlock()
		return c.stale(ctx, snap.Version, current)
	}
	s := snap
	c.current = &s
	if !snap.Provisional {
		c.needsLayout = false
		c.state = LaidOut
	}
	c.mu.Unlock()

	c.surface.Present(snap)
	return nil
}

func (c *Controller[T]) stale(ctx context.Context, got, current uint64) *errors.AppError {
	if c.metrics != nil {
		c.metrics.RecordStale(ctx, c.name)
	}
	c.log.Debug("discarding stale layout", logger.Fields("version", got, "current", current))
	return errors.StaleSnapshot(got, current)
}

// Relayout schedules a new layout cycle for the current snapshot.
func (c *Controller[T]) Relayout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.graph == nil {
		return
	}
	c.needsLayout = true
	c.requested = 0
	c.cycleID = uuid.NewString()
	c.state = AwaitingMeasurement
}

// ResetView asks the surface to fit the whole graph.
func (c *Controller[T]) ResetView() {
	c.surface.ResetView()
}

// Current returns the last presented snapshot.
func (c *Controller[T]) Current() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Snapshot{}, false
	}
	return *c.current, true
}

// State returns the phase of the layout cycle.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Version returns the current snapshot version. Zero means no snapshot.
func (c *Controller[T]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Source returns the current snapshot.
func (c *Controller[T]) Source() *T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Health reports the controller as a lifecycle component.
func (c *Controller[T]) Health(context.Context) observability.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := observability.Health{Name: c.name, Status: observability.HealthStatusUp}
	if c.version == 0 {
		h.Status = observability.HealthStatusDegraded
		h.Message = "no snapshot loaded"
	}
	return h
}
