package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/layout"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/model"
)

// --- test helpers ---

type fakeSurface struct {
	mu        sync.Mutex
	ready     bool
	presented []Snapshot
	requests  []uint64
	resets    int
}

func (s *fakeSurface) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *fakeSurface) Present(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presented = append(s.presented, snap)
}

func (s *fakeSurface) RequestMeasure(version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, version)
}

func (s *fakeSurface) ResetView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *fakeSurface) snapshot() ([]Snapshot, []uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.presented...), append([]uint64(nil), s.requests...)
}

// hookLayouter runs before on every Relayout.
type hookLayouter struct {
	layout.Layouter
	before func()
}

func (h *hookLayouter) Relayout(ctx context.Context, g *graph.Graph, o layout.SizeOracle) (*layout.Result, error) {
	if h.before != nil {
		h.before()
	}
	return h.Layouter.Relayout(ctx, g, o)
}

// gateSurface blocks Present of refined snapshots until release is closed.
type gateSurface struct {
	fakeSurface
	entered chan struct{}
	release chan struct{}
}

func (s *gateSurface) Present(snap Snapshot) {
	if !snap.Provisional {
		close(s.entered)
		<-s.release
	}
	s.fakeSurface.Present(snap)
}

func newEngine(t *testing.T) *layout.Engine {
	t.Helper()
	e, err := layout.NewEngine(layout.DefaultOptions(), layout.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func pipeline(ids ...string) *model.Pipeline {
	p := &model.Pipeline{}
	for i, id := range ids {
		p.Stages = append(p.Stages, &model.Stage{ID: id})
		if i > 0 {
			p.Edges = append(p.Edges, &model.StageEdge{
				ID: "e" + id, From: model.StageRef{ID: ids[i-1]}, To: model.StageRef{ID: id},
			})
		}
	}
	return p
}

func newController(t *testing.T, l layout.Layouter, s Surface) *Controller[model.Pipeline] {
	t.Helper()
	return New(graph.BuildPipeline, l, s, WithName("pipeline"), WithLogger(logger.Nop()))
}

// --- tests ---

func TestSetSourceSamePointerIsNoop(t *testing.T) {
	c := newController(t, newEngine(t), &fakeSurface{ready: true})
	if c.State() != Idle {
		t.Fatalf("expected idle, got %s", c.State())
	}

	p := pipeline("dev", "prod")
	if !c.SetSource(p) {
		t.Fatal("expected first snapshot to be accepted")
	}
	if c.SetSource(p) {
		t.Fatal("expected same pointer to be ignored")
	}
	if c.Version() != 1 {
		t.Fatalf("expected version 1, got %d", c.Version())
	}

	if !c.SetSource(pipeline("dev", "prod")) {
		t.Fatal("expected new pointer to be accepted")
	}
	if c.Version() != 2 {
		t.Fatalf("expected version 2, got %d", c.Version())
	}
	if c.State() != AwaitingMeasurement {
		t.Fatalf("expected awaiting_measurement, got %s", c.State())
	}
}

func TestTickPresentsProvisionalLayout(t *testing.T) {
	s := &fakeSurface{ready: true}
	c := newController(t, newEngine(t), s)
	c.SetSource(pipeline("dev", "qa", "prod"))

	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	presented, requests := s.snapshot()
	if len(presented) != 1 || !presented[0].Provisional {
		t.Fatalf("expected one provisional snapshot, got %+v", presented)
	}
	if len(requests) != 1 || requests[0] != 1 {
		t.Fatalf("expected a measure request for version 1, got %v", requests)
	}
	if presented[0].CycleID == "" {
		t.Error("expected a cycle id")
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if presented, _ := s.snapshot(); len(presented) != 1 {
		t.Fatalf("expected tick to wait for the measurement, got %d presents", len(presented))
	}
}

func TestTickSurfaceNotReady(t *testing.T) {
	s := &fakeSurface{}
	c := newController(t, newEngine(t), s)

	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("expected idle tick to be a no-op, got %v", err)
	}

	c.SetSource(pipeline("dev"))
	err := c.Tick(context.Background())
	if !errors.HasCode(err, errors.ErrCodeSurfaceNotReady) {
		t.Fatalf("expected SURFACE_NOT_READY, got %v", err)
	}
	if presented, _ := s.snapshot(); len(presented) != 0 {
		t.Fatal("nothing must be presented before the surface is ready")
	}

	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if presented, _ := s.snapshot(); len(presented) != 1 {
		t.Fatal("expected layout once the surface is ready")
	}
}

func TestMeasuredCompletesCycle(t *testing.T) {
	s := &fakeSurface{ready: true}
	c := newController(t, newEngine(t), s)
	c.SetSource(pipeline("dev", "prod"))
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if err := c.Measured(context.Background(), 1, layout.FixedSize{Width: 80, Height: 40}); err != nil {
		t.Fatalf("Measured: %v", err)
	}
	if c.State() != LaidOut {
		t.Fatalf("expected laid_out, got %s", c.State())
	}

	presented, _ := s.snapshot()
	if len(presented) != 2 {
		t.Fatalf("expected provisional and refined snapshots, got %d", len(presented))
	}
	refined := presented[1]
	if refined.Provisional {
		t.Error("expected refined snapshot")
	}
	if refined.CycleID != presented[0].CycleID {
		t.Error("both passes of a cycle must share the cycle id")
	}
	if got := refined.Graph.Node("prod").Common().Size; got != (graph.Size{Width: 80, Height: 40}) {
		t.Errorf("expected measured size, got %+v", got)
	}

	cur, ok := c.Current()
	if !ok || cur.Provisional || cur.Version != 1 {
		t.Errorf("unexpected current snapshot %+v", cur)
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if presented, _ := s.snapshot(); len(presented) != 2 {
		t.Fatal("a laid out controller must not lay out again")
	}
}

func TestMeasuredStaleVersion(t *testing.T) {
	s := &fakeSurface{ready: true}
	c := newController(t, newEngine(t), s)
	c.SetSource(pipeline("dev"))
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	c.SetSource(pipeline("dev", "prod"))

	err := c.Measured(context.Background(), 1, layout.FixedSize{Width: 10, Height: 10})
	if !errors.HasCode(err, errors.ErrCodeStaleSnapshot) {
		t.Fatalf("expected STALE_SNAPSHOT, got %v", err)
	}
	if c.State() != AwaitingMeasurement {
		t.Fatalf("expected awaiting_measurement, got %s", c.State())
	}
	if presented, _ := s.snapshot(); len(presented) != 1 {
		t.Fatal("a stale result must not be presented")
	}
}

func TestMeasuredSupersededDuringRelayout(t *testing.T) {
	s := &fakeSurface{ready: true}
	hook := &hookLayouter{Layouter: newEngine(t)}
	c := newController(t, hook, s)
	c.SetSource(pipeline("dev"))
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	hook.before = func() { c.SetSource(pipeline("dev", "prod")) }
	err := c.Measured(context.Background(), 1, nil)
	if !errors.HasCode(err, errors.ErrCodeStaleSnapshot) {
		t.Fatalf("expected STALE_SNAPSHOT, got %v", err)
	}
	if cur, _ := c.Current(); !cur.Provisional || cur.Version != 1 {
		t.Errorf("expected provisional snapshot of version 1 to remain current, got %+v", cur)
	}
	if c.Version() != 2 {
		t.Errorf("expected version 2, got %d", c.Version())
	}
}

func TestSupersededLayoutNeverPresentedLast(t *testing.T) {
	s := &gateSurface{
		fakeSurface: fakeSurface{ready: true},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := newController(t, newEngine(t), s)
	c.SetSource(pipeline("dev"))
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	measured := make(chan error, 1)
	go func() { measured <- c.Measured(context.Background(), 1, nil) }()
	<-s.entered

	c.SetSource(pipeline("dev", "prod"))
	ticked := make(chan error, 1)
	go func() { ticked <- c.Tick(context.Background()) }()
	select {
	case err := <-ticked:
		t.Fatalf("tick presented while an older pass was being presented: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(s.release)

	if err := <-measured; err != nil {
		t.Fatalf("Measured: %v", err)
	}
	if err := <-ticked; err != nil {
		t.Fatalf("Tick: %v", err)
	}

	presented, _ := s.snapshot()
	last := presented[len(presented)-1]
	if last.Version != 2 || !last.Provisional {
		t.Fatalf("expected provisional version 2 presented last, got version %d provisional=%v", last.Version, last.Provisional)
	}
	if cur, _ := c.Current(); cur.Version != 2 {
		t.Errorf("expected current version 2, got %d", cur.Version)
	}
}

func TestMeasuredRejectsPreviousCycle(t *testing.T) {
	s := &fakeSurface{ready: true}
	c := newController(t, newEngine(t), s)
	c.SetSource(pipeline("dev", "prod"))
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	first, _ := c.Current()

	c.Relayout()
	err := c.Measured(context.Background(), 1, nil)
	if !errors.HasCode(err, errors.ErrCodeStaleSnapshot) {
		t.Fatalf("expected STALE_SNAPSHOT before the new cycle's provisional pass, got %v", err)
	}
	if c.State() != AwaitingMeasurement {
		t.Fatalf("expected awaiting_measurement, got %s", c.State())
	}

	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	presented, requests := s.snapshot()
	if len(presented) != 2 || len(requests) != 2 {
		t.Fatalf("expected the new cycle to present and request a measurement, got %d presents %d requests", len(presented), len(requests))
	}
	second := presented[1].CycleID
	if second == first.CycleID {
		t.Fatal("expected a new cycle id")
	}

	err = c.MeasuredCycle(context.Background(), 1, first.CycleID, nil)
	if !errors.HasCode(err, errors.ErrCodeStaleSnapshot) {
		t.Fatalf("expected STALE_SNAPSHOT for the previous cycle, got %v", err)
	}
	if err := c.MeasuredCycle(context.Background(), 1, second, nil); err != nil {
		t.Fatalf("MeasuredCycle: %v", err)
	}
	cur, _ := c.Current()
	if cur.Provisional || cur.CycleID != second {
		t.Errorf("expected refined snapshot of cycle %s, got %+v", second, cur)
	}
}

func TestRelayoutStartsNewCycle(t *testing.T) {
	s := &fakeSurface{ready: true}
	c := newController(t, newEngine(t), s)
	c.Relayout()
	if c.State() != Idle {
		t.Fatal("relayout without a snapshot must be ignored")
	}

	c.SetSource(pipeline("dev"))
	_ = c.Tick(context.Background())
	_ = c.Measured(context.Background(), 1, nil)
	first, _ := c.Current()

	c.Relayout()
	if c.State() != AwaitingMeasurement {
		t.Fatalf("expected awaiting_measurement, got %s", c.State())
	}
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	cur, _ := c.Current()
	if cur.Version != 1 || cur.CycleID == first.CycleID {
		t.Errorf("expected a new cycle for version 1, got %+v", cur)
	}
}

func TestResetViewForwards(t *testing.T) {
	s := &fakeSurface{}
	c := newController(t, newEngine(t), s)
	c.ResetView()
	if s.resets != 1 {
		t.Fatalf("expected 1 reset, got %d", s.resets)
	}
}

func TestHealth(t *testing.T) {
	c := newController(t, newEngine(t), &fakeSurface{})
	if h := c.Health(context.Background()); h.Status != "degraded" {
		t.Errorf("expected degraded before the first snapshot, got %s", h.Status)
	}
	c.SetSource(pipeline("dev"))
	if h := c.Health(context.Background()); h.Status != "up" {
		t.Errorf("expected up, got %s", h.Status)
	}
}

func TestConcurrentSnapshots(t *testing.T) {
	s := &fakeSurface{ready: true}
	c := newController(t, newEngine(t), s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.SetSource(pipeline("dev", "prod"))
				_ = c.Tick(context.Background())
				_ = c.Measured(context.Background(), c.Version(), nil)
			}
		}()
	}
	wg.Wait()

	if c.Version() != 80 {
		t.Fatalf("expected 80 versions, got %d", c.Version())
	}
	presented, _ := s.snapshot()
	for i := 1; i < len(presented); i++ {
		if presented[i].Graph == nil {
			t.Fatal("presented snapshot without graph")
		}
	}
}

func TestHeadlessSurfaceCompletesCycle(t *testing.T) {
	var presents atomic.Int32
	surface := NewHeadlessSurface(layout.FixedSize{Width: 120, Height: 60}, time.Millisecond, func(Snapshot) {
		presents.Add(1)
	})
	defer surface.Stop()

	c := newController(t, newEngine(t), surface)
	if surface.Ready() {
		t.Fatal("unbound surface must not be ready")
	}
	surface.Bind(c)
	c.SetSource(pipeline("dev", "prod"))
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.State() != LaidOut {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for layout, state %s", c.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if presents.Load() != 2 {
		t.Errorf("expected 2 presents, got %d", presents.Load())
	}

	c.ResetView()
	if surface.Resets() != 1 {
		t.Errorf("expected 1 reset, got %d", surface.Resets())
	}
}

func TestFrameSchedulerReplacesPending(t *testing.T) {
	f := NewFrameScheduler(20 * time.Millisecond)
	defer f.Stop()

	var first, second atomic.Bool
	done := make(chan struct{})
	f.Schedule(func() { first.Store(true) })
	f.Schedule(func() { second.Store(true); close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for callback")
	}
	if first.Load() {
		t.Error("replaced callback must not run")
	}
	if !second.Load() {
		t.Error("expected latest callback to run")
	}
}

func TestFrameSchedulerDefaultDelay(t *testing.T) {
	if f := NewFrameScheduler(0); f.delay != DefaultFrameDelay {
		t.Errorf("expected default delay, got %v", f.delay)
	}
}
