package main

import (
	"context"
	"time"

	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/layout"
	"github.com/kbukum/pipegraph/observability"
	"github.com/kbukum/pipegraph/source"
)

// cycleOptions configures one headless layout cycle.
type cycleOptions struct {
	layouter   layout.Layouter
	oracle     layout.SizeOracle
	frameDelay time.Duration
	name       string
	metrics    *observability.Metrics
}

// runCycle loads path, runs the provisional and refined passes through a
// controller with a headless surface, and returns the refined snapshot.
func runCycle[T any](ctx context.Context, path string, build controller.Builder[T], o cycleOptions) (controller.Snapshot, error) {
	src, err := source.LoadFile[T](path)
	if err != nil {
		return controller.Snapshot{}, err
	}

	final := make(chan controller.Snapshot, 1)
	surface := controller.NewHeadlessSurface(o.oracle, o.frameDelay, func(s controller.Snapshot) {
		if s.Provisional {
			return
		}
		select {
		case final <- s:
		default:
		}
	})
	defer surface.Stop()

	opts := []controller.Option{controller.WithName(o.name)}
	if o.metrics != nil {
		opts = append(opts, controller.WithMetrics(o.metrics))
	}
	ctrl := controller.New(build, o.layouter, surface, opts...)
	surface.Bind(ctrl)
	ctrl.SetSource(src)

	if err := ctrl.Tick(ctx); err != nil {
		return controller.Snapshot{}, err
	}
	select {
	case s := <-final:
		return s, nil
	case <-ctx.Done():
		// The refined pass failed or is late: fall back to the provisional one.
		if s, ok := ctrl.Current(); ok {
			return s, nil
		}
		return controller.Snapshot{}, errors.LayoutFailed(layout.PhaseRelayout, ctx.Err())
	}
}
