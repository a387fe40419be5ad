package controller

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/pipegraph/layout"
	"github.com/kbukum/pipegraph/logger"
)

// DefaultFrameDelay approximates one display frame.
const DefaultFrameDelay = 16 * time.Millisecond

// FrameScheduler runs a callback after a frame delay. Scheduling again before
// the callback fires replaces the pending callback.
type FrameScheduler struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewFrameScheduler returns a scheduler; a non-positive delay selects
// DefaultFrameDelay.
func NewFrameScheduler(delay time.Duration) *FrameScheduler {
	if delay <= 0 {
		delay = DefaultFrameDelay
	}
	return &FrameScheduler{delay: delay}
}

// Schedule runs fn after the frame delay.
func (f *FrameScheduler) Schedule(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, fn)
}

// Stop cancels the pending callback, if any.
func (f *FrameScheduler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// Measurer receives measurements for a presented snapshot.
type Measurer interface {
	Measured(ctx context.Context, version uint64, oracle layout.SizeOracle) error
}

// HeadlessSurface is a Surface without a renderer: it answers every measure
// request from a fixed oracle one frame later.
type HeadlessSurface struct {
	oracle    layout.SizeOracle
	scheduler *FrameScheduler
	onPresent func(Snapshot)
	log       *logger.Logger

	mu       sync.Mutex
	measurer Measurer
	resets   int
}

// NewHeadlessSurface creates a surface measuring nodes with oracle. onPresent
// may be nil.
func NewHeadlessSurface(oracle layout.SizeOracle, delay time.Duration, onPresent func(Snapshot)) *HeadlessSurface {
	return &HeadlessSurface{
		oracle:    oracle,
		scheduler: NewFrameScheduler(delay),
		onPresent: onPresent,
		log:       logger.Get("surface"),
	}
}

// Bind connects the surface to the controller it reports to.
func (h *HeadlessSurface) Bind(m Measurer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.measurer = m
}

// Ready reports whether a controller is bound.
func (h *HeadlessSurface) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.measurer != nil
}

// Present forwards the snapshot to the presentation callback.
func (h *HeadlessSurface) Present(s Snapshot) {
	if h.onPresent != nil {
		h.onPresent(s)
	}
}

// RequestMeasure reports the oracle's sizes for version after one frame.
func (h *HeadlessSurface) RequestMeasure(version uint64) {
	h.mu.Lock()
	m := h.measurer
	h.mu.Unlock()
	if m == nil {
		return
	}
	h.scheduler.Schedule(func() {
		if err := m.Measured(context.Background(), version, h.oracle); err != nil {
			h.log.Debug("measurement not applied", logger.ErrorFields("measured", err))
		}
	})
}

// ResetView counts view resets; there is no viewport to fit.
func (h *HeadlessSurface) ResetView() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resets++
}

// Resets returns how many times the view was reset.
func (h *HeadlessSurface) Resets() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resets
}

// Stop cancels any pending measurement.
func (h *HeadlessSurface) Stop() {
	h.scheduler.Stop()
}
