// Package api exposes one controller view over HTTP: the current layout,
// the event stream the browser renders from, and the endpoints it answers
// measurement requests on.
package api

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipegraph/component"
	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/errors"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/layout"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
	"github.com/kbukum/pipegraph/resilience"
	"github.com/kbukum/pipegraph/server"
	"github.com/kbukum/pipegraph/sse"
	"github.com/kbukum/pipegraph/validation"
)

// MeasurementRequest carries the rendered sizes of the nodes of a version.
// CycleID echoes the measure event; when set it must name the current cycle.
type MeasurementRequest struct {
	CycleID string                `json:"cycleId"`
	Sizes   map[string]graph.Size `json:"sizes" validate:"required"`
}

// StatusResponse reports the controller after a command.
type StatusResponse struct {
	Version uint64 `json:"version"`
	State   string `json:"state"`
}

// View serves one controller. It implements component.Component: Start runs
// the frame loop that drives Controller.Tick.
type View[T any] struct {
	name       string
	ctrl       *controller.Controller[T]
	hub        *sse.Hub
	surface    *sse.Surface
	limiter    *resilience.RateLimiter
	frameDelay time.Duration
	log        *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ component.Component = (*View[struct{}])(nil)

// NewView wires a controller to the hub surface it presents on.
func NewView[T any](ctrl *controller.Controller[T], surface *sse.Surface, hub *sse.Hub, limiter *resilience.RateLimiter, frameDelay time.Duration) *View[T] {
	if frameDelay <= 0 {
		frameDelay = controller.DefaultFrameDelay
	}
	return &View[T]{
		name:       surface.View(),
		ctrl:       ctrl,
		hub:        hub,
		surface:    surface,
		limiter:    limiter,
		frameDelay: frameDelay,
		log:        logger.Get("api").WithFields(logger.Fields("view", surface.View())),
	}
}

// Register mounts the view routes.
func (v *View[T]) Register(r gin.IRouter) {
	r.GET("/graph", v.graph)
	r.GET("/events", v.events)
	limited := r.Group("", server.RateLimit(v.limiter))
	limited.POST("/measurements/:version", v.measurements)
	limited.POST("/relayout", v.relayout)
	limited.POST("/reset", v.reset)
}

func (v *View[T]) status() StatusResponse {
	return StatusResponse{Version: v.ctrl.Version(), State: v.ctrl.State().String()}
}

func (v *View[T]) graph(c *gin.Context) {
	snap, ok := v.ctrl.Current()
	if !ok {
		server.RespondWithError(c, errors.NotFound("layout", v.name))
		return
	}
	server.RespondOK(c, snap)
}

func (v *View[T]) events(c *gin.Context) {
	sse.ServeSSE(v.hub, c.Writer, c.Request, sse.ClientID(v.name),
		sse.WithMetadata("remote", c.ClientIP()),
		sse.WithReplay(v.surface.Last()),
	)
}

func (v *View[T]) measurements(c *gin.Context) {
	version, err := strconv.ParseUint(c.Param("version"), 10, 64)
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("version", "must be an unsigned integer"))
		return
	}
	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(&req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := v.ctrl.MeasuredCycle(c.Request.Context(), version, req.CycleID, layout.MeasuredSizes(req.Sizes)); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, v.status())
}

func (v *View[T]) relayout(c *gin.Context) {
	v.ctrl.Relayout()
	server.RespondAccepted(c, v.status())
}

func (v *View[T]) reset(c *gin.Context) {
	v.ctrl.ResetView()
	server.RespondAccepted(c, v.status())
}

// Tick runs one frame. A surface without clients is not an error.
func (v *View[T]) Tick(ctx context.Context) {
	err := v.ctrl.Tick(ctx)
	switch {
	case err == nil:
	case errors.HasCode(err, errors.ErrCodeSurfaceNotReady), errors.HasCode(err, errors.ErrCodeStaleSnapshot):
	default:
		v.log.Warn("frame failed", logger.ErrorFields("tick", err))
	}
}

func (v *View[T]) Name() string { return "view:" + v.name }

// Start runs the frame loop.
func (v *View[T]) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v.cancel, v.done = cancel, make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(v.frameDelay)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				v.Tick(loopCtx)
			}
		}
	}(v.done)
	return nil
}

// Stop ends the frame loop.
func (v *View[T]) Stop(ctx context.Context) error {
	v.mu.Lock()
	cancel, done := v.cancel, v.done
	v.cancel, v.done = nil, nil
	v.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports the controller health.
func (v *View[T]) Health(ctx context.Context) observability.Health {
	h := v.ctrl.Health(ctx)
	h.Name = v.Name()
	return h
}
