package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kbukum/pipegraph/api"
	"github.com/kbukum/pipegraph/bootstrap"
	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
	"github.com/kbukum/pipegraph/resilience"
	"github.com/kbukum/pipegraph/server"
	"github.com/kbukum/pipegraph/source"
	"github.com/kbukum/pipegraph/sse"
	"github.com/kbukum/pipegraph/version"
)

var serveOpts layoutFlags

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve live layouts of a snapshot file to browsers over SSE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		serveOpts.apply(cfg)

		app, err := bootstrap.NewApp(cfg)
		if err != nil {
			return err
		}
		if err := app.InitTelemetry(cmd.Context()); err != nil {
			return err
		}
		if err := setupServe(cmd.Context(), app, args[0]); err != nil {
			return err
		}
		return app.Run(cmd.Context())
	},
}

func init() {
	serveOpts.register(serveCmd)
}

func setupServe(ctx context.Context, app *bootstrap.App, path string) error {
	kind, err := ParseKind(serveOpts.kind)
	if err != nil {
		return err
	}
	switch kind {
	case KindPipeline:
		return setupView(ctx, app, path, string(kind), buildPipeline)
	case KindTree:
		return setupView(ctx, app, path, string(kind), buildTree)
	case KindMesh:
		return setupView(ctx, app, path, string(kind), meshBuilder(serveOpts.meshFilter()))
	default:
		return setupView(ctx, app, path, string(kind), graph.BuildStackState)
	}
}

// setupView registers, in start order, the SSE hub, the frame loop, the
// snapshot watcher and the HTTP server of one view.
func setupView[T any](ctx context.Context, app *bootstrap.App, path, name string, build controller.Builder[T]) error {
	cfg := app.Cfg
	layouter, _, err := newLayouter(cfg, app.Metrics)
	if err != nil {
		return err
	}

	if cfg.Server.HeartbeatInterval > 0 {
		sse.KeepAlive = cfg.Server.HeartbeatInterval
	}
	hub := sse.NewComponent()
	surface := sse.NewSurface(hub.Hub(), name)

	opts := []controller.Option{controller.WithName(name)}
	if app.Metrics != nil {
		opts = append(opts, controller.WithMetrics(app.Metrics))
	}
	ctrl := controller.New(build, layouter, surface, opts...)

	src, err := source.LoadFile[T](path)
	if err != nil {
		return err
	}
	ctrl.SetSource(src)

	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Name:  "measure",
		Rate:  cfg.Server.MeasureRate,
		Burst: cfg.Server.MeasureBurst,
		OnLimit: func(name string) {
			logger.Get("api").Debug("request rate limited", logger.Fields("limiter", name))
		},
	})
	view := api.NewView(ctrl, surface, hub.Hub(), limiter, cfg.Layout.FrameDelay)

	srv := server.New(cfg.Server)
	view.Register(srv.Engine())
	srv.Engine().GET("/healthz", healthHandler(app, ctrl.Version))
	srv.Engine().GET("/version", func(c *gin.Context) { server.RespondOK(c, version.GetVersionInfo()) })

	if err := app.RegisterComponent(hub); err != nil {
		return err
	}
	if err := app.RegisterComponent(view); err != nil {
		return err
	}
	if cfg.Watch.Enabled {
		watcher := source.NewWatcher(path, source.WatcherConfigFrom(cfg.Watch), func(_ context.Context, v *T) {
			if ctrl.SetSource(v) {
				logger.Get("serve").Info("snapshot reloaded", logger.Fields("view", name, "version", ctrl.Version()))
			}
		})
		if err := app.RegisterComponent(watcher); err != nil {
			return err
		}
	}
	return app.RegisterComponent(srv)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	*observability.ServiceHealth
	SnapshotVersion uint64 `json:"snapshotVersion"`
}

func healthHandler(app *bootstrap.App, snapshotVersion func() uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := app.Health(c.Request.Context())
		status := http.StatusOK
		if h.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, HealthResponse{ServiceHealth: h, SnapshotVersion: snapshotVersion()})
	}
}
