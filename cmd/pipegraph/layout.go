package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipegraph/bootstrap"
	"github.com/kbukum/pipegraph/config"
	"github.com/kbukum/pipegraph/controller"
	"github.com/kbukum/pipegraph/graph"
	"github.com/kbukum/pipegraph/layout"
	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
	"github.com/kbukum/pipegraph/source"
)

// layoutFlags are shared by layout and serve.
type layoutFlags struct {
	kind       string
	direction  string
	namespace  string
	allTraffic bool
	query      string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", string(KindPipeline), "snapshot kind: pipeline, tree, mesh or stack")
	cmd.Flags().StringVar(&f.direction, "direction", "", "layout direction LR, RL, TB or BT (default from config)")
	cmd.Flags().StringVar(&f.namespace, "namespace", "", "mesh: keep traffic touching this namespace")
	cmd.Flags().BoolVar(&f.allTraffic, "all-traffic", false, "mesh: include traffic leaving the cluster")
	cmd.Flags().StringVar(&f.query, "query", "", "mesh: case-insensitive name or service filter")
}

func (f *layoutFlags) meshFilter() graph.MeshFilter {
	return graph.MeshFilter{Namespace: f.namespace, InternalOnly: !f.allTraffic, Query: f.query}
}

func (f *layoutFlags) apply(cfg *config.Config) {
	if f.direction != "" {
		cfg.Layout.Direction = f.direction
	}
}

var (
	layoutOpts  layoutFlags
	sizesFile   string
	outputFile  string
	layoutLimit time.Duration
)

var layoutCmd = &cobra.Command{
	Use:   "layout <file>",
	Short: "Lay out a snapshot file once and print the positioned graph as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		layoutOpts.apply(cfg)

		app, err := bootstrap.NewApp(cfg)
		if err != nil {
			return err
		}
		if err := app.InitTelemetry(cmd.Context()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return app.RunTask(cmd.Context(), func(ctx context.Context) error {
			return runLayout(ctx, app, args[0], out)
		})
	},
}

func init() {
	layoutOpts.register(layoutCmd)
	layoutCmd.Flags().StringVar(&sizesFile, "sizes", "", "JSON, YAML or TOML map of measured node sizes for the refined pass")
	layoutCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the result to a file instead of stdout")
	layoutCmd.Flags().DurationVar(&layoutLimit, "timeout", 10*time.Second, "upper bound for the layout cycle")
}

// newLayouter builds the engine with the observability decorators.
func newLayouter(cfg *config.Config, metrics *observability.Metrics) (layout.Layouter, layout.Options, error) {
	opts := layout.FromConfig(cfg.Layout)
	engine, err := layout.NewEngine(opts)
	if err != nil {
		return nil, opts, err
	}
	var l layout.Layouter = layout.WithLogging(engine, logger.Get("layout"))
	if cfg.Tracing.Enabled {
		l = layout.WithTracing(l)
	}
	if metrics != nil {
		l = layout.WithMetrics(l, metrics)
	}
	return l, opts, nil
}

// oracleFor returns measured sizes from sizesFile, or the default node size.
func oracleFor(opts layout.Options) (layout.SizeOracle, error) {
	if sizesFile == "" {
		return layout.FixedSize(opts.DefaultSize), nil
	}
	sizes, err := source.LoadFile[map[string]graph.Size](sizesFile)
	if err != nil {
		return nil, err
	}
	return layout.MeasuredSizes(*sizes), nil
}

func runLayout(ctx context.Context, app *bootstrap.App, path string, out io.Writer) error {
	kind, err := ParseKind(layoutOpts.kind)
	if err != nil {
		return err
	}
	layouter, opts, err := newLayouter(app.Cfg, app.Metrics)
	if err != nil {
		return err
	}
	oracle, err := oracleFor(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, layoutLimit)
	defer cancel()

	co := cycleOptions{
		layouter:   layouter,
		oracle:     oracle,
		frameDelay: app.Cfg.Layout.FrameDelay,
		name:       string(kind),
		metrics:    app.Metrics,
	}

	var snap controller.Snapshot
	switch kind {
	case KindPipeline:
		snap, err = runCycle(ctx, path, buildPipeline, co)
	case KindTree:
		snap, err = runCycle(ctx, path, buildTree, co)
	case KindMesh:
		snap, err = runCycle(ctx, path, meshBuilder(layoutOpts.meshFilter()), co)
	case KindStack:
		snap, err = runCycle(ctx, path, graph.BuildStackState, co)
	default:
		err = fmt.Errorf("unsupported kind %q", kind)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
