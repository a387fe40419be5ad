package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/pipegraph/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       30 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the layout pipeline instruments.
type Metrics struct {
	layoutTotal    metric.Int64Counter
	layoutDuration metric.Float64Histogram
	layoutNodes    metric.Int64Histogram
	staleTotal     metric.Int64Counter
	snapshotTotal  metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	layoutTotal, err := meter.Int64Counter("layout.total",
		metric.WithDescription("Total number of layout passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating layout.total counter: %w", err)
	}

	layoutDuration, err := meter.Float64Histogram("layout.duration",
		metric.WithDescription("Duration of layout passes in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating layout.duration histogram: %w", err)
	}

	layoutNodes, err := meter.Int64Histogram("layout.nodes",
		metric.WithDescription("Number of nodes placed per layout pass"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating layout.nodes histogram: %w", err)
	}

	staleTotal, err := meter.Int64Counter("stale.total",
		metric.WithDescription("Layout results discarded because a newer snapshot arrived"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale.total counter: %w", err)
	}

	snapshotTotal, err := meter.Int64Counter("snapshot.total",
		metric.WithDescription("Source snapshots accepted by a controller"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot.total counter: %w", err)
	}

	return &Metrics{
		layoutTotal:    layoutTotal,
		layoutDuration: layoutDuration,
		layoutNodes:    layoutNodes,
		staleTotal:     staleTotal,
		snapshotTotal:  snapshotTotal,
	}, nil
}

// RecordLayout records a completed layout pass.
func (m *Metrics) RecordLayout(ctx context.Context, phase, status string, duration time.Duration, nodes int) {
	attrs := metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("status", status),
	)
	m.layoutTotal.Add(ctx, 1, attrs)
	m.layoutDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("phase", phase),
	))
	m.layoutNodes.Record(ctx, int64(nodes), metric.WithAttributes(
		attribute.String("phase", phase),
	))
}

// RecordStale records a result discarded by a version check.
func (m *Metrics) RecordStale(ctx context.Context, component string) {
	m.staleTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
	))
}

// RecordSnapshot records a new source snapshot.
func (m *Metrics) RecordSnapshot(ctx context.Context, kind string) {
	m.snapshotTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
