package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/pipegraph/logger"
	"github.com/kbukum/pipegraph/observability"
)

// InitTelemetry installs the OTLP tracer and meter providers when tracing is
// enabled and registers their shutdown as a stop hook. With tracing disabled
// it does nothing and Metrics stays nil.
func (a *App) InitTelemetry(ctx context.Context) error {
	tc := a.Cfg.Tracing
	if !tc.Enabled {
		return nil
	}

	tracerCfg := observability.DefaultTracerConfig(a.Name)
	tracerCfg.ServiceVersion = a.Version
	tracerCfg.Environment = a.Cfg.Environment
	tracerCfg.Endpoint = tc.Endpoint
	tracerCfg.Insecure = tc.Insecure
	tracerCfg.SampleRate = tc.SampleRatio
	tp, err := observability.InitTracer(ctx, &tracerCfg)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}

	meterCfg := observability.DefaultMeterConfig(a.Name)
	meterCfg.ServiceVersion = a.Version
	meterCfg.Environment = a.Cfg.Environment
	meterCfg.Endpoint = tc.Endpoint
	meterCfg.Insecure = tc.Insecure
	meterCfg.Interval = tc.MetricsInterval
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("meter: %w", err)
	}

	metrics, err := observability.NewMetrics(observability.Meter(a.Name))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return fmt.Errorf("metrics: %w", err)
	}
	a.Metrics = metrics

	a.OnStop(func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil {
			return err
		}
		return tp.Shutdown(ctx)
	})
	a.Logger.Info("telemetry enabled", logger.Fields("endpoint", tc.Endpoint))
	return nil
}
