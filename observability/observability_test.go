package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("pipegraph")

	if cfg.ServiceName != "pipegraph" {
		t.Errorf("expected ServiceName 'pipegraph', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("pipegraph")
	if cfg.Interval != 30*time.Second {
		t.Errorf("expected Interval 30s, got %v", cfg.Interval)
	}
}

func TestNewMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordLayout(ctx, "provisional", "ok", 10*time.Millisecond, 12)
	metrics.RecordLayout(ctx, "refined", "error", time.Millisecond, 0)
	metrics.RecordStale(ctx, "controller")
	metrics.RecordSnapshot(ctx, "pipeline")
}

func TestHealthStatus_Worse(t *testing.T) {
	tests := []struct {
		a, b, want HealthStatus
	}{
		{HealthStatusUp, HealthStatusUp, HealthStatusUp},
		{HealthStatusUp, HealthStatusDegraded, HealthStatusDegraded},
		{HealthStatusDown, HealthStatusDegraded, HealthStatusDown},
		{HealthStatusDegraded, "bogus", "bogus"},
	}
	for _, tt := range tests {
		if got := tt.a.Worse(tt.b); got != tt.want {
			t.Errorf("%s.Worse(%s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	if sh := Aggregate("pipegraph", "1.0.0"); sh.Status != HealthStatusUp {
		t.Fatalf("expected 'up' without components, got %s", sh.Status)
	}

	sh := Aggregate("pipegraph", "1.0.0",
		Health{Name: "hub", Status: HealthStatusUp},
		Health{Name: "watcher", Status: HealthStatusDegraded},
	)
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected 'degraded', got %s", sh.Status)
	}

	sh = Aggregate("pipegraph", "1.0.0",
		Health{Name: "controller", Status: HealthStatusDown},
		Health{Name: "watcher", Status: HealthStatusDegraded},
	)
	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", sh.Status)
	}
	if len(sh.Components) != 2 || sh.Service != "pipegraph" || sh.Version != "1.0.0" {
		t.Errorf("unexpected service health %+v", sh)
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), SpanLayout)
	defer span.End()

	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected non-nil span from context")
	}
}

func TestSpanRecording(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanRelayout)
	SetSpanAttribute(ctx, AttrNodes, 3)
	SetSpanAttribute(ctx, AttrVersion, uint64(7))
	SetSpanAttribute(ctx, AttrProvisional, false)
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, fmt.Errorf("boom"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != SpanRelayout {
		t.Errorf("expected span %q, got %q", SpanRelayout, spans[0].Name)
	}
	if len(spans[0].Attributes) != 3 {
		t.Errorf("expected 3 attributes, got %v", spans[0].Attributes)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected the error event, got %v", spans[0].Events)
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span error"))
}

func TestInitTracerSamplingRates(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
	}{
		{"always sample", 1.0},
		{"never sample", 0.0},
		{"ratio based", 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.SampleRate = tc.sampleRate
			tp, err := InitTracer(context.Background(), &cfg)
			if err != nil {
				t.Skipf("InitTracer failed (known schema conflict): %v", err)
			}
			if tp != nil {
				defer tp.Shutdown(context.Background())
			}
		})
	}
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("test")
	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Skipf("InitMeter failed (known schema conflict): %v", err)
	}
	if mp != nil {
		defer mp.Shutdown(context.Background())
	}
}
