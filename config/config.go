package config

import (
	"time"

	"github.com/kbukum/pipegraph/security"
	"github.com/kbukum/pipegraph/validation"
)

// Config is the complete pipegraph configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Layout  LayoutConfig  `yaml:"layout" mapstructure:"layout"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// LayoutConfig holds the layout engine and controller settings.
type LayoutConfig struct {
	Direction  string        `yaml:"direction" mapstructure:"direction" validate:"oneof=LR RL TB BT"`
	NodeSep    float64       `yaml:"node_sep" mapstructure:"node_sep" validate:"gte=0"`
	RankSep    float64       `yaml:"rank_sep" mapstructure:"rank_sep" validate:"gte=0"`
	EdgeSep    float64       `yaml:"edge_sep" mapstructure:"edge_sep" validate:"gte=0"`
	Margin     float64       `yaml:"margin" mapstructure:"margin" validate:"gte=0"`
	NodeWidth  float64       `yaml:"node_width" mapstructure:"node_width" validate:"gt=0"`
	NodeHeight float64       `yaml:"node_height" mapstructure:"node_height" validate:"gt=0"`
	Zoom       float64       `yaml:"zoom" mapstructure:"zoom" validate:"gt=0"`
	FrameDelay time.Duration `yaml:"frame_delay" mapstructure:"frame_delay" validate:"gte=0"`
}

// ServerConfig holds the HTTP server settings used by `pipegraph serve`.
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr" validate:"required"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
	// MeasureRate limits measurement and relayout requests per second.
	MeasureRate  float64 `yaml:"measure_rate" mapstructure:"measure_rate" validate:"gte=0"`
	MeasureBurst int     `yaml:"measure_burst" mapstructure:"measure_burst" validate:"gte=0"`
	// TLS serves HTTPS when a certificate is configured.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio     float64       `yaml:"sample_ratio" mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval"`
}

// WatchConfig holds the snapshot file watcher settings.
type WatchConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Debounce    time.Duration `yaml:"debounce" mapstructure:"debounce"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
}

// ApplyDefaults fills in every unset field.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.Layout.Direction == "" {
		c.Layout.Direction = "LR"
	}
	if c.Layout.NodeSep == 0 {
		c.Layout.NodeSep = 50
	}
	if c.Layout.RankSep == 0 {
		c.Layout.RankSep = 200
	}
	if c.Layout.EdgeSep == 0 {
		c.Layout.EdgeSep = 10
	}
	if c.Layout.NodeWidth == 0 {
		c.Layout.NodeWidth = 200
	}
	if c.Layout.NodeHeight == 0 {
		c.Layout.NodeHeight = 200
	}
	if c.Layout.Zoom == 0 {
		c.Layout.Zoom = 1
	}
	if c.Layout.FrameDelay == 0 {
		c.Layout.FrameDelay = 16 * time.Millisecond
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.HeartbeatInterval == 0 {
		c.Server.HeartbeatInterval = 30 * time.Second
	}
	if c.Server.MeasureRate == 0 {
		c.Server.MeasureRate = 30
	}
	if c.Server.MeasureBurst == 0 {
		c.Server.MeasureBurst = 60
	}

	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
	if c.Tracing.MetricsInterval == 0 {
		c.Tracing.MetricsInterval = 30 * time.Second
	}

	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 200 * time.Millisecond
	}
	if c.Watch.MaxAttempts == 0 {
		c.Watch.MaxAttempts = 3
	}
	if c.Watch.RetryDelay == 0 {
		c.Watch.RetryDelay = 50 * time.Millisecond
	}
}

// Validate checks the service fields and every tagged section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.TLS.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
