package config

import (
	"time"

	"github.com/kbukum/flowc/errors"
	"github.com/kbukum/flowc/logger"
	"github.com/kbukum/flowc/observability"
	"github.com/kbukum/flowc/validation"
)

// Config is the flowc configuration file.
//
//	name: flowc
//	logging: {level: debug, format: json}
//	compiler: {default_target: native, plugins: [dot]}
//	native: {workers: 4}
type Config struct {
	Name        string         `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string         `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config  `yaml:"logging" mapstructure:"logging"`
	Compiler    CompilerConfig `yaml:"compiler" mapstructure:"compiler"`
	Native      NativeConfig   `yaml:"native" mapstructure:"native"`
	Vector      VectorConfig   `yaml:"vector" mapstructure:"vector"`
	Tracing     TracingConfig  `yaml:"tracing" mapstructure:"tracing"`
	Metrics     MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// CompilerConfig selects the default target and the plugins to install.
type CompilerConfig struct {
	DefaultTarget string   `yaml:"default_target" mapstructure:"default_target" validate:"required"`
	Plugins       []string `yaml:"plugins" mapstructure:"plugins"`
}

// NativeConfig configures the native backend.
type NativeConfig struct {
	EchoSink bool `yaml:"echo_sink" mapstructure:"echo_sink"`
	Workers  int  `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// VectorConfig configures the vector backend. ChunkSize 0 reads files in one
// batch.
type VectorConfig struct {
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`
}

// TracingConfig enables OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig enables OTLP metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	if c.Compiler.DefaultTarget == "" {
		c.Compiler.DefaultTarget = "native"
	}
	if c.Native.Workers == 0 {
		c.Native.Workers = 1
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}
}

// Validate checks struct tags and then the logging section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidInput("logging", err.Error())
	}
	if c.Metrics.Enabled && c.Metrics.Interval <= 0 {
		return errors.InvalidInput("metrics.interval", "must be positive")
	}
	return nil
}

// BackendConfig returns the factory configuration for target.
func (c *Config) BackendConfig(target string) map[string]any {
	switch target {
	case "native":
		return map[string]any{"workers": c.Native.Workers, "echo_sink": c.Native.EchoSink}
	case "vector":
		return map[string]any{"chunk_size": c.Vector.ChunkSize}
	default:
		return nil
	}
}

// TracerConfig converts the tracing section.
func (c *Config) TracerConfig(version string) observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    c.Name,
		ServiceVersion: version,
		Environment:    c.Environment,
		Endpoint:       c.Tracing.Endpoint,
		Insecure:       c.Tracing.Insecure,
		SampleRate:     c.Tracing.SampleRate,
	}
}

// MeterConfig converts the metrics section.
func (c *Config) MeterConfig(version string) *observability.MeterConfig {
	return &observability.MeterConfig{
		ServiceName:    c.Name,
		ServiceVersion: version,
		Environment:    c.Environment,
		Endpoint:       c.Metrics.Endpoint,
		Insecure:       c.Metrics.Insecure,
		Interval:       c.Metrics.Interval,
	}
}
