package config

import (
	"fmt"
	"time"
)

// Config is the top-level granitefs configuration.
type Config struct {
	FS      FSConfig      `yaml:"fs"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FSConfig selects and configures the file-system implementation.
type FSConfig struct {
	Type   string       `yaml:"type"` // "disk" or "object"
	Root   string       `yaml:"root"` // disk: root directory
	Object ObjectConfig `yaml:"object"`
}

// ObjectConfig configures the rclone-backed object filesystem.
type ObjectConfig struct {
	Name       string            `yaml:"name"`
	Backend    string            `yaml:"backend"` // rclone backend type, e.g. "s3", "azureblob", "local"
	RemotePath string            `yaml:"remote_path"`
	Params     map[string]string `yaml:"params"`
}

// TracingConfig configures the I/O tracing layer. When Enabled is false the
// wrapper is not installed at all; there is no sampling knob — an installed
// wrapper traces every call.
type TracingConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Sink          string        `yaml:"sink"` // "stdout", "file", "http", "badger", "nop"
	FilePath      string        `yaml:"file_path"`
	IngestAddr    string        `yaml:"ingest_addr"`
	StoreDir      string        `yaml:"store_dir"` // badger sink
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Observe       bool          `yaml:"observe"` // also feed Prometheus from records
}

// MetricsConfig configures the Prometheus metrics and health endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"` // pointer to distinguish unset from false; default true
	Addr    string `yaml:"addr"`    // listen address; default ":9090"
}

// MetricsEnabled returns whether the metrics server should run.
func (m MetricsConfig) MetricsEnabled() bool {
	if m.Enabled == nil {
		return true // default: enabled
	}
	return *m.Enabled
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	switch c.FS.Type {
	case "disk":
		if c.FS.Root == "" {
			return fmt.Errorf("config: fs.root is required for type disk")
		}
	case "object":
		if c.FS.Object.Backend == "" {
			return fmt.Errorf("config: fs.object.backend is required for type object")
		}
		if c.FS.Object.RemotePath == "" {
			return fmt.Errorf("config: fs.object.remote_path is required for type object")
		}
	default:
		return fmt.Errorf("config: unknown fs type %q", c.FS.Type)
	}

	switch c.Tracing.Sink {
	case "", "nop", "stdout", "file", "http":
	case "badger":
		if c.Tracing.StoreDir == "" {
			return fmt.Errorf("config: tracing.store_dir is required for the badger sink")
		}
	default:
		return fmt.Errorf("config: unknown tracing sink %q", c.Tracing.Sink)
	}

	if c.Tracing.BatchSize < 0 {
		return fmt.Errorf("config: tracing.batch_size must be positive, got %d", c.Tracing.BatchSize)
	}
	return nil
}
