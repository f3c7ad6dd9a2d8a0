package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a granitefs configuration file.
// Supports environment variable expansion in string values via ${VAR} syntax.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.FS.Type == "" {
		c.FS.Type = "disk"
	}
	if c.FS.Type == "object" && c.FS.Object.Name == "" {
		c.FS.Object.Name = "object"
	}
	if c.Tracing.Sink == "" {
		c.Tracing.Sink = "nop"
	}
	if c.Tracing.Sink == "file" && c.Tracing.FilePath == "" {
		c.Tracing.FilePath = "/var/log/granitefs/iotrace.jsonl"
	}
	if c.Tracing.BatchSize == 0 {
		c.Tracing.BatchSize = 256
	}
	if c.Tracing.FlushInterval == 0 {
		c.Tracing.FlushInterval = time.Second
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}
