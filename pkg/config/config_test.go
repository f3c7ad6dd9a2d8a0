package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "granitefs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
fs:
  type: disk
  root: /var/lib/granitefs
tracing:
  enabled: true
  sink: file
  file_path: /var/log/granitefs/trace.jsonl
  batch_size: 512
  flush_interval: 5s
  observe: true
metrics:
  enabled: true
  addr: ":9100"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FS.Type != "disk" || cfg.FS.Root != "/var/lib/granitefs" {
		t.Errorf("fs = %+v", cfg.FS)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Sink != "file" {
		t.Errorf("tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.BatchSize != 512 {
		t.Errorf("batch_size = %d, want 512", cfg.Tracing.BatchSize)
	}
	if cfg.Tracing.FlushInterval != 5*time.Second {
		t.Errorf("flush_interval = %v, want 5s", cfg.Tracing.FlushInterval)
	}
	if !cfg.Tracing.Observe {
		t.Error("observe not set")
	}
	if !cfg.Metrics.MetricsEnabled() || cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
fs:
  root: /data
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.FS.Type != "disk" {
		t.Errorf("fs.type = %q, want disk default", cfg.FS.Type)
	}
	if cfg.Tracing.Sink != "nop" {
		t.Errorf("tracing.sink = %q, want nop default", cfg.Tracing.Sink)
	}
	if cfg.Tracing.BatchSize != 256 {
		t.Errorf("batch_size = %d, want 256 default", cfg.Tracing.BatchSize)
	}
	if cfg.Tracing.FlushInterval != time.Second {
		t.Errorf("flush_interval = %v, want 1s default", cfg.Tracing.FlushInterval)
	}
	if !cfg.Metrics.MetricsEnabled() {
		t.Error("metrics should default to enabled")
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("metrics.addr = %q, want :9090 default", cfg.Metrics.Addr)
	}
}

func TestLoadMetricsExplicitlyDisabled(t *testing.T) {
	path := writeConfig(t, `
fs:
  root: /data
metrics:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metrics.MetricsEnabled() {
		t.Error("metrics.enabled: false must win over the default")
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("GRANITEFS_ROOT", "/mnt/fast-ssd")
	path := writeConfig(t, `
fs:
  type: disk
  root: ${GRANITEFS_ROOT}/db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FS.Root != "/mnt/fast-ssd/db" {
		t.Errorf("fs.root = %q, env not expanded", cfg.FS.Root)
	}
}

func TestLoadObjectConfig(t *testing.T) {
	path := writeConfig(t, `
fs:
  type: object
  object:
    backend: s3
    remote_path: granite-tables/prod
    params:
      region: us-east-1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FS.Object.Name != "object" {
		t.Errorf("object.name = %q, want object default", cfg.FS.Object.Name)
	}
	if cfg.FS.Object.Backend != "s3" || cfg.FS.Object.Params["region"] != "us-east-1" {
		t.Errorf("object = %+v", cfg.FS.Object)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "fs: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{
			"disk without root",
			"fs:\n  type: disk\n",
			"fs.root",
		},
		{
			"unknown fs type",
			"fs:\n  type: tape\n  root: /x\n",
			"unknown fs type",
		},
		{
			"object without backend",
			"fs:\n  type: object\n  object:\n    remote_path: bucket\n",
			"fs.object.backend",
		},
		{
			"object without remote path",
			"fs:\n  type: object\n  object:\n    backend: s3\n",
			"remote_path",
		},
		{
			"unknown sink",
			"fs:\n  root: /x\ntracing:\n  sink: kafka\n",
			"unknown tracing sink",
		},
		{
			"badger without store dir",
			"fs:\n  root: /x\ntracing:\n  sink: badger\n",
			"store_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
