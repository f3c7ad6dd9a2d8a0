package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Filesystem operation metrics, fed by the tracing observer sink.
	FSOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "granitefs_fs_operations_total",
		Help: "File-system operations by name",
	}, []string{"op"})

	FSOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "granitefs_fs_operation_duration_seconds",
		Help:    "File-system operation latency",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"op"})

	FSOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "granitefs_fs_operation_errors_total",
		Help: "File-system operations with a failure status",
	}, []string{"op"})

	FSBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "granitefs_fs_bytes_total",
		Help: "Bytes moved by traced operations, by operation name",
	}, []string{"op"})

	// Trace pipeline metrics.
	TraceRecordsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "granitefs_trace_records_submitted_total",
		Help: "Trace records submitted to sinks",
	})
	TraceRecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "granitefs_trace_records_dropped_total",
		Help: "Trace records dropped because a sink flush failed",
	})
	TraceFlushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "granitefs_trace_flush_errors_total",
		Help: "Failed trace batch flushes",
	})
	TraceStoreRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "granitefs_trace_store_records_total",
		Help: "Trace records persisted to the badger trace store",
	})
)

func init() {
	// Pre-initialize Vec metrics so they appear in /metrics output before first use.
	FSOperations.WithLabelValues("Read")
	FSOperations.WithLabelValues("Append")
	FSOperationLatency.WithLabelValues("Read")
	FSOperationErrors.WithLabelValues("Read")
	FSBytes.WithLabelValues("Read")
}

// HealthCheck holds a single health check function.
type HealthCheck struct {
	Name  string
	Check func() error
}

// HealthStatus represents the health response.
type HealthStatus struct {
	Status string            `json:"status"` // "ok" or "degraded"
	Checks map[string]string `json:"checks"`
}

// healthChecker holds registered health checks.
type healthChecker struct {
	mu     sync.RWMutex
	checks []HealthCheck
}

var defaultHealthChecker = &healthChecker{}

// RegisterHealthCheck adds a health check.
func RegisterHealthCheck(name string, check func() error) {
	defaultHealthChecker.mu.Lock()
	defer defaultHealthChecker.mu.Unlock()
	defaultHealthChecker.checks = append(defaultHealthChecker.checks, HealthCheck{
		Name:  name,
		Check: check,
	})
}

// runChecks runs all registered health checks.
func runChecks() HealthStatus {
	defaultHealthChecker.mu.RLock()
	checks := make([]HealthCheck, len(defaultHealthChecker.checks))
	copy(checks, defaultHealthChecker.checks)
	defaultHealthChecker.mu.RUnlock()

	status := HealthStatus{
		Status: "ok",
		Checks: make(map[string]string),
	}

	for _, hc := range checks {
		if err := hc.Check(); err != nil {
			status.Status = "degraded"
			status.Checks[hc.Name] = err.Error()
		} else {
			status.Checks[hc.Name] = "ok"
		}
	}
	return status
}

// HealthzHandler handles GET /healthz requests.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	status := runChecks()
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// DirWritableHealthCheck returns a check that verifies the given directory
// (trace output or store dir) accepts writes.
func DirWritableHealthCheck(dir string) func() error {
	return func() error {
		probe := filepath.Join(dir, ".healthz-probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			return err
		}
		return os.Remove(probe)
	}
}

// MetricsServer starts an HTTP server for /metrics and /healthz on the given addr.
// It blocks until the provided stop channel is closed, then shuts down gracefully.
func MetricsServer(addr string, stop <-chan struct{}) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", HealthzHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	case err := <-errCh:
		return err
	}
}
