package tracesink

import (
	"log/slog"
	"sync"
	"time"

	"github.com/granite-db/granitefs/pkg/iotrace"
	"github.com/granite-db/granitefs/pkg/metrics"
)

// CollectorConfig configures trace collection.
type CollectorConfig struct {
	Emitter       string        `yaml:"emitter"` // "stdout", "file", "http", "nop"
	FilePath      string        `yaml:"file_path"`
	IngestAddr    string        `yaml:"ingest_addr"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Collector is a batching iotrace.Sink in front of an Emitter. Submit never
// blocks on the destination: records are appended to the current batch and
// flushed by size, by timer, and once more on Close. Every submitted record
// is kept — the tracing layer does no sampling; a record is only lost when
// the emitter itself fails, which is counted and logged.
type Collector struct {
	cfg     CollectorConfig
	emitter Emitter

	mu    sync.Mutex
	batch []iotrace.Record

	flushCh chan struct{}
	closeCh chan struct{}
	wg      sync.WaitGroup
}

var _ iotrace.Sink = (*Collector)(nil)

// NewCollector creates a collector with the configured emitter.
func NewCollector(cfg CollectorConfig) (*Collector, error) {
	var emitter Emitter
	switch cfg.Emitter {
	case "stdout":
		emitter = NewStdoutEmitter()
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = "/var/log/granitefs/iotrace.jsonl"
		}
		var err error
		emitter, err = NewFileEmitter(path)
		if err != nil {
			return nil, err
		}
	case "http":
		addr := cfg.IngestAddr
		if addr == "" {
			addr = "http://localhost:8080"
		}
		emitter = NewHTTPEmitter(addr)
	default:
		emitter = NewNopEmitter()
	}

	return NewCollectorWithEmitter(cfg, emitter), nil
}

// NewCollectorWithEmitter creates a collector in front of the given emitter,
// bypassing the name-based lookup in cfg.Emitter.
func NewCollectorWithEmitter(cfg CollectorConfig, emitter Emitter) *Collector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	c := &Collector{
		cfg:     cfg,
		emitter: emitter,
		batch:   make([]iotrace.Record, 0, cfg.BatchSize),
		flushCh: make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.flushLoop()
	return c
}

// Submit adds a record to the current batch. Safe for concurrent use.
func (c *Collector) Submit(rec iotrace.Record) {
	metrics.TraceRecordsSubmitted.Inc()

	c.mu.Lock()
	c.batch = append(c.batch, rec)
	shouldFlush := len(c.batch) >= c.cfg.BatchSize
	c.mu.Unlock()

	if shouldFlush {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}
}

// Flush forces a flush of the current batch.
func (c *Collector) Flush() {
	c.flush()
}

// Close flushes remaining records and closes the emitter.
func (c *Collector) Close() error {
	close(c.closeCh)
	c.wg.Wait()
	return c.emitter.Close()
}

// Pending returns the records currently batched (for testing).
func (c *Collector) Pending() []iotrace.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]iotrace.Record, len(c.batch))
	copy(out, c.batch)
	return out
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			c.flush() // Final flush
			return
		case <-c.flushCh:
			c.flush()
		case <-ticker.C:
			c.flush()
		}
	}
}

func (c *Collector) flush() {
	c.mu.Lock()
	if len(c.batch) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.batch
	c.batch = make([]iotrace.Record, 0, c.cfg.BatchSize)
	c.mu.Unlock()

	// Drop on error: the tracing layer is best-effort and never pushes
	// back on the I/O path.
	if err := c.emitter.Emit(batch); err != nil {
		metrics.TraceFlushErrors.Inc()
		metrics.TraceRecordsDropped.Add(float64(len(batch)))
		slog.Warn("trace flush failed", "count", len(batch), "error", err)
	}
}
