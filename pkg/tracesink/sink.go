package tracesink

import (
	"sync"

	"github.com/granite-db/granitefs/pkg/iotrace"
	"github.com/granite-db/granitefs/pkg/metrics"
)

// Memory is an unbatched in-memory sink for tests.
type Memory struct {
	mu   sync.Mutex
	recs []iotrace.Record
}

var _ iotrace.Sink = (*Memory)(nil)

// NewMemory creates an empty memory sink.
func NewMemory() *Memory { return &Memory{} }

// Submit stores the record.
func (m *Memory) Submit(rec iotrace.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
}

// Records returns all submitted records in submission order.
func (m *Memory) Records() []iotrace.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]iotrace.Record, len(m.recs))
	copy(out, m.recs)
	return out
}

// Len returns the number of submitted records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

// Nop discards all records.
type Nop struct{}

var _ iotrace.Sink = Nop{}

// Submit discards the record.
func (Nop) Submit(rec iotrace.Record) {}

// Observer feeds Prometheus from trace records: per-operation counts,
// latency histograms, error counts and byte counts. It can stand alone or
// fan out to a next sink, so metrics can ride alongside a durable trace.
type Observer struct {
	next iotrace.Sink
}

var _ iotrace.Sink = (*Observer)(nil)

// NewObserver creates an observer forwarding to next. next may be nil.
func NewObserver(next iotrace.Sink) *Observer {
	return &Observer{next: next}
}

// Submit records metrics for rec, then forwards it.
func (o *Observer) Submit(rec iotrace.Record) {
	metrics.FSOperations.WithLabelValues(rec.Op).Inc()
	metrics.FSOperationLatency.WithLabelValues(rec.Op).Observe(float64(rec.LatencyUS) / 1e6)
	if rec.Status != "OK" {
		metrics.FSOperationErrors.WithLabelValues(rec.Op).Inc()
	}
	if rec.Kind == iotrace.KindLen || rec.Kind == iotrace.KindLenAndOffset {
		metrics.FSBytes.WithLabelValues(rec.Op).Add(float64(rec.Len))
	}
	if o.next != nil {
		o.next.Submit(rec)
	}
}
