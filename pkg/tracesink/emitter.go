// Package tracesink provides iotrace.Sink implementations: direct sinks for
// tests and metrics, and a batching collector in front of pluggable
// emitters (JSONL file, stdout, HTTP ingest).
package tracesink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/granite-db/granitefs/pkg/iotrace"
)

// Emitter writes batches of trace records to a destination.
type Emitter interface {
	Emit(recs []iotrace.Record) error
	Close() error
}

// StdoutEmitter writes JSON lines to stdout.
type StdoutEmitter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewStdoutEmitter creates a stdout emitter.
func NewStdoutEmitter() *StdoutEmitter {
	return &StdoutEmitter{encoder: json.NewEncoder(os.Stdout)}
}

// Emit writes records as JSON lines to stdout.
func (e *StdoutEmitter) Emit(recs []iotrace.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range recs {
		if err := e.encoder.Encode(rec); err != nil {
			return fmt.Errorf("tracesink.StdoutEmitter: %w", err)
		}
	}
	return nil
}

// Close is a no-op for stdout.
func (e *StdoutEmitter) Close() error { return nil }

// FileEmitter appends JSON lines to a trace file through a buffered writer.
type FileEmitter struct {
	mu      sync.Mutex
	file    *os.File
	w       *bufio.Writer
	encoder *json.Encoder
}

// NewFileEmitter creates a file emitter writing JSONL to the given path.
func NewFileEmitter(path string) (*FileEmitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tracesink.NewFileEmitter: %w", err)
	}
	w := bufio.NewWriter(f)
	return &FileEmitter{file: f, w: w, encoder: json.NewEncoder(w)}, nil
}

// Emit writes records as JSON lines and flushes the buffer, so a batch is
// durable in the file once Emit returns.
func (e *FileEmitter) Emit(recs []iotrace.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, rec := range recs {
		if err := e.encoder.Encode(rec); err != nil {
			return fmt.Errorf("tracesink.FileEmitter: %w", err)
		}
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("tracesink.FileEmitter: flush: %w", err)
	}
	return nil
}

// Close flushes and closes the trace file.
func (e *FileEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.w.Flush(); err != nil {
		e.file.Close()
		return fmt.Errorf("tracesink.FileEmitter: flush: %w", err)
	}
	return e.file.Close()
}

// HTTPEmitter POSTs trace batches to a remote aggregation endpoint.
type HTTPEmitter struct {
	addr   string
	client *http.Client
}

// NewHTTPEmitter creates an emitter that POSTs batches to addr's trace
// ingest endpoint.
func NewHTTPEmitter(addr string) *HTTPEmitter {
	return &HTTPEmitter{
		addr: addr,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Emit sends records via HTTP POST /api/v1/traces.
func (e *HTTPEmitter) Emit(recs []iotrace.Record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("tracesink.HTTPEmitter: marshal: %w", err)
	}

	resp, err := e.client.Post(e.addr+"/api/v1/traces", "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("tracesink.HTTPEmitter: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracesink.HTTPEmitter: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op for the HTTP emitter.
func (e *HTTPEmitter) Close() error { return nil }

// NopEmitter discards all records.
type NopEmitter struct{}

// NewNopEmitter creates a no-op emitter.
func NewNopEmitter() *NopEmitter { return &NopEmitter{} }

// Emit discards records.
func (e *NopEmitter) Emit(recs []iotrace.Record) error { return nil }

// Close is a no-op.
func (e *NopEmitter) Close() error { return nil }

// MemoryEmitter stores batches in memory (for testing).
type MemoryEmitter struct {
	mu   sync.Mutex
	recs []iotrace.Record
}

// NewMemoryEmitter creates a memory-backed emitter.
func NewMemoryEmitter() *MemoryEmitter { return &MemoryEmitter{} }

// Emit stores records.
func (e *MemoryEmitter) Emit(recs []iotrace.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recs = append(e.recs, recs...)
	return nil
}

// Close is a no-op.
func (e *MemoryEmitter) Close() error { return nil }

// Records returns all stored records.
func (e *MemoryEmitter) Records() []iotrace.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]iotrace.Record, len(e.recs))
	copy(out, e.recs)
	return out
}

// Len returns the number of stored records.
func (e *MemoryEmitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.recs)
}
