// Package main runs a traced I/O workload against a granitefs filesystem.
// It wires the configured filesystem (local disk or an rclone-backed object
// store) behind the tracing layer, drives concurrent writers and readers
// through it, and reports what the trace captured.
//
// Usage:
//
//	granite-iotrace --config /etc/granitefs/config.yaml --writers 4 --readers 8 --duration 10s
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/granite-db/granitefs/pkg/config"
	"github.com/granite-db/granitefs/pkg/iotrace"
	"github.com/granite-db/granitefs/pkg/metrics"
	"github.com/granite-db/granitefs/pkg/tracesink"
	"github.com/granite-db/granitefs/pkg/tracestore"
	"github.com/granite-db/granitefs/pkg/vfs"
)

func main() {
	configPath := flag.String("config", "/etc/granitefs/config.yaml", "Path to config file")
	writers := flag.Int("writers", 4, "Number of concurrent writers")
	readers := flag.Int("readers", 8, "Number of concurrent readers")
	duration := flag.Duration("duration", 10*time.Second, "Workload duration")
	chunkSize := flag.Int("chunk", 64*1024, "Write/read chunk size (bytes)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	base, err := buildFS(cfg)
	if err != nil {
		slog.Error("failed to create filesystem", "type", cfg.FS.Type, "error", err)
		os.Exit(1)
	}

	// ── Trace sink ────────────────────────────────────────────────
	var fsys vfs.FileSystem = base
	var inspect *tracesink.Memory
	var cleanup func()

	if cfg.Tracing.Enabled {
		sink, closeSink, err := buildSink(cfg)
		if err != nil {
			slog.Error("failed to create trace sink", "sink", cfg.Tracing.Sink, "error", err)
			os.Exit(1)
		}
		cleanup = closeSink

		// Keep a copy of every record in memory for the end-of-run summary.
		inspect = tracesink.NewMemory()
		fsys = iotrace.WrapFileSystem(base, fanout{sink, inspect})
		slog.Info("tracing enabled", "sink", cfg.Tracing.Sink, "observe", cfg.Tracing.Observe)
	} else {
		slog.Info("tracing disabled, running against the bare filesystem")
	}
	if cleanup != nil {
		defer cleanup()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// ── Metrics + Health Server ──────────────────────────────────
	if cfg.FS.Type == "disk" {
		metrics.RegisterHealthCheck("fs_root", metrics.DirWritableHealthCheck(cfg.FS.Root))
	}

	metricsStop := make(chan struct{})
	if cfg.Metrics.MetricsEnabled() {
		go func() {
			if err := metrics.MetricsServer(cfg.Metrics.Addr, metricsStop); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
		slog.Info("metrics server started", "addr", cfg.Metrics.Addr)
	}
	defer close(metricsStop)

	slog.Info("starting workload",
		"fs", fsys.Name(), "writers", *writers, "readers", *readers,
		"duration", *duration, "chunk", *chunkSize,
	)

	stats := runWorkload(ctx, fsys, *writers, *readers, *duration, *chunkSize)

	fmt.Printf("granitefs I/O trace run\n")
	fmt.Printf("-----------------------------------\n")
	fmt.Printf("Filesystem:  %s\n", fsys.Name())
	fmt.Printf("Duration:    %s\n", stats.elapsed.Truncate(time.Millisecond))
	fmt.Printf("Writes:      %d (%d bytes)\n", stats.writes, stats.bytesWritten)
	fmt.Printf("Reads:       %d (%d bytes)\n", stats.reads, stats.bytesRead)
	fmt.Printf("Errors:      %d\n", stats.errors)
	if inspect != nil {
		printTraceSummary(inspect.Records())
	}
}

// fanout submits each record to every sink in order.
type fanout []iotrace.Sink

func (f fanout) Submit(rec iotrace.Record) {
	for _, s := range f {
		s.Submit(rec)
	}
}

func buildFS(cfg *config.Config) (vfs.FileSystem, error) {
	switch cfg.FS.Type {
	case "disk":
		if err := os.MkdirAll(cfg.FS.Root, 0o755); err != nil {
			return nil, err
		}
		return vfs.NewDiskFS(cfg.FS.Root)
	case "object":
		o := cfg.FS.Object
		return vfs.NewObjectFS(o.Name, o.Backend, o.RemotePath, o.Params)
	default:
		return nil, fmt.Errorf("unknown fs type %q", cfg.FS.Type)
	}
}

// buildSink assembles the configured sink chain. The badger sink writes
// straight to the store; everything else goes through the batching
// collector. With observe set, a Prometheus observer rides in front.
func buildSink(cfg *config.Config) (iotrace.Sink, func(), error) {
	var sink iotrace.Sink
	var closeSink func()

	if cfg.Tracing.Sink == "badger" {
		store, err := tracestore.Open(cfg.Tracing.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		sink = store
		closeSink = func() {
			if err := store.Close(); err != nil {
				slog.Warn("trace store close failed", "error", err)
			}
		}
	} else {
		collector, err := tracesink.NewCollector(tracesink.CollectorConfig{
			Emitter:       cfg.Tracing.Sink,
			FilePath:      cfg.Tracing.FilePath,
			IngestAddr:    cfg.Tracing.IngestAddr,
			BatchSize:     cfg.Tracing.BatchSize,
			FlushInterval: cfg.Tracing.FlushInterval,
		})
		if err != nil {
			return nil, nil, err
		}
		sink = collector
		closeSink = func() {
			if err := collector.Close(); err != nil {
				slog.Warn("trace collector close failed", "error", err)
			}
		}
	}

	if cfg.Tracing.Observe {
		sink = tracesink.NewObserver(sink)
	}
	return sink, closeSink, nil
}

type workloadStats struct {
	elapsed      time.Duration
	writes       int64
	reads        int64
	bytesWritten int64
	bytesRead    int64
	errors       int64
}

// runWorkload drives writers appending log-style files and readers doing
// random reads over whatever the writers have finished, all through fsys.
func runWorkload(ctx context.Context, fsys vfs.FileSystem, writers, readers int, duration time.Duration, chunk int) workloadStats {
	var stats workloadStats
	var writes, reads, bytesWritten, bytesRead, errs atomic.Int64

	if err := fsys.CreateDirIfMissing(ctx, "bench", vfs.IOOptions{}); err != nil {
		slog.Error("failed to create workload dir", "error", err)
		errs.Add(1)
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()
	start := time.Now()

	var ready sync.Map // files finished by writers, readable
	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			data := make([]byte, chunk)
			rnd := rand.New(rand.NewSource(int64(id)))
			rnd.Read(data)

			for gen := 0; ctx.Err() == nil; gen++ {
				name := fmt.Sprintf("bench/w%03d-%06d.log", id, gen)
				f, err := fsys.NewWritableFile(ctx, name, vfs.FileOptions{})
				if err != nil {
					errs.Add(1)
					continue
				}
				for i := 0; i < 16 && ctx.Err() == nil; i++ {
					if err := f.Append(ctx, data, vfs.IOOptions{}); err != nil {
						errs.Add(1)
						break
					}
					writes.Add(1)
					bytesWritten.Add(int64(len(data)))
				}
				if err := f.Close(ctx, vfs.IOOptions{}); err != nil {
					errs.Add(1)
					continue
				}
				ready.Store(name, int64(16*chunk))
			}
		}(w)
	}

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			buf := make([]byte, chunk)
			rnd := rand.New(rand.NewSource(int64(1000 + id)))

			for ctx.Err() == nil {
				var name string
				var size int64
				ready.Range(func(k, v any) bool {
					name, size = k.(string), v.(int64)
					return rnd.Intn(4) != 0 // keep ranging to pick a random-ish file
				})
				if name == "" {
					time.Sleep(10 * time.Millisecond)
					continue
				}

				f, err := fsys.NewRandomAccessFile(ctx, name, vfs.FileOptions{})
				if err != nil {
					errs.Add(1)
					continue
				}
				for i := 0; i < 8 && ctx.Err() == nil; i++ {
					off := rnd.Int63n(size)
					n, err := f.Read(ctx, buf, off, vfs.IOOptions{})
					if err != nil {
						errs.Add(1)
						break
					}
					reads.Add(1)
					bytesRead.Add(int64(n))
				}
				if err := f.Close(); err != nil {
					errs.Add(1)
				}
			}
		}(r)
	}

	wg.Wait()

	stats.elapsed = time.Since(start)
	stats.writes = writes.Load()
	stats.reads = reads.Load()
	stats.bytesWritten = bytesWritten.Load()
	stats.bytesRead = bytesRead.Load()
	stats.errors = errs.Load()
	return stats
}

func printTraceSummary(recs []iotrace.Record) {
	type opStats struct {
		count   int
		errors  int
		totalUS uint64
		maxUS   uint64
	}
	byOp := make(map[string]*opStats)
	var order []string

	for _, rec := range recs {
		st := byOp[rec.Op]
		if st == nil {
			st = &opStats{}
			byOp[rec.Op] = st
			order = append(order, rec.Op)
		}
		st.count++
		if rec.Status != "OK" {
			st.errors++
		}
		st.totalUS += rec.LatencyUS
		if rec.LatencyUS > st.maxUS {
			st.maxUS = rec.LatencyUS
		}
	}

	fmt.Printf("-----------------------------------\n")
	fmt.Printf("Trace: %d records\n", len(recs))
	fmt.Printf("%-22s %8s %7s %10s %10s\n", "op", "count", "errors", "avg_us", "max_us")
	for _, op := range order {
		st := byOp[op]
		avg := uint64(0)
		if st.count > 0 {
			avg = st.totalUS / uint64(st.count)
		}
		fmt.Printf("%-22s %8d %7d %10d %10d\n", op, st.count, st.errors, avg, st.maxUS)
	}
	fmt.Printf("-----------------------------------\n")
}
