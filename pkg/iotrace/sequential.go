package iotrace

import (
	"context"

	"github.com/granite-db/granitefs/pkg/vfs"
)

// SequentialFile decorates a vfs.SequentialFile with tracing.
type SequentialFile struct {
	target vfs.SequentialFile
	sink   Sink
	now    Clock
}

var _ vfs.SequentialFile = (*SequentialFile)(nil)

// WrapSequentialFile decorates target with tracing.
func WrapSequentialFile(target vfs.SequentialFile, sink Sink) *SequentialFile {
	return &SequentialFile{target: target, sink: sink, now: WallClock}
}

// Read records the number of bytes actually read, not the requested
// length, so short reads are visible in the trace.
func (t *SequentialFile) Read(ctx context.Context, p []byte, opts vfs.IOOptions) (int, error) {
	start := t.now()
	n, err := t.target.Read(ctx, p, opts)
	end := t.now()
	t.sink.Submit(lenRecord(end, "Read", elapsed(start, end), statusText(err), uint64(n)))
	return n, err
}

func (t *SequentialFile) PositionedRead(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) (int, error) {
	start := t.now()
	n, err := t.target.PositionedRead(ctx, p, off, opts)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "PositionedRead", elapsed(start, end), statusText(err), uint64(n), uint64(off)))
	return n, err
}

func (t *SequentialFile) InvalidateCache(off, length int64) error {
	start := t.now()
	err := t.target.InvalidateCache(off, length)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "InvalidateCache", elapsed(start, end), statusText(err), uint64(length), uint64(off)))
	return err
}

// Close is not traced.
func (t *SequentialFile) Close() error { return t.target.Close() }
