package iotrace

import (
	"context"

	"github.com/granite-db/granitefs/pkg/vfs"
)

// RandomRWFile decorates a vfs.RandomRWFile with tracing.
type RandomRWFile struct {
	target vfs.RandomRWFile
	sink   Sink
	now    Clock
}

var _ vfs.RandomRWFile = (*RandomRWFile)(nil)

// WrapRandomRWFile decorates target with tracing.
func WrapRandomRWFile(target vfs.RandomRWFile, sink Sink) *RandomRWFile {
	return &RandomRWFile{target: target, sink: sink, now: WallClock}
}

func (t *RandomRWFile) Write(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.Write(ctx, p, off, opts)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "Write", elapsed(start, end), statusText(err), uint64(len(p)), uint64(off)))
	return err
}

func (t *RandomRWFile) Read(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) (int, error) {
	start := t.now()
	n, err := t.target.Read(ctx, p, off, opts)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "Read", elapsed(start, end), statusText(err), uint64(len(p)), uint64(off)))
	return n, err
}

// Close is not traced.
func (t *RandomRWFile) Close() error { return t.target.Close() }
