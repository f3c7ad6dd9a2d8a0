package iotrace

import (
	"context"

	"github.com/granite-db/granitefs/pkg/vfs"
)

// WritableFile decorates a vfs.WritableFile with tracing.
type WritableFile struct {
	target vfs.WritableFile
	sink   Sink
	now    Clock
}

var _ vfs.WritableFile = (*WritableFile)(nil)

// WrapWritableFile decorates target with tracing.
func WrapWritableFile(target vfs.WritableFile, sink Sink) *WritableFile {
	return &WritableFile{target: target, sink: sink, now: WallClock}
}

func (t *WritableFile) Append(ctx context.Context, data []byte, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.Append(ctx, data, opts)
	end := t.now()
	t.sink.Submit(lenRecord(end, "Append", elapsed(start, end), statusText(err), uint64(len(data))))
	return err
}

func (t *WritableFile) PositionedAppend(ctx context.Context, data []byte, off int64, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.PositionedAppend(ctx, data, off, opts)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "PositionedAppend", elapsed(start, end), statusText(err), uint64(len(data)), uint64(off)))
	return err
}

func (t *WritableFile) Truncate(ctx context.Context, size int64, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.Truncate(ctx, size, opts)
	end := t.now()
	t.sink.Submit(lenRecord(end, "Truncate", elapsed(start, end), statusText(err), uint64(size)))
	return err
}

func (t *WritableFile) Close(ctx context.Context, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.Close(ctx, opts)
	end := t.now()
	t.sink.Submit(generalRecord(end, "Close", elapsed(start, end), statusText(err)))
	return err
}

// GetFileSize records the size the target returned. The file name is left
// empty: a writable file handle does not carry its path.
func (t *WritableFile) GetFileSize(ctx context.Context, opts vfs.IOOptions) uint64 {
	start := t.now()
	size := t.target.GetFileSize(ctx, opts)
	end := t.now()
	t.sink.Submit(fileSizeRecord(end, "GetFileSize", elapsed(start, end), statusOK, "", size))
	return size
}

func (t *WritableFile) InvalidateCache(off, length int64) error {
	start := t.now()
	err := t.target.InvalidateCache(off, length)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "InvalidateCache", elapsed(start, end), statusText(err), uint64(length), uint64(off)))
	return err
}
