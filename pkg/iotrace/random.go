package iotrace

import (
	"context"

	"github.com/granite-db/granitefs/pkg/vfs"
)

// RandomAccessFile decorates a vfs.RandomAccessFile with tracing.
type RandomAccessFile struct {
	target vfs.RandomAccessFile
	sink   Sink
	now    Clock
}

var _ vfs.RandomAccessFile = (*RandomAccessFile)(nil)

// WrapRandomAccessFile decorates target with tracing.
func WrapRandomAccessFile(target vfs.RandomAccessFile, sink Sink) *RandomAccessFile {
	return &RandomAccessFile{target: target, sink: sink, now: WallClock}
}

func (t *RandomAccessFile) Read(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) (int, error) {
	start := t.now()
	n, err := t.target.Read(ctx, p, off, opts)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "Read", elapsed(start, end), statusText(err), uint64(len(p)), uint64(off)))
	return n, err
}

// MultiRead times the whole batch once and submits one record per
// sub-request, in sub-request order. Every record shares the batch's end
// timestamp and latency; length, offset and status are per sub-request.
// Sub-requests are never timed individually.
func (t *RandomAccessFile) MultiRead(ctx context.Context, reqs []vfs.ReadRequest, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.MultiRead(ctx, reqs, opts)
	end := t.now()
	lat := elapsed(start, end)
	for i := range reqs {
		t.sink.Submit(lenOffsetRecord(end, "MultiRead", lat, statusText(reqs[i].Err), uint64(len(reqs[i].Buf)), uint64(reqs[i].Offset)))
	}
	return err
}

func (t *RandomAccessFile) Prefetch(ctx context.Context, off, n int64, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.Prefetch(ctx, off, n, opts)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "Prefetch", elapsed(start, end), statusText(err), uint64(n), uint64(off)))
	return err
}

func (t *RandomAccessFile) InvalidateCache(off, length int64) error {
	start := t.now()
	err := t.target.InvalidateCache(off, length)
	end := t.now()
	t.sink.Submit(lenOffsetRecord(end, "InvalidateCache", elapsed(start, end), statusText(err), uint64(length), uint64(off)))
	return err
}

// Close is not traced.
func (t *RandomAccessFile) Close() error { return t.target.Close() }
