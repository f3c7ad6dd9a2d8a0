package iotrace

import (
	"context"
	"sync"

	"github.com/granite-db/granitefs/pkg/vfs"
)

// captureSink records every submitted record in order.
type captureSink struct {
	mu   sync.Mutex
	recs []Record
}

func (s *captureSink) Submit(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
}

func (s *captureSink) records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.recs))
	copy(out, s.recs)
	return out
}

// fakeClock advances by step on every read, so a wrapped call always
// measures exactly step and the recorded timestamps are deterministic.
type fakeClock struct {
	t    uint64
	step uint64
}

func (c *fakeClock) now() uint64 {
	v := c.t
	c.t += c.step
	return v
}

// stubFS scripts the behavior of a wrapped filesystem.
type stubFS struct {
	err      error
	size     uint64
	children []string

	seq  *stubSequentialFile
	rand *stubRandomAccessFile
	wr   *stubWritableFile
	rw   *stubRandomRWFile
}

func (s *stubFS) Name() string { return "stub" }

func (s *stubFS) NewSequentialFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.SequentialFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.seq, nil
}

func (s *stubFS) NewRandomAccessFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.RandomAccessFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rand, nil
}

func (s *stubFS) NewWritableFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.WritableFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.wr, nil
}

func (s *stubFS) NewRandomRWFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.RandomRWFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rw, nil
}

func (s *stubFS) NewDirectory(ctx context.Context, name string, opts vfs.IOOptions) (vfs.Directory, error) {
	return nil, s.err
}

func (s *stubFS) CreateDir(ctx context.Context, dirname string, opts vfs.IOOptions) error { return s.err }

func (s *stubFS) CreateDirIfMissing(ctx context.Context, dirname string, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubFS) DeleteDir(ctx context.Context, dirname string, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubFS) DeleteFile(ctx context.Context, fname string, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubFS) GetChildren(ctx context.Context, dir string, opts vfs.IOOptions) ([]string, error) {
	return s.children, s.err
}

func (s *stubFS) GetFileSize(ctx context.Context, fname string, opts vfs.IOOptions) (uint64, error) {
	return s.size, s.err
}

// stubSequentialFile reports n bytes for every read.
type stubSequentialFile struct {
	n      int
	err    error
	closed bool
}

func (s *stubSequentialFile) Read(ctx context.Context, p []byte, opts vfs.IOOptions) (int, error) {
	return s.n, s.err
}

func (s *stubSequentialFile) PositionedRead(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) (int, error) {
	return s.n, s.err
}

func (s *stubSequentialFile) InvalidateCache(off, length int64) error { return s.err }

func (s *stubSequentialFile) Close() error {
	s.closed = true
	return s.err
}

// stubRandomAccessFile reports n bytes for every read and scripts MultiRead
// via perReqErr, keyed by sub-request index.
type stubRandomAccessFile struct {
	n         int
	err       error
	perReqErr map[int]error
	closed    bool
}

func (s *stubRandomAccessFile) Read(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) (int, error) {
	return s.n, s.err
}

func (s *stubRandomAccessFile) MultiRead(ctx context.Context, reqs []vfs.ReadRequest, opts vfs.IOOptions) error {
	for i := range reqs {
		if err, ok := s.perReqErr[i]; ok {
			reqs[i].Err = err
			continue
		}
		reqs[i].Result = reqs[i].Buf
	}
	return s.err
}

func (s *stubRandomAccessFile) Prefetch(ctx context.Context, off, n int64, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubRandomAccessFile) InvalidateCache(off, length int64) error { return s.err }

func (s *stubRandomAccessFile) Close() error {
	s.closed = true
	return s.err
}

type stubWritableFile struct {
	size   uint64
	err    error
	closed bool
}

func (s *stubWritableFile) Append(ctx context.Context, data []byte, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubWritableFile) PositionedAppend(ctx context.Context, data []byte, off int64, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubWritableFile) Truncate(ctx context.Context, size int64, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubWritableFile) Close(ctx context.Context, opts vfs.IOOptions) error {
	s.closed = true
	return s.err
}

func (s *stubWritableFile) GetFileSize(ctx context.Context, opts vfs.IOOptions) uint64 {
	return s.size
}

func (s *stubWritableFile) InvalidateCache(off, length int64) error { return s.err }

type stubRandomRWFile struct {
	n      int
	err    error
	closed bool
}

func (s *stubRandomRWFile) Write(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) error {
	return s.err
}

func (s *stubRandomRWFile) Read(ctx context.Context, p []byte, off int64, opts vfs.IOOptions) (int, error) {
	return s.n, s.err
}

func (s *stubRandomRWFile) Close() error {
	s.closed = true
	return s.err
}
