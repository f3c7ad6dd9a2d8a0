// Package vfs defines the file-system abstraction used by the granite
// storage engine. All file and directory access in the engine goes through
// these interfaces so that implementations (local disk, object storage) and
// decorators (I/O tracing) can be swapped without touching callers.
package vfs

import (
	"context"
	"errors"
)

// ErrNotSupported is returned when an implementation does not support an
// operation (e.g. random-write files on object storage).
var ErrNotSupported = errors.New("operation not supported")

// FileOptions carries per-file open options. Passed through opaquely by
// decorators.
type FileOptions struct {
	// UseDirectIO requests O_DIRECT-style access where the platform allows it.
	UseDirectIO bool
	// BufferSize is a hint for implementations that buffer internally.
	BufferSize int
}

// IOOptions carries per-operation options. Passed through opaquely by
// decorators.
type IOOptions struct {
	// Priority is an implementation-defined scheduling hint.
	Priority int
}

// ReadRequest is one sub-request of a batched MultiRead. The requested
// length is len(Buf). After the call, Result aliases the bytes actually
// read (possibly fewer than requested) and Err holds that sub-request's
// outcome.
type ReadRequest struct {
	Offset int64
	Buf    []byte
	Result []byte
	Err    error
}

// FileSystem is the top-level capability: file and directory lifecycle plus
// metadata queries.
type FileSystem interface {
	// Name identifies the implementation (e.g. "disk", "object").
	Name() string

	NewSequentialFile(ctx context.Context, fname string, opts FileOptions) (SequentialFile, error)
	NewRandomAccessFile(ctx context.Context, fname string, opts FileOptions) (RandomAccessFile, error)
	NewWritableFile(ctx context.Context, fname string, opts FileOptions) (WritableFile, error)
	NewRandomRWFile(ctx context.Context, fname string, opts FileOptions) (RandomRWFile, error)
	NewDirectory(ctx context.Context, name string, opts IOOptions) (Directory, error)

	CreateDir(ctx context.Context, dirname string, opts IOOptions) error
	CreateDirIfMissing(ctx context.Context, dirname string, opts IOOptions) error
	DeleteDir(ctx context.Context, dirname string, opts IOOptions) error
	DeleteFile(ctx context.Context, fname string, opts IOOptions) error

	// GetChildren returns the names (not full paths) of the direct children
	// of dir.
	GetChildren(ctx context.Context, dir string, opts IOOptions) ([]string, error)
	GetFileSize(ctx context.Context, fname string, opts IOOptions) (uint64, error)
}

// SequentialFile reads a file front to back.
type SequentialFile interface {
	// Read reads up to len(p) bytes from the current position and returns
	// the number of bytes actually read.
	Read(ctx context.Context, p []byte, opts IOOptions) (int, error)
	// PositionedRead reads up to len(p) bytes at off without moving the
	// sequential position.
	PositionedRead(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error)
	// InvalidateCache drops any cached pages for [off, off+length).
	InvalidateCache(off, length int64) error
	Close() error
}

// RandomAccessFile reads a file at arbitrary offsets. Implementations must
// support concurrent readers.
type RandomAccessFile interface {
	Read(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error)
	// MultiRead services all requests in one call. Per-request outcomes land
	// in each request's Result and Err fields; the returned error is reserved
	// for whole-call failures.
	MultiRead(ctx context.Context, reqs []ReadRequest, opts IOOptions) error
	// Prefetch hints that [off, off+n) will be read soon.
	Prefetch(ctx context.Context, off, n int64, opts IOOptions) error
	InvalidateCache(off, length int64) error
	Close() error
}

// WritableFile appends to a file. Only one writer may use it at a time.
type WritableFile interface {
	Append(ctx context.Context, data []byte, opts IOOptions) error
	PositionedAppend(ctx context.Context, data []byte, off int64, opts IOOptions) error
	Truncate(ctx context.Context, size int64, opts IOOptions) error
	Close(ctx context.Context, opts IOOptions) error
	// GetFileSize returns the current size. Implementations report zero when
	// the size cannot be determined.
	GetFileSize(ctx context.Context, opts IOOptions) uint64
	InvalidateCache(off, length int64) error
}

// RandomRWFile reads and writes at arbitrary offsets.
type RandomRWFile interface {
	Write(ctx context.Context, p []byte, off int64, opts IOOptions) error
	Read(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error)
	Close() error
}

// Directory is a handle used to fsync directory metadata after file
// creation or deletion.
type Directory interface {
	Fsync(ctx context.Context, opts IOOptions) error
	Close() error
}
