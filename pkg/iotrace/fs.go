package iotrace

import (
	"context"

	"github.com/granite-db/granitefs/pkg/vfs"
)

// FileSystem decorates a vfs.FileSystem with tracing. Files opened through
// it are returned wrapped in the matching file wrapper sharing the same
// sink, so the whole I/O surface of the engine is traced once the wrapper
// is installed at the filesystem level.
//
// The wrapper holds no mutable state: it is safe for concurrent use
// whenever the target is.
type FileSystem struct {
	target vfs.FileSystem
	sink   Sink
	now    Clock
}

var _ vfs.FileSystem = (*FileSystem)(nil)

// WrapFileSystem decorates target so that every operation submits a trace
// record to sink.
func WrapFileSystem(target vfs.FileSystem, sink Sink) *FileSystem {
	return &FileSystem{target: target, sink: sink, now: WallClock}
}

func (t *FileSystem) Name() string { return t.target.Name() }

func (t *FileSystem) NewSequentialFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.SequentialFile, error) {
	start := t.now()
	f, err := t.target.NewSequentialFile(ctx, fname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "NewSequentialFile", elapsed(start, end), statusText(err), fname))
	if err != nil {
		return nil, err
	}
	return &SequentialFile{target: f, sink: t.sink, now: t.now}, nil
}

func (t *FileSystem) NewRandomAccessFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.RandomAccessFile, error) {
	start := t.now()
	f, err := t.target.NewRandomAccessFile(ctx, fname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "NewRandomAccessFile", elapsed(start, end), statusText(err), fname))
	if err != nil {
		return nil, err
	}
	return &RandomAccessFile{target: f, sink: t.sink, now: t.now}, nil
}

func (t *FileSystem) NewWritableFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.WritableFile, error) {
	start := t.now()
	f, err := t.target.NewWritableFile(ctx, fname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "NewWritableFile", elapsed(start, end), statusText(err), fname))
	if err != nil {
		return nil, err
	}
	return &WritableFile{target: f, sink: t.sink, now: t.now}, nil
}

func (t *FileSystem) NewRandomRWFile(ctx context.Context, fname string, opts vfs.FileOptions) (vfs.RandomRWFile, error) {
	start := t.now()
	f, err := t.target.NewRandomRWFile(ctx, fname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "NewRandomRWFile", elapsed(start, end), statusText(err), fname))
	if err != nil {
		return nil, err
	}
	return &RandomRWFile{target: f, sink: t.sink, now: t.now}, nil
}

// NewDirectory traces the open itself; the returned directory handle is not
// decorated.
func (t *FileSystem) NewDirectory(ctx context.Context, name string, opts vfs.IOOptions) (vfs.Directory, error) {
	start := t.now()
	dir, err := t.target.NewDirectory(ctx, name, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "NewDirectory", elapsed(start, end), statusText(err), name))
	return dir, err
}

func (t *FileSystem) CreateDir(ctx context.Context, dirname string, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.CreateDir(ctx, dirname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "CreateDir", elapsed(start, end), statusText(err), dirname))
	return err
}

func (t *FileSystem) CreateDirIfMissing(ctx context.Context, dirname string, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.CreateDirIfMissing(ctx, dirname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "CreateDirIfMissing", elapsed(start, end), statusText(err), dirname))
	return err
}

func (t *FileSystem) DeleteDir(ctx context.Context, dirname string, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.DeleteDir(ctx, dirname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "DeleteDir", elapsed(start, end), statusText(err), dirname))
	return err
}

func (t *FileSystem) DeleteFile(ctx context.Context, fname string, opts vfs.IOOptions) error {
	start := t.now()
	err := t.target.DeleteFile(ctx, fname, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "DeleteFile", elapsed(start, end), statusText(err), fname))
	return err
}

func (t *FileSystem) GetChildren(ctx context.Context, dir string, opts vfs.IOOptions) ([]string, error) {
	start := t.now()
	children, err := t.target.GetChildren(ctx, dir, opts)
	end := t.now()
	t.sink.Submit(fileNameRecord(end, "GetChildren", elapsed(start, end), statusText(err), dir))
	return children, err
}

// GetFileSize records the size the target actually returned, which is zero
// when the call fails.
func (t *FileSystem) GetFileSize(ctx context.Context, fname string, opts vfs.IOOptions) (uint64, error) {
	start := t.now()
	size, err := t.target.GetFileSize(ctx, fname, opts)
	end := t.now()
	t.sink.Submit(fileSizeRecord(end, "GetFileSize", elapsed(start, end), statusText(err), fname, size))
	return size, err
}
