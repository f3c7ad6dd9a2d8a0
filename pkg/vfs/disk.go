package vfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DiskFS implements FileSystem on the local filesystem. Paths are resolved
// relative to the configured root.
type DiskFS struct {
	root string
}

// NewDiskFS creates a DiskFS rooted at root. The root must already exist.
func NewDiskFS(root string) (*DiskFS, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("vfs.NewDiskFS: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vfs.NewDiskFS: %s is not a directory", root)
	}
	slog.Info("Disk filesystem created", "component", "vfs", "root", root)
	return &DiskFS{root: root}, nil
}

func (d *DiskFS) Name() string { return "disk" }

func (d *DiskFS) resolve(name string) string {
	return filepath.Join(d.root, name)
}

func (d *DiskFS) NewSequentialFile(ctx context.Context, fname string, opts FileOptions) (SequentialFile, error) {
	f, err := os.Open(d.resolve(fname))
	if err != nil {
		return nil, fmt.Errorf("vfs: NewSequentialFile %q: %w", fname, err)
	}
	return &diskSequentialFile{f: f}, nil
}

func (d *DiskFS) NewRandomAccessFile(ctx context.Context, fname string, opts FileOptions) (RandomAccessFile, error) {
	f, err := os.Open(d.resolve(fname))
	if err != nil {
		return nil, fmt.Errorf("vfs: NewRandomAccessFile %q: %w", fname, err)
	}
	return &diskRandomAccessFile{f: f}, nil
}

func (d *DiskFS) NewWritableFile(ctx context.Context, fname string, opts FileOptions) (WritableFile, error) {
	f, err := os.OpenFile(d.resolve(fname), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vfs: NewWritableFile %q: %w", fname, err)
	}
	return &diskWritableFile{f: f}, nil
}

func (d *DiskFS) NewRandomRWFile(ctx context.Context, fname string, opts FileOptions) (RandomRWFile, error) {
	f, err := os.OpenFile(d.resolve(fname), os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vfs: NewRandomRWFile %q: %w", fname, err)
	}
	return &diskRandomRWFile{f: f}, nil
}

func (d *DiskFS) NewDirectory(ctx context.Context, name string, opts IOOptions) (Directory, error) {
	f, err := os.Open(d.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("vfs: NewDirectory %q: %w", name, err)
	}
	return &diskDirectory{f: f}, nil
}

func (d *DiskFS) CreateDir(ctx context.Context, dirname string, opts IOOptions) error {
	if err := os.Mkdir(d.resolve(dirname), 0o755); err != nil {
		return fmt.Errorf("vfs: CreateDir %q: %w", dirname, err)
	}
	return nil
}

func (d *DiskFS) CreateDirIfMissing(ctx context.Context, dirname string, opts IOOptions) error {
	if err := os.MkdirAll(d.resolve(dirname), 0o755); err != nil {
		return fmt.Errorf("vfs: CreateDirIfMissing %q: %w", dirname, err)
	}
	return nil
}

func (d *DiskFS) DeleteDir(ctx context.Context, dirname string, opts IOOptions) error {
	if err := os.Remove(d.resolve(dirname)); err != nil {
		return fmt.Errorf("vfs: DeleteDir %q: %w", dirname, err)
	}
	return nil
}

func (d *DiskFS) DeleteFile(ctx context.Context, fname string, opts IOOptions) error {
	if err := os.Remove(d.resolve(fname)); err != nil {
		return fmt.Errorf("vfs: DeleteFile %q: %w", fname, err)
	}
	return nil
}

func (d *DiskFS) GetChildren(ctx context.Context, dir string, opts IOOptions) ([]string, error) {
	entries, err := os.ReadDir(d.resolve(dir))
	if err != nil {
		return nil, fmt.Errorf("vfs: GetChildren %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (d *DiskFS) GetFileSize(ctx context.Context, fname string, opts IOOptions) (uint64, error) {
	info, err := os.Stat(d.resolve(fname))
	if err != nil {
		return 0, fmt.Errorf("vfs: GetFileSize %q: %w", fname, err)
	}
	return uint64(info.Size()), nil
}

type diskSequentialFile struct {
	f *os.File
}

func (s *diskSequentialFile) Read(ctx context.Context, p []byte, opts IOOptions) (int, error) {
	n, err := s.f.Read(p)
	if err == io.EOF {
		// EOF with a short read is a normal end-of-file condition.
		return n, nil
	}
	return n, err
}

func (s *diskSequentialFile) PositionedRead(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (s *diskSequentialFile) InvalidateCache(off, length int64) error {
	// Page cache hints are advisory; nothing to do on the portable path.
	return nil
}

func (s *diskSequentialFile) Close() error { return s.f.Close() }

type diskRandomAccessFile struct {
	f *os.File
}

func (r *diskRandomAccessFile) Read(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error) {
	n, err := r.f.ReadAt(p, off)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (r *diskRandomAccessFile) MultiRead(ctx context.Context, reqs []ReadRequest, opts IOOptions) error {
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.f.ReadAt(reqs[i].Buf, reqs[i].Offset)
		if err == io.EOF {
			err = nil
		}
		reqs[i].Result = reqs[i].Buf[:n]
		reqs[i].Err = err
	}
	return nil
}

func (r *diskRandomAccessFile) Prefetch(ctx context.Context, off, n int64, opts IOOptions) error {
	return nil
}

func (r *diskRandomAccessFile) InvalidateCache(off, length int64) error { return nil }

func (r *diskRandomAccessFile) Close() error { return r.f.Close() }

type diskWritableFile struct {
	f *os.File
}

func (w *diskWritableFile) Append(ctx context.Context, data []byte, opts IOOptions) error {
	_, err := w.f.Write(data)
	return err
}

func (w *diskWritableFile) PositionedAppend(ctx context.Context, data []byte, off int64, opts IOOptions) error {
	_, err := w.f.WriteAt(data, off)
	return err
}

func (w *diskWritableFile) Truncate(ctx context.Context, size int64, opts IOOptions) error {
	return w.f.Truncate(size)
}

func (w *diskWritableFile) Close(ctx context.Context, opts IOOptions) error {
	return w.f.Close()
}

func (w *diskWritableFile) GetFileSize(ctx context.Context, opts IOOptions) uint64 {
	info, err := w.f.Stat()
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}

func (w *diskWritableFile) InvalidateCache(off, length int64) error { return nil }

type diskRandomRWFile struct {
	f *os.File
}

func (rw *diskRandomRWFile) Write(ctx context.Context, p []byte, off int64, opts IOOptions) error {
	_, err := rw.f.WriteAt(p, off)
	return err
}

func (rw *diskRandomRWFile) Read(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error) {
	n, err := rw.f.ReadAt(p, off)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (rw *diskRandomRWFile) Close() error { return rw.f.Close() }

type diskDirectory struct {
	f *os.File
}

func (d *diskDirectory) Fsync(ctx context.Context, opts IOOptions) error {
	return d.f.Sync()
}

func (d *diskDirectory) Close() error { return d.f.Close() }
