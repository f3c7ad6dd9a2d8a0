package vfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	// Register rclone backends via blank imports.
	_ "github.com/rclone/rclone/backend/azureblob"
	_ "github.com/rclone/rclone/backend/googlecloudstorage"
	_ "github.com/rclone/rclone/backend/local"
	_ "github.com/rclone/rclone/backend/s3"
	_ "github.com/rclone/rclone/backend/sftp"

	"github.com/rclone/rclone/fs"
	"github.com/rclone/rclone/fs/config/configmap"
	"github.com/rclone/rclone/fs/object"
)

// ObjectFS implements FileSystem on top of an rclone remote. It is intended
// for engines that keep immutable table files on object storage: sequential
// and random reads are served with range requests, writable files are staged
// locally and uploaded on close, and random-write files are not supported.
type ObjectFS struct {
	name string
	rfs  fs.Fs
}

// NewObjectFS creates an ObjectFS from rclone config. backendType is the
// rclone backend name (e.g. "s3", "azureblob", "local"); remotePath is the
// bucket/container plus optional prefix; params maps rclone config keys to
// values.
func NewObjectFS(name, backendType, remotePath string, params map[string]string) (*ObjectFS, error) {
	m := configmap.Simple(params)

	regInfo, err := fs.Find(backendType)
	if err != nil {
		return nil, fmt.Errorf("vfs.NewObjectFS: unknown type %q: %w", backendType, err)
	}

	rfs, err := regInfo.NewFs(context.Background(), name, remotePath, m)
	if err != nil {
		return nil, fmt.Errorf("vfs.NewObjectFS: create %q (%s): %w", name, backendType, err)
	}

	slog.Info("Object filesystem created",
		"component", "vfs", "name", name,
		"type", backendType, "path", remotePath,
	)

	return &ObjectFS{name: name, rfs: rfs}, nil
}

func (o *ObjectFS) Name() string { return "object:" + o.name }

func (o *ObjectFS) NewSequentialFile(ctx context.Context, fname string, opts FileOptions) (SequentialFile, error) {
	obj, err := o.rfs.NewObject(ctx, fname)
	if err != nil {
		return nil, fmt.Errorf("vfs: NewSequentialFile %q: %w", fname, err)
	}
	rc, err := obj.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("vfs: NewSequentialFile %q open: %w", fname, err)
	}
	return &objectSequentialFile{obj: obj, rc: rc}, nil
}

func (o *ObjectFS) NewRandomAccessFile(ctx context.Context, fname string, opts FileOptions) (RandomAccessFile, error) {
	obj, err := o.rfs.NewObject(ctx, fname)
	if err != nil {
		return nil, fmt.Errorf("vfs: NewRandomAccessFile %q: %w", fname, err)
	}
	return &objectRandomAccessFile{obj: obj}, nil
}

func (o *ObjectFS) NewWritableFile(ctx context.Context, fname string, opts FileOptions) (WritableFile, error) {
	spill, err := os.CreateTemp("", "granitefs-upload-*")
	if err != nil {
		return nil, fmt.Errorf("vfs: NewWritableFile %q: spill: %w", fname, err)
	}
	return &objectWritableFile{rfs: o.rfs, remote: fname, spill: spill}, nil
}

// NewRandomRWFile is not supported: object stores cannot update byte ranges
// in place.
func (o *ObjectFS) NewRandomRWFile(ctx context.Context, fname string, opts FileOptions) (RandomRWFile, error) {
	return nil, fmt.Errorf("vfs: NewRandomRWFile %q: %w", fname, ErrNotSupported)
}

func (o *ObjectFS) NewDirectory(ctx context.Context, name string, opts IOOptions) (Directory, error) {
	return objectDirectory{}, nil
}

func (o *ObjectFS) CreateDir(ctx context.Context, dirname string, opts IOOptions) error {
	if err := o.rfs.Mkdir(ctx, dirname); err != nil {
		return fmt.Errorf("vfs: CreateDir %q: %w", dirname, err)
	}
	return nil
}

func (o *ObjectFS) CreateDirIfMissing(ctx context.Context, dirname string, opts IOOptions) error {
	// rclone Mkdir is idempotent across backends.
	if err := o.rfs.Mkdir(ctx, dirname); err != nil {
		return fmt.Errorf("vfs: CreateDirIfMissing %q: %w", dirname, err)
	}
	return nil
}

func (o *ObjectFS) DeleteDir(ctx context.Context, dirname string, opts IOOptions) error {
	if err := o.rfs.Rmdir(ctx, dirname); err != nil {
		return fmt.Errorf("vfs: DeleteDir %q: %w", dirname, err)
	}
	return nil
}

func (o *ObjectFS) DeleteFile(ctx context.Context, fname string, opts IOOptions) error {
	obj, err := o.rfs.NewObject(ctx, fname)
	if err != nil {
		return fmt.Errorf("vfs: DeleteFile %q: %w", fname, err)
	}
	if err := obj.Remove(ctx); err != nil {
		return fmt.Errorf("vfs: DeleteFile %q: %w", fname, err)
	}
	return nil
}

func (o *ObjectFS) GetChildren(ctx context.Context, dir string, opts IOOptions) ([]string, error) {
	entries, err := o.rfs.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("vfs: GetChildren %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Remote()
		if dir != "" {
			name = strings.TrimPrefix(name, dir)
			name = strings.TrimPrefix(name, "/")
		}
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (o *ObjectFS) GetFileSize(ctx context.Context, fname string, opts IOOptions) (uint64, error) {
	obj, err := o.rfs.NewObject(ctx, fname)
	if err != nil {
		return 0, fmt.Errorf("vfs: GetFileSize %q: %w", fname, err)
	}
	return uint64(obj.Size()), nil
}

// rangeRead fills p from obj starting at off and returns the number of bytes
// read. Short reads past end of object are not errors.
func rangeRead(ctx context.Context, obj fs.Object, p []byte, off int64) (int, error) {
	size := obj.Size()
	if off >= size {
		return 0, nil
	}

	end := off + int64(len(p)) - 1
	if end >= size {
		end = size - 1
	}

	rc, err := obj.Open(ctx, &fs.RangeOption{Start: off, End: end})
	if err != nil {
		return 0, fmt.Errorf("vfs: range read %q: %w", obj.Remote(), err)
	}
	defer rc.Close()

	total := 0
	for total < len(p) && off+int64(total) <= end {
		n, readErr := rc.Read(p[total:])
		total += n
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return total, fmt.Errorf("vfs: range read %q: %w", obj.Remote(), readErr)
		}
	}
	return total, nil
}

type objectSequentialFile struct {
	obj fs.Object
	rc  io.ReadCloser
	pos int64
}

func (s *objectSequentialFile) Read(ctx context.Context, p []byte, opts IOOptions) (int, error) {
	n, err := s.rc.Read(p)
	s.pos += int64(n)
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

func (s *objectSequentialFile) PositionedRead(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error) {
	return rangeRead(ctx, s.obj, p, off)
}

func (s *objectSequentialFile) InvalidateCache(off, length int64) error { return nil }

func (s *objectSequentialFile) Close() error { return s.rc.Close() }

type objectRandomAccessFile struct {
	obj fs.Object
}

func (r *objectRandomAccessFile) Read(ctx context.Context, p []byte, off int64, opts IOOptions) (int, error) {
	return rangeRead(ctx, r.obj, p, off)
}

func (r *objectRandomAccessFile) MultiRead(ctx context.Context, reqs []ReadRequest, opts IOOptions) error {
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := rangeRead(ctx, r.obj, reqs[i].Buf, reqs[i].Offset)
		reqs[i].Result = reqs[i].Buf[:n]
		reqs[i].Err = err
	}
	return nil
}

func (r *objectRandomAccessFile) Prefetch(ctx context.Context, off, n int64, opts IOOptions) error {
	return nil
}

func (r *objectRandomAccessFile) InvalidateCache(off, length int64) error { return nil }

func (r *objectRandomAccessFile) Close() error { return nil }

// objectWritableFile stages appends in a local spill file and uploads the
// whole object on Close.
type objectWritableFile struct {
	rfs    fs.Fs
	remote string
	spill  *os.File
}

func (w *objectWritableFile) Append(ctx context.Context, data []byte, opts IOOptions) error {
	_, err := w.spill.Write(data)
	return err
}

func (w *objectWritableFile) PositionedAppend(ctx context.Context, data []byte, off int64, opts IOOptions) error {
	_, err := w.spill.WriteAt(data, off)
	return err
}

func (w *objectWritableFile) Truncate(ctx context.Context, size int64, opts IOOptions) error {
	return w.spill.Truncate(size)
}

func (w *objectWritableFile) Close(ctx context.Context, opts IOOptions) error {
	defer func() {
		name := w.spill.Name()
		w.spill.Close()
		os.Remove(name)
	}()

	info, err := w.spill.Stat()
	if err != nil {
		return fmt.Errorf("vfs: close %q: stat spill: %w", w.remote, err)
	}
	if _, err := w.spill.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("vfs: close %q: rewind spill: %w", w.remote, err)
	}

	src := object.NewStaticObjectInfo(w.remote, time.Now(), info.Size(), true, nil, nil)
	if _, err := w.rfs.Put(ctx, w.spill, src); err != nil {
		return fmt.Errorf("vfs: close %q: upload: %w", w.remote, err)
	}
	return nil
}

func (w *objectWritableFile) GetFileSize(ctx context.Context, opts IOOptions) uint64 {
	info, err := w.spill.Stat()
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}

func (w *objectWritableFile) InvalidateCache(off, length int64) error { return nil }

// objectDirectory is a no-op handle: object stores have no directory
// metadata to sync.
type objectDirectory struct{}

func (objectDirectory) Fsync(ctx context.Context, opts IOOptions) error { return nil }

func (objectDirectory) Close() error { return nil }
