package vfs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func newTestDiskFS(t *testing.T) (*DiskFS, string) {
	t.Helper()
	dir := t.TempDir()
	d, err := NewDiskFS(dir)
	if err != nil {
		t.Fatalf("NewDiskFS: %v", err)
	}
	return d, dir
}

func TestNewDiskFSValidation(t *testing.T) {
	if _, err := NewDiskFS("/nonexistent/granitefs-root"); err == nil {
		t.Error("expected error for missing root")
	}

	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDiskFS(f); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestDiskFSDirectories(t *testing.T) {
	d, _ := newTestDiskFS(t)
	ctx := context.Background()

	if err := d.CreateDir(ctx, "wal", IOOptions{}); err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if err := d.CreateDir(ctx, "wal", IOOptions{}); err == nil {
		t.Error("CreateDir on existing dir should fail")
	}
	if err := d.CreateDirIfMissing(ctx, "wal", IOOptions{}); err != nil {
		t.Errorf("CreateDirIfMissing on existing dir: %v", err)
	}
	if err := d.CreateDirIfMissing(ctx, "sst/l0", IOOptions{}); err != nil {
		t.Errorf("CreateDirIfMissing nested: %v", err)
	}

	dir, err := d.NewDirectory(ctx, "wal", IOOptions{})
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	if err := dir.Fsync(ctx, IOOptions{}); err != nil {
		t.Errorf("Fsync: %v", err)
	}
	if err := dir.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if err := d.DeleteDir(ctx, "wal", IOOptions{}); err != nil {
		t.Fatalf("DeleteDir: %v", err)
	}
	if err := d.DeleteDir(ctx, "wal", IOOptions{}); err == nil {
		t.Error("DeleteDir on missing dir should fail")
	}
}

func TestDiskFSWritableFile(t *testing.T) {
	d, root := newTestDiskFS(t)
	ctx := context.Background()

	f, err := d.NewWritableFile(ctx, "000001.log", FileOptions{})
	if err != nil {
		t.Fatalf("NewWritableFile: %v", err)
	}
	if err := f.Append(ctx, []byte("hello "), IOOptions{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append(ctx, []byte("world"), IOOptions{}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := f.GetFileSize(ctx, IOOptions{}); got != 11 {
		t.Errorf("GetFileSize = %d, want 11", got)
	}
	if err := f.PositionedAppend(ctx, []byte("WORLD"), 6, IOOptions{}); err != nil {
		t.Fatalf("PositionedAppend: %v", err)
	}
	if err := f.Truncate(ctx, 5, IOOptions{}); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if err := f.InvalidateCache(0, 5); err != nil {
		t.Errorf("InvalidateCache: %v", err)
	}
	if err := f.Close(ctx, IOOptions{}); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "000001.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("file content = %q, want hello", data)
	}

	size, err := d.GetFileSize(ctx, "000001.log", IOOptions{})
	if err != nil {
		t.Fatalf("GetFileSize: %v", err)
	}
	if size != 5 {
		t.Errorf("size = %d, want 5", size)
	}
}

func TestDiskFSSequentialFile(t *testing.T) {
	d, root := newTestDiskFS(t)
	ctx := context.Background()

	content := []byte("0123456789abcdef")
	if err := os.WriteFile(filepath.Join(root, "data.bin"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := d.NewSequentialFile(ctx, "data.bin", FileOptions{})
	if err != nil {
		t.Fatalf("NewSequentialFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 10)
	n, err := f.Read(ctx, buf, IOOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 10 || !bytes.Equal(buf[:n], content[:10]) {
		t.Errorf("Read = %d %q", n, buf[:n])
	}

	// Short read at end of file is not an error.
	n, err = f.Read(ctx, buf, IOOptions{})
	if err != nil {
		t.Fatalf("Read at tail: %v", err)
	}
	if n != 6 || !bytes.Equal(buf[:n], content[10:]) {
		t.Errorf("tail Read = %d %q", n, buf[:n])
	}

	n, err = f.PositionedRead(ctx, buf[:4], 8, IOOptions{})
	if err != nil {
		t.Fatalf("PositionedRead: %v", err)
	}
	if n != 4 || string(buf[:4]) != "89ab" {
		t.Errorf("PositionedRead = %d %q", n, buf[:4])
	}

	if err := f.InvalidateCache(0, 16); err != nil {
		t.Errorf("InvalidateCache: %v", err)
	}
}

func TestDiskFSRandomAccessFile(t *testing.T) {
	d, root := newTestDiskFS(t)
	ctx := context.Background()

	content := make([]byte, 8192)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(filepath.Join(root, "table.sst"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := d.NewRandomAccessFile(ctx, "table.sst", FileOptions{})
	if err != nil {
		t.Fatalf("NewRandomAccessFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 100)
	n, err := f.Read(ctx, buf, 4000, IOOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 100 || !bytes.Equal(buf, content[4000:4100]) {
		t.Errorf("Read mismatch at 4000")
	}

	// Read past EOF is short, not an error.
	n, err = f.Read(ctx, buf, 8150, IOOptions{})
	if err != nil {
		t.Fatalf("Read near EOF: %v", err)
	}
	if n != 42 {
		t.Errorf("n = %d, want 42", n)
	}

	reqs := []ReadRequest{
		{Offset: 0, Buf: make([]byte, 64)},
		{Offset: 1000, Buf: make([]byte, 64)},
		{Offset: 8150, Buf: make([]byte, 64)}, // short
	}
	if err := f.MultiRead(ctx, reqs, IOOptions{}); err != nil {
		t.Fatalf("MultiRead: %v", err)
	}
	for i, req := range reqs[:2] {
		if req.Err != nil {
			t.Errorf("req %d Err = %v", i, req.Err)
		}
		if !bytes.Equal(req.Result, content[req.Offset:req.Offset+64]) {
			t.Errorf("req %d data mismatch", i)
		}
	}
	if reqs[2].Err != nil {
		t.Errorf("short sub-read should not error: %v", reqs[2].Err)
	}
	if len(reqs[2].Result) != 42 {
		t.Errorf("short sub-read Result len = %d, want 42", len(reqs[2].Result))
	}

	if err := f.Prefetch(ctx, 0, 4096, IOOptions{}); err != nil {
		t.Errorf("Prefetch: %v", err)
	}
	if err := f.InvalidateCache(0, 8192); err != nil {
		t.Errorf("InvalidateCache: %v", err)
	}
}

func TestDiskFSMultiReadCancelled(t *testing.T) {
	d, root := newTestDiskFS(t)
	if err := os.WriteFile(filepath.Join(root, "f"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := d.NewRandomAccessFile(context.Background(), "f", FileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.MultiRead(ctx, []ReadRequest{{Buf: make([]byte, 3)}}, IOOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDiskFSRandomRWFile(t *testing.T) {
	d, root := newTestDiskFS(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(root, "state.db"), make([]byte, 1024), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := d.NewRandomRWFile(ctx, "state.db", FileOptions{})
	if err != nil {
		t.Fatalf("NewRandomRWFile: %v", err)
	}
	defer f.Close()

	if err := f.Write(ctx, []byte("granite"), 512, IOOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 7)
	n, err := f.Read(ctx, buf, 512, IOOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 7 || string(buf) != "granite" {
		t.Errorf("Read = %d %q", n, buf)
	}
}

func TestDiskFSChildrenAndDelete(t *testing.T) {
	d, root := newTestDiskFS(t)
	ctx := context.Background()

	for _, name := range []string{"b.sst", "a.sst", "MANIFEST"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	children, err := d.GetChildren(ctx, ".", IOOptions{})
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	sort.Strings(children)
	want := []string{"MANIFEST", "a.sst", "b.sst"}
	if len(children) != len(want) {
		t.Fatalf("children = %v, want %v", children, want)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Errorf("children[%d] = %q, want %q", i, children[i], want[i])
		}
	}

	if err := d.DeleteFile(ctx, "a.sst", IOOptions{}); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := d.GetFileSize(ctx, "a.sst", IOOptions{}); err == nil {
		t.Error("expected error for deleted file")
	}
}
