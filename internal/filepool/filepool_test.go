package filepool

import (
	"io"
	"path/filepath"
	"testing"
)

func TestOpenWriteAndReadAt(t *testing.T) {
	pool := New()
	path := filepath.Join(t.TempDir(), "seg.bin")

	h, err := pool.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := pool.Write(h, []byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 5)
	if _, err := pool.ReadAt(h, buf, 6); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "world" {
		t.Fatalf("got %q, want %q", buf, "world")
	}

	if err := pool.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestGetOffsetTracksWrites(t *testing.T) {
	pool := New()
	path := filepath.Join(t.TempDir(), "seg.bin")

	h, err := pool.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close(h)

	if _, err := pool.Write(h, make([]byte, 32)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	off, err := pool.GetOffset(h)
	if err != nil {
		t.Fatalf("GetOffset: %v", err)
	}
	if off != 32 {
		t.Fatalf("got offset %d, want 32", off)
	}
}

func TestSeekAndOverwrite(t *testing.T) {
	pool := New()
	path := filepath.Join(t.TempDir(), "seg.bin")

	h, err := pool.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close(h)

	if _, err := pool.Write(h, []byte("AAAAAAAAAA")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := pool.Seek(h, 0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := pool.Write(h, []byte("BBB")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 10)
	if _, err := pool.ReadAt(h, buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "BBBAAAAAAA" {
		t.Fatalf("got %q, want %q", buf, "BBBAAAAAAA")
	}
}

func TestUnknownHandleErrors(t *testing.T) {
	pool := New()
	if _, err := pool.Write(42, []byte("x")); err == nil {
		t.Fatal("expected an error for an unopened handle")
	}
}

func TestOpenExistingDoesNotTruncate(t *testing.T) {
	pool := New()
	path := filepath.Join(t.TempDir(), "seg.bin")

	h, err := pool.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := pool.Write(h, []byte("preserved")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := pool.Close(h); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h2, err := pool.OpenExisting(path)
	if err != nil {
		t.Fatalf("OpenExisting: %v", err)
	}
	defer pool.Close(h2)

	buf := make([]byte, len("preserved"))
	if _, err := pool.ReadAt(h2, buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "preserved" {
		t.Fatalf("got %q, want existing contents preserved", buf)
	}
}
