// Package filepool implements the file-pool collaborator named in
// spec.md §6: open/seek/read/write/get_offset/close over a set of files
// identified by a small integer handle, multiplexed behind one mutex so
// the engine's strictly-sequential access pattern (spec.md §5) never needs
// its own locking.
package filepool

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Handle identifies one open file within a Pool.
type Handle int

const invalidHandle Handle = -1

// Pool owns a set of *os.File handles opened on demand and released on
// Close. It is the engine's only point of contact with the filesystem.
type Pool struct {
	mu    sync.Mutex
	files map[Handle]*os.File
	next  Handle
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{files: make(map[Handle]*os.File)}
}

// Open creates (or truncates) path for read-write access and returns a
// handle for it.
func (p *Pool) Open(path string) (Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return invalidHandle, fmt.Errorf("filepool: open %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.next
	p.next++
	p.files[h] = f
	return h, nil
}

// OpenExisting opens path for read-write access without truncating it.
// The writer does not call it: in-place delta overwrites reuse the handle
// the delta segment was created with.
func (p *Pool) OpenExisting(path string) (Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return invalidHandle, fmt.Errorf("filepool: open %s: %w", path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.next
	p.next++
	p.files[h] = f
	return h, nil
}

func (p *Pool) file(h Handle) (*os.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[h]
	if !ok {
		return nil, fmt.Errorf("filepool: unknown handle %d", h)
	}
	return f, nil
}

// Write writes data to h at its current offset.
func (p *Pool) Write(h Handle, data []byte) (int, error) {
	f, err := p.file(h)
	if err != nil {
		return 0, err
	}
	return f.Write(data)
}

// Seek repositions h, mirroring io.Seeker semantics.
func (p *Pool) Seek(h Handle, offset int64, whence int) (int64, error) {
	f, err := p.file(h)
	if err != nil {
		return 0, err
	}
	return f.Seek(offset, whence)
}

// GetOffset returns h's current file position.
func (p *Pool) GetOffset(h Handle) (int64, error) {
	return p.Seek(h, 0, io.SeekCurrent)
}

// ReadAt reads len(buf) bytes from h starting at offset, without moving
// h's current position.
func (p *Pool) ReadAt(h Handle, buf []byte, offset int64) (int, error) {
	f, err := p.file(h)
	if err != nil {
		return 0, err
	}
	return f.ReadAt(buf, offset)
}

// Close releases h. Further use of h is an error.
func (p *Pool) Close(h Handle) error {
	p.mu.Lock()
	f, ok := p.files[h]
	if ok {
		delete(p.files, h)
	}
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("filepool: unknown handle %d", h)
	}
	return f.Close()
}

// CloseAll releases every open handle. Writer.Finalize calls it once the
// last segment is closed; the pool's owner may also call it on shutdown.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	files := p.files
	p.files = make(map[Handle]*os.File)
	p.mu.Unlock()

	var firstErr error
	for _, f := range files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
