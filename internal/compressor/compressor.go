// Package compressor implements the Compressor collaborator named in
// spec.md §6: Deflate(src, dst) -> (written, status), where status
// distinguishes a clean write from "destination too small" from a hard
// error. This is the one external collaborator spec.md explicitly asks us
// to consume rather than specify; we still need a concrete implementation
// for the module to run, grounded on asalih-go-ewf's shared.ZlibCompressor
// but built against klauspost/compress/zlib, the faster drop-in zlib also
// used by i5heu-ouroboros-db and dragonflyoss-nydus's nydusify.
package compressor

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Status is the tri-state result of a Deflate call, per spec.md §6.
type Status uint8

const (
	StatusOK Status = iota
	StatusBufferTooSmall
	StatusError
)

// Level mirrors the engine's CompressionLevel enum without importing the
// root package (avoiding an import cycle); the root package translates.
type Level uint8

const (
	LevelNone Level = iota
	LevelDefault
	LevelFast
	LevelBest
)

func zlibLevel(l Level) int {
	switch l {
	case LevelFast:
		return zlib.BestSpeed
	case LevelBest:
		return zlib.BestCompression
	case LevelDefault:
		return zlib.DefaultCompression
	default:
		return zlib.DefaultCompression
	}
}

// Compressor deflates chunk payloads. A single Compressor is reused across
// every chunk in one writer's lifetime, amortizing the zlib.Writer
// allocation the way asalih-go-ewf's ZlibCompressor does.
type Compressor struct {
	mu    sync.Mutex
	level Level

	buf *bytes.Buffer
	wr  *zlib.Writer
}

// New returns a Compressor at the given level. The level is fixed for the
// Compressor's lifetime.
func New(level Level) (*Compressor, error) {
	buf := bytes.NewBuffer(nil)
	wr, err := zlib.NewWriterLevel(buf, zlibLevel(level))
	if err != nil {
		return nil, fmt.Errorf("compressor: %w", err)
	}
	return &Compressor{level: level, buf: buf, wr: wr}, nil
}

// Deflate compresses src into dst, returning the number of bytes written
// and a status. If dst is too small to hold the compressed stream, it
// returns StatusBufferTooSmall and the required size via requiredSize; the
// caller (the Chunk Processor) is responsible for growing its managed
// cache and retrying, per spec.md §4.A step 2.
func (c *Compressor) Deflate(src []byte, dst []byte) (written int, status Status, requiredSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf.Reset()
	c.wr.Reset(c.buf)

	if _, err := c.wr.Write(src); err != nil {
		_ = c.wr.Close()
		return 0, StatusError, 0
	}
	if err := c.wr.Close(); err != nil {
		return 0, StatusError, 0
	}

	out := c.buf.Bytes()
	if len(out) > len(dst) {
		return 0, StatusBufferTooSmall, len(out)
	}

	return copy(dst, out), StatusOK, 0
}

// Decompress inflates a zlib stream. The write path never calls it; the
// package tests use it to check Deflate's output.
func Decompress(src []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
