// Package chunkproc implements the Chunk Processor (spec.md §4.A): given a
// chunk buffer, it compresses (optionally), computes the checksum, and
// produces the write-ready payload plus the bookkeeping the segment writer
// needs (is it compressed, what checksum, does the caller need to append
// the checksum itself).
package chunkproc

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hoyt-harness/libewf/internal/compressor"
)

// Level mirrors the root package's CompressionLevel without an import
// cycle.
type Level = compressor.Level

const (
	LevelNone    = compressor.LevelNone
	LevelDefault = compressor.LevelDefault
	LevelFast    = compressor.LevelFast
	LevelBest    = compressor.LevelBest
)

// ChecksumFunc computes the format's 32-bit checksum (adler32, seed 1) over
// raw chunk bytes. Injected so this package doesn't depend on the root
// package's checksum helper.
type ChecksumFunc func([]byte) uint32

// Config carries the per-chunk, per-writer-lifetime settings spec.md §4.A
// lists as Chunk Processor inputs.
type Config struct {
	Level              Level
	CompressEmptyBlock bool
	EWFFormatIsS01     bool
	Checksum           ChecksumFunc
}

// Result is what the Chunk Processor hands back to the coordinator/segment
// writer, per spec.md §4.A's return contract.
type Result struct {
	// Payload is the bytes to write to disk: either the compressed stream
	// or the raw chunk with its checksum, depending on IsCompressed and
	// WriteCRC.
	Payload []byte

	IsCompressed bool
	CRC          uint32

	// WriteCRC is true when Payload does not already carry the checksum
	// (i.e. the caller must append 4 little-endian bytes itself); false
	// when the checksum is already appended in-place (the processor's own
	// scratch buffer case).
	WriteCRC bool
}

// Processor compresses and checksums chunks. One Processor is reused across
// every chunk in a writer's lifetime.
//
// The "engine's managed cache" spec.md §4.A step 2 describes is an LRU
// keyed by chunk size, so a process that writes images at more than one
// chunk_size (e.g. an EWF-S01 re-acquisition at a different geometry)
// reuses the scratch buffer for each size it has seen instead of
// reallocating on every chunk, while bounding how many distinct sizes it
// holds onto at once.
type Processor struct {
	compress *compressor.Compressor
	cache    *lru.Cache[int, []byte]
}

// New returns a Processor. chunkSize sizes the initial scratch buffer; it
// grows on demand (spec.md §4.A step 2).
func New(level Level, chunkSize int) (*Processor, error) {
	c, err := compressor.New(level)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[int, []byte](8)
	if err != nil {
		return nil, err
	}
	cache.Add(chunkSize, make([]byte, chunkSize+chunkSize/1000+128))
	return &Processor{compress: c, cache: cache}, nil
}

// scratch returns the cached buffer for exactly this chunk size, growing
// and caching a new one if none exists yet or the cached one is too small.
func (p *Processor) scratch(chunkSize int) []byte {
	if buf, ok := p.cache.Get(chunkSize); ok && len(buf) >= chunkSize {
		return buf
	}
	buf := make([]byte, chunkSize+chunkSize/1000+128)
	p.cache.Add(chunkSize, buf)
	return buf
}

// growScratch replaces the cached buffer for chunkSize with one that can
// hold minSize bytes, per spec.md §4.A step 2's grow-and-retry contract.
func (p *Processor) growScratch(chunkSize, minSize int) []byte {
	buf := make([]byte, minSize+minSize/4+64)
	p.cache.Add(chunkSize, buf)
	return buf
}

// isSingleValueBlock reports whether every byte in chunk equals chunk[0],
// generalizing libewf_write_io_handle's all-zero-block check (spec.md §12)
// to any repeated byte value.
func isSingleValueBlock(chunk []byte) bool {
	if len(chunk) == 0 {
		return false
	}
	first := chunk[0]
	for _, b := range chunk[1:] {
		if b != first {
			return false
		}
	}
	return true
}

// Process runs the full spec.md §4.A pipeline on one chunk.
//
// rawBufferIsCallerOwned distinguishes the two WriteCRC outcomes in step 4:
// true when the caller supplied the raw+CRC destination buffer (WriteCRC
// ends up true, caller appends the checksum itself), false when Process may
// use its own internal scratch buffer (checksum appended in-place,
// WriteCRC false).
func (p *Processor) Process(chunk []byte, cfg Config, rawBufferIsCallerOwned bool) (Result, error) {
	if len(chunk) == 0 {
		return Result{}, errInvalidArgument("empty chunk")
	}

	level := cfg.Level
	if level == LevelNone && cfg.CompressEmptyBlock && isSingleValueBlock(chunk) {
		level = LevelDefault
	}

	shouldAttemptCompress := cfg.EWFFormatIsS01 || level != LevelNone
	var compressed []byte
	var compressedOK bool

	if shouldAttemptCompress {
		dst := p.scratch(len(chunk))
		written, status, required := p.compress.Deflate(chunk, dst)
		if status == compressor.StatusBufferTooSmall {
			dst = p.growScratch(len(chunk), required)
			written, status, _ = p.compress.Deflate(chunk, dst)
		}
		switch status {
		case compressor.StatusOK:
			compressed = dst[:written]
			compressedOK = true
		default:
			if cfg.EWFFormatIsS01 {
				return Result{}, errCompressionFailed()
			}
			// Non-S01 formats may fall back to raw storage below.
		}
	}

	useCompressed := cfg.EWFFormatIsS01 || (compressedOK && len(compressed) < len(chunk))

	if useCompressed {
		if !compressedOK {
			return Result{}, errCompressionFailed()
		}
		crc := crcFromCompressedTail(compressed)
		out := make([]byte, len(compressed))
		copy(out, compressed)
		return Result{Payload: out, IsCompressed: true, CRC: crc, WriteCRC: false}, nil
	}

	crc := cfg.Checksum(chunk)
	if rawBufferIsCallerOwned {
		return Result{Payload: chunk, IsCompressed: false, CRC: crc, WriteCRC: true}, nil
	}

	out := make([]byte, len(chunk)+4)
	copy(out, chunk)
	out[len(chunk)] = byte(crc)
	out[len(chunk)+1] = byte(crc >> 8)
	out[len(chunk)+2] = byte(crc >> 16)
	out[len(chunk)+3] = byte(crc >> 24)
	return Result{Payload: out, IsCompressed: false, CRC: crc, WriteCRC: false}, nil
}

// crcFromCompressedTail returns the last 4 bytes of a compressed stream:
// zlib's own trailing checksum (adler32 of the uncompressed data, stored
// big-endian per RFC 1950), which the format reuses as the chunk's
// checksum (spec.md §4.A step 4). The bytes are never re-emitted
// separately for a compressed chunk, so this value is bookkeeping only.
func crcFromCompressedTail(compressed []byte) uint32 {
	if len(compressed) < 4 {
		return 0
	}
	tail := compressed[len(compressed)-4:]
	return binary.BigEndian.Uint32(tail)
}
