package chunkproc

import (
	"hash/adler32"
	"testing"
)

func testChecksum(b []byte) uint32 { return adler32.Checksum(b) }

func TestProcessRawWhenLevelNone(t *testing.T) {
	p, err := New(LevelNone, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunk := make([]byte, 64)
	for i := range chunk {
		chunk[i] = byte(i * 37)
	}

	res, err := p.Process(chunk, Config{Level: LevelNone, Checksum: testChecksum}, true)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.IsCompressed {
		t.Fatal("expected raw storage when level is none")
	}
	if !res.WriteCRC {
		t.Fatal("expected WriteCRC=true for a caller-owned raw buffer")
	}
	if res.CRC != testChecksum(chunk) {
		t.Fatalf("CRC mismatch: got %d, want %d", res.CRC, testChecksum(chunk))
	}
}

func TestProcessCompressesEmptyBlockWhenRequested(t *testing.T) {
	p, err := New(LevelNone, 32768)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunk := make([]byte, 32768)

	res, err := p.Process(chunk, Config{Level: LevelNone, CompressEmptyBlock: true, Checksum: testChecksum}, true)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.IsCompressed {
		t.Fatal("expected an all-zero block to be promoted to compressed")
	}
	if len(res.Payload) >= len(chunk) {
		t.Fatalf("expected compressed payload smaller than raw, got %d bytes", len(res.Payload))
	}
}

func TestProcessS01AlwaysCompresses(t *testing.T) {
	p, err := New(LevelNone, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunk := make([]byte, 64)
	for i := range chunk {
		chunk[i] = byte(i)
	}

	res, err := p.Process(chunk, Config{Level: LevelNone, EWFFormatIsS01: true, Checksum: testChecksum}, true)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.IsCompressed {
		t.Fatal("expected S01 to always store compressed, even at level none")
	}
}

func TestProcessRejectsEmptyChunk(t *testing.T) {
	p, err := New(LevelDefault, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Process(nil, Config{Level: LevelDefault, Checksum: testChecksum}, true); err == nil {
		t.Fatal("expected an error for an empty chunk")
	}
}

func TestProcessInternalBufferAppendsCRCInPlace(t *testing.T) {
	p, err := New(LevelNone, 64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	chunk := make([]byte, 64)
	for i := range chunk {
		chunk[i] = byte(255 - i)
	}

	res, err := p.Process(chunk, Config{Level: LevelNone, Checksum: testChecksum}, false)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.WriteCRC {
		t.Fatal("expected WriteCRC=false when using the processor's own scratch buffer")
	}
	if len(res.Payload) != len(chunk)+4 {
		t.Fatalf("expected payload = chunk + 4-byte CRC, got %d bytes", len(res.Payload))
	}
}
