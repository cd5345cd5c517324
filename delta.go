// Component F: Delta Writer. Overwrites for an already-written chunk go
// into a parallel delta segment chain rather than touching the primary
// image, per spec.md §4.F.
package ewf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hoyt-harness/libewf/internal/offsettable"
)

// deltaSectionHeaderSize is the on-disk overhead a delta_chunk section adds
// beyond its raw payload: the 76-byte section descriptor plus the fixed
// deltaChunkHeader.
var deltaSectionHeaderSize = sectionDescriptorSize + uint64(binary.Size(&deltaChunkHeader{}))

// AppendDeltaChunk writes an overwrite for chunk chunkIdx, per spec.md
// §4.F. The chunk must already have a primary entry in the offset table;
// raw must not be pre-compressed (delta chunks are always stored raw).
func (w *Writer) AppendDeltaChunk(chunkIdx int, raw []byte) (int, error) {
	if w.writeFinalized {
		return 0, nil
	}
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: empty delta chunk", ErrInvalidArgument)
	}

	entry, ok := w.table.Get(chunkIdx)
	if !ok {
		return 0, ErrChunkNotFound
	}

	if entry.Handle.IsDelta() {
		return w.overwriteDeltaChunk(chunkIdx, raw, entry)
	}
	return w.appendDeltaChunk(chunkIdx, raw)
}

// appendDeltaChunk handles the first delta write for a chunk, per spec.md
// §4.F step 2: pick (or open) the last delta segment, making room for the
// new chunk by rolling to a new delta segment if it wouldn't fit.
func (w *Writer) appendDeltaChunk(chunkIdx int, raw []byte) (int, error) {
	if w.curDeltaSegment == nil {
		if err := w.openDeltaSegment(); err != nil {
			return 0, err
		}
	} else {
		fits, err := w.deltaChunkFits(raw)
		if err != nil {
			return 0, err
		}
		if !fits {
			if err := w.sw.closeSegmentNonFinal(w.curDeltaSegment); err != nil {
				return 0, err
			}
			if err := w.openDeltaSegment(); err != nil {
				return 0, err
			}
		} else {
			if _, err := w.sw.rollBackTerminator(w.curDeltaSegment); err != nil {
				return 0, err
			}
		}
	}

	payloadOffset, _, err := w.sw.writeDeltaChunk(w.curDeltaSegment, uint32(chunkIdx), raw, true)
	if err != nil {
		return 0, err
	}
	if err := w.sw.writeLastSection(w.curDeltaSegment, true); err != nil {
		return 0, err
	}

	if err := w.table.Set(chunkIdx, offsettable.Entry{
		Handle:     w.curDeltaSegment,
		FileOffset: payloadOffset,
		Size:       uint32(len(raw)),
		Compressed: false,
	}); err != nil {
		return 0, err
	}

	return len(raw), nil
}

// overwriteDeltaChunk rewrites an existing delta chunk in place, per
// spec.md §4.F step 1's DWF branch: seek to the start of its section
// (payload offset minus the header and descriptor sizes it was written
// with) and rewrite the whole section without touching the segment's
// section list or terminator.
func (w *Writer) overwriteDeltaChunk(chunkIdx int, raw []byte, entry offsettable.Entry) (int, error) {
	seg, ok := entry.Handle.(*segment)
	if !ok {
		return 0, fmt.Errorf("ewf: delta entry for chunk %d has no concrete segment handle", chunkIdx)
	}

	sectionStart := entry.FileOffset - int64(deltaSectionHeaderSize)
	if _, err := seg.pool.Seek(seg.handle, sectionStart, io.SeekStart); err != nil {
		return 0, wrapIOError("seek to delta chunk for overwrite", sectionStart, err)
	}

	payloadOffset, _, err := w.sw.writeDeltaChunk(seg, uint32(chunkIdx), raw, false)
	if err != nil {
		return 0, err
	}

	if err := w.table.Set(chunkIdx, offsettable.Entry{
		Handle:     seg,
		FileOffset: payloadOffset,
		Size:       uint32(len(raw)),
		Compressed: false,
	}); err != nil {
		return 0, err
	}

	return len(raw), nil
}

func (w *Writer) openDeltaSegment() error {
	number := uint32(len(w.deltaSegments)) + 1
	path := newSegmentPath(w.basePath, number, segmentTypeDWF)

	seg, err := w.sw.createSegment(path, number, segmentTypeDWF)
	if err != nil {
		return err
	}
	if _, err := w.sw.writeStart(seg, w.media, w.header, nil, w.cfg.CompressionLevel, true); err != nil {
		return err
	}

	w.deltaSegments = append(w.deltaSegments, seg)
	w.curDeltaSegment = seg
	return nil
}

// deltaChunkFits reports whether raw can be appended to the current delta
// segment without exceeding delta_segment_file_size, per spec.md §4.F
// step 2.
func (w *Writer) deltaChunkFits(raw []byte) (bool, error) {
	pos, err := w.curDeltaSegment.offset()
	if err != nil {
		return false, err
	}
	need := deltaSectionHeaderSize + uint64(len(raw)) + checksumSize + sectionDescriptorSize
	return uint64(pos)+need <= w.cfg.DeltaSegmentFileSize, nil
}
