// Component D: Segment File Writer. Emits the on-disk structures spec.md
// §4.D and §6 describe: file header, header/header2, volume/disk/data,
// the sectors+table(+table2) chunks section with its correction pass, and
// the session/error2/hash/digest trailer sections before the terminator.
package ewf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hoyt-harness/libewf/internal/chunkproc"
	"github.com/hoyt-harness/libewf/internal/filepool"
	"github.com/hoyt-harness/libewf/internal/offsettable"
)

// segmentWriter is the stateless (per-call) component that knows how to
// serialize sections; all per-write state lives on *segment and
// *chunksSection, which the coordinator owns.
type segmentWriter struct {
	pool    *filepool.Pool
	profile formatProfile
	logger  Logger
}

func newSegmentWriter(pool *filepool.Pool, profile formatProfile, logger Logger) *segmentWriter {
	return &segmentWriter{pool: pool, profile: profile, logger: logger}
}

// createSegment opens a new segment file on disk and writes its file
// header, per spec.md §6.
func (w *segmentWriter) createSegment(path string, number uint32, typ segmentFileType) (*segment, error) {
	h, err := w.pool.Open(path)
	if err != nil {
		return nil, wrapIOError("create segment", 0, err)
	}
	seg := &segment{number: number, typ: typ, path: path, pool: w.pool, handle: h, writeOpen: true}

	hdr := newFileHeader(uint16(number), typ)
	if err := binary.Write(seg.writer(), binary.LittleEndian, hdr); err != nil {
		return nil, wrapIOError("write file header", 0, err)
	}
	return seg, nil
}

// writeStart emits the segment-opening sections: header/header2 + volume
// (or disk) on segment 1, or a re-emitted "data" section on later segments,
// per spec.md §4.D write_start. deltaMode is true for delta (DWF) segments:
// every delta segment carries only its own header/header2, never a
// volume/data section — the media geometry lives in the primary image, and
// spec.md §4.F never mentions a delta volume section.
func (w *segmentWriter) writeStart(seg *segment, media *MediaValues, hdr *headerSection, dataCache *dataSection, level CompressionLevel, deltaMode bool) (int64, error) {
	start, err := seg.offset()
	if err != nil {
		return 0, err
	}

	switch {
	case deltaMode:
		if err := w.writeHeaderSections(seg, hdr); err != nil {
			return 0, err
		}
	case seg.number == 1:
		if err := w.writeHeaderSections(seg, hdr); err != nil {
			return 0, err
		}
		if w.profile.hasDisk {
			if err := w.writeVolumeLegacy(seg, media); err != nil {
				return 0, err
			}
		} else {
			if err := w.writeVolumeData(seg, media, level); err != nil {
				return 0, err
			}
		}
	default:
		if err := w.writeDataSection(seg, dataCache); err != nil {
			return 0, err
		}
	}

	end, err := seg.offset()
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

func (w *segmentWriter) writeHeaderSections(seg *segment, hdr *headerSection) error {
	body := hdr.serialize()

	comp, err := newHeaderCompressor()
	if err != nil {
		return err
	}

	compressed, err := deflateAll(comp, body)
	if err != nil {
		return err
	}
	if err := w.writeRawSection(seg, sectionHeader, compressed); err != nil {
		return err
	}

	if w.profile.hasHeader2 {
		u16 := utf8ToUTF16(string(body))
		compressed2, err := deflateAll(comp, u16)
		if err != nil {
			return err
		}
		if err := w.writeRawSection(seg, sectionHeader2, compressed2); err != nil {
			return err
		}
	}
	return nil
}

// writeRawSection writes one fixed-content section: descriptor (with Size
// and Next computed from the known payload length) followed by the raw
// payload bytes. Used for header/header2 (already-compressed byte blobs).
func (w *segmentWriter) writeRawSection(seg *segment, kind string, payload []byte) error {
	pos, err := seg.offset()
	if err != nil {
		return err
	}

	desc := newSectionDescriptorData(kind)
	desc.Size = uint64(len(payload)) + sectionDescriptorSize
	desc.Next = desc.Size + uint64(pos)

	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return wrapIOError("write "+kind+" descriptor", pos, err)
	}
	if _, err := seg.pool.Write(seg.handle, payload); err != nil {
		return wrapIOError("write "+kind+" payload", pos, err)
	}

	seg.sectionDescriptors = append(seg.sectionDescriptors, sectionDescriptor{Kind: kind, StartOffset: pos, DataSize: uint64(len(payload))})
	return nil
}

// writeFixedStruct writes one section whose payload is a fixed-layout
// struct ending in its own Checksum field (volume/data/digest/hash).
func (w *segmentWriter) writeFixedStruct(seg *segment, kind string, payload interface{}, payloadSize int) error {
	pos, err := seg.offset()
	if err != nil {
		return err
	}

	desc := newSectionDescriptorData(kind)
	desc.Size = uint64(payloadSize) + sectionDescriptorSize
	desc.Next = desc.Size + uint64(pos)

	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return wrapIOError("write "+kind+" descriptor", pos, err)
	}
	if _, _, err := writeWithChecksum(seg.writer(), payload); err != nil {
		return wrapIOError("write "+kind+" payload", pos, err)
	}

	seg.sectionDescriptors = append(seg.sectionDescriptors, sectionDescriptor{Kind: kind, StartOffset: pos, DataSize: uint64(payloadSize)})
	return nil
}

func (w *segmentWriter) writeVolumeLegacy(seg *segment, media *MediaValues) error {
	v := newVolumeSectionLegacy(media)
	return w.writeFixedStruct(seg, sectionDisk, v, binary.Size(v))
}

func (w *segmentWriter) writeVolumeData(seg *segment, media *MediaValues, level CompressionLevel) error {
	v := newVolumeSectionData(media, level)
	return w.writeFixedStruct(seg, sectionVolume, v, binary.Size(v))
}

func (w *segmentWriter) writeDataSection(seg *segment, cache *dataSection) error {
	return w.writeFixedStruct(seg, sectionData, cache, binary.Size(cache))
}

// writeChunksSectionStart writes the placeholder "sectors" descriptor that
// opens a chunks section, per spec.md §4.D write_chunks_section_start.
// Its Size/Next fields are corrected once the section closes.
func (w *segmentWriter) writeChunksSectionStart(seg *segment) (*chunksSection, int64, error) {
	pos, err := seg.offset()
	if err != nil {
		return nil, 0, err
	}

	desc := newSectionDescriptorData(sectionSectors)
	// Size/Next are placeholders, corrected by writeChunksCorrection.
	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return nil, 0, wrapIOError("write sectors descriptor", pos, err)
	}

	end, err := seg.offset()
	if err != nil {
		return nil, 0, err
	}

	cs := &chunksSection{sectorsOffset: pos}
	return cs, end - pos, nil
}

// writeChunkData appends one already-processed chunk's payload and records
// its offset-table entry, per spec.md §4.D write_chunk_data.
func (w *segmentWriter) writeChunkData(seg *segment, cs *chunksSection, chunkIdx int, result chunkproc.Result, table *offsettable.Table) (int64, error) {
	pos, err := seg.offset()
	if err != nil {
		return 0, err
	}

	if !cs.baseOffsetSet {
		cs.baseOffset = uint64(pos)
		cs.baseOffsetSet = true
	}

	n, err := seg.pool.Write(seg.handle, result.Payload)
	if err != nil {
		return 0, wrapIOError("write chunk payload", pos, err)
	}
	total := n

	if result.WriteCRC {
		var crcBytes [4]byte
		binary.LittleEndian.PutUint32(crcBytes[:], result.CRC)
		m, err := seg.pool.Write(seg.handle, crcBytes[:])
		if err != nil {
			return 0, wrapIOError("write chunk crc", pos, err)
		}
		total += m
	}

	rel := uint64(pos) - cs.baseOffset
	if rel > 0x7FFFFFFF {
		return 0, fmt.Errorf("%w: chunk offset exceeds 31-bit table range", ErrExceedsMaximum)
	}
	cs.entries = append(cs.entries, encodeTableOffset(uint32(rel), result.IsCompressed))

	if err := table.Set(chunkIdx, offsettable.Entry{
		Handle:     seg,
		FileOffset: pos,
		Size:       uint32(total),
		Compressed: result.IsCompressed,
	}); err != nil {
		return 0, err
	}

	return int64(total), nil
}

// writeChunksCorrection rewrites the sectors section header with its final
// size, then appends the table (and, where present, table2) sections, per
// spec.md §4.D write_chunks_correction. It leaves the file position at
// end-of-file afterward.
func (w *segmentWriter) writeChunksCorrection(seg *segment, cs *chunksSection) (int64, error) {
	endOfPayload, err := seg.offset()
	if err != nil {
		return 0, err
	}

	dataSize := uint64(endOfPayload - cs.sectorsOffset - int64(sectionDescriptorSize))
	desc := newSectionDescriptorData(sectionSectors)
	desc.Size = dataSize + sectionDescriptorSize
	desc.Next = uint64(cs.sectorsOffset) + desc.Size

	if _, err := seg.pool.Seek(seg.handle, cs.sectorsOffset, io.SeekStart); err != nil {
		return 0, wrapIOError("seek to sectors header", cs.sectorsOffset, err)
	}
	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return 0, wrapIOError("rewrite sectors descriptor", cs.sectorsOffset, err)
	}

	if _, err := seg.pool.Seek(seg.handle, endOfPayload, io.SeekStart); err != nil {
		return 0, wrapIOError("seek to end of chunk payloads", endOfPayload, err)
	}

	seg.sectionDescriptors = append(seg.sectionDescriptors, sectionDescriptor{Kind: sectionSectors, StartOffset: cs.sectorsOffset, DataSize: dataSize})

	tableBytes, err := serializeTable(cs.baseOffset, cs.entries)
	if err != nil {
		return 0, err
	}

	n1, err := w.writeTableSection(seg, sectionTable, tableBytes)
	if err != nil {
		return 0, err
	}
	total := n1

	if w.profile.overhead.HasTable2 {
		n2, err := w.writeTableSection(seg, sectionTable2, tableBytes)
		if err != nil {
			return 0, err
		}
		total += n2
	}

	return total, nil
}

func (w *segmentWriter) writeTableSection(seg *segment, kind string, body []byte) (int64, error) {
	pos, err := seg.offset()
	if err != nil {
		return 0, err
	}

	desc := newSectionDescriptorData(kind)
	desc.Size = uint64(len(body)) + sectionDescriptorSize
	desc.Next = desc.Size + uint64(pos)

	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return 0, wrapIOError("write "+kind+" descriptor", pos, err)
	}
	if _, err := seg.pool.Write(seg.handle, body); err != nil {
		return 0, wrapIOError("write "+kind+" body", pos, err)
	}

	seg.sectionDescriptors = append(seg.sectionDescriptors, sectionDescriptor{Kind: kind, StartOffset: pos, DataSize: uint64(len(body))})
	return int64(len(body)) + int64(sectionDescriptorSize), nil
}

// writeLastSection writes the "next" (more segments follow) or "done"
// (final segment) terminator, per spec.md §4.D write_last_section. Per
// the teacher's done.go convention, the terminator's Next field
// self-references its own offset.
func (w *segmentWriter) writeLastSection(seg *segment, isLastSegment bool) error {
	pos, err := seg.offset()
	if err != nil {
		return err
	}

	kind := sectionNext
	if isLastSegment {
		kind = sectionDone
	}

	desc := newSectionDescriptorData(kind)
	desc.Size = sectionDescriptorSize
	desc.Next = uint64(pos)

	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return wrapIOError("write "+kind+" terminator", pos, err)
	}

	seg.sectionDescriptors = append(seg.sectionDescriptors, sectionDescriptor{Kind: kind, StartOffset: pos, DataSize: 0})
	return nil
}

// closeSegmentNonFinal closes a segment that is full but not the image's
// last segment: just the "next" terminator, no trailer sections (those
// only belong on the true last segment, once hashing over the whole image
// has actually completed).
func (w *segmentWriter) closeSegmentNonFinal(seg *segment) error {
	if err := w.writeLastSection(seg, false); err != nil {
		return err
	}
	seg.writeOpen = false
	return nil
}

// closeSegmentFinal writes the session/error2/hash/digest trailer sections
// (spec.md §4.D write_close) followed by the "done" terminator, and clears
// the segment's write-open flag.
func (w *segmentWriter) closeSegmentFinal(seg *segment, hash *HashValues, sessions []Session, errs []AcquiryError) error {
	if len(errs) > 0 {
		if err := w.writeError2(seg, errs); err != nil {
			return err
		}
	}
	if len(sessions) > 0 {
		if err := w.writeSession(seg, sessions); err != nil {
			return err
		}
	}
	if hash != nil {
		if err := w.writeDigest(seg, hash); err != nil {
			return err
		}
		if err := w.writeHash(seg, hash); err != nil {
			return err
		}
	}
	if err := w.writeLastSection(seg, true); err != nil {
		return err
	}
	seg.writeOpen = false
	return nil
}

func (w *segmentWriter) writeDigest(seg *segment, hash *HashValues) error {
	d := &digestSection{MD5: hash.MD5, SHA1: hash.SHA1}
	return w.writeFixedStruct(seg, sectionDigest, d, binary.Size(d))
}

func (w *segmentWriter) writeHash(seg *segment, hash *HashValues) error {
	h := &hashSection{MD5: hash.MD5}
	return w.writeFixedStruct(seg, sectionHash, h, binary.Size(h))
}

func (w *segmentWriter) writeSession(seg *segment, sessions []Session) error {
	body, err := serializeSessions(sessions)
	if err != nil {
		return err
	}
	return w.writeRawSection(seg, sectionSession, body)
}

func (w *segmentWriter) writeError2(seg *segment, errs []AcquiryError) error {
	body, err := serializeErrors(errs)
	if err != nil {
		return err
	}
	return w.writeRawSection(seg, sectionError2, body)
}

// writeDeltaChunk writes one delta_chunk section: descriptor, header, raw
// bytes, trailing 4-byte checksum — delta chunks are never compressed, per
// spec.md §4.F's precondition. Returns the file offset of the raw payload
// (what the offset table records) and the total bytes written.
//
// When appendToSectionList is false, the write is an in-place overwrite at
// a previously-recorded offset: the segment's section-descriptor list is
// left untouched, matching spec.md §4.D's write_delta_chunk
// no_section_append contract.
func (w *segmentWriter) writeDeltaChunk(seg *segment, chunkNumber uint32, raw []byte, appendToSectionList bool) (payloadOffset int64, total int64, err error) {
	pos, err := seg.offset()
	if err != nil {
		return 0, 0, err
	}

	hdrSize := uint64(binary.Size(&deltaChunkHeader{}))
	payloadSize := hdrSize + uint64(len(raw)) + checksumSize

	desc := newSectionDescriptorData(sectionDeltaChunk)
	desc.Size = payloadSize + sectionDescriptorSize
	desc.Next = desc.Size + uint64(pos)

	if _, _, err := writeWithChecksum(seg.writer(), desc); err != nil {
		return 0, 0, wrapIOError("write delta_chunk descriptor", pos, err)
	}

	dch := &deltaChunkHeader{ChunkNumber: chunkNumber, ChunkSize: uint32(len(raw))}
	if _, _, err := writeWithChecksum(seg.writer(), dch); err != nil {
		return 0, 0, wrapIOError("write delta_chunk header", pos, err)
	}

	payloadOffset, err = seg.offset()
	if err != nil {
		return 0, 0, err
	}

	if _, err := seg.pool.Write(seg.handle, raw); err != nil {
		return 0, 0, wrapIOError("write delta_chunk payload", payloadOffset, err)
	}
	crc := checksum32(raw)
	var crcBytes [4]byte
	binary.LittleEndian.PutUint32(crcBytes[:], crc)
	if _, err := seg.pool.Write(seg.handle, crcBytes[:]); err != nil {
		return 0, 0, wrapIOError("write delta_chunk checksum", payloadOffset, err)
	}

	if appendToSectionList {
		seg.sectionDescriptors = append(seg.sectionDescriptors, sectionDescriptor{Kind: sectionDeltaChunk, StartOffset: pos, DataSize: payloadSize})
	}

	end, err := seg.offset()
	if err != nil {
		return 0, 0, err
	}
	return payloadOffset, end - pos, nil
}

// rollBackTerminator drops the segment's trailing next/done terminator
// from its descriptor list and seeks the write position back to the
// terminator's start offset; the terminator's bytes stay on disk until a
// subsequent write overwrites them, per spec.md §4.F step 2's
// "roll back to the start offset of its terminator section" reuse path.
func (w *segmentWriter) rollBackTerminator(seg *segment) (int64, error) {
	n := len(seg.sectionDescriptors)
	if n == 0 {
		return 0, fmt.Errorf("ewf: segment %d has no terminator to roll back", seg.number)
	}
	last := seg.sectionDescriptors[n-1]
	if last.Kind != sectionNext && last.Kind != sectionDone {
		return 0, fmt.Errorf("ewf: segment %d's last section is %q, not a terminator", seg.number, last.Kind)
	}

	seg.sectionDescriptors = seg.sectionDescriptors[:n-1]
	if _, err := seg.pool.Seek(seg.handle, last.StartOffset, io.SeekStart); err != nil {
		return 0, wrapIOError("seek to terminator for rollback", last.StartOffset, err)
	}
	return last.StartOffset, nil
}
