// Package planner implements the Capacity Planner (spec.md §4.B): pure
// integer-arithmetic functions that predict, before any chunk is written,
// how many chunks will fit in the current segment file and the current
// chunks section given remaining space, format-specific per-section
// overhead, and the hard format limits on offsets and section counts.
//
// Every function here is a pure function over its arguments; none of them
// touch I/O or hold state. The caller (the write coordinator) is
// responsible for re-invoking them whenever a segment or section is opened,
// per spec.md §4.E.
package planner

import "math"

// SectionOverhead describes the per-chunk and per-section byte cost that
// varies by (EWFFormat, Format) — spec.md §4.B steps 1 and 3. The
// coordinator's format dispatch table supplies one of these per write.
type SectionOverhead struct {
	// PerChunk is the average byte cost added to every chunk beyond its
	// compressed/raw payload: the deflate tax estimate for S01 (16), or
	// the 4-byte trailing checksum for raw+CRC chunks elsewhere.
	PerChunk uint64

	// SectionDescriptorSize is the fixed 76-byte section header size,
	// used to size the required_sections reservation.
	SectionDescriptorSize uint64

	// TableOffsetSize is the width of one table entry (4 bytes).
	TableOffsetSize uint64

	// HasTable2 is true for every format except S01, which has no
	// mirrored table2 section.
	HasTable2 bool
}

const (
	maxUint32 = uint64(1)<<32 - 1
	maxInt31  = uint64(1)<<31 - 1
)

// ChunksPerSegment estimates the total chunks the current segment will
// hold, following spec.md §4.B's seven-step algorithm verbatim, including
// the preserved-as-is modulo in step 2 (spec §9 open question).
func ChunksPerSegment(
	remaining uint64,
	maxSectionChunks uint32,
	segmentChunksSoFar uint32,
	totalChunksSoFar uint32,
	chunkSize uint32,
	overhead SectionOverhead,
	mediaSize uint64,
	amountOfChunks uint32,
	unrestrict bool,
) uint64 {
	perChunk := chunkSize64(chunkSize) + overhead.PerChunk

	// Step 1.
	maxChunks := remaining / perChunk

	// Step 2: preserved as modulo, not ceiling division, per the source.
	var requiredSections uint64
	if unrestrict {
		requiredSections = 1
	} else if maxSectionChunks > 0 {
		requiredSections = maxChunks % uint64(maxSectionChunks)
	}

	// Step 3: reserve per-section overhead from remaining, format-specific.
	var reserved uint64
	sec := overhead.SectionDescriptorSize
	off := overhead.TableOffsetSize
	if overhead.HasTable2 {
		// (3*sizeof(section)+8) * required_sections + 2*sizeof(table_offset) * max_chunks
		reserved = (3*sec+8)*requiredSections + 2*off*maxChunks
	} else if overhead.PerChunk == 16 {
		// S01: sizeof(section) * required_sections + sizeof(table_offset) * max_chunks
		reserved = sec*requiredSections + off*maxChunks
	} else {
		// ENCASE1: (sizeof(section)+4) * required_sections + sizeof(table_offset) * max_chunks
		reserved = (sec+4)*requiredSections + off*maxChunks
	}

	var budget uint64
	if reserved < remaining {
		budget = remaining - reserved
	}

	// Step 4: preliminary estimate from the post-reservation budget.
	estimate := budget / perChunk

	// Step 5: clamp by remaining media chunks, if media size is known.
	if mediaSize > 0 && amountOfChunks > uint32(totalChunksSoFar) {
		remainingMediaChunks := uint64(amountOfChunks) - uint64(totalChunksSoFar)
		if estimate > remainingMediaChunks {
			estimate = remainingMediaChunks
		}
	}

	// Step 6: return a total, not a delta.
	total := estimate + uint64(segmentChunksSoFar)

	// Step 7: saturate at 2^32-1.
	if total > maxUint32 {
		total = maxUint32
	}
	return total
}

func chunkSize64(c uint32) uint64 { return uint64(c) }

// ChunksPerChunksSection returns how many chunks the next chunks section
// within the current segment may hold, per spec.md §4.B.
//
// ok is false when the computed remaining budget is <= 0 (the source's
// error case): the segment has no room left for this section number at
// all, and the caller must treat this as a planning failure.
func ChunksPerChunksSection(
	maxSectionChunks uint32,
	chunksPerSegment uint64,
	sectionNumber uint32,
	unrestrict bool,
) (result uint64, ok bool) {
	if sectionNumber == 0 {
		sectionNumber = 1
	}

	consumed := uint64(sectionNumber-1) * uint64(maxSectionChunks)
	if consumed >= chunksPerSegment {
		return 0, false
	}
	remaining := chunksPerSegment - consumed

	if !unrestrict && maxSectionChunks > 0 && remaining > uint64(maxSectionChunks) {
		remaining = uint64(maxSectionChunks)
	}

	if remaining > maxInt31 {
		remaining = maxInt31
	}
	return remaining, true
}

// SegmentFullInput bundles the counters SegmentFileFull needs; it mirrors
// the coordinator's own state (spec.md §3) rather than duplicating field
// names differently.
type SegmentFullInput struct {
	SegmentChunks    uint32
	ChunksPerSegment uint64
	TotalChunks      uint32
	AmountOfChunks   uint32 // 0 = unknown
	InputWriteCount  uint64
	MediaSize        uint64 // 0 = unknown
	RemainingBytes   uint64
	ChunkSize        uint32
	RestrictedFormat bool // true for S01/ENCASE1
}

// SegmentFileFull implements spec.md §4.B's segment_file_full predicate.
func SegmentFileFull(in SegmentFullInput) bool {
	if in.AmountOfChunks > 0 && in.TotalChunks >= in.AmountOfChunks {
		return true
	}
	if in.MediaSize > 0 && in.InputWriteCount >= in.MediaSize {
		return true
	}
	if in.RestrictedFormat && uint64(in.SegmentChunks) >= in.ChunksPerSegment {
		return true
	}
	oneMore := uint64(in.ChunkSize) + 4
	return in.RemainingBytes < oneMore
}

// ChunksSectionFullInput bundles the counters ChunksSectionFull needs.
type ChunksSectionFullInput struct {
	SectionOpen            bool
	SectionChunks          uint32
	MaxSectionChunks       uint32
	ChunksPerChunksSection uint64
	TotalChunks            uint32
	AmountOfChunks         uint32
	InputWriteCount        uint64
	MediaSize              uint64
	RemainingBytes         uint64
	ChunkSize              uint32
	RestrictedFormat       bool
	Unrestrict             bool
	SegmentOffset          int64
	SectionOffset          int64
}

// ChunksSectionFull implements spec.md §4.B's chunks_section_full predicate.
func ChunksSectionFull(in ChunksSectionFullInput) bool {
	if !in.SectionOpen {
		return false
	}
	if in.AmountOfChunks > 0 && in.TotalChunks >= in.AmountOfChunks {
		return true
	}
	if in.MediaSize > 0 && in.InputWriteCount >= in.MediaSize {
		return true
	}
	// max_section_chunks cap: the raw configured limit, every format.
	if !in.Unrestrict && uint64(in.SectionChunks) >= uint64(in.MaxSectionChunks) {
		return true
	}
	if uint64(in.SectionChunks) > maxInt31 {
		return true
	}
	if in.SegmentOffset-in.SectionOffset > int64(maxInt31) {
		return true
	}
	// chunks_per_chunks_section estimate: S01/ENCASE1 only, distinct from
	// the max_section_chunks cap above.
	if in.RestrictedFormat && uint64(in.SectionChunks) >= in.ChunksPerChunksSection {
		return true
	}
	oneMore := uint64(in.ChunkSize) + 4
	return in.RemainingBytes < oneMore
}

// clampUint32 saturates a uint64 into the uint32 range, used wherever the
// spec calls for 2^32-1 saturation.
func clampUint32(v uint64) uint32 {
	if v > maxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// ClampUint32 is the exported form of clampUint32 for callers outside this
// package that need the same saturation rule (spec.md §4.B step 7).
func ClampUint32(v uint64) uint32 { return clampUint32(v) }
