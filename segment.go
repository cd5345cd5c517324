package ewf

import (
	"fmt"

	"github.com/hoyt-harness/libewf/internal/filepool"
)

// segment is one open (or closed) segment file: the concrete SegmentHandle
// the offset table borrows references to, plus the bookkeeping the
// segment writer needs to run the correction and terminator passes.
//
// Per spec.md §9, a segment owns its section-descriptor list; the offset
// table references a segment without owning it.
type segment struct {
	number uint32
	typ    segmentFileType
	path   string

	pool   *filepool.Pool
	handle filepool.Handle

	sectionDescriptors []sectionDescriptor
	writeOpen          bool
}

func (s *segment) SegmentNumber() uint32 { return s.number }
func (s *segment) IsDelta() bool         { return s.typ == segmentTypeDWF }

func (s *segment) writer() poolWriter { return poolWriter{pool: s.pool, h: s.handle} }

func (s *segment) offset() (int64, error) {
	return s.pool.GetOffset(s.handle)
}

// chunksSection is the per-open-chunks-section scratch state: the sectors
// header's file offset (for the correction pass), the base offset every
// table entry is relative to, and the accumulated table-offset entries
// (spec.md §3's table_offsets scratch buffer).
type chunksSection struct {
	sectorsOffset int64
	baseOffset    uint64
	baseOffsetSet bool
	entries       []uint32
}

func newSegmentPath(basePath string, number uint32, typ segmentFileType) string {
	ext := "E01"
	if typ == segmentTypeDWF {
		ext = "d01"
	}
	if number > 1 {
		// Legacy EnCase segment extensions roll E01 -> E02 -> ... ; we
		// don't attempt the full EAA.. wraparound past two digits, which
		// is outside the budget of this engine (media that large needs a
		// segment_file_size large enough to avoid it in practice).
		ext = fmt.Sprintf("%c%02d", ext[0], number)
	}
	return fmt.Sprintf("%s.%s", basePath, ext)
}
