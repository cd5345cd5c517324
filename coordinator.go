// Component E: Write Coordinator. Writer is the per-chunk state machine
// spec.md §4.E describes: it owns the offset table and the segment list,
// consults the Capacity Planner before every section/segment transition,
// and drives the Segment File Writer through the section-level calls.
package ewf

import (
	"fmt"

	"github.com/hoyt-harness/libewf/internal/chunkproc"
	"github.com/hoyt-harness/libewf/internal/filepool"
	"github.com/hoyt-harness/libewf/internal/offsettable"
	"github.com/hoyt-harness/libewf/internal/planner"
)

// Writer writes one forensic image across one or more segment files. A
// Writer is not safe for concurrent use — per spec.md §5, the engine is
// single-threaded and not re-entrant on the same write context.
type Writer struct {
	cfg      Config
	media    *MediaValues
	profile  formatProfile
	basePath string

	pool   *filepool.Pool
	sw     *segmentWriter
	proc   *chunkproc.Processor
	table  *offsettable.Table
	logger Logger

	header    *headerSection
	dataCache *dataSection

	segments   []*segment
	curSegment *segment
	curSection *chunksSection

	deltaSegments   []*segment
	curDeltaSegment *segment

	remainingSegmentFileSize uint64

	chunksPerSegment       uint64
	chunksPerChunksSection uint64
	chunksSectionOffset    int64
	chunksSectionNumber    uint32

	segmentChunks   uint32
	sectionChunks   uint32
	totalChunks     uint32
	inputWriteCount uint64

	createChunksSection bool
	writeFinalized      bool
}

// NewWriter returns a Writer ready to accept chunks for a new image at
// basePath (segment files are named basePath.E01, basePath.E02, ...).
// headerValues populates the header/header2 section (spec.md §6's "opaque
// value objects produced by caller").
func NewWriter(basePath string, media *MediaValues, headerValues map[string]string, cfg *Config) (*Writer, error) {
	if media == nil {
		return nil, fmt.Errorf("%w: media values required", ErrInvalidArgument)
	}
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	cfgCopy := *cfg
	cfgCopy.fillDefaults()

	profile := profileFor(cfgCopy.EWFFormat, cfgCopy.Format)
	pool := filepool.New()
	sw := newSegmentWriter(pool, profile, cfgCopy.Logger)

	proc, err := chunkproc.New(chunkprocLevel(cfgCopy.CompressionLevel), int(media.ChunkSize))
	if err != nil {
		return nil, err
	}

	table := offsettable.New(media.AmountOfChunks)

	return &Writer{
		cfg:                 cfgCopy,
		media:               media,
		profile:             profile,
		basePath:            basePath,
		pool:                pool,
		sw:                  sw,
		proc:                proc,
		table:               table,
		logger:              cfgCopy.Logger,
		header:              &headerSection{CategoryName: "main", Values: headerValues},
		createChunksSection: true,
	}, nil
}

func chunkprocLevel(l CompressionLevel) chunkproc.Level {
	switch l {
	case CompressionNone:
		return chunkproc.LevelNone
	case CompressionFast:
		return chunkproc.LevelFast
	case CompressionBest:
		return chunkproc.LevelBest
	default:
		return chunkproc.LevelDefault
	}
}

// AppendChunk runs chunk chunkIdx's raw bytes through the Chunk Processor
// and the write-coordinator state machine, per spec.md §4.E. It returns
// the number of input bytes consumed: 0 if the writer is finalized or the
// media size has already been reached (not an error, per spec.md §4.E
// step 1), the input length on success.
func (w *Writer) AppendChunk(chunkIdx int, raw []byte) (int, error) {
	if w.writeFinalized {
		return 0, nil
	}
	if w.table.Has(chunkIdx) {
		return 0, ErrAlreadyWritten
	}
	if w.media.MediaSize > 0 && w.inputWriteCount >= w.media.MediaSize {
		return 0, nil
	}

	if w.curSegment == nil {
		if err := w.openSegment(); err != nil {
			return 0, err
		}
	}

	if w.createChunksSection {
		if err := w.openChunksSection(); err != nil {
			return 0, err
		}
	}

	result, err := w.proc.Process(raw, chunkproc.Config{
		Level:              chunkprocLevel(w.cfg.CompressionLevel),
		CompressEmptyBlock: w.cfg.CompressEmptyBlock,
		EWFFormatIsS01:     w.cfg.EWFFormat == FormatS01,
		Checksum:           checksum32,
	}, true)
	if err != nil {
		return 0, err
	}

	written, err := w.sw.writeChunkData(w.curSegment, w.curSection, chunkIdx, result, w.table)
	if err != nil {
		return 0, err
	}

	w.segmentChunks++
	w.sectionChunks++
	w.totalChunks++
	w.inputWriteCount += uint64(len(raw))

	if written > int64(w.remainingSegmentFileSize) {
		w.remainingSegmentFileSize = 0
	} else {
		w.remainingSegmentFileSize -= uint64(written)
	}
	// Reserve space for this chunk's eventual table/table2 entries,
	// unconditionally — even for S01, which has no table2. Preserved per
	// spec.md §9's open question on this exact behavior.
	tableReserve := 2 * uint64(w.profile.overhead.TableOffsetSize)
	if tableReserve > w.remainingSegmentFileSize {
		w.remainingSegmentFileSize = 0
	} else {
		w.remainingSegmentFileSize -= tableReserve
	}

	if w.sectionFull() {
		if err := w.closeSection(); err != nil {
			return 0, err
		}
		// Only roll over to a fresh segment if the caller is actually going
		// to keep writing; when the media's total size is known and this
		// chunk was the last one, leave the segment open so Finalize closes
		// it directly as the final segment (trailers, "done") instead of
		// writing a "next" terminator that would immediately be followed by
		// an all-but-empty closing segment.
		if w.segmentFull() && w.moreChunksExpected() {
			if err := w.sw.closeSegmentNonFinal(w.curSegment); err != nil {
				return 0, err
			}
			w.curSegment = nil
		}
	}

	return len(raw), nil
}

// moreChunksExpected reports whether, given the media's declared size (if
// known), the coordinator should expect further AppendChunk calls. Unknown
// media size/chunk count means the source is a streaming acquisition and
// more chunks are always possible until Finalize is actually called.
func (w *Writer) moreChunksExpected() bool {
	if w.media.AmountOfChunks > 0 && w.totalChunks >= w.media.AmountOfChunks {
		return false
	}
	if w.media.MediaSize > 0 && w.inputWriteCount >= w.media.MediaSize {
		return false
	}
	return true
}

func (w *Writer) openSegment() error {
	number := uint32(len(w.segments)) + 1
	path := newSegmentPath(w.basePath, number, segmentTypeEWF)

	seg, err := w.sw.createSegment(path, number, segmentTypeEWF)
	if err != nil {
		return err
	}

	written, err := w.sw.writeStart(seg, w.media, w.header, w.dataCache, w.cfg.CompressionLevel, false)
	if err != nil {
		return err
	}

	if w.dataCache == nil {
		w.dataCache = newDataSection(w.media, w.cfg.CompressionLevel)
	}

	w.segments = append(w.segments, seg)
	w.curSegment = seg

	budget := w.cfg.SegmentFileSize
	if budget <= sectionDescriptorSize {
		return fmt.Errorf("%w: segment_file_size too small for a terminator section", ErrInvalidArgument)
	}
	w.remainingSegmentFileSize = budget - sectionDescriptorSize
	if written > 0 && uint64(written) <= w.remainingSegmentFileSize {
		w.remainingSegmentFileSize -= uint64(written)
	}

	w.segmentChunks = 0
	w.sectionChunks = 0
	w.chunksSectionNumber = 0
	w.createChunksSection = true

	w.chunksPerSegment = planner.ChunksPerSegment(
		w.remainingSegmentFileSize,
		w.cfg.MaximumSectionAmountOfChunks,
		w.segmentChunks,
		w.totalChunks,
		w.media.ChunkSize,
		w.profile.overhead,
		w.media.MediaSize,
		w.media.AmountOfChunks,
		w.cfg.UnrestrictOffsetAmount,
	)
	return nil
}

func (w *Writer) openChunksSection() error {
	var framing uint64
	if w.profile.overhead.HasTable2 {
		framing = 3*w.profile.overhead.SectionDescriptorSize + 8
	} else if w.profile.overhead.PerChunk == 16 {
		framing = w.profile.overhead.SectionDescriptorSize
	} else {
		framing = w.profile.overhead.SectionDescriptorSize + 4
	}
	if framing > w.remainingSegmentFileSize {
		w.remainingSegmentFileSize = 0
	} else {
		w.remainingSegmentFileSize -= framing
	}

	w.chunksSectionNumber++

	w.chunksPerSegment = planner.ChunksPerSegment(
		w.remainingSegmentFileSize,
		w.cfg.MaximumSectionAmountOfChunks,
		w.segmentChunks,
		w.totalChunks,
		w.media.ChunkSize,
		w.profile.overhead,
		w.media.MediaSize,
		w.media.AmountOfChunks,
		w.cfg.UnrestrictOffsetAmount,
	)

	perSection, ok := planner.ChunksPerChunksSection(
		w.cfg.MaximumSectionAmountOfChunks,
		w.chunksPerSegment,
		w.chunksSectionNumber,
		w.cfg.UnrestrictOffsetAmount,
	)
	if !ok {
		return fmt.Errorf("%w: no room left in segment for chunks section %d", ErrExceedsMaximum, w.chunksSectionNumber)
	}
	w.chunksPerChunksSection = perSection

	cs, written, err := w.sw.writeChunksSectionStart(w.curSegment)
	if err != nil {
		return err
	}
	w.curSection = cs
	w.chunksSectionOffset = cs.sectorsOffset
	w.sectionChunks = 0

	if uint64(written) <= w.remainingSegmentFileSize {
		w.remainingSegmentFileSize -= uint64(written)
	} else {
		w.remainingSegmentFileSize = 0
	}
	w.createChunksSection = false
	return nil
}

func (w *Writer) closeSection() error {
	if _, err := w.sw.writeChunksCorrection(w.curSegment, w.curSection); err != nil {
		return err
	}
	w.chunksSectionOffset = 0
	w.curSection = nil
	w.createChunksSection = true
	return nil
}

func (w *Writer) sectionFull() bool {
	segOffset, _ := w.curSegment.offset()
	return planner.ChunksSectionFull(planner.ChunksSectionFullInput{
		SectionOpen:            w.chunksSectionOffset != 0,
		SectionChunks:          w.sectionChunks,
		MaxSectionChunks:       w.cfg.MaximumSectionAmountOfChunks,
		ChunksPerChunksSection: w.chunksPerChunksSection,
		TotalChunks:            w.totalChunks,
		AmountOfChunks:         w.media.AmountOfChunks,
		InputWriteCount:        w.inputWriteCount,
		MediaSize:              w.media.MediaSize,
		RemainingBytes:         w.remainingSegmentFileSize,
		ChunkSize:              w.media.ChunkSize,
		RestrictedFormat:       w.profile.restricted,
		Unrestrict:             w.cfg.UnrestrictOffsetAmount,
		SegmentOffset:          segOffset,
		SectionOffset:          w.chunksSectionOffset,
	})
}

func (w *Writer) segmentFull() bool {
	return planner.SegmentFileFull(planner.SegmentFullInput{
		SegmentChunks:    w.segmentChunks,
		ChunksPerSegment: w.chunksPerSegment,
		TotalChunks:      w.totalChunks,
		AmountOfChunks:   w.media.AmountOfChunks,
		InputWriteCount:  w.inputWriteCount,
		MediaSize:        w.media.MediaSize,
		RemainingBytes:   w.remainingSegmentFileSize,
		ChunkSize:        w.media.ChunkSize,
		RestrictedFormat: w.profile.restricted,
	})
}

// Finalize closes any open chunks section, writes the trailer sections on
// the last segment, and marks the writer finalized. Idempotent: a second
// call returns nil and writes nothing, per spec.md §4.E.
func (w *Writer) Finalize(hash *HashValues, sessions []Session, acquiryErrors []AcquiryError) error {
	if w.writeFinalized {
		return nil
	}

	if w.curSegment == nil {
		if err := w.openSegment(); err != nil {
			return err
		}
	}
	if w.chunksSectionOffset != 0 {
		if err := w.closeSection(); err != nil {
			return err
		}
	}

	if err := w.sw.closeSegmentFinal(w.curSegment, hash, sessions, acquiryErrors); err != nil {
		return err
	}
	w.curSegment = nil
	w.writeFinalized = true

	return w.pool.CloseAll()
}

// Close finalizes the writer without trailer metadata. Equivalent to
// calling Finalize(nil, nil, nil).
func (w *Writer) Close() error {
	return w.Finalize(nil, nil, nil)
}
