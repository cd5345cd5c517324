package ewf

import (
	"bytes"
	"encoding/binary"

	"github.com/hoyt-harness/libewf/internal/compressor"
)

// newHeaderCompressor returns a Compressor at the default level, used for
// the header/header2/xheader text blobs regardless of the image's own
// chunk compression level (EnCase-family tools always deflate these).
func newHeaderCompressor() (*compressor.Compressor, error) {
	return compressor.New(compressor.LevelDefault)
}

// deflateAll runs comp.Deflate against a destination buffer, growing it
// once on StatusBufferTooSmall, per the Compressor contract in
// internal/compressor.
func deflateAll(comp *compressor.Compressor, src []byte) ([]byte, error) {
	dst := make([]byte, len(src)+len(src)/1000+128)
	written, status, required := comp.Deflate(src, dst)
	if status == compressor.StatusBufferTooSmall {
		dst = make([]byte, required)
		written, status, _ = comp.Deflate(src, dst)
	}
	if status != compressor.StatusOK {
		return nil, ErrCompressionFail
	}
	return dst[:written], nil
}

// serializeTable renders a table/table2 section body: header, the raw
// offset entries, then a trailing checksum over the entries array alone,
// matching asalih-go-ewf's table.go serialize/Encode split (the section's
// own header checksum covers only the header; the entries get their own
// footer checksum).
func serializeTable(baseOffset uint64, entries []uint32) ([]byte, error) {
	hdr := &tableSectionHeader{NumEntries: uint32(len(entries)), BaseOffset: baseOffset}

	buf := bytes.NewBuffer(nil)
	if _, _, err := writeWithChecksum(buf, hdr); err != nil {
		return nil, err
	}

	entryBytes := bytes.NewBuffer(nil)
	for _, e := range entries {
		if err := binary.Write(entryBytes, binary.LittleEndian, e); err != nil {
			return nil, err
		}
	}
	buf.Write(entryBytes.Bytes())

	footer := checksum32(entryBytes.Bytes())
	if err := binary.Write(buf, binary.LittleEndian, footer); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func serializeSessions(sessions []Session) ([]byte, error) {
	hdr := &sessionSectionHeader{NumEntries: uint32(len(sessions))}
	buf := bytes.NewBuffer(nil)
	if _, _, err := writeWithChecksum(buf, hdr); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		e := sessionEntry{FirstSector: s.FirstSector, NumSectors: s.NumSectors}
		if err := binary.Write(buf, binary.LittleEndian, &e); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func serializeErrors(errs []AcquiryError) ([]byte, error) {
	hdr := &error2SectionHeader{NumEntries: uint32(len(errs))}
	buf := bytes.NewBuffer(nil)
	if _, _, err := writeWithChecksum(buf, hdr); err != nil {
		return nil, err
	}
	for _, e := range errs {
		entry := error2Entry{FirstSector: e.FirstSector, NumSectors: e.NumSectors}
		if err := binary.Write(buf, binary.LittleEndian, &entry); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
