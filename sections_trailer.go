package ewf

// digestSection carries the whole-image MD5/SHA1, computed by an external
// hashing collaborator (spec §1: "we do not specify... cryptographic
// hashing algorithms") and handed to the writer as opaque bytes.
// Layout matches asalih-go-ewf's EWFDigestSection.
type digestSection struct {
	MD5      [16]byte
	SHA1     [20]byte
	Padding  [40]byte
	Checksum uint32
}

// hashSection is the older single-MD5 trailer emitted alongside digest for
// EnCase compatibility. Layout matches asalih-go-ewf's evf1.EWFHashSection.
type hashSection struct {
	MD5      [16]byte
	Unknown  [16]byte
	Checksum uint32
}

// HashValues is the caller-supplied digest input to Writer.Finalize.
type HashValues struct {
	MD5  [16]byte
	SHA1 [20]byte
}

// Session describes one acquisition session boundary, passed through into
// the "session" trailer section.
type Session struct {
	FirstSector uint32
	NumSectors  uint32
}

type sessionSectionHeader struct {
	NumEntries uint32
	Pad        [28]byte
	Checksum   uint32
}

type sessionEntry struct {
	Flags       uint32
	FirstSector uint32
	NumSectors  uint32
	Pad         [20]byte
}

// AcquiryError describes one bad-sector range recorded during acquisition,
// passed through into the "error2" trailer section.
type AcquiryError struct {
	FirstSector uint32
	NumSectors  uint32
}

type error2SectionHeader struct {
	NumEntries uint32
	Pad        [28]byte
	Checksum   uint32
}

type error2Entry struct {
	FirstSector uint32
	NumSectors  uint32
	Pad         [24]byte
}

// deltaChunkHeader precedes a delta chunk's raw payload; delta chunks are
// never compressed (spec §4.F precondition).
type deltaChunkHeader struct {
	ChunkNumber uint32
	ChunkSize   uint32
	Padding     [4]byte
	Checksum    uint32
}
