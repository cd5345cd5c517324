package ewf

// tableSectionHeader is the fixed header preceding the offset array in a
// "table" or "table2" section. Layout matches asalih-go-ewf's
// EWFTableSectionHeader.
type tableSectionHeader struct {
	NumEntries uint32
	Pad        uint32
	BaseOffset uint64
	Pad2       uint32
	Checksum   uint32
}

// tableOffsetCompressedBit marks a table entry as referring to a compressed
// chunk; the remaining 31 bits are the offset relative to BaseOffset.
const tableOffsetCompressedBit = uint32(1) << 31

func encodeTableOffset(relativeOffset uint32, compressed bool) uint32 {
	if compressed {
		return relativeOffset | tableOffsetCompressedBit
	}
	return relativeOffset
}

func decodeTableOffset(entry uint32) (relativeOffset uint32, compressed bool) {
	return entry &^ tableOffsetCompressedBit, entry&tableOffsetCompressedBit != 0
}
