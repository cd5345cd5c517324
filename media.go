package ewf

// MediaValues are the read-only-during-writing media attributes passed
// through into the volume/data section and used by the Capacity Planner to
// clamp chunk-count estimates once the total media size is known.
type MediaValues struct {
	ChunkSize uint32

	// MediaSize is the total number of bytes in the source media. Zero
	// means unknown (streaming acquisition).
	MediaSize uint64

	// AmountOfChunks is derived from MediaSize/ChunkSize when MediaSize is
	// known; zero means unknown.
	AmountOfChunks uint32

	SectorSize  uint32
	SectorCount uint32

	MediaType  uint8
	MediaFlags uint8
}

// NewMediaValues builds MediaValues from a chunk size and, optionally, a
// known total media size, deriving AmountOfChunks and sector geometry the
// way the volume/data section expects.
func NewMediaValues(chunkSize uint32, mediaSize uint64, sectorSize uint32) *MediaValues {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if sectorSize == 0 {
		sectorSize = 512
	}

	m := &MediaValues{
		ChunkSize:   chunkSize,
		MediaSize:   mediaSize,
		SectorSize:  sectorSize,
		SectorCount: chunkSize / sectorSize,
	}

	if mediaSize > 0 {
		amount := mediaSize / uint64(chunkSize)
		if mediaSize%uint64(chunkSize) != 0 {
			amount++
		}
		m.AmountOfChunks = uint32(amount)
	}

	return m
}
