package ewf

// volumeSectionLegacy is the "disk" section payload for EWF-S01 and
// EnCase1 images: a compact record with only a 32-bit total sector count.
// Layout and field order match asalih-go-ewf's EWFVolumeSectionSpecData.
type volumeSectionLegacy struct {
	Reserved         uint32
	ChunkCount       uint32
	SectorCount      uint32
	SectorSize       uint32
	TotalSectorCount uint32
	Reserved1        [20]byte
	Pad              [45]byte
	Signature        [5]byte
	Checksum         uint32
}

// volumeSectionData is the "volume" payload for EnCase2 and later:
// full media geometry plus a UUID and per-segment compression level.
// Layout matches asalih-go-ewf's EWFVolumeSectionData.
type volumeSectionData struct {
	MediaType        uint8
	Reserved1        [3]byte
	ChunkCount       uint32
	SectorCount      uint32
	SectorSize       uint32
	TotalSectorCount uint64
	NumCylinders     uint32
	NumHeads         uint32
	NumSectors       uint32
	MediaFlags       uint8
	Unknown1         [3]byte
	PalmStartSector  uint32
	Unknown2         uint32
	SmartStartSector uint32
	CompressionLevel uint8
	Unknown3         [3]byte
	ErrorGranularity uint32
	Unknown4         uint32
	UUID             [16]byte
	Pad              [963]byte
	Signature        [5]byte
	Checksum         uint32
}

func newVolumeSectionLegacy(media *MediaValues) *volumeSectionLegacy {
	return &volumeSectionLegacy{
		Reserved:         1,
		SectorCount:      media.SectorCount,
		SectorSize:       media.SectorSize,
		TotalSectorCount: uint32(media.MediaSize / uint64(media.SectorSize)),
	}
}

func newVolumeSectionData(media *MediaValues, level CompressionLevel) *volumeSectionData {
	return &volumeSectionData{
		MediaType:        media.MediaType,
		SectorCount:      media.SectorCount,
		SectorSize:       media.SectorSize,
		TotalSectorCount: media.MediaSize / uint64(media.SectorSize),
		MediaFlags:       media.MediaFlags,
		CompressionLevel: encodeCompressionLevel(level),
	}
}

func encodeCompressionLevel(level CompressionLevel) uint8 {
	switch level {
	case CompressionNone:
		return 0
	case CompressionFast:
		return 1
	case CompressionBest:
		return 2
	default:
		return 1
	}
}

// dataSection is the "data" section re-emitted verbatim from the coordinator's
// cache on every segment after the first (spec §4.D write_start, seg_no > 1).
// It mirrors evf1.EWFDataSection.
type dataSection struct {
	MediaType        uint8
	Unknown1         [3]uint8
	ChunkCount       uint32
	SectorPerChunk   uint32
	BytesPerSector   uint32
	Sectors          uint64
	CylindersCHS     uint32
	HeadsCHS         uint32
	SectorsCHS       uint32
	MediaFlags       uint8
	Unknown2         [3]uint8
	PalmStartSector  uint32
	Unknown3         [4]uint8
	SmartStartSector uint32
	CompressionLevel uint8
	Unknown4         [3]uint8
	ErrorGranularity [4]uint8
	Unknown5         [4]uint8
	GUID             [16]uint8
	Pad              [963]uint8
	Signature        [5]uint8
	Checksum         uint32
}

func newDataSection(media *MediaValues, level CompressionLevel) *dataSection {
	return &dataSection{
		MediaType:        media.MediaType,
		SectorPerChunk:   media.SectorCount,
		BytesPerSector:   media.SectorSize,
		MediaFlags:       media.MediaFlags,
		CompressionLevel: encodeCompressionLevel(level),
	}
}
