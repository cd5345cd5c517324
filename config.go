package ewf

// CompressionLevel selects the deflate effort applied to each chunk before
// it is written to disk.
type CompressionLevel uint8

const (
	CompressionNone CompressionLevel = iota
	CompressionDefault
	CompressionFast
	CompressionBest
)

// EWFFormat is the outer format discriminant: the legacy single-table
// EWF-S01 layout, or the sectors/table/table2 EnCase layout.
type EWFFormat uint8

const (
	FormatS01 EWFFormat = iota
	FormatE01
)

// Format is the inner format discriminant, used to select header dialect
// and per-section overhead within the EWFFormat family.
type Format uint8

const (
	FormatEncase1 Format = iota
	FormatEncase2
	FormatEncase3
	FormatEncase4
	FormatEncase5
	FormatEncase6
	FormatEWFX
	FormatSMART
	FormatLinen
	FormatFTK
)

const (
	// DefaultChunkSize is the historical EWF default of 64 sectors of 512
	// bytes each.
	DefaultChunkSize = 32768

	// DefaultSegmentFileSize is the legacy CD-friendly split size.
	DefaultSegmentFileSize = 1440 * 1024 * 1024

	// MaximumSegmentFileSize is the hard 32-bit-offset-safe cap for legacy
	// EWF/EnCase segment files.
	MaximumSegmentFileSize = (1 << 31) - 1

	// DefaultDeltaSegmentFileSize is the delta chain's much larger cap;
	// delta segments don't share the legacy 32-bit offset constraint.
	DefaultDeltaSegmentFileSize = (1 << 63) - 1

	// EWFMaximumOffsetsInTable is the historical default chunk count per
	// chunks section.
	EWFMaximumOffsetsInTable = 16375

	// checksumSize is the width of every on-disk "Checksum" trailer field.
	checksumSize = 4
)

// Config bundles the writer-lifetime settings that would otherwise be scattered
// across constructor arguments. NewWriter fills in a zero SegmentFileSize,
// DeltaSegmentFileSize, MaximumSectionAmountOfChunks or Logger with its
// default; the other fields are used as given.
type Config struct {
	Format    Format
	EWFFormat EWFFormat

	CompressionLevel    CompressionLevel
	CompressEmptyBlock  bool
	UnrestrictOffsetAmount bool

	SegmentFileSize      uint64
	DeltaSegmentFileSize uint64

	MaximumSectionAmountOfChunks uint32

	// Logger is held by the writer and its segment writer; no log events
	// are emitted through it. Nil defaults to a logrus.New() instance at
	// Info level.
	Logger Logger
}

// NewDefaultConfig returns a Config with the historical libewf defaults:
// EnCase6/E01, default zlib compression, 1440 MiB segments, 16375 chunks
// per section.
func NewDefaultConfig() *Config {
	return &Config{
		Format:                       FormatEncase6,
		EWFFormat:                    FormatE01,
		CompressionLevel:             CompressionDefault,
		CompressEmptyBlock:           false,
		UnrestrictOffsetAmount:       false,
		SegmentFileSize:              DefaultSegmentFileSize,
		DeltaSegmentFileSize:         DefaultDeltaSegmentFileSize,
		MaximumSectionAmountOfChunks: EWFMaximumOffsetsInTable,
	}
}

func (c *Config) fillDefaults() {
	if c.SegmentFileSize == 0 {
		c.SegmentFileSize = DefaultSegmentFileSize
	}
	if c.DeltaSegmentFileSize == 0 {
		c.DeltaSegmentFileSize = DefaultDeltaSegmentFileSize
	}
	if c.MaximumSectionAmountOfChunks == 0 {
		c.MaximumSectionAmountOfChunks = EWFMaximumOffsetsInTable
	}
	if c.Logger == nil {
		c.Logger = newDefaultLogger()
	}
}
