package ewf

import "github.com/hoyt-harness/libewf/internal/planner"

// formatProfile is the "tagged discriminant with a small dispatch table"
// spec.md §9 recommends over per-format polymorphism: the divergence
// between (EWFFormat, Format) pairs is data (byte counts, whether table2
// exists), not behavior.
type formatProfile struct {
	overhead     planner.SectionOverhead
	restricted   bool // true for S01/ENCASE1: segment/section fullness uses the chunk-count cap directly
	hasHeader2   bool
	hasDisk      bool // pre-EnCase2 emits "disk" instead of "volume"
}

func profileFor(ewfFormat EWFFormat, format Format) formatProfile {
	switch {
	case ewfFormat == FormatS01:
		return formatProfile{
			overhead: planner.SectionOverhead{
				PerChunk:              16, // average deflate tax, spec §4.B step 1
				SectionDescriptorSize: sectionDescriptorSize,
				TableOffsetSize:       4,
				HasTable2:             false,
			},
			restricted: true,
			hasDisk:    true,
		}
	case format == FormatEncase1:
		return formatProfile{
			overhead: planner.SectionOverhead{
				PerChunk:              checksumSize,
				SectionDescriptorSize: sectionDescriptorSize,
				TableOffsetSize:       4,
				HasTable2:             false,
			},
			restricted: true,
			hasDisk:    true,
		}
	default:
		return formatProfile{
			overhead: planner.SectionOverhead{
				PerChunk:              checksumSize,
				SectionDescriptorSize: sectionDescriptorSize,
				TableOffsetSize:       4,
				HasTable2:             true,
			},
			restricted: false,
			hasHeader2: true,
		}
	}
}
