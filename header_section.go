package ewf

import (
	"bytes"
	"strings"
)

// HeaderInfo is the free-form case/examiner metadata the caller supplies;
// engine serializes it through the header and, where the format has one,
// header2 encoders (spec §6, "opaque value objects produced by caller").
type HeaderInfo string

// Well-known header value keys, matching the short (one- or two-character)
// EWF header value identifiers used by every EnCase-compatible tool.
const (
	HeaderDescription      HeaderInfo = "a"
	HeaderCaseNumber       HeaderInfo = "c"
	HeaderExaminerName     HeaderInfo = "e"
	HeaderEvidenceNumber   HeaderInfo = "n"
	HeaderNotes            HeaderInfo = "t"
	HeaderSoftwareVersion  HeaderInfo = "av"
	HeaderOperatingSystem  HeaderInfo = "ov"
	HeaderAcquiryDate      HeaderInfo = "m"
	HeaderSystemDate       HeaderInfo = "u"
	HeaderPassword         HeaderInfo = "p"
	HeaderCompressionType  HeaderInfo = "r"
)

var (
	headerLineDelim  = []byte{'\n'}
	headerFieldDelim = []byte{'\t'}
)

// headerSection is the decoded form of the header/header2 sections: a
// tab-separated, newline-terminated key/value table, zlib-compressed on
// disk. header2 repeats the same content as UTF-16 for newer EnCase
// readers and is written only for formats that have it; no xheader
// section is written.
type headerSection struct {
	CategoryName string
	Values       map[string]string
}

// serialize renders the section body the way libewf does: category count,
// category name, the field names row, then the field values row.
func (h *headerSection) serialize() []byte {
	buf := bytes.NewBuffer(nil)

	buf.WriteString("1")
	buf.Write(headerLineDelim)
	buf.WriteString(h.CategoryName)
	buf.Write(headerLineDelim)

	keys := make([]string, 0, len(h.Values))
	vals := make([]string, 0, len(h.Values))
	for k, v := range h.Values {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	buf.WriteString(strings.Join(keys, string(headerFieldDelim)))
	buf.Write(headerLineDelim)
	buf.WriteString(strings.Join(vals, string(headerFieldDelim)))
	buf.Write(headerLineDelim)

	return buf.Bytes()
}
