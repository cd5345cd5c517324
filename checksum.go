package ewf

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"io"
)

// checksum32 is the 32-bit checksum every EWF section trailer uses. The
// format calls it a "CRC" but it is adler32 (seed 1), which is exactly the
// "CRC seeded 1" behavior spec.md §3 describes.
func checksum32(data []byte) uint32 {
	return adler32.Checksum(data)
}

// writeWithChecksum little-endian-encodes obj (a fixed-layout struct whose
// final field is a uint32 Checksum), computes the checksum over every byte
// but the checksum field itself, writes the struct with that checksum
// filled in, and returns the bytes written plus the computed checksum.
func writeWithChecksum(dest io.Writer, obj interface{}) (n int, sum uint32, err error) {
	buf := bytes.NewBuffer(nil)
	if err = binary.Write(buf, binary.LittleEndian, obj); err != nil {
		return 0, 0, err
	}

	data := buf.Bytes()
	data = data[:len(data)-checksumSize]
	sum = checksum32(data)

	n, err = dest.Write(data)
	if err != nil {
		return n, sum, err
	}
	if err = binary.Write(dest, binary.LittleEndian, sum); err != nil {
		return n, sum, err
	}
	n += checksumSize

	return n, sum, nil
}
