// Package imgsum fingerprints logo images the way the Lenovo firmware
// does: a CRC-32 over the leading bytes of the file.
package imgsum

import (
	"hash/crc32"
	"io"
	"os"
)

// The firmware only checksums the head of the image.
const sampleSize = 512

// File returns the CRC-32 (IEEE) of the first 512 bytes of the file at
// path, or of the whole file if it is shorter.
func File(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, sampleSize))
	if err != nil {
		return 0, err
	}

	return crc32.ChecksumIEEE(buf), nil
}
