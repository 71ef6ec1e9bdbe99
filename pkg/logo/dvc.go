package logo

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	dvcSize   = 44
	sumOffset = 8
)

// DeviceConfig is the opaque LBLDVC record. Only bytes [8,12) are
// known: the little-endian CRC-32 of the active logo's leading bytes.
// Everything else is preserved bit for bit.
type DeviceConfig struct {
	raw [dvcSize]byte
}

// ParseDeviceConfig decodes a DVC variable. Any length other than 44
// bytes is a malformed record.
func ParseDeviceConfig(buf []byte) (*DeviceConfig, error) {
	if len(buf) != dvcSize {
		return nil, fmt.Errorf("%w: DVC is %d bytes, want %d", ErrMalformed, len(buf), dvcSize)
	}

	var c DeviceConfig
	copy(c.raw[:], buf)
	return &c, nil
}

// Checksum returns the stored logo checksum.
func (c *DeviceConfig) Checksum() uint32 {
	return binary.LittleEndian.Uint32(c.raw[sumOffset : sumOffset+4])
}

// ChecksumHex renders the checksum bytes in storage order.
func (c *DeviceConfig) ChecksumHex() string {
	return hex.EncodeToString(c.raw[sumOffset : sumOffset+4])
}

// WithChecksum returns a copy of the record with only the checksum
// bytes replaced.
func (c *DeviceConfig) WithChecksum(sum uint32) *DeviceConfig {
	out := *c
	binary.LittleEndian.PutUint32(out.raw[sumOffset:sumOffset+4], sum)
	return &out
}

// Encode returns the raw 44-byte variable contents.
func (c *DeviceConfig) Encode() []byte {
	buf := make([]byte, dvcSize)
	copy(buf, c.raw[:])
	return buf
}
