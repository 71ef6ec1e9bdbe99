package logo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Layout of the LBLDESP record as the firmware writes it: reserved
// int32, enabled byte, max width int32, max height int32, capability
// bits uint8. Little-endian, packed, no padding.
const despSize = 14

// Capability bits in the DESP record. The remaining bits are reserved.
const (
	capJPG = 0x01
	capBMP = 0x10
	capPNG = 0x20
)

// ErrMalformed means a variable did not have the expected size.
var ErrMalformed = errors.New("malformed record")

// Descriptor is the decoded LBLDESP record. Reserved is opaque and
// survives round-trips unchanged.
type Descriptor struct {
	Reserved     int32
	Enabled      bool
	MaxWidth     int32
	MaxHeight    int32
	Capabilities uint8
}

// ParseDescriptor decodes a DESP variable. Any length other than the
// fixed layout size is a malformed record.
func ParseDescriptor(buf []byte) (*Descriptor, error) {
	if len(buf) != despSize {
		return nil, fmt.Errorf("%w: DESP is %d bytes, want %d", ErrMalformed, len(buf), despSize)
	}

	return &Descriptor{
		Reserved:     int32(binary.LittleEndian.Uint32(buf[0:4])),
		Enabled:      buf[4] != 0,
		MaxWidth:     int32(binary.LittleEndian.Uint32(buf[5:9])),
		MaxHeight:    int32(binary.LittleEndian.Uint32(buf[9:13])),
		Capabilities: buf[13],
	}, nil
}

// Encode is the inverse of ParseDescriptor.
func (d *Descriptor) Encode() []byte {
	buf := make([]byte, despSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(d.Reserved))
	if d.Enabled {
		buf[4] = 1
	}
	binary.LittleEndian.PutUint32(buf[5:9], uint32(d.MaxWidth))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(d.MaxHeight))
	buf[13] = d.Capabilities
	return buf
}

// Formats returns the image container extensions the firmware accepts,
// derived fresh from the capability bits on every call.
func (d *Descriptor) Formats() []string {
	var out []string
	if d.Capabilities&capJPG != 0 {
		out = append(out, "JPG")
	}
	if d.Capabilities&capBMP != 0 {
		out = append(out, "BMP")
	}
	if d.Capabilities&capPNG != 0 {
		out = append(out, "PNG")
	}
	return out
}

// Supports reports whether ext (with or without a leading dot, any
// case) is an accepted container format.
func (d *Descriptor) Supports(ext string) bool {
	ext = strings.ToUpper(strings.TrimPrefix(ext, "."))
	for _, f := range d.Formats() {
		if f == ext {
			return true
		}
	}
	return false
}
