// Package devmode models the opaque DEVMODE block that Windows printer
// drivers use to describe a printer's current configuration, and the codec
// that converts it to and from its stored textual form.
//
// The block is treated as a boundary-only byte buffer: only the fixed
// DEVMODEW header is interpreted, everything past it (including the
// driver-private trailer) is opaque. The header's own dmSize and
// dmDriverExtra fields are authoritative for the block's total length.
package devmode

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// DEVMODEW header field offsets (little-endian, fixed layout).
// dmDeviceName occupies the first 32 WCHARs (64 bytes).
const (
	offSize        = 68 // dmSize, uint16
	offDriverExtra = 70 // dmDriverExtra, uint16
	offFields      = 72 // dmFields, uint32
	offOrientation = 76 // int16
	offPaperSize   = 78 // int16
	offPaperLength = 80 // int16, tenths of a millimeter
	offPaperWidth  = 82 // int16, tenths of a millimeter
	offCopies      = 86 // int16
	offColor       = 92 // int16
	offDuplex      = 94 // int16

	deviceNameChars = 32

	// MinHeaderLen is the smallest buffer from which dmSize and
	// dmDriverExtra can be read.
	MinHeaderLen = offFields
)

// dmFields bits for the header members this package interprets.
const (
	fieldOrientation = 0x00000001
	fieldPaperSize   = 0x00000002
	fieldPaperLength = 0x00000004
	fieldPaperWidth  = 0x00000008
	fieldCopies      = 0x00000100
	fieldColor       = 0x00000800
	fieldDuplex      = 0x00001000
)

// Orientation and duplex values as defined by the DEVMODE contract.
const (
	OrientPortrait  = 1
	OrientLandscape = 2

	DuplexSimplex    = 1
	DuplexVertical   = 2
	DuplexHorizontal = 3

	colorColor = 2
)

// Block is a captured device-mode record. The zero value is invalid; use
// FromRaw to construct one from bytes.
type Block struct {
	raw []byte
}

// DeclaredLen reads the authoritative total length (dmSize + dmDriverExtra)
// from the header at the start of buf.
func DeclaredLen(buf []byte) (int, error) {
	if len(buf) < MinHeaderLen {
		return 0, fmt.Errorf("devmode: buffer too short for header: %d bytes, need at least %d", len(buf), MinHeaderLen)
	}
	return int(binary.LittleEndian.Uint16(buf[offSize:])) + int(binary.LittleEndian.Uint16(buf[offDriverExtra:])), nil
}

// FromRaw validates raw as a device-mode block: it must be long enough to
// contain the fixed header, and its total length must equal the
// dmSize + dmDriverExtra declared by the header itself.
func FromRaw(raw []byte) (Block, error) {
	if len(raw) < MinHeaderLen {
		return Block{}, fmt.Errorf("devmode: block too short: %d bytes, need at least %d", len(raw), MinHeaderLen)
	}
	declared := int(binary.LittleEndian.Uint16(raw[offSize:])) + int(binary.LittleEndian.Uint16(raw[offDriverExtra:]))
	if declared != len(raw) {
		return Block{}, fmt.Errorf("devmode: declared length %d does not match buffer length %d", declared, len(raw))
	}
	return Block{raw: raw}, nil
}

// Bytes returns a copy of the block's raw bytes.
func (b Block) Bytes() []byte {
	out := make([]byte, len(b.raw))
	copy(out, b.raw)
	return out
}

// Len returns the total block length in bytes (dmSize + dmDriverExtra).
func (b Block) Len() int { return len(b.raw) }

// Size returns the dmSize header field: the length of the public portion.
func (b Block) Size() int {
	return int(binary.LittleEndian.Uint16(b.raw[offSize:]))
}

// DriverExtra returns the dmDriverExtra header field: the length of the
// driver-private trailer.
func (b Block) DriverExtra() int {
	return int(binary.LittleEndian.Uint16(b.raw[offDriverExtra:]))
}

// DeviceName returns the driver-reported device name from the header.
func (b Block) DeviceName() string {
	u := make([]uint16, 0, deviceNameChars)
	for i := 0; i < deviceNameChars; i++ {
		c := binary.LittleEndian.Uint16(b.raw[i*2:])
		if c == 0 {
			break
		}
		u = append(u, c)
	}
	return string(utf16.Decode(u))
}

func (b Block) fields() uint32 {
	if len(b.raw) < offFields+4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b.raw[offFields:])
}

// int16Field reads a signed 16-bit header member, reporting false when the
// corresponding dmFields bit is clear or the block is too short to hold it.
func (b Block) int16Field(off int, bit uint32) (int, bool) {
	if b.fields()&bit == 0 || len(b.raw) < off+2 {
		return 0, false
	}
	return int(int16(binary.LittleEndian.Uint16(b.raw[off:]))), true
}

// Orientation returns OrientPortrait or OrientLandscape if the driver set it.
func (b Block) Orientation() (int, bool) {
	return b.int16Field(offOrientation, fieldOrientation)
}

// PaperSize returns the DMPAPER_* paper size code if set.
func (b Block) PaperSize() (int, bool) {
	return b.int16Field(offPaperSize, fieldPaperSize)
}

// PaperLength returns the paper length in tenths of a millimeter if set.
func (b Block) PaperLength() (int, bool) {
	return b.int16Field(offPaperLength, fieldPaperLength)
}

// PaperWidth returns the paper width in tenths of a millimeter if set.
func (b Block) PaperWidth() (int, bool) {
	return b.int16Field(offPaperWidth, fieldPaperWidth)
}

// Copies returns the configured copy count if set.
func (b Block) Copies() (int, bool) {
	return b.int16Field(offCopies, fieldCopies)
}

// Color reports whether the printer is configured for color output if set.
func (b Block) Color() (bool, bool) {
	v, ok := b.int16Field(offColor, fieldColor)
	return v == colorColor, ok
}

// Duplex returns the DMDUP_* duplex mode if set.
func (b Block) Duplex() (int, bool) {
	return b.int16Field(offDuplex, fieldDuplex)
}

// Summary is a human-readable digest of the interpretable header fields,
// used by the CLI show command and the settings API.
type Summary struct {
	DeviceName  string `json:"device_name,omitempty"`
	Orientation string `json:"orientation,omitempty"`
	PaperSize   int    `json:"paper_size,omitempty"`
	PaperLength int    `json:"paper_length_dmm,omitempty"`
	PaperWidth  int    `json:"paper_width_dmm,omitempty"`
	Copies      int    `json:"copies,omitempty"`
	Color       string `json:"color,omitempty"`
	Duplex      string `json:"duplex,omitempty"`
	Size        int    `json:"size"`
	DriverExtra int    `json:"driver_extra"`
}

// Summarize extracts the set header fields into a Summary.
func (b Block) Summarize() Summary {
	s := Summary{
		DeviceName:  b.DeviceName(),
		Size:        b.Size(),
		DriverExtra: b.DriverExtra(),
	}
	if v, ok := b.Orientation(); ok {
		switch v {
		case OrientLandscape:
			s.Orientation = "landscape"
		default:
			s.Orientation = "portrait"
		}
	}
	if v, ok := b.PaperSize(); ok {
		s.PaperSize = v
	}
	if v, ok := b.PaperLength(); ok {
		s.PaperLength = v
	}
	if v, ok := b.PaperWidth(); ok {
		s.PaperWidth = v
	}
	if v, ok := b.Copies(); ok {
		s.Copies = v
	}
	if color, ok := b.Color(); ok {
		if color {
			s.Color = "color"
		} else {
			s.Color = "monochrome"
		}
	}
	if v, ok := b.Duplex(); ok {
		switch v {
		case DuplexVertical:
			s.Duplex = "vertical"
		case DuplexHorizontal:
			s.Duplex = "horizontal"
		default:
			s.Duplex = "simplex"
		}
	}
	return s
}
