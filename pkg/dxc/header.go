package dxc

import (
	"encoding/binary"
	"fmt"

	"github.com/samcharles93/dxbc/internal/binview"
)

// Version is the container format version.
type Version struct {
	Major uint16
	Minor uint16
}

// Header is the fixed 32-byte container header.
type Header struct {
	Magic     [4]byte
	Digest    [DigestSize]byte
	Version   Version
	FileSize  uint32 // informational only; the buffer length is authoritative
	PartCount uint32
}

// IsContainer reports whether b starts with the container magic.
// It is a cheap identification check and implies nothing about validity.
func IsContainer(b []byte) bool {
	return len(b) >= len(Magic) && string(b[:len(Magic)]) == Magic
}

// HasMagic reports whether the header carries the container magic.
func (h Header) HasMagic() bool {
	return string(h.Magic[:]) == Magic
}

func parseHeader(v binview.View) (Header, error) {
	b, err := v.Bytes(0, HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedHeader, v.Len(), HeaderSize)
	}
	h, _ := decodeHeader(b)
	return h, nil
}

func decodeHeader(b []byte) (Header, bool) {
	if len(b) < HeaderSize {
		return Header{}, false
	}
	var h Header
	copy(h.Magic[:], b[0:4])
	copy(h.Digest[:], b[4:20])
	h.Version.Major = binary.LittleEndian.Uint16(b[20:22])
	h.Version.Minor = binary.LittleEndian.Uint16(b[22:24])
	h.FileSize = binary.LittleEndian.Uint32(b[24:28])
	h.PartCount = binary.LittleEndian.Uint32(b[28:32])
	return h, true
}

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < HeaderSize {
		return false
	}
	copy(dst[0:4], h.Magic[:])
	copy(dst[4:20], h.Digest[:])
	binary.LittleEndian.PutUint16(dst[20:22], h.Version.Major)
	binary.LittleEndian.PutUint16(dst[22:24], h.Version.Minor)
	binary.LittleEndian.PutUint32(dst[24:28], h.FileSize)
	binary.LittleEndian.PutUint32(dst[28:32], h.PartCount)
	return true
}
