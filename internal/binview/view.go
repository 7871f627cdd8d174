// Package binview provides a bounds-checked, non-owning view over a byte
// buffer. Every range computation is done in 64-bit arithmetic with explicit
// carry detection so that attacker-controlled offset and size fields can
// never wrap around to a small in-bounds value.
package binview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// ErrOutOfBounds reports a read or sub-range that does not fit the view.
var ErrOutOfBounds = errors.New("binview: range out of bounds")

// End returns off+size, or ok=false when the sum overflows uint64.
func End(off, size uint64) (uint64, bool) {
	sum, carry := bits.Add64(off, size, 0)
	return sum, carry == 0
}

// TableEnd returns off+count*stride, or ok=false on overflow.
func TableEnd(off, count, stride uint64) (uint64, bool) {
	hi, lo := bits.Mul64(count, stride)
	if hi != 0 {
		return 0, false
	}
	return End(off, lo)
}

// Fits reports whether [off, off+size) lies within a buffer of length n.
func Fits(n, off, size uint64) bool {
	end, ok := End(off, size)
	return ok && end <= n
}

// View is a read-only window over a borrowed byte slice.
// The zero value is an empty view.
type View struct {
	b []byte
}

// New wraps b. The bytes are not copied; the caller keeps ownership.
func New(b []byte) View {
	return View{b: b}
}

// Len returns the number of bytes in the view.
func (v View) Len() uint64 { return uint64(len(v.b)) }

// Raw returns the underlying slice.
func (v View) Raw() []byte { return v.b }

// Fits reports whether [off, off+size) lies within the view.
func (v View) Fits(off, size uint64) bool {
	return Fits(v.Len(), off, size)
}

func (v View) check(off, size uint64) error {
	if !v.Fits(off, size) {
		return fmt.Errorf("%w: offset %d size %d exceeds length %d", ErrOutOfBounds, off, size, len(v.b))
	}
	return nil
}

// Sub returns the view covering [off, off+size).
func (v View) Sub(off, size uint64) (View, error) {
	if err := v.check(off, size); err != nil {
		return View{}, err
	}
	return View{b: v.b[off : off+size : off+size]}, nil
}

// Tail returns the view covering [off, Len()).
func (v View) Tail(off uint64) (View, error) {
	if off > v.Len() {
		return View{}, fmt.Errorf("%w: offset %d exceeds length %d", ErrOutOfBounds, off, len(v.b))
	}
	return View{b: v.b[off:]}, nil
}

// Bytes returns the zero-copy slice covering [off, off+size).
func (v View) Bytes(off, size uint64) ([]byte, error) {
	s, err := v.Sub(off, size)
	if err != nil {
		return nil, err
	}
	return s.b, nil
}

// Record copies up to width bytes starting at off into a zero-filled buffer
// of exactly width bytes. avail limits how many bytes are taken from the
// view; anything past avail stays zero. The range [off, off+min(width,
// avail)) must be in bounds.
func (v View) Record(off, width, avail uint64) ([]byte, error) {
	n := min(width, avail)
	src, err := v.Bytes(off, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, width)
	copy(out, src)
	return out, nil
}

// U8 reads a byte at off.
func (v View) U8(off uint64) (uint8, error) {
	if err := v.check(off, 1); err != nil {
		return 0, err
	}
	return v.b[off], nil
}

// U16 reads a little-endian uint16 at off.
func (v View) U16(off uint64) (uint16, error) {
	if err := v.check(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.b[off:]), nil
}

// U32 reads a little-endian uint32 at off.
func (v View) U32(off uint64) (uint32, error) {
	if err := v.check(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.b[off:]), nil
}

// U64 reads a little-endian uint64 at off.
func (v View) U64(off uint64) (uint64, error) {
	if err := v.check(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v.b[off:]), nil
}

// CString returns the NUL-terminated string starting at off without
// copying. When no terminator is present the rest of the view is returned.
// off == Len() yields the empty string.
func (v View) CString(off uint64) ([]byte, error) {
	rest, err := v.Tail(off)
	if err != nil {
		return nil, err
	}
	if i := bytes.IndexByte(rest.b, 0); i >= 0 {
		return rest.b[:i], nil
	}
	return rest.b, nil
}
