package dxc

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
)

// Writer assembles a container in memory.
//
// Parts are laid out back to back in the order they were added, directly
// after the offset table. Bytes computes every offset and the header file
// size; the writer itself never produces an invalid layout.
type Writer struct {
	header Header
	parts  []writerPart
	closed bool

	mu sync.Mutex
}

type writerPart struct {
	name [4]byte
	data []byte
}

// NewWriter creates a writer for a version 1.0 container with a zero digest.
func NewWriter() *Writer {
	w := &Writer{}
	copy(w.header.Magic[:], Magic)
	w.header.Version = Version{Major: 1, Minor: 0}
	return w
}

// SetVersion sets the container version.
func (w *Writer) SetVersion(v Version) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.header.Version = v
}

// SetDigest sets the container digest.
func (w *Writer) SetDigest(d [DigestSize]byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.header.Digest = d
}

// AddPart appends a part. name must be exactly four bytes. Parts with the
// same name may be added more than once.
func (w *Writer) AddPart(name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("dxc: writer already finalised")
	}
	if len(name) != 4 {
		return fmt.Errorf("dxc: part name %q must be 4 bytes", name)
	}
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("dxc: part %q too large", name)
	}
	var p writerPart
	copy(p.name[:], name)
	p.data = data
	w.parts = append(w.parts, p)
	return nil
}

// Bytes finalises the container and returns its encoding.
// After Bytes, the writer must not be used again.
func (w *Writer) Bytes() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("dxc: writer already finalised")
	}
	w.closed = true

	size := uint64(HeaderSize) + 4*uint64(len(w.parts))
	for _, p := range w.parts {
		size += PartHeaderSize + uint64(len(p.data))
	}
	if size > math.MaxUint32 {
		return nil, errors.New("dxc: container exceeds 4 GiB")
	}

	out := make([]byte, size)
	h := w.header
	h.FileSize = uint32(size)
	h.PartCount = uint32(len(w.parts))
	if !encodeHeader(out, h) {
		return nil, errors.New("dxc: encode header failed")
	}

	off := uint32(HeaderSize) + 4*uint32(len(w.parts))
	for i, p := range w.parts {
		putU32(out[HeaderSize+4*i:], off)
		copy(out[off:], p.name[:])
		putU32(out[off+4:], uint32(len(p.data)))
		copy(out[off+PartHeaderSize:], p.data)
		off += PartHeaderSize + uint32(len(p.data))
	}
	return out, nil
}

// WriteTo finalises the container and writes it to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	b, err := w.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := dst.Write(b)
	return int64(n), err
}
