package dxc

import (
	"errors"
	"io"
	"iter"
	"os"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/dxbc/internal/binview"
)

var errFileTooLarge = errors.New("dxc: file too large to index")

// Container is a validated, read-only view over a DXContainer buffer.
//
// Every part and decoded record borrows from the buffer passed to Create;
// the caller must keep it alive and unmodified. A Container is never
// mutated after Create and is safe for concurrent readers.
type Container struct {
	data    []byte
	header  Header
	parts   []Part
	mmapped bool

	program  *Program
	features *FeatureFlags
	hash     *ShaderHash
	psv      *PSVInfo
	inSig    *Signature
	outSig   *Signature
	patchSig *Signature
}

// Create parses and validates buf. It fails on the first structural error
// and never returns a partially built container.
func Create(buf []byte) (*Container, error) {
	v := binview.New(buf)
	h, err := parseHeader(v)
	if err != nil {
		return nil, err
	}
	parts, err := parseParts(v, h)
	if err != nil {
		return nil, err
	}
	c := &Container{data: buf, header: h, parts: parts}
	if err := c.decodeParts(); err != nil {
		return nil, err
	}
	return c, nil
}

// decodeParts runs the structured decoders over recognised parts. Only the
// first part of each recognised type is decoded; later duplicates are kept
// in the part table but otherwise ignored.
func (c *Container) decodeParts() error {
	var psvPart *Part
	for i := range c.parts {
		p := &c.parts[i]
		var err error
		switch p.Type() {
		case PartDXIL:
			if c.program == nil {
				var prog Program
				if prog, err = ParseProgram(p.Data); err == nil {
					c.program = &prog
				}
			}
		case PartSFI0:
			if c.features == nil {
				var f FeatureFlags
				if f, err = ParseFeatureFlags(p.Data); err == nil {
					c.features = &f
				}
			}
		case PartHASH:
			if c.hash == nil {
				var h ShaderHash
				if h, err = ParseShaderHash(p.Data); err == nil {
					c.hash = &h
				}
			}
		case PartPSV0:
			// Decoded once the program part, which may come later, is known.
			if psvPart == nil {
				psvPart = p
			}
		case PartISG1:
			if c.inSig == nil {
				c.inSig, err = ParseSignature(p.Data)
			}
		case PartOSG1:
			if c.outSig == nil {
				c.outSig, err = ParseSignature(p.Data)
			}
		case PartPSG1:
			if c.patchSig == nil {
				c.patchSig, err = ParseSignature(p.Data)
			}
		}
		if err != nil {
			return &PartError{Index: p.Index, Name: p.NameString(), Err: err}
		}
	}

	if psvPart != nil {
		if c.program == nil {
			return &PartError{Index: psvPart.Index, Name: psvPart.NameString(), Err: ErrMissingProgram}
		}
		psv, err := ParsePSV(psvPart.Data, c.program.Header.ShaderKind)
		if err != nil {
			return &PartError{Index: psvPart.Index, Name: psvPart.NameString(), Err: err}
		}
		c.psv = psv
	}
	return nil
}

// Open maps a container file read-only and validates its structure.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned container must be closed to release any mapping.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, errFileTooLarge
	}
	size := int(size64)
	if size < HeaderSize {
		// Too small to map usefully; let Create report the truncation.
		data, err := readAllAt(f, size)
		if err != nil {
			return nil, err
		}
		return Create(data)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		c, parseErr := Create(data)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		c.mmapped = true
		return c, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return Create(data)
}

// OpenReaderAt loads and validates a container from a random-access reader.
func OpenReaderAt(r io.ReaderAt, size int64) (*Container, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, errFileTooLarge
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return Create(data)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Close releases any mmap backing. Containers built with Create over a
// caller-owned buffer have nothing to release.
func (c *Container) Close() error {
	if c == nil || c.data == nil {
		return nil
	}
	var err error
	if c.mmapped {
		err = unix.Munmap(c.data)
	}
	c.data = nil
	c.parts = nil
	c.mmapped = false
	return err
}

// Data returns the whole container buffer.
func (c *Container) Data() []byte { return c.data }

// Header returns the decoded container header.
func (c *Container) Header() Header { return c.header }

// Len returns the number of parts.
func (c *Container) Len() int { return len(c.parts) }

// Part returns part i, or nil when i is out of range.
func (c *Container) Part(i int) *Part {
	if i < 0 || i >= len(c.parts) {
		return nil
	}
	return &c.parts[i]
}

// Parts iterates the parts in offset-table order.
func (c *Container) Parts() iter.Seq2[int, *Part] {
	return func(yield func(int, *Part) bool) {
		for i := range c.parts {
			if !yield(i, &c.parts[i]) {
				return
			}
		}
	}
}

// Find returns the first part with the given name.
func (c *Container) Find(name string) (*Part, bool) {
	for i := range c.parts {
		if c.parts[i].NameString() == name {
			return &c.parts[i], true
		}
	}
	return nil, false
}

// FindAll returns every part with the given name in table order.
func (c *Container) FindAll(name string) []*Part {
	var out []*Part
	for i := range c.parts {
		if c.parts[i].NameString() == name {
			out = append(out, &c.parts[i])
		}
	}
	return out
}

// Program returns the decoded DXIL part.
func (c *Container) Program() (*Program, bool) { return c.program, c.program != nil }

// ShaderFeatureFlags returns the decoded SFI0 part.
func (c *Container) ShaderFeatureFlags() (FeatureFlags, bool) {
	if c.features == nil {
		return 0, false
	}
	return *c.features, true
}

// ShaderHash returns the decoded HASH part.
func (c *Container) ShaderHash() (ShaderHash, bool) {
	if c.hash == nil {
		return ShaderHash{}, false
	}
	return *c.hash, true
}

// PSVInfo returns the decoded PSV0 part.
func (c *Container) PSVInfo() (*PSVInfo, bool) { return c.psv, c.psv != nil }

// InputSignature returns the decoded ISG1 part.
func (c *Container) InputSignature() (*Signature, bool) { return c.inSig, c.inSig != nil }

// OutputSignature returns the decoded OSG1 part.
func (c *Container) OutputSignature() (*Signature, bool) { return c.outSig, c.outSig != nil }

// PatchConstantSignature returns the decoded PSG1 part.
func (c *Container) PatchConstantSignature() (*Signature, bool) {
	return c.patchSig, c.patchSig != nil
}
