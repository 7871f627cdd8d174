package dxc

import (
	"fmt"

	"github.com/samcharles93/dxbc/internal/binview"
)

const (
	programHeaderSize = 24
	// Bitcode.Offset is relative to the start of the bitcode header.
	bitcodeHeaderOffset = 8
)

// ShaderKind is the program kind stored in the program header.
type ShaderKind uint16

const (
	ShaderPixel ShaderKind = iota
	ShaderVertex
	ShaderGeometry
	ShaderHull
	ShaderDomain
	ShaderCompute
	ShaderLibrary
	ShaderRayGeneration
	ShaderIntersection
	ShaderAnyHit
	ShaderClosestHit
	ShaderMiss
	ShaderCallable
	ShaderMesh
	ShaderAmplification
	ShaderInvalid
)

var shaderKindNames = [...]string{
	"pixel", "vertex", "geometry", "hull", "domain", "compute", "library",
	"raygeneration", "intersection", "anyhit", "closesthit", "miss",
	"callable", "mesh", "amplification",
}

func (k ShaderKind) String() string {
	if int(k) < len(shaderKindNames) {
		return shaderKindNames[k]
	}
	return fmt.Sprintf("ShaderKind(%d)", uint16(k))
}

// BitcodeHeader describes the bitcode blob nested in a program part.
type BitcodeHeader struct {
	Magic        [4]byte
	MinorVersion uint8
	MajorVersion uint8
	Offset       uint32
	Size         uint32
}

// ProgramHeader is the fixed 24-byte header of a DXIL part.
//
// Version packs the shader model into one byte: major in the high nibble,
// minor in the low nibble. Size is the program size in 32-bit words.
type ProgramHeader struct {
	Version    uint8
	ShaderKind ShaderKind
	Size       uint32
	Bitcode    BitcodeHeader
}

// MajorVersion returns the shader model major version.
func (h ProgramHeader) MajorVersion() uint8 { return h.Version >> 4 }

// MinorVersion returns the shader model minor version.
func (h ProgramHeader) MinorVersion() uint8 { return h.Version & 0xF }

// PackProgramVersion packs a shader model version for ProgramHeader.Version.
func PackProgramVersion(major, minor uint8) uint8 {
	return (major&0xF)<<4 | minor&0xF
}

// Program is a decoded DXIL part. Bitcode borrows from the part data.
type Program struct {
	Header  ProgramHeader
	Bitcode []byte
}

// ParseProgram decodes the data of a DXIL part.
func ParseProgram(data []byte) (Program, error) {
	v := binview.New(data)
	b, err := v.Bytes(0, programHeaderSize)
	if err != nil {
		return Program{}, fmt.Errorf("%w: program header needs %d bytes, part has %d",
			ErrPartTooSmallForHeader, programHeaderSize, len(data))
	}
	h := decodeProgramHeader(b)

	start, ok := binview.End(bitcodeHeaderOffset, uint64(h.Bitcode.Offset))
	if !ok {
		return Program{}, fmt.Errorf("%w: bitcode offset %d", ErrBitcodeExceedsPart, h.Bitcode.Offset)
	}
	bitcode, err := v.Bytes(start, uint64(h.Bitcode.Size))
	if err != nil {
		return Program{}, fmt.Errorf("%w: bitcode at %d size %d, part has %d bytes",
			ErrBitcodeExceedsPart, start, h.Bitcode.Size, len(data))
	}
	return Program{Header: h, Bitcode: bitcode}, nil
}

func decodeProgramHeader(b []byte) ProgramHeader {
	v := binview.New(b)
	var h ProgramHeader
	h.Version, _ = v.U8(0)
	kind, _ := v.U16(2)
	h.ShaderKind = ShaderKind(kind)
	h.Size, _ = v.U32(4)
	copy(h.Bitcode.Magic[:], b[8:12])
	h.Bitcode.MinorVersion, _ = v.U8(12)
	h.Bitcode.MajorVersion, _ = v.U8(13)
	h.Bitcode.Offset, _ = v.U32(16)
	h.Bitcode.Size, _ = v.U32(20)
	return h
}
