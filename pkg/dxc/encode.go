package dxc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

func appendU32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

func alignUp4(n int) int { return (n + 3) &^ 3 }

// maxBitcodePadding bounds the gap EncodeProgram leaves between the program
// header and the bitcode.
const maxBitcodePadding = 1 << 16

// EncodeProgram builds the data of a DXIL part. Zero Bitcode.Magic,
// Bitcode.Offset and Bitcode.Size fields are filled in from bitcode; a zero
// Size is set to the part size in 32-bit words.
//
// An Offset that points into the program header or more than 64 KiB past it
// is written to the header as given, but the bitcode is placed directly
// after the header.
func EncodeProgram(h ProgramHeader, bitcode []byte) []byte {
	if h.Bitcode.Magic == [4]byte{} {
		copy(h.Bitcode.Magic[:], "DXIL")
	}
	if h.Bitcode.Offset == 0 {
		h.Bitcode.Offset = programHeaderSize - bitcodeHeaderOffset
	}
	if h.Bitcode.Size == 0 {
		h.Bitcode.Size = uint32(len(bitcode))
	}
	start := bitcodeHeaderOffset + uint64(h.Bitcode.Offset)
	if start < programHeaderSize || start > programHeaderSize+maxBitcodePadding {
		start = programHeaderSize
	}
	total := max(programHeaderSize, int(start)+len(bitcode))
	if h.Size == 0 {
		h.Size = uint32(alignUp4(total) / 4)
	}

	out := make([]byte, total)
	out[0] = h.Version
	putU16(out[2:], uint16(h.ShaderKind))
	putU32(out[4:], h.Size)
	copy(out[8:12], h.Bitcode.Magic[:])
	out[12] = h.Bitcode.MinorVersion
	out[13] = h.Bitcode.MajorVersion
	putU32(out[16:], h.Bitcode.Offset)
	putU32(out[20:], h.Bitcode.Size)
	copy(out[start:], bitcode)
	return out
}

// EncodeFeatureFlags builds the data of an SFI0 part.
func EncodeFeatureFlags(f FeatureFlags) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(f))
}

// EncodeShaderHash builds the data of a HASH part.
func EncodeShaderHash(h ShaderHash) []byte {
	out := appendU32(make([]byte, 0, shaderHashSize), uint32(h.Flags))
	return append(out, h.Digest[:]...)
}

// SignatureEntry is a parameter together with its name, for encoding.
// Parameter.NameOffset is ignored and computed by EncodeSignature.
type SignatureEntry struct {
	Name      string
	Parameter SignatureParameter
}

// EncodeSignature builds the data of a signature part: header, parameter
// records and a 4-byte aligned string table.
func EncodeSignature(entries []SignatureEntry) []byte {
	paramStart := uint32(signatureHeaderSize)
	strStart := paramStart + uint32(len(entries))*signatureParameterSize

	var strtab []byte
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = strStart + uint32(len(strtab))
		strtab = append(strtab, e.Name...)
		strtab = append(strtab, 0)
	}
	strtab = append(strtab, make([]byte, alignUp4(len(strtab))-len(strtab))...)

	out := make([]byte, int(strStart), int(strStart)+len(strtab))
	putU32(out[0:], uint32(len(entries)))
	putU32(out[4:], paramStart)
	putU32(out[8:], strStart)
	for i, e := range entries {
		b := out[paramStart+uint32(i)*signatureParameterSize:]
		p := e.Parameter
		putU32(b[0:], p.Stream)
		putU32(b[4:], offsets[i])
		putU32(b[8:], p.Index)
		putU32(b[12:], uint32(p.SystemValue))
		putU32(b[16:], uint32(p.CompType))
		putU32(b[20:], p.Register)
		b[24] = p.Mask
		b[25] = p.ExclusiveMask
		putU32(b[28:], uint32(p.MinPrecision))
	}
	return append(out, strtab...)
}

// PSVLayout is the input to EncodePSV.
type PSVLayout struct {
	Version uint32 // 0 to 3
	Info    RuntimeInfo

	// ResourceStride defaults to the 24-byte record size when zero.
	ResourceStride uint32
	Resources      []ResourceBindInfo

	// Version 1 and later.
	StringTable            []byte
	SemanticIndices        []uint32
	SigElementStride       uint32
	SigInputElements       []PSVSignatureElement
	SigOutputElements      []PSVSignatureElement
	SigPatchOrPrimElements []PSVSignatureElement
}

var psvInfoSizes = [...]uint32{psvInfoSizeV0, psvInfoSizeV1, psvInfoSizeV2, psvInfoSizeV3}

// EncodePSV builds the data of a PSV0 part. For version 1 and later the
// signature element counts in Info are taken from the element slices.
func EncodePSV(l PSVLayout) ([]byte, error) {
	if int(l.Version) >= len(psvInfoSizes) {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedPSVVersion, l.Version)
	}
	infoSize := psvInfoSizes[l.Version]
	if l.Version >= 1 {
		if len(l.SigInputElements) > 255 || len(l.SigOutputElements) > 255 || len(l.SigPatchOrPrimElements) > 255 {
			return nil, errors.New("dxc: too many PSV signature elements")
		}
		l.Info.SigInputElements = uint8(len(l.SigInputElements))
		l.Info.SigOutputElements = uint8(len(l.SigOutputElements))
		l.Info.SigPatchOrPrimElements = uint8(len(l.SigPatchOrPrimElements))
	}

	out := appendU32(nil, infoSize)
	out = append(out, encodeRuntimeInfo(l.Info, infoSize)...)

	out = appendU32(out, uint32(len(l.Resources)))
	if len(l.Resources) > 0 {
		stride := l.ResourceStride
		if stride == 0 {
			stride = resourceBindInfoSize
		}
		out = appendU32(out, stride)
		for _, r := range l.Resources {
			out = append(out, fitRecord(encodeResourceBindInfo(r), stride)...)
		}
	}
	if l.Version == 0 {
		return out, nil
	}

	out = append(out, make([]byte, alignUp4(len(out))-len(out))...)
	strtab := slices.Clone(l.StringTable)
	strtab = append(strtab, make([]byte, alignUp4(len(strtab))-len(strtab))...)
	out = appendU32(out, uint32(len(strtab)))
	out = append(out, strtab...)

	out = appendU32(out, uint32(len(l.SemanticIndices)))
	for _, idx := range l.SemanticIndices {
		out = appendU32(out, idx)
	}

	elems := slices.Concat(l.SigInputElements, l.SigOutputElements, l.SigPatchOrPrimElements)
	if len(elems) > 0 {
		stride := l.SigElementStride
		if stride == 0 {
			stride = psvSignatureElementSize
		}
		out = appendU32(out, stride)
		for _, e := range elems {
			out = append(out, fitRecord(encodePSVSignatureElement(e), stride)...)
		}
	}
	return out, nil
}

// fitRecord truncates or zero-pads rec to stride bytes.
func fitRecord(rec []byte, stride uint32) []byte {
	out := make([]byte, stride)
	copy(out, rec)
	return out
}

func encodeResourceBindInfo(r ResourceBindInfo) []byte {
	b := make([]byte, resourceBindInfoSize)
	putU32(b[0:], uint32(r.Type))
	putU32(b[4:], r.Space)
	putU32(b[8:], r.LowerBound)
	putU32(b[12:], r.UpperBound)
	putU32(b[16:], r.Kind)
	putU32(b[20:], uint32(r.Flags))
	return b
}

func encodeRuntimeInfo(ri RuntimeInfo, size uint32) []byte {
	b := make([]byte, psvInfoSizeV3)
	copy(b[0:16], ri.Stage.Raw[:])
	putU32(b[16:], ri.MinimumWaveLaneCount)
	putU32(b[20:], ri.MaximumWaveLaneCount)
	b[24] = ri.ShaderStage
	b[25] = ri.UsesViewID
	putU16(b[26:], ri.MaxVertexCountOrPatchVectors)
	b[28] = ri.SigInputElements
	b[29] = ri.SigOutputElements
	b[30] = ri.SigPatchOrPrimElements
	b[31] = ri.SigInputVectors
	copy(b[32:36], ri.SigOutputVectors[:])
	putU32(b[36:], ri.NumThreadsX)
	putU32(b[40:], ri.NumThreadsY)
	putU32(b[44:], ri.NumThreadsZ)
	putU32(b[48:], ri.EntryNameOffset)
	return b[:size]
}

func encodePSVSignatureElement(e PSVSignatureElement) []byte {
	b := make([]byte, psvSignatureElementSize)
	putU32(b[0:], e.NameOffset)
	putU32(b[4:], e.IndicesOffset)
	b[8] = e.Rows
	b[9] = e.StartRow
	b[10] = e.Cols&0xF | (e.StartCol&0x3)<<4
	if e.Allocated {
		b[10] |= 0x40
	}
	b[11] = e.SemanticKind
	b[12] = e.ComponentType
	b[13] = e.Interpolation
	b[14] = e.DynamicMask&0xF | (e.Stream&0x3)<<4
	return b
}
