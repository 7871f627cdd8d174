package dxc

import (
	"fmt"

	"github.com/samcharles93/dxbc/internal/binview"
)

// Runtime info sizes; the size field is what identifies the PSV version.
const (
	psvInfoSizeV0 = 24
	psvInfoSizeV1 = 36
	psvInfoSizeV2 = 48
	psvInfoSizeV3 = 52

	resourceBindInfoSize    = 24
	psvSignatureElementSize = 16

	// Type, Space and the two bounds.
	minResourceStride = 16
)

// ResourceType is the kind of binding in the PSV resource table.
type ResourceType uint32

const (
	ResourceInvalid ResourceType = iota
	ResourceSampler
	ResourceCBV
	ResourceSRVTyped
	ResourceSRVRaw
	ResourceSRVStructured
	ResourceUAVTyped
	ResourceUAVRaw
	ResourceUAVStructured
	ResourceUAVStructuredWithCounter
)

var resourceTypeNames = [...]string{
	"Invalid", "Sampler", "CBV", "SRVTyped", "SRVRaw", "SRVStructured",
	"UAVTyped", "UAVRaw", "UAVStructured", "UAVStructuredWithCounter",
}

func (t ResourceType) String() string {
	if int(t) < len(resourceTypeNames) {
		return resourceTypeNames[t]
	}
	return fmt.Sprintf("ResourceType(%d)", uint32(t))
}

// ParseResourceType maps a resource type name to its value.
func ParseResourceType(s string) (ResourceType, bool) {
	for i, n := range resourceTypeNames {
		if n == s {
			return ResourceType(i), true
		}
	}
	return ResourceInvalid, false
}

// ResourceFlags qualify a resource binding.
type ResourceFlags uint32

const ResourceUsedByAtomic64 ResourceFlags = 1 << 0

// ResourceBindInfo is one entry of the PSV resource table. Kind and Flags
// are only present when the table stride covers them.
type ResourceBindInfo struct {
	Type       ResourceType
	Space      uint32
	LowerBound uint32
	UpperBound uint32
	Kind       uint32
	Flags      ResourceFlags
}

func decodeResourceBindInfo(b []byte) ResourceBindInfo {
	v := binview.New(b)
	var r ResourceBindInfo
	typ, _ := v.U32(0)
	r.Type = ResourceType(typ)
	r.Space, _ = v.U32(4)
	r.LowerBound, _ = v.U32(8)
	r.UpperBound, _ = v.U32(12)
	r.Kind, _ = v.U32(16)
	flags, _ := v.U32(20)
	r.Flags = ResourceFlags(flags)
	return r
}

// StageInfo is the 16-byte stage specific block at the start of the runtime
// info. Its interpretation depends on the shader kind of the program part.
type StageInfo struct {
	Kind ShaderKind
	Raw  [16]byte
}

func (s StageInfo) u32(off int) uint32 {
	v, _ := binview.New(s.Raw[:]).U32(uint64(off))
	return v
}

// OutputPositionPresent is defined for vertex, domain and geometry shaders.
func (s StageInfo) OutputPositionPresent() bool {
	switch s.Kind {
	case ShaderVertex:
		return s.Raw[0] != 0
	case ShaderDomain:
		return s.Raw[4] != 0
	case ShaderGeometry:
		return s.Raw[12] != 0
	}
	return false
}

// PayloadSizeInBytes is defined for amplification and mesh shaders.
func (s StageInfo) PayloadSizeInBytes() uint32 {
	switch s.Kind {
	case ShaderAmplification:
		return s.u32(0)
	case ShaderMesh:
		return s.u32(8)
	}
	return 0
}

// ControlPoints returns the input and output control point counts of hull
// and domain shaders.
func (s StageInfo) ControlPoints() (in, out uint32) {
	switch s.Kind {
	case ShaderHull:
		return s.u32(0), s.u32(4)
	case ShaderDomain:
		return s.u32(0), 0
	}
	return 0, 0
}

// DepthOutput and SampleFrequency are defined for pixel shaders.
func (s StageInfo) DepthOutput() bool {
	return s.Kind == ShaderPixel && s.Raw[0] != 0
}

func (s StageInfo) SampleFrequency() bool {
	return s.Kind == ShaderPixel && s.Raw[1] != 0
}

// RuntimeInfo is the versioned runtime information block of a PSV part.
// Fields beyond the detected version are zero.
type RuntimeInfo struct {
	Stage                StageInfo
	MinimumWaveLaneCount uint32
	MaximumWaveLaneCount uint32

	// v1
	ShaderStage                  uint8
	UsesViewID                   uint8
	MaxVertexCountOrPatchVectors uint16
	SigInputElements             uint8
	SigOutputElements            uint8
	SigPatchOrPrimElements       uint8
	SigInputVectors              uint8
	SigOutputVectors             [4]uint8

	// v2
	NumThreadsX uint32
	NumThreadsY uint32
	NumThreadsZ uint32

	// v3
	EntryNameOffset uint32
}

func decodeRuntimeInfo(b []byte, kind ShaderKind) RuntimeInfo {
	v := binview.New(b)
	var ri RuntimeInfo
	ri.Stage.Kind = kind
	copy(ri.Stage.Raw[:], b)
	ri.MinimumWaveLaneCount, _ = v.U32(16)
	ri.MaximumWaveLaneCount, _ = v.U32(20)
	if v.Len() >= psvInfoSizeV1 {
		ri.ShaderStage, _ = v.U8(24)
		ri.UsesViewID, _ = v.U8(25)
		ri.MaxVertexCountOrPatchVectors, _ = v.U16(26)
		ri.SigInputElements, _ = v.U8(28)
		ri.SigOutputElements, _ = v.U8(29)
		ri.SigPatchOrPrimElements, _ = v.U8(30)
		ri.SigInputVectors, _ = v.U8(31)
		copy(ri.SigOutputVectors[:], b[32:36])
	}
	if v.Len() >= psvInfoSizeV2 {
		ri.NumThreadsX, _ = v.U32(36)
		ri.NumThreadsY, _ = v.U32(40)
		ri.NumThreadsZ, _ = v.U32(44)
	}
	if v.Len() >= psvInfoSizeV3 {
		ri.EntryNameOffset, _ = v.U32(48)
	}
	return ri
}

func psvVersionForSize(size uint32) (uint32, bool) {
	switch size {
	case psvInfoSizeV0:
		return 0, true
	case psvInfoSizeV1:
		return 1, true
	case psvInfoSizeV2:
		return 2, true
	case psvInfoSizeV3:
		return 3, true
	}
	return 0, false
}

// PSVSignatureElement describes one packed signature element in a PSV part.
type PSVSignatureElement struct {
	NameOffset    uint32
	IndicesOffset uint32
	Rows          uint8
	StartRow      uint8
	Cols          uint8
	StartCol      uint8
	Allocated     bool
	SemanticKind  uint8
	ComponentType uint8
	Interpolation uint8
	DynamicMask   uint8
	Stream        uint8
}

func decodePSVSignatureElement(b []byte) PSVSignatureElement {
	v := binview.New(b)
	var e PSVSignatureElement
	e.NameOffset, _ = v.U32(0)
	e.IndicesOffset, _ = v.U32(4)
	e.Rows = b[8]
	e.StartRow = b[9]
	e.Cols = b[10] & 0xF
	e.StartCol = (b[10] >> 4) & 0x3
	e.Allocated = b[10]&0x40 != 0
	e.SemanticKind = b[11]
	e.ComponentType = b[12]
	e.Interpolation = b[13]
	e.DynamicMask = b[14] & 0xF
	e.Stream = (b[14] >> 4) & 0x3
	return e
}

func decodeU32(b []byte) uint32 {
	v, _ := binview.New(b).U32(0)
	return v
}

// PSVInfo is a decoded pipeline state validation part.
type PSVInfo struct {
	Version  uint32
	InfoSize uint32
	Info     RuntimeInfo

	// HeaderSize is the offset of the resource table within the part.
	HeaderSize uint32
	Resources  Table[ResourceBindInfo]

	// Version 1 and later.
	StringTable            []byte
	SemanticIndices        Table[uint32]
	SigInputElements       Table[PSVSignatureElement]
	SigOutputElements      Table[PSVSignatureElement]
	SigPatchOrPrimElements Table[PSVSignatureElement]
}

// ResourceCount returns the number of resource bindings.
func (p *PSVInfo) ResourceCount() int { return p.Resources.Len() }

// ResourceStride returns the declared resource record stride.
func (p *PSVInfo) ResourceStride() uint32 { return p.Resources.Stride() }

// Name resolves an offset into the PSV string table.
func (p *PSVInfo) Name(off uint32) (string, bool) {
	s, err := binview.New(p.StringTable).CString(uint64(off))
	if err != nil {
		return "", false
	}
	return string(s), true
}

// EntryName returns the entry point name of a version 3 PSV part.
func (p *PSVInfo) EntryName() (string, bool) {
	if p.Version < 3 {
		return "", false
	}
	return p.Name(p.Info.EntryNameOffset)
}

// ElementIndices returns the semantic indices of a signature element.
func (p *PSVInfo) ElementIndices(e PSVSignatureElement) ([]uint32, bool) {
	end, ok := binview.End(uint64(e.IndicesOffset), uint64(e.Rows))
	if !ok || end > uint64(p.SemanticIndices.Len()) {
		return nil, false
	}
	out := make([]uint32, 0, e.Rows)
	for i := int(e.IndicesOffset); i < int(end); i++ {
		out = append(out, p.SemanticIndices.At(i))
	}
	return out, true
}

// ParsePSV decodes the data of a PSV0 part. kind is the shader kind of the
// program part and selects how the stage specific block is read.
func ParsePSV(data []byte, kind ShaderKind) (*PSVInfo, error) {
	v := binview.New(data)

	infoSize, err := v.U32(0)
	if err != nil {
		return nil, fmt.Errorf("%w: missing runtime info size", ErrPartTooSmallForHeader)
	}
	info, err := v.Bytes(4, uint64(infoSize))
	if err != nil {
		return nil, fmt.Errorf("%w: pipeline state data extends beyond the bounds of the part (%d bytes declared, %d available)",
			ErrPartTooSmallForHeader, infoSize, len(data)-4)
	}
	version, ok := psvVersionForSize(infoSize)
	if !ok {
		return nil, fmt.Errorf("%w: runtime info size %d", ErrUnsupportedPSVVersion, infoSize)
	}

	p := &PSVInfo{
		Version:  version,
		InfoSize: infoSize,
		Info:     decodeRuntimeInfo(info, kind),
	}

	cur := 4 + uint64(infoSize)
	count, err := v.U32(cur)
	if err != nil {
		return nil, fmt.Errorf("%w: missing resource count", ErrPartTooSmallForHeader)
	}
	cur += 4

	stride := uint32(resourceBindInfoSize)
	if count > 0 {
		stride, err = v.U32(cur)
		if err != nil {
			return nil, fmt.Errorf("%w: missing resource stride", ErrPartTooSmallForHeader)
		}
		cur += 4
		if stride < minResourceStride {
			return nil, fmt.Errorf("%w: resource stride %d is smaller than %d bytes",
				ErrResourceTableExceedsPart, stride, minResourceStride)
		}
	}
	p.HeaderSize = uint32(cur)

	end, ok := binview.TableEnd(cur, uint64(count), uint64(stride))
	if !ok || end > v.Len() {
		return nil, fmt.Errorf("%w: %d resources of %d bytes at offset %d, part has %d bytes",
			ErrResourceTableExceedsPart, count, stride, cur, len(data))
	}
	res, _ := v.Sub(cur, end-cur)
	p.Resources = newTable(res, count, stride, resourceBindInfoSize, decodeResourceBindInfo)
	cur = end

	if version == 0 {
		return p, nil
	}
	if err := p.parseSignatureTables(v, cur); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PSVInfo) parseSignatureTables(v binview.View, cur uint64) error {
	cur = (cur + 3) &^ 3

	size, err := v.U32(cur)
	if err != nil {
		return fmt.Errorf("%w: missing string table size", ErrPartTooSmallForHeader)
	}
	if size%4 != 0 {
		return fmt.Errorf("%w: string table size %d is not a multiple of 4", ErrMisalignedStringTable, size)
	}
	cur += 4
	p.StringTable, err = v.Bytes(cur, uint64(size))
	if err != nil {
		return fmt.Errorf("%w: string table extends beyond the part", ErrPartTooSmallForHeader)
	}
	cur += uint64(size)

	idxCount, err := v.U32(cur)
	if err != nil {
		return fmt.Errorf("%w: missing semantic index table size", ErrPartTooSmallForHeader)
	}
	cur += 4
	idx, err := v.Sub(cur, uint64(idxCount)*4)
	if err != nil {
		return fmt.Errorf("%w: semantic index table extends beyond the part", ErrPartTooSmallForHeader)
	}
	p.SemanticIndices = newTable(idx, idxCount, 4, 4, decodeU32)
	cur += uint64(idxCount) * 4

	in := uint32(p.Info.SigInputElements)
	out := uint32(p.Info.SigOutputElements)
	patch := uint32(p.Info.SigPatchOrPrimElements)
	total := in + out + patch
	if total == 0 {
		return nil
	}

	stride, err := v.U32(cur)
	if err != nil {
		return fmt.Errorf("%w: missing signature element stride", ErrPartTooSmallForHeader)
	}
	cur += 4
	end, ok := binview.TableEnd(cur, uint64(total), uint64(stride))
	if !ok || end > v.Len() {
		return fmt.Errorf("%w: %d elements of %d bytes at offset %d, part has %d bytes",
			ErrSignatureElementsExceedPart, total, stride, cur, v.Len())
	}

	split := func(n uint32) Table[PSVSignatureElement] {
		sub, _ := v.Sub(cur, uint64(n)*uint64(stride))
		cur += uint64(n) * uint64(stride)
		return newTable(sub, n, stride, psvSignatureElementSize, decodePSVSignatureElement)
	}
	p.SigInputElements = split(in)
	p.SigOutputElements = split(out)
	p.SigPatchOrPrimElements = split(patch)
	return nil
}
