package dxc

import (
	"fmt"

	"github.com/samcharles93/dxbc/internal/binview"
)

const (
	signatureHeaderSize    = 12
	signatureParameterSize = 32
)

// SystemValue is the D3D system value semantic of a signature parameter.
type SystemValue uint32

const (
	SVUndefined              SystemValue = 0
	SVPosition               SystemValue = 1
	SVClipDistance           SystemValue = 2
	SVCullDistance           SystemValue = 3
	SVRenderTargetArrayIndex SystemValue = 4
	SVViewPortArrayIndex     SystemValue = 5
	SVVertexID               SystemValue = 6
	SVPrimitiveID            SystemValue = 7
	SVInstanceID             SystemValue = 8
	SVIsFrontFace            SystemValue = 9
	SVSampleIndex            SystemValue = 10
	SVBarycentrics           SystemValue = 23
	SVShadingRate            SystemValue = 24
	SVCullPrimitive          SystemValue = 25
	SVTarget                 SystemValue = 64
	SVDepth                  SystemValue = 65
	SVCoverage               SystemValue = 66
	SVDepthGE                SystemValue = 67
	SVDepthLE                SystemValue = 68
	SVStencilRef             SystemValue = 69
	SVInnerCoverage          SystemValue = 70
)

var systemValueNames = map[SystemValue]string{
	SVUndefined:              "Undefined",
	SVPosition:               "Position",
	SVClipDistance:           "ClipDistance",
	SVCullDistance:           "CullDistance",
	SVRenderTargetArrayIndex: "RenderTargetArrayIndex",
	SVViewPortArrayIndex:     "ViewPortArrayIndex",
	SVVertexID:               "VertexID",
	SVPrimitiveID:            "PrimitiveID",
	SVInstanceID:             "InstanceID",
	SVIsFrontFace:            "IsFrontFace",
	SVSampleIndex:            "SampleIndex",
	SVBarycentrics:           "Barycentrics",
	SVShadingRate:            "ShadingRate",
	SVCullPrimitive:          "CullPrimitive",
	SVTarget:                 "Target",
	SVDepth:                  "Depth",
	SVCoverage:               "Coverage",
	SVDepthGE:                "DepthGE",
	SVDepthLE:                "DepthLE",
	SVStencilRef:             "StencilRef",
	SVInnerCoverage:          "InnerCoverage",
}

func (s SystemValue) String() string {
	if n, ok := systemValueNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SystemValue(%d)", uint32(s))
}

// ParseSystemValue maps a system value name to its value.
func ParseSystemValue(name string) (SystemValue, bool) {
	for v, n := range systemValueNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// ComponentType is the register component type of a signature parameter.
type ComponentType uint32

const (
	ComponentUnknown ComponentType = iota
	ComponentUInt32
	ComponentSInt32
	ComponentFloat32
	ComponentUInt16
	ComponentSInt16
	ComponentFloat16
	ComponentUInt64
	ComponentSInt64
	ComponentFloat64
)

var componentTypeNames = [...]string{
	"Unknown", "UInt32", "SInt32", "Float32", "UInt16", "SInt16", "Float16",
	"UInt64", "SInt64", "Float64",
}

func (c ComponentType) String() string {
	if int(c) < len(componentTypeNames) {
		return componentTypeNames[c]
	}
	return fmt.Sprintf("ComponentType(%d)", uint32(c))
}

// ParseComponentType maps a component type name to its value.
func ParseComponentType(name string) (ComponentType, bool) {
	for i, n := range componentTypeNames {
		if n == name {
			return ComponentType(i), true
		}
	}
	return 0, false
}

// MinPrecision is the minimum precision hint of a signature parameter.
type MinPrecision uint32

const (
	PrecisionDefault MinPrecision = 0
	PrecisionFloat16 MinPrecision = 1
	PrecisionFloat28 MinPrecision = 2
	PrecisionSInt16  MinPrecision = 4
	PrecisionUInt16  MinPrecision = 5
	PrecisionAny16   MinPrecision = 0xf0
	PrecisionAny10   MinPrecision = 0xf1
)

var minPrecisionNames = map[MinPrecision]string{
	PrecisionDefault: "Default",
	PrecisionFloat16: "Float16",
	PrecisionFloat28: "Float2_8",
	PrecisionSInt16:  "SInt16",
	PrecisionUInt16:  "UInt16",
	PrecisionAny16:   "Any16",
	PrecisionAny10:   "Any10",
}

func (p MinPrecision) String() string {
	if n, ok := minPrecisionNames[p]; ok {
		return n
	}
	return fmt.Sprintf("MinPrecision(%d)", uint32(p))
}

// ParseMinPrecision maps a precision name to its value.
func ParseMinPrecision(name string) (MinPrecision, bool) {
	for v, n := range minPrecisionNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// SignatureParameter is one 32-byte parameter record. NameOffset is relative
// to the start of the part data.
type SignatureParameter struct {
	Stream        uint32
	NameOffset    uint32
	Index         uint32
	SystemValue   SystemValue
	CompType      ComponentType
	Register      uint32
	Mask          uint8
	ExclusiveMask uint8
	MinPrecision  MinPrecision
}

func decodeSignatureParameter(b []byte) SignatureParameter {
	v := binview.New(b)
	var p SignatureParameter
	p.Stream, _ = v.U32(0)
	p.NameOffset, _ = v.U32(4)
	p.Index, _ = v.U32(8)
	sv, _ := v.U32(12)
	p.SystemValue = SystemValue(sv)
	ct, _ := v.U32(16)
	p.CompType = ComponentType(ct)
	p.Register, _ = v.U32(20)
	p.Mask, _ = v.U8(24)
	p.ExclusiveMask, _ = v.U8(25)
	mp, _ := v.U32(28)
	p.MinPrecision = MinPrecision(mp)
	return p
}

// Signature is a decoded ISG1, OSG1 or PSG1 part.
type Signature struct {
	ParametersStart  uint32
	StringTableStart uint32
	Parameters       Table[SignatureParameter]

	data binview.View
}

// Name resolves a parameter name from the string table. The offsets were
// validated by ParseSignature.
func (s *Signature) Name(p SignatureParameter) string {
	b, err := s.data.CString(uint64(p.NameOffset))
	if err != nil {
		return ""
	}
	return string(b)
}

// StringTable returns the raw string table bytes.
func (s *Signature) StringTable() []byte {
	t, _ := s.data.Tail(uint64(s.StringTableStart))
	return t.Raw()
}

// ParseSignature decodes the data of a signature part.
func ParseSignature(data []byte) (*Signature, error) {
	v := binview.New(data)
	if !v.Fits(0, signatureHeaderSize) {
		return nil, fmt.Errorf("%w: signature header needs %d bytes, part has %d",
			ErrPartTooSmallForHeader, signatureHeaderSize, len(data))
	}
	count, _ := v.U32(0)
	start, _ := v.U32(4)
	strStart, _ := v.U32(8)

	if start < signatureHeaderSize {
		return nil, fmt.Errorf("%w: parameters start at %d inside the signature header", ErrParametersExceedPart, start)
	}
	end, ok := binview.TableEnd(uint64(start), uint64(count), signatureParameterSize)
	if !ok || end > v.Len() {
		return nil, fmt.Errorf("%w: %d parameters at offset %d, part has %d bytes",
			ErrParametersExceedPart, count, start, len(data))
	}
	if uint64(strStart) != end {
		return nil, fmt.Errorf("%w: string table starts at %d, parameters end at %d",
			ErrMisalignedStringTable, strStart, end)
	}

	params, _ := v.Sub(uint64(start), end-uint64(start))
	s := &Signature{
		ParametersStart:  start,
		StringTableStart: strStart,
		Parameters:       newTable(params, count, signatureParameterSize, signatureParameterSize, decodeSignatureParameter),
		data:             v,
	}
	for i, p := range s.Parameters.All() {
		if p.NameOffset < strStart {
			return nil, fmt.Errorf("%w: parameter %d name offset %d, string table starts at %d",
				ErrNameBeforeStringTable, i, p.NameOffset, strStart)
		}
		if uint64(p.NameOffset) > v.Len() {
			return nil, fmt.Errorf("%w: parameter %d name offset %d, part has %d bytes",
				ErrNameAfterPartEnd, i, p.NameOffset, len(data))
		}
	}
	return s, nil
}
