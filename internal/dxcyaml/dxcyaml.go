// Package dxcyaml builds DXContainer binaries from a declarative YAML
// description. It is the fixture generator for tests and the backend of the
// `dxc build` command.
//
// The description mirrors the container layout:
//
//	Header:
//	  Hash: [ 0x0, ... ]
//	  Version: { Major: 1, Minor: 0 }
//	Parts:
//	  - Name: DXIL
//	    Size: 24
//	    Program: { MajorVersion: 6, MinorVersion: 0, ShaderKind: 14 }
//
// Header.FileSize, Header.PartCount and Header.PartOffsets override the
// computed values, which makes it possible to describe malformed files.
package dxcyaml

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/samcharles93/dxbc/pkg/dxc"
	"gopkg.in/yaml.v3"
)

// Object is the root of a container description.
type Object struct {
	Header Header `yaml:"Header"`
	Parts  []Part `yaml:"Parts"`
}

type Version struct {
	Major uint16 `yaml:"Major"`
	Minor uint16 `yaml:"Minor"`
}

type Header struct {
	Hash        []uint8  `yaml:"Hash"`
	Version     *Version `yaml:"Version"`
	FileSize    *uint32  `yaml:"FileSize"`
	PartCount   *uint32  `yaml:"PartCount"`
	PartOffsets []uint32 `yaml:"PartOffsets"`
}

// Part describes one part. At most one of the payload fields is used; a
// part without one is zero filled. The payload is padded or truncated to
// Size when Size is set.
type Part struct {
	Name string  `yaml:"Name"`
	Size *uint32 `yaml:"Size"`

	Program   *Program   `yaml:"Program"`
	PSVInfo   *PSVInfo   `yaml:"PSVInfo"`
	Signature *Signature `yaml:"Signature"`
	Hash      *Hash      `yaml:"Hash"`
	Flags     *uint64    `yaml:"Flags"`
	Data      []uint8    `yaml:"Data"`
}

type Program struct {
	MajorVersion     uint8   `yaml:"MajorVersion"`
	MinorVersion     uint8   `yaml:"MinorVersion"`
	ShaderKind       uint16  `yaml:"ShaderKind"`
	Size             uint32  `yaml:"Size"`
	DXILMajorVersion uint8   `yaml:"DXILMajorVersion"`
	DXILMinorVersion uint8   `yaml:"DXILMinorVersion"`
	DXILOffset       uint32  `yaml:"DXILOffset"`
	DXILSize         uint32  `yaml:"DXILSize"`
	DXIL             []uint8 `yaml:"DXIL"`
}

type Hash struct {
	IncludesSource bool    `yaml:"IncludesSource"`
	Digest         []uint8 `yaml:"Digest"`
}

type Signature struct {
	Parameters []SignatureParameter `yaml:"Parameters"`
}

type SignatureParameter struct {
	Stream        uint32        `yaml:"Stream"`
	Name          string        `yaml:"Name"`
	Index         uint32        `yaml:"Index"`
	SystemValue   SystemValue   `yaml:"SystemValue"`
	CompType      ComponentType `yaml:"CompType"`
	Register      uint32        `yaml:"Register"`
	Mask          uint8         `yaml:"Mask"`
	ExclusiveMask uint8         `yaml:"ExclusiveMask"`
	MinPrecision  MinPrecision  `yaml:"MinPrecision"`
}

// PSVInfo describes a PSV0 part. ShaderStage selects how the stage fields
// are packed; it is also written to the runtime info from version 1 on.
type PSVInfo struct {
	Version     uint32 `yaml:"Version"`
	ShaderStage uint8  `yaml:"ShaderStage"`

	OutputPositionPresent   uint8  `yaml:"OutputPositionPresent"`
	DepthOutput             uint8  `yaml:"DepthOutput"`
	SampleFrequency         uint8  `yaml:"SampleFrequency"`
	InputControlPointCount  uint32 `yaml:"InputControlPointCount"`
	OutputControlPointCount uint32 `yaml:"OutputControlPointCount"`
	PayloadSizeInBytes      uint32 `yaml:"PayloadSizeInBytes"`

	MinimumWaveLaneCount uint32 `yaml:"MinimumWaveLaneCount"`
	MaximumWaveLaneCount uint32 `yaml:"MaximumWaveLaneCount"`

	UsesViewID                   uint8      `yaml:"UsesViewID"`
	MaxVertexCountOrPatchVectors uint16     `yaml:"MaxVertexCountOrPatchVectors"`
	SigInputVectors              uint8      `yaml:"SigInputVectors"`
	SigOutputVectors             []uint8    `yaml:"SigOutputVectors"`
	NumThreadsX                  uint32     `yaml:"NumThreadsX"`
	NumThreadsY                  uint32     `yaml:"NumThreadsY"`
	NumThreadsZ                  uint32     `yaml:"NumThreadsZ"`
	EntryName                    string     `yaml:"EntryName"`
	ResourceStride               uint32     `yaml:"ResourceStride"`
	Resources                    []Resource `yaml:"Resources"`

	SigInputElements       []SignatureElement `yaml:"SigInputElements"`
	SigOutputElements      []SignatureElement `yaml:"SigOutputElements"`
	SigPatchOrPrimElements []SignatureElement `yaml:"SigPatchOrPrimElements"`
}

type Resource struct {
	Type       ResourceType `yaml:"Type"`
	Space      uint32       `yaml:"Space"`
	LowerBound uint32       `yaml:"LowerBound"`
	UpperBound uint32       `yaml:"UpperBound"`
	Kind       uint32       `yaml:"Kind"`
	Flags      uint32       `yaml:"Flags"`
}

// SignatureElement is a PSV signature element. Name is interned in the PSV
// string table and Indices in the semantic index table.
type SignatureElement struct {
	Name          string   `yaml:"Name"`
	Indices       []uint32 `yaml:"Indices"`
	StartRow      uint8    `yaml:"StartRow"`
	Cols          uint8    `yaml:"Cols"`
	StartCol      uint8    `yaml:"StartCol"`
	Allocated     bool     `yaml:"Allocated"`
	Kind          uint8    `yaml:"Kind"`
	ComponentType uint8    `yaml:"ComponentType"`
	Interpolation uint8    `yaml:"Interpolation"`
	DynamicMask   uint8    `yaml:"DynamicMask"`
	Stream        uint8    `yaml:"Stream"`
}

// Build parses a YAML description and returns the container bytes.
func Build(src []byte) ([]byte, error) {
	var obj Object
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("dxcyaml: decode: %w", err)
	}
	return obj.Build()
}

// Build encodes the object.
func (o *Object) Build() ([]byte, error) {
	w := dxc.NewWriter()
	if o.Header.Version != nil {
		w.SetVersion(dxc.Version{Major: o.Header.Version.Major, Minor: o.Header.Version.Minor})
	}
	if len(o.Header.Hash) > 0 {
		d, err := digest(o.Header.Hash)
		if err != nil {
			return nil, fmt.Errorf("dxcyaml: header hash: %w", err)
		}
		w.SetDigest(d)
	}

	for i, p := range o.Parts {
		data, err := p.encode()
		if err != nil {
			return nil, fmt.Errorf("dxcyaml: part %d (%s): %w", i, p.Name, err)
		}
		if err := w.AddPart(p.Name, data); err != nil {
			return nil, fmt.Errorf("dxcyaml: part %d: %w", i, err)
		}
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("dxcyaml: %w", err)
	}
	o.Header.patch(out)
	return out, nil
}

func (h *Header) patch(out []byte) {
	if h.FileSize != nil {
		binary.LittleEndian.PutUint32(out[24:], *h.FileSize)
	}
	if h.PartCount != nil {
		binary.LittleEndian.PutUint32(out[28:], *h.PartCount)
	}
	for i, off := range h.PartOffsets {
		pos := dxc.HeaderSize + 4*i
		if pos+4 > len(out) {
			break
		}
		binary.LittleEndian.PutUint32(out[pos:], off)
	}
}

func (p *Part) encode() ([]byte, error) {
	var data []byte
	var err error
	switch {
	case p.Program != nil:
		data = p.Program.encode()
	case p.PSVInfo != nil:
		data, err = p.PSVInfo.encode()
	case p.Signature != nil:
		data = p.Signature.encode()
	case p.Hash != nil:
		data, err = p.Hash.encode()
	case p.Flags != nil:
		data = dxc.EncodeFeatureFlags(dxc.FeatureFlags(*p.Flags))
	default:
		data = p.Data
	}
	if err != nil {
		return nil, err
	}
	if p.Size != nil {
		sized := make([]byte, *p.Size)
		copy(sized, data)
		data = sized
	}
	return data, nil
}

func (p *Program) encode() []byte {
	h := dxc.ProgramHeader{
		Version:    dxc.PackProgramVersion(p.MajorVersion, p.MinorVersion),
		ShaderKind: dxc.ShaderKind(p.ShaderKind),
		Size:       p.Size,
		Bitcode: dxc.BitcodeHeader{
			MajorVersion: p.DXILMajorVersion,
			MinorVersion: p.DXILMinorVersion,
			Offset:       p.DXILOffset,
			Size:         p.DXILSize,
		},
	}
	return dxc.EncodeProgram(h, p.DXIL)
}

func (h *Hash) encode() ([]byte, error) {
	var sh dxc.ShaderHash
	if h.IncludesSource {
		sh.Flags = dxc.HashIncludesSource
	}
	if len(h.Digest) > 0 {
		d, err := digest(h.Digest)
		if err != nil {
			return nil, err
		}
		sh.Digest = d
	}
	return dxc.EncodeShaderHash(sh), nil
}

func (s *Signature) encode() []byte {
	entries := make([]dxc.SignatureEntry, len(s.Parameters))
	for i, p := range s.Parameters {
		entries[i] = dxc.SignatureEntry{
			Name: p.Name,
			Parameter: dxc.SignatureParameter{
				Stream:        p.Stream,
				Index:         p.Index,
				SystemValue:   dxc.SystemValue(p.SystemValue),
				CompType:      dxc.ComponentType(p.CompType),
				Register:      p.Register,
				Mask:          p.Mask,
				ExclusiveMask: p.ExclusiveMask,
				MinPrecision:  dxc.MinPrecision(p.MinPrecision),
			},
		}
	}
	return dxc.EncodeSignature(entries)
}

func (p *PSVInfo) encode() ([]byte, error) {
	kind := dxc.ShaderKind(p.ShaderStage)
	info := dxc.RuntimeInfo{
		Stage:                        p.stage(kind),
		MinimumWaveLaneCount:         p.MinimumWaveLaneCount,
		MaximumWaveLaneCount:         p.MaximumWaveLaneCount,
		ShaderStage:                  p.ShaderStage,
		UsesViewID:                   p.UsesViewID,
		MaxVertexCountOrPatchVectors: p.MaxVertexCountOrPatchVectors,
		SigInputVectors:              p.SigInputVectors,
		NumThreadsX:                  p.NumThreadsX,
		NumThreadsY:                  p.NumThreadsY,
		NumThreadsZ:                  p.NumThreadsZ,
	}
	copy(info.SigOutputVectors[:], p.SigOutputVectors)

	layout := dxc.PSVLayout{
		Version:        p.Version,
		ResourceStride: p.ResourceStride,
	}
	for _, r := range p.Resources {
		layout.Resources = append(layout.Resources, dxc.ResourceBindInfo{
			Type:       dxc.ResourceType(r.Type),
			Space:      r.Space,
			LowerBound: r.LowerBound,
			UpperBound: r.UpperBound,
			Kind:       r.Kind,
			Flags:      dxc.ResourceFlags(r.Flags),
		})
	}

	if p.Version >= 1 {
		st := newStringTable()
		if p.EntryName != "" {
			info.EntryNameOffset = st.add(p.EntryName)
		}
		var indices []uint32
		elems := func(in []SignatureElement) []dxc.PSVSignatureElement {
			out := make([]dxc.PSVSignatureElement, 0, len(in))
			for _, e := range in {
				out = append(out, dxc.PSVSignatureElement{
					NameOffset:    st.add(e.Name),
					IndicesOffset: uint32(len(indices)),
					Rows:          uint8(len(e.Indices)),
					StartRow:      e.StartRow,
					Cols:          e.Cols,
					StartCol:      e.StartCol,
					Allocated:     e.Allocated,
					SemanticKind:  e.Kind,
					ComponentType: e.ComponentType,
					Interpolation: e.Interpolation,
					DynamicMask:   e.DynamicMask,
					Stream:        e.Stream,
				})
				indices = append(indices, e.Indices...)
			}
			return out
		}
		layout.SigInputElements = elems(p.SigInputElements)
		layout.SigOutputElements = elems(p.SigOutputElements)
		layout.SigPatchOrPrimElements = elems(p.SigPatchOrPrimElements)
		layout.StringTable = st.bytes()
		layout.SemanticIndices = indices
	}
	layout.Info = info
	return dxc.EncodePSV(layout)
}

func (p *PSVInfo) stage(kind dxc.ShaderKind) dxc.StageInfo {
	s := dxc.StageInfo{Kind: kind}
	raw := s.Raw[:]
	switch kind {
	case dxc.ShaderPixel:
		raw[0] = p.DepthOutput
		raw[1] = p.SampleFrequency
	case dxc.ShaderVertex:
		raw[0] = p.OutputPositionPresent
	case dxc.ShaderGeometry:
		raw[12] = p.OutputPositionPresent
	case dxc.ShaderHull:
		binary.LittleEndian.PutUint32(raw[0:], p.InputControlPointCount)
		binary.LittleEndian.PutUint32(raw[4:], p.OutputControlPointCount)
	case dxc.ShaderDomain:
		binary.LittleEndian.PutUint32(raw[0:], p.InputControlPointCount)
		raw[4] = p.OutputPositionPresent
	case dxc.ShaderMesh:
		binary.LittleEndian.PutUint32(raw[8:], p.PayloadSizeInBytes)
	case dxc.ShaderAmplification:
		binary.LittleEndian.PutUint32(raw[0:], p.PayloadSizeInBytes)
	}
	return s
}

// stringTable interns NUL terminated names. Offset 0 is the empty string.
type stringTable struct {
	buf  []byte
	seen map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{buf: []byte{0}, seen: map[string]uint32{"": 0}}
}

func (t *stringTable) add(s string) uint32 {
	if off, ok := t.seen[s]; ok {
		return off
	}
	off := uint32(len(t.buf))
	t.buf = append(t.buf, s...)
	t.buf = append(t.buf, 0)
	t.seen[s] = off
	return off
}

func (t *stringTable) bytes() []byte { return t.buf }

func digest(b []uint8) ([dxc.DigestSize]byte, error) {
	var d [dxc.DigestSize]byte
	if len(b) != dxc.DigestSize {
		return d, fmt.Errorf("digest has %d bytes, want %d", len(b), dxc.DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

// Enumerations accept either their name or their numeric value.

type ResourceType uint32

func (t *ResourceType) UnmarshalYAML(n *yaml.Node) error {
	v, err := enumValue(n, func(s string) (uint32, bool) {
		rt, ok := dxc.ParseResourceType(s)
		return uint32(rt), ok
	})
	*t = ResourceType(v)
	return err
}

type SystemValue uint32

func (sv *SystemValue) UnmarshalYAML(n *yaml.Node) error {
	v, err := enumValue(n, func(s string) (uint32, bool) {
		x, ok := dxc.ParseSystemValue(s)
		return uint32(x), ok
	})
	*sv = SystemValue(v)
	return err
}

type ComponentType uint32

func (c *ComponentType) UnmarshalYAML(n *yaml.Node) error {
	v, err := enumValue(n, func(s string) (uint32, bool) {
		x, ok := dxc.ParseComponentType(s)
		return uint32(x), ok
	})
	*c = ComponentType(v)
	return err
}

type MinPrecision uint32

func (p *MinPrecision) UnmarshalYAML(n *yaml.Node) error {
	v, err := enumValue(n, func(s string) (uint32, bool) {
		x, ok := dxc.ParseMinPrecision(s)
		return uint32(x), ok
	})
	*p = MinPrecision(v)
	return err
}

var errNotScalar = errors.New("expected a scalar")

func enumValue(n *yaml.Node, parse func(string) (uint32, bool)) (uint32, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: %w", n.Line, errNotScalar)
	}
	if v, err := strconv.ParseUint(n.Value, 0, 32); err == nil {
		return uint32(v), nil
	}
	if v, ok := parse(n.Value); ok {
		return v, nil
	}
	return 0, fmt.Errorf("line %d: unknown value %q", n.Line, n.Value)
}
