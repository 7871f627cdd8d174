package main

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/samcharles93/dxbc/internal/logger"
	"github.com/samcharles93/dxbc/pkg/dxc"
)

// report is the decoded view of a container shared by inspect and dump.
type report struct {
	Path      string             `json:"path"`
	Size      int                `json:"size"`
	Header    headerReport       `json:"header"`
	Parts     []partReport       `json:"parts"`
	Program   *programReport     `json:"program,omitempty"`
	Features  *string            `json:"feature_flags,omitempty"`
	Hash      *hashReport        `json:"shader_hash,omitempty"`
	PSV       *psvReport         `json:"psv,omitempty"`
	Signature map[string][]param `json:"signatures,omitempty"`
}

type headerReport struct {
	Magic     string `json:"magic"`
	Digest    string `json:"digest"`
	Version   string `json:"version"`
	FileSize  uint32 `json:"file_size"`
	PartCount uint32 `json:"part_count"`
}

type partReport struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Offset      uint32 `json:"offset"`
	Size        uint32 `json:"size"`
	Fingerprint string `json:"blake3,omitempty"`
}

type programReport struct {
	Version     string `json:"version"`
	ShaderKind  string `json:"shader_kind"`
	SizeDwords  uint32 `json:"size_dwords"`
	DXILVersion string `json:"dxil_version"`
	BitcodeSize int    `json:"bitcode_size"`
}

type hashReport struct {
	IncludesSource bool   `json:"includes_source"`
	Digest         string `json:"digest"`
}

type psvReport struct {
	Version          uint32          `json:"version"`
	MinWaveLaneCount uint32          `json:"min_wave_lane_count"`
	MaxWaveLaneCount uint32          `json:"max_wave_lane_count"`
	NumThreads       *[3]uint32      `json:"num_threads,omitempty"`
	EntryName        string          `json:"entry_name,omitempty"`
	ResourceStride   uint32          `json:"resource_stride,omitempty"`
	Resources        []resource      `json:"resources"`
	Elements         map[string]uint `json:"signature_elements,omitempty"`
}

type resource struct {
	Type       string `json:"type"`
	Space      uint32 `json:"space"`
	LowerBound uint32 `json:"lower_bound"`
	UpperBound uint32 `json:"upper_bound"`
	Kind       uint32 `json:"kind,omitempty"`
	Flags      uint32 `json:"flags,omitempty"`
}

type param struct {
	Name         string `json:"name"`
	Index        uint32 `json:"index"`
	SystemValue  string `json:"system_value"`
	CompType     string `json:"comp_type"`
	Register     uint32 `json:"register"`
	Mask         uint8  `json:"mask"`
	MinPrecision string `json:"min_precision"`
}

func fingerprint(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func buildReport(log logger.Logger, path string, c *dxc.Container, withFingerprints bool) report {
	h := c.Header()
	r := report{
		Path: path,
		Size: len(c.Data()),
		Header: headerReport{
			Magic:     string(h.Magic[:]),
			Digest:    hex.EncodeToString(h.Digest[:]),
			Version:   fmt.Sprintf("%d.%d", h.Version.Major, h.Version.Minor),
			FileSize:  h.FileSize,
			PartCount: h.PartCount,
		},
		Parts: make([]partReport, 0, c.Len()),
	}

	for i, p := range c.Parts() {
		pr := partReport{Index: i, Name: p.NameString(), Offset: p.Offset, Size: p.Size}
		if withFingerprints {
			pr.Fingerprint = fingerprint(p.Data)
		}
		logger.ForPart(log, i, pr.Name).Debug("part", "offset", p.Offset, "size", p.Size, "type", p.Type())
		r.Parts = append(r.Parts, pr)
	}

	if prog, ok := c.Program(); ok {
		ph := prog.Header
		r.Program = &programReport{
			Version:     fmt.Sprintf("%d.%d", ph.MajorVersion(), ph.MinorVersion()),
			ShaderKind:  ph.ShaderKind.String(),
			SizeDwords:  ph.Size,
			DXILVersion: fmt.Sprintf("%d.%d", ph.Bitcode.MajorVersion, ph.Bitcode.MinorVersion),
			BitcodeSize: len(prog.Bitcode),
		}
	}
	if ff, ok := c.ShaderFeatureFlags(); ok {
		s := fmt.Sprintf("%#x", uint64(ff))
		r.Features = &s
	}
	if sh, ok := c.ShaderHash(); ok {
		r.Hash = &hashReport{IncludesSource: sh.IncludesSource(), Digest: hex.EncodeToString(sh.Digest[:])}
	}
	if psv, ok := c.PSVInfo(); ok {
		r.PSV = psvSummary(psv)
	}

	sigs := map[string]func() (*dxc.Signature, bool){
		"input":          c.InputSignature,
		"output":         c.OutputSignature,
		"patch_constant": c.PatchConstantSignature,
	}
	for name, get := range sigs {
		s, ok := get()
		if !ok {
			continue
		}
		if r.Signature == nil {
			r.Signature = map[string][]param{}
		}
		params := make([]param, 0, s.Parameters.Len())
		for _, p := range s.Parameters.All() {
			params = append(params, param{
				Name:         s.Name(p),
				Index:        p.Index,
				SystemValue:  p.SystemValue.String(),
				CompType:     p.CompType.String(),
				Register:     p.Register,
				Mask:         p.Mask,
				MinPrecision: p.MinPrecision.String(),
			})
		}
		r.Signature[name] = params
	}
	return r
}

func psvSummary(psv *dxc.PSVInfo) *psvReport {
	pr := &psvReport{
		Version:          psv.Version,
		MinWaveLaneCount: psv.Info.MinimumWaveLaneCount,
		MaxWaveLaneCount: psv.Info.MaximumWaveLaneCount,
		Resources:        []resource{},
	}
	if psv.ResourceCount() > 0 {
		pr.ResourceStride = psv.ResourceStride()
	}
	if psv.Version >= 2 {
		pr.NumThreads = &[3]uint32{psv.Info.NumThreadsX, psv.Info.NumThreadsY, psv.Info.NumThreadsZ}
	}
	if name, ok := psv.EntryName(); ok {
		pr.EntryName = name
	}
	for _, res := range psv.Resources.All() {
		pr.Resources = append(pr.Resources, resource{
			Type:       res.Type.String(),
			Space:      res.Space,
			LowerBound: res.LowerBound,
			UpperBound: res.UpperBound,
			Kind:       res.Kind,
			Flags:      uint32(res.Flags),
		})
	}
	if psv.Version >= 1 {
		pr.Elements = map[string]uint{
			"input":              uint(psv.SigInputElements.Len()),
			"output":             uint(psv.SigOutputElements.Len()),
			"patch_or_primitive": uint(psv.SigPatchOrPrimElements.Len()),
		}
	}
	return pr
}
