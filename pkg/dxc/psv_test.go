package dxc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedPart struct {
	name string
	data []byte
}

func assemble(t *testing.T, parts ...namedPart) []byte {
	t.Helper()
	w := NewWriter()
	for _, p := range parts {
		require.NoError(t, w.AddPart(p.name, p.data))
	}
	buf, err := w.Bytes()
	require.NoError(t, err)
	return buf
}

func programPart(kind ShaderKind) namedPart {
	return namedPart{"DXIL", EncodeProgram(ProgramHeader{
		Version:    PackProgramVersion(6, 0),
		ShaderKind: kind,
		Bitcode:    BitcodeHeader{MajorVersion: 1},
	}, nil)}
}

func TestPSVResourceCursor(t *testing.T) {
	var stage StageInfo
	putU32(stage.Raw[0:], 4092)
	psv, err := EncodePSV(PSVLayout{
		Info: RuntimeInfo{
			Stage:                stage,
			MaximumWaveLaneCount: 0xFFFFFFFF,
		},
		ResourceStride: 16,
		Resources: []ResourceBindInfo{
			{Type: ResourceSampler, Space: 1, LowerBound: 1, UpperBound: 1},
			{Type: ResourceCBV, Space: 2, LowerBound: 2, UpperBound: 2},
			{Type: ResourceSRVTyped, Space: 3, LowerBound: 3, UpperBound: 3},
		},
	})
	require.NoError(t, err)

	// PSV ahead of DXIL: the shader kind is still taken from the program.
	c, err := Create(assemble(t, namedPart{"PSV0", psv}, programPart(ShaderAmplification)))
	require.NoError(t, err)

	info, ok := c.PSVInfo()
	require.True(t, ok)
	assert.Equal(t, uint32(0), info.Version)
	assert.Equal(t, 3, info.ResourceCount())
	assert.Equal(t, uint32(16), info.ResourceStride())
	assert.Equal(t, uint32(4092), info.Info.Stage.PayloadSizeInBytes())
	assert.Equal(t, uint32(0xFFFFFFFF), info.Info.MaximumWaveLaneCount)

	res := &info.Resources
	it := res.Begin()
	assert.True(t, it.Equal(res.Begin()))
	assert.Equal(t, ResourceSampler, it.Value().Type)
	assert.Equal(t, ResourceFlags(0), it.Value().Flags)

	it = it.Next()
	assert.Equal(t, ResourceCBV, it.Value().Type)

	it = it.Prev()
	assert.True(t, it.Equal(res.Begin()))
	assert.Equal(t, ResourceSampler, it.Value().Type)

	// Saturates at the beginning.
	it = it.Prev()
	assert.True(t, it.Equal(res.Begin()))
	assert.Equal(t, ResourceSampler, it.Value().Type)

	it = it.Next()
	assert.Equal(t, ResourceCBV, it.Value().Type)
	it = it.Next()
	assert.Equal(t, ResourceSRVTyped, it.Value().Type)
	assert.Equal(t, uint32(3), it.Value().Space)
	assert.False(t, it.Equal(res.End()))
	assert.False(t, it.AtEnd())

	it = it.Next()
	assert.True(t, it.Equal(res.End()))
	assert.True(t, it.AtEnd())
	assert.Equal(t, ResourceInvalid, it.Value().Type)
	assert.Equal(t, ResourceFlags(0), it.Value().Flags)

	// Saturates at the end.
	old := it
	it = it.Next()
	assert.True(t, old.Equal(res.End()))
	assert.True(t, it.Equal(res.End()))
	assert.Equal(t, ResourceInvalid, it.Value().Type)

	it = it.Prev()
	assert.Equal(t, ResourceSRVTyped, it.Value().Type)
	assert.Equal(t, 2, it.Pos())
}

func TestPSVResourcesFollowStride(t *testing.T) {
	buf := []byte{
		0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0xB0, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
		0x28, 0x00, 0x00, 0x00, 0x48, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C, 0x18, 0x00, 0x00, 0x00,
		0x60, 0x00, 0x0E, 0x00, 0x06, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C, 0x00, 0x01, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x50, 0x53, 0x56, 0x30, 0x64, 0x00, 0x00, 0x00,
		0x18, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00,
		0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	c, err := Create(buf)
	require.NoError(t, err)

	info, ok := c.PSVInfo()
	require.True(t, ok)
	require.Equal(t, 2, info.ResourceCount())
	assert.Equal(t, uint32(32), info.ResourceStride())

	want := []ResourceBindInfo{
		{Type: ResourceSampler, Space: 2, LowerBound: 3, UpperBound: 4},
		{Type: ResourceSRVStructured, Space: 6, LowerBound: 7, UpperBound: 8},
	}
	var got []ResourceBindInfo
	for _, r := range info.Resources.All() {
		got = append(got, r)
	}
	assert.Equal(t, want, got)

	it := info.Resources.Begin().Next().Next()
	assert.True(t, it.AtEnd())
	assert.Equal(t, ResourceInvalid, it.Value().Type)
}

func TestPSVShortStrideZeroFillsTrailingFields(t *testing.T) {
	psv, err := EncodePSV(PSVLayout{
		ResourceStride: 16,
		Resources: []ResourceBindInfo{
			{Type: ResourceUAVRaw, Space: 1, LowerBound: 2, UpperBound: 3, Kind: 9, Flags: ResourceUsedByAtomic64},
		},
	})
	require.NoError(t, err)

	info, err := ParsePSV(psv, ShaderCompute)
	require.NoError(t, err)
	r := info.Resources.At(0)
	assert.Equal(t, ResourceUAVRaw, r.Type)
	assert.Equal(t, uint32(3), r.UpperBound)
	assert.Zero(t, r.Kind)
	assert.Zero(t, r.Flags)

	psv, err = EncodePSV(PSVLayout{
		Resources: []ResourceBindInfo{
			{Type: ResourceUAVRaw, Kind: 9, Flags: ResourceUsedByAtomic64},
		},
	})
	require.NoError(t, err)
	info, err = ParsePSV(psv, ShaderCompute)
	require.NoError(t, err)
	assert.Equal(t, uint32(24), info.ResourceStride())
	assert.Equal(t, uint32(9), info.Resources.At(0).Kind)
	assert.Equal(t, ResourceUsedByAtomic64, info.Resources.At(0).Flags)
}

func TestPSVMaliciousFiles(t *testing.T) {
	t.Run("part beyond file", func(t *testing.T) {
		buf := []byte{
			0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
			0x60, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x28, 0x00, 0x00, 0x00,
			0x48, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C, 0x18, 0x00, 0x00, 0x00,
			0x60, 0x00, 0x0E, 0x00, 0x06, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C,
			0x00, 0x01, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x50, 0x53, 0x56, 0x30, 0x24, 0x00, 0x00, 0x00, 0x18, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		}
		_, err := Create(buf)
		require.ErrorIs(t, err, ErrPartExceedsFile)
	})

	t.Run("runtime info beyond part", func(t *testing.T) {
		buf := []byte{
			0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
			0x90, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00,
			0x4C, 0x00, 0x00, 0x00, 0x78, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C,
			0x18, 0x00, 0x00, 0x00, 0x60, 0x00, 0x0E, 0x00, 0x06, 0x00, 0x00, 0x00,
			0x44, 0x58, 0x49, 0x4C, 0x00, 0x01, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x50, 0x53, 0x56, 0x30, 0x24, 0x00, 0x00, 0x00,
			0x28, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
			0x42, 0x4C, 0x45, 0x48, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		}
		_, err := Create(buf)
		require.ErrorIs(t, err, ErrPartTooSmallForHeader)
		var pe *PartError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 1, pe.Index)
		assert.Equal(t, "PSV0", pe.Name)
	})

	t.Run("resources beyond part and file", func(t *testing.T) {
		buf := []byte{
			0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
			0x74, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x28, 0x00, 0x00, 0x00,
			0x48, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C, 0x18, 0x00, 0x00, 0x00,
			0x60, 0x00, 0x0E, 0x00, 0x06, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C,
			0x00, 0x01, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x50, 0x53, 0x56, 0x30, 0x24, 0x00, 0x00, 0x00, 0x18, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x01, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
		}
		_, err := Create(buf)
		require.ErrorIs(t, err, ErrResourceTableExceedsPart)
		var pe *PartError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 1, pe.Index)
	})

	t.Run("resources beyond part into next part", func(t *testing.T) {
		buf := []byte{
			0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
			0x90, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00,
			0x4C, 0x00, 0x00, 0x00, 0x78, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4C,
			0x18, 0x00, 0x00, 0x00, 0x60, 0x00, 0x0E, 0x00, 0x06, 0x00, 0x00, 0x00,
			0x44, 0x58, 0x49, 0x4C, 0x00, 0x01, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x50, 0x53, 0x56, 0x30, 0x24, 0x00, 0x00, 0x00,
			0x18, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00,
			0x42, 0x4C, 0x45, 0x48, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		}
		_, err := Create(buf)
		require.ErrorIs(t, err, ErrResourceTableExceedsPart)
		var pe *PartError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 1, pe.Index)
		assert.Equal(t, "PSV0", pe.Name)
	})
}

func TestPSVRejectsStrideBelowResourceRecord(t *testing.T) {
	rawPSV := func(count, stride uint32, tail int) []byte {
		data := appendU32(nil, psvInfoSizeV0)
		data = append(data, make([]byte, psvInfoSizeV0)...)
		data = appendU32(data, count)
		data = appendU32(data, stride)
		return append(data, make([]byte, tail)...)
	}

	for _, tc := range []struct {
		name          string
		count, stride uint32
		tail          int
	}{
		{name: "zero stride", count: 0xFFFFFFFF, stride: 0},
		{name: "eight byte stride", count: 2, stride: 8, tail: 16},
		{name: "fifteen byte stride", count: 1, stride: 15, tail: 15},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePSV(rawPSV(tc.count, tc.stride, tc.tail), ShaderCompute)
			require.ErrorIs(t, err, ErrResourceTableExceedsPart)

			_, err = Create(assemble(t, programPart(ShaderCompute), namedPart{"PSV0", rawPSV(tc.count, tc.stride, tc.tail)}))
			require.ErrorIs(t, err, ErrResourceTableExceedsPart)
			var pe *PartError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "PSV0", pe.Name)
		})
	}

	info, err := ParsePSV(rawPSV(1, 16, 16), ShaderCompute)
	require.NoError(t, err)
	assert.Equal(t, 1, info.ResourceCount())
}

func TestPSVMisalignedStringTable(t *testing.T) {
	buf := []byte{
		0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0xa8, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x28, 0x00, 0x00, 0x00,
		0x48, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4c, 0x18, 0x00, 0x00, 0x00,
		0x60, 0x00, 0x0e, 0x00, 0x06, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4c,
		0x00, 0x01, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x50, 0x53, 0x56, 0x30, 0x58, 0x00, 0x00, 0x00, 0x24, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff,
		0x05, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x08, 0x10, 0x20, 0x40,
		0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	_, err := Create(buf)
	require.ErrorIs(t, err, ErrMisalignedStringTable)
}

func TestPSVSignatureElementsExtendBeyondPart(t *testing.T) {
	buf := []byte{
		0x44, 0x58, 0x42, 0x43, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0xb4, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x28, 0x00, 0x00, 0x00,
		0x48, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4c, 0x18, 0x00, 0x00, 0x00,
		0x60, 0x00, 0x0e, 0x00, 0x06, 0x00, 0x00, 0x00, 0x44, 0x58, 0x49, 0x4c,
		0x00, 0x01, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x50, 0x53, 0x56, 0x30, 0x54, 0x00, 0x00, 0x00, 0x24, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff,
		0x05, 0x80, 0x00, 0x00, 0x02, 0x00, 0x00, 0x40, 0x08, 0x10, 0x20, 0x40,
		0x00, 0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x00, 0x49, 0x4e, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x42, 0x00, 0x02, 0x00, 0x03, 0x00,
	}
	_, err := Create(buf)
	require.ErrorIs(t, err, ErrSignatureElementsExceedPart)
}

func TestPSVRequiresProgram(t *testing.T) {
	psv, err := EncodePSV(PSVLayout{})
	require.NoError(t, err)

	_, err = Create(assemble(t, namedPart{"PSV0", psv}))
	require.ErrorIs(t, err, ErrMissingProgram)
	var pe *PartError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Index)
}

func TestPSVUnsupportedVersion(t *testing.T) {
	data := appendU32(nil, 20)
	data = append(data, make([]byte, 24)...)
	_, err := ParsePSV(data, ShaderPixel)
	require.ErrorIs(t, err, ErrUnsupportedPSVVersion)

	_, err = ParsePSV([]byte{1, 2}, ShaderPixel)
	require.ErrorIs(t, err, ErrPartTooSmallForHeader)

	_, err = EncodePSV(PSVLayout{Version: 4})
	require.ErrorIs(t, err, ErrUnsupportedPSVVersion)
}

func TestPSVVersion3(t *testing.T) {
	in := PSVSignatureElement{
		NameOffset:    1,
		IndicesOffset: 1,
		Rows:          2,
		Cols:          4,
		Allocated:     true,
		SemanticKind:  1,
		ComponentType: 3,
		Interpolation: 2,
		DynamicMask:   0xF,
		Stream:        1,
	}
	out := PSVSignatureElement{NameOffset: 6, Rows: 1, StartRow: 2, Cols: 3, StartCol: 1, SemanticKind: 3}

	psv, err := EncodePSV(PSVLayout{
		Version: 3,
		Info: RuntimeInfo{
			ShaderStage:     uint8(ShaderCompute),
			NumThreadsX:     8,
			NumThreadsY:     4,
			NumThreadsZ:     1,
			EntryNameOffset: 1,
		},
		Resources:         []ResourceBindInfo{{Type: ResourceUAVTyped, Space: 1}},
		StringTable:       []byte("\x00main\x00SV_Position\x00"),
		SemanticIndices:   []uint32{0, 1, 2},
		SigInputElements:  []PSVSignatureElement{in},
		SigOutputElements: []PSVSignatureElement{out},
	})
	require.NoError(t, err)

	c, err := Create(assemble(t, programPart(ShaderCompute), namedPart{"PSV0", psv}))
	require.NoError(t, err)
	info, ok := c.PSVInfo()
	require.True(t, ok)

	assert.Equal(t, uint32(3), info.Version)
	assert.Equal(t, uint32(52), info.InfoSize)
	assert.Equal(t, uint32(8), info.Info.NumThreadsX)
	assert.Equal(t, uint32(4), info.Info.NumThreadsY)
	assert.Equal(t, uint32(1), info.Info.NumThreadsZ)
	assert.Equal(t, uint8(1), info.Info.SigInputElements)
	assert.Equal(t, uint8(1), info.Info.SigOutputElements)
	assert.Zero(t, info.Info.SigPatchOrPrimElements)
	assert.Equal(t, ResourceUAVTyped, info.Resources.At(0).Type)
	assert.Zero(t, len(info.StringTable)%4)

	name, ok := info.EntryName()
	require.True(t, ok)
	assert.Equal(t, "main", name)

	require.Equal(t, 1, info.SigInputElements.Len())
	require.Equal(t, 1, info.SigOutputElements.Len())
	assert.Equal(t, 0, info.SigPatchOrPrimElements.Len())
	assert.Equal(t, in, info.SigInputElements.At(0))
	assert.Equal(t, out, info.SigOutputElements.At(0))

	idx, ok := info.ElementIndices(info.SigInputElements.At(0))
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 2}, idx)

	sem, ok := info.Name(info.SigOutputElements.At(0).NameOffset)
	require.True(t, ok)
	assert.Equal(t, "SV_Position", sem)

	_, ok = info.ElementIndices(PSVSignatureElement{IndicesOffset: 2, Rows: 2})
	assert.False(t, ok)
	_, ok = info.Name(1000)
	assert.False(t, ok)
}

func TestPSVVersionsFromInfoSize(t *testing.T) {
	for v, size := range []uint32{24, 36, 48, 52} {
		psv, err := EncodePSV(PSVLayout{Version: uint32(v)})
		require.NoError(t, err)
		info, err := ParsePSV(psv, ShaderVertex)
		require.NoError(t, err)
		assert.Equal(t, uint32(v), info.Version)
		assert.Equal(t, size, info.InfoSize)
		assert.Equal(t, 0, info.ResourceCount())

		_, ok := info.EntryName()
		assert.Equal(t, v == 3, ok)
	}
}

func TestStageInfo(t *testing.T) {
	var s StageInfo
	s.Raw[0] = 1
	s.Raw[1] = 1

	s.Kind = ShaderPixel
	assert.True(t, s.DepthOutput())
	assert.True(t, s.SampleFrequency())
	assert.False(t, s.OutputPositionPresent())

	s.Kind = ShaderVertex
	assert.True(t, s.OutputPositionPresent())
	assert.False(t, s.DepthOutput())

	s.Kind = ShaderHull
	in, out := s.ControlPoints()
	assert.Equal(t, uint32(0x101), in)
	assert.Zero(t, out)
}

func TestResourceTypeNames(t *testing.T) {
	rt, ok := ParseResourceType("SRVStructured")
	require.True(t, ok)
	assert.Equal(t, ResourceSRVStructured, rt)
	assert.Equal(t, "UAVStructuredWithCounter", ResourceUAVStructuredWithCounter.String())

	_, ok = ParseResourceType("Texture")
	assert.False(t, ok)
}

func TestPSVAlignmentIsRelativeToPart(t *testing.T) {
	psv, err := EncodePSV(PSVLayout{
		Version:         1,
		Resources:       []ResourceBindInfo{{Type: ResourceCBV, Space: 2}},
		StringTable:     []byte("\x00main\x00"),
		SemanticIndices: []uint32{7, 9},
	})
	require.NoError(t, err)

	// A 3-byte part in between leaves the PSV data at file offset 95.
	buf := assemble(t, programPart(ShaderCompute), namedPart{"FKE0", []byte{1, 2, 3}}, namedPart{"PSV0", psv})
	c, err := Create(buf)
	require.NoError(t, err)

	p, ok := c.Find("PSV0")
	require.True(t, ok)
	assert.Equal(t, uint32(87), p.Offset)

	info, ok := c.PSVInfo()
	require.True(t, ok)
	assert.Equal(t, ResourceCBV, info.Resources.At(0).Type)
	assert.Len(t, info.StringTable, 8)
	name, ok := info.Name(1)
	require.True(t, ok)
	assert.Equal(t, "main", name)
	require.Equal(t, 2, info.SemanticIndices.Len())
	assert.Equal(t, uint32(7), info.SemanticIndices.At(0))
	assert.Equal(t, uint32(9), info.SemanticIndices.At(1))
}
