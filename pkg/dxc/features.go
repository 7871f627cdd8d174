package dxc

import (
	"fmt"

	"github.com/samcharles93/dxbc/internal/binview"
)

const (
	featureFlagsSize = 8
	shaderHashSize   = 4 + DigestSize
)

// FeatureFlags is the bitmask stored in an SFI0 part.
type FeatureFlags uint64

// Has reports whether all bits of f are set.
func (ff FeatureFlags) Has(f FeatureFlags) bool { return ff&f == f }

// HashFlags qualify a shader hash.
type HashFlags uint32

// HashIncludesSource marks a digest computed over the shader source.
const HashIncludesSource HashFlags = 1 << 0

// ShaderHash is the content of a HASH part.
type ShaderHash struct {
	Flags  HashFlags
	Digest [DigestSize]byte
}

// IncludesSource reports whether the digest covers the shader source.
func (h ShaderHash) IncludesSource() bool { return h.Flags&HashIncludesSource != 0 }

// ParseFeatureFlags decodes the data of an SFI0 part.
func ParseFeatureFlags(data []byte) (FeatureFlags, error) {
	f, err := binview.New(data).U64(0)
	if err != nil {
		return 0, fmt.Errorf("%w: feature flags need %d bytes, part has %d",
			ErrPartTooSmallForHeader, featureFlagsSize, len(data))
	}
	return FeatureFlags(f), nil
}

// ParseShaderHash decodes the data of a HASH part.
func ParseShaderHash(data []byte) (ShaderHash, error) {
	v := binview.New(data)
	b, err := v.Bytes(0, shaderHashSize)
	if err != nil {
		return ShaderHash{}, fmt.Errorf("%w: shader hash needs %d bytes, part has %d",
			ErrPartTooSmallForHeader, shaderHashSize, len(data))
	}
	flags, _ := v.U32(0)
	h := ShaderHash{Flags: HashFlags(flags)}
	copy(h.Digest[:], b[4:])
	return h, nil
}
