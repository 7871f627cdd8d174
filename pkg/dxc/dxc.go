// Package dxc implements a reader for DXContainer (DXBC) shader containers.
//
// A container is a 32-byte header, a table of part offsets and a sequence of
// named, sized parts. Create validates the whole structure up front against
// the real buffer length and then exposes zero-copy views over the parts and
// the typed records inside them. Nothing derived from a malformed region is
// ever returned: the first structural error aborts the parse.
package dxc

// Container global constants must never change.
const (
	// Magic is the four byte tag at the start of every container.
	Magic = "DXBC"

	// HeaderSize is the size of the fixed container header.
	HeaderSize = 32

	// PartHeaderSize is the size of the name+size prefix of every part.
	PartHeaderSize = 8

	// DigestSize is the size of the container and shader hash digests.
	DigestSize = 16
)

// PartType identifies the parts this package knows how to decode.
type PartType int

const (
	PartUnknown PartType = iota
	PartDXIL
	PartSFI0
	PartHASH
	PartPSV0
	PartISG1
	PartOSG1
	PartPSG1
	PartRTS0
)

var partTypeNames = [...]string{
	PartUnknown: "",
	PartDXIL:    "DXIL",
	PartSFI0:    "SFI0",
	PartHASH:    "HASH",
	PartPSV0:    "PSV0",
	PartISG1:    "ISG1",
	PartOSG1:    "OSG1",
	PartPSG1:    "PSG1",
	PartRTS0:    "RTS0",
}

// ParsePartType maps a four byte part name to its type.
func ParsePartType(name string) PartType {
	for i, n := range partTypeNames {
		if i != int(PartUnknown) && n == name {
			return PartType(i)
		}
	}
	return PartUnknown
}

func (t PartType) String() string {
	if t <= PartUnknown || int(t) >= len(partTypeNames) {
		return "unknown"
	}
	return partTypeNames[t]
}
