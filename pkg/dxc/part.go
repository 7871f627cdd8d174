package dxc

import (
	"fmt"

	"github.com/samcharles93/dxbc/internal/binview"
)

// Part is one named, sized part of a container. Data borrows from the
// container buffer.
type Part struct {
	Index  int
	Offset uint32
	Name   [4]byte
	Size   uint32
	Data   []byte
}

// NameString returns the part name as a string.
func (p *Part) NameString() string { return string(p.Name[:]) }

// Type returns the decoded part type, or PartUnknown.
func (p *Part) Type() PartType { return ParsePartType(p.NameString()) }

// End returns the offset one past the last byte of the part.
func (p *Part) End() uint64 {
	return uint64(p.Offset) + PartHeaderSize + uint64(p.Size)
}

func parseParts(v binview.View, h Header) ([]Part, error) {
	tableEnd, ok := binview.TableEnd(HeaderSize, uint64(h.PartCount), 4)
	if !ok || tableEnd > v.Len() {
		return nil, fmt.Errorf("%w: %d offsets need %d bytes after the header, file has %d",
			ErrTruncatedOffsetTable, h.PartCount, uint64(h.PartCount)*4, v.Len())
	}

	parts := make([]Part, h.PartCount)
	prevEnd := tableEnd
	for i := range parts {
		off, _ := v.U32(HeaderSize + uint64(i)*4)
		// Checked before the size field is read.
		if uint64(off) < prevEnd {
			return nil, &OverlapError{Index: i, Offset: uint64(off), PrevEnd: prevEnd}
		}

		hdr, err := v.Sub(uint64(off), PartHeaderSize)
		if err != nil {
			return nil, fmt.Errorf("%w: part %d at offset %d", ErrTruncatedPartHeader, i, off)
		}
		size, _ := hdr.U32(4)

		end, ok := binview.End(uint64(off)+PartHeaderSize, uint64(size))
		if !ok || end > v.Len() {
			return nil, fmt.Errorf("%w: part %d ends at %d, file has %d bytes", ErrPartExceedsFile, i, end, v.Len())
		}
		data, err := v.Bytes(uint64(off)+PartHeaderSize, uint64(size))
		if err != nil {
			return nil, fmt.Errorf("%w: part %d", ErrPartExceedsFile, i)
		}

		p := &parts[i]
		p.Index = i
		p.Offset = off
		copy(p.Name[:], hdr.Raw()[0:4])
		p.Size = size
		p.Data = data
		prevEnd = end
	}
	return parts, nil
}
