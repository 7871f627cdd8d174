package dxc

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedHeader      = errors.New("dxc: not enough data to read the container header")
	ErrTruncatedOffsetTable = errors.New("dxc: part offset table extends beyond the end of the file")
	ErrTruncatedPartHeader  = errors.New("dxc: not enough data to read the part header")
	ErrPartExceedsFile      = errors.New("dxc: part extends beyond the end of the file")
	ErrOverlappingParts     = errors.New("dxc: part begins before the previous part ends")

	ErrPartTooSmallForHeader       = errors.New("dxc: part is too small for its header")
	ErrBitcodeExceedsPart          = errors.New("dxc: program bitcode extends beyond the bounds of the part")
	ErrUnsupportedPSVVersion       = errors.New("dxc: unsupported pipeline state validation version")
	ErrResourceTableExceedsPart    = errors.New("dxc: resource binding data extends beyond the bounds of the part")
	ErrSignatureElementsExceedPart = errors.New("dxc: signature elements extend beyond the bounds of the part")
	ErrMissingProgram              = errors.New("dxc: pipeline state validation requires a DXIL part")

	ErrParametersExceedPart  = errors.New("dxc: signature parameters extend beyond the part boundary")
	ErrMisalignedStringTable = errors.New("dxc: string table misaligned")
	ErrNameBeforeStringTable = errors.New("dxc: invalid parameter name offset: name starts before the string table")
	ErrNameAfterPartEnd      = errors.New("dxc: invalid parameter name offset: name starts after the end of the part data")
)

// OverlapError reports a part whose offset lies inside the previous part (or,
// for part 0, inside the header and offset table).
type OverlapError struct {
	Index   int
	Offset  uint64
	PrevEnd uint64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("dxc: part offset for part %d begins before the previous part ends (offset %d, previous end %d)",
		e.Index, e.Offset, e.PrevEnd)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingParts }

// PartError attributes a decode failure to the part that caused it.
type PartError struct {
	Index int
	Name  string
	Err   error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("part %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *PartError) Unwrap() error { return e.Err }
