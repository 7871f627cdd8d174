package dxc

import (
	"iter"

	"github.com/samcharles93/dxbc/internal/binview"
)

// Table is a view over count fixed-stride records stored inside part data.
// It owns no memory: only a base view, a stride and a count.
//
// The stride comes from the file and need not match the natural record size.
// Each element is decoded from a zero-filled buffer of the record's natural
// width into which at most stride bytes are copied, so a short stride leaves
// trailing fields zero and a long stride skips unknown trailing bytes.
type Table[T any] struct {
	data   binview.View
	count  uint64
	stride uint64
	width  uint64
	decode func([]byte) T
}

func newTable[T any](data binview.View, count, stride uint32, width int, decode func([]byte) T) Table[T] {
	return Table[T]{
		data:   data,
		count:  uint64(count),
		stride: uint64(stride),
		width:  uint64(width),
		decode: decode,
	}
}

// Len returns the number of records.
func (t *Table[T]) Len() int { return int(t.count) }

// Stride returns the declared distance in bytes between records.
func (t *Table[T]) Stride() uint32 { return uint32(t.stride) }

// Raw returns the bytes backing the table.
func (t *Table[T]) Raw() []byte { return t.data.Raw() }

// At decodes record i. Positions outside [0, Len()) yield the zero record.
func (t *Table[T]) At(i int) T {
	var zero T
	if i < 0 || uint64(i) >= t.count || t.decode == nil {
		return zero
	}
	b, err := t.data.Record(uint64(i)*t.stride, t.width, t.stride)
	if err != nil {
		return zero
	}
	return t.decode(b)
}

// All iterates the records in order.
func (t *Table[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < t.Len(); i++ {
			if !yield(i, t.At(i)) {
				return
			}
		}
	}
}

// Backward iterates the records from last to first.
func (t *Table[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := t.Len() - 1; i >= 0; i-- {
			if !yield(i, t.At(i)) {
				return
			}
		}
	}
}

// Begin returns a cursor at the first record.
func (t *Table[T]) Begin() Cursor[T] { return Cursor[T]{tab: t} }

// End returns the end sentinel cursor, one past the last record.
func (t *Table[T]) End() Cursor[T] { return Cursor[T]{tab: t, pos: t.Len()} }

// Cursor is a bidirectional, random-access position in a Table.
//
// Positions 0..Len() are valid, Len() being the end sentinel. Value at the
// end sentinel returns the zero record. Moving past either end saturates:
// Next at End stays at End, Prev at Begin stays at Begin.
type Cursor[T any] struct {
	tab *Table[T]
	pos int
}

// Pos returns the cursor index.
func (c Cursor[T]) Pos() int { return c.pos }

// Value decodes the record under the cursor.
func (c Cursor[T]) Value() T {
	if c.tab == nil {
		var zero T
		return zero
	}
	return c.tab.At(c.pos)
}

// Next moves one stride forward.
func (c Cursor[T]) Next() Cursor[T] { return c.Advance(1) }

// Prev moves one stride backward.
func (c Cursor[T]) Prev() Cursor[T] { return c.Advance(-1) }

// Advance moves n records, clamped to [0, Len()].
func (c Cursor[T]) Advance(n int) Cursor[T] {
	if c.tab == nil {
		return c
	}
	c.pos = min(max(c.pos+n, 0), c.tab.Len())
	return c
}

// Equal reports whether both cursors point at the same position of the
// same table.
func (c Cursor[T]) Equal(o Cursor[T]) bool {
	return c.tab == o.tab && c.pos == o.pos
}

// AtEnd reports whether the cursor is the end sentinel.
func (c Cursor[T]) AtEnd() bool {
	return c.tab == nil || c.pos >= c.tab.Len()
}
