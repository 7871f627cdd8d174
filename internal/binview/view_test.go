package binview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndDetectsOverflow(t *testing.T) {
	end, ok := End(10, 5)
	require.True(t, ok)
	assert.Equal(t, uint64(15), end)

	_, ok = End(math.MaxUint64, 1)
	assert.False(t, ok)

	// 32-bit fields widened before adding never wrap.
	end, ok = End(uint64(uint32(math.MaxUint32)), uint64(uint32(math.MaxUint32)))
	require.True(t, ok)
	assert.Equal(t, uint64(0x1FFFFFFFE), end)
}

func TestTableEnd(t *testing.T) {
	end, ok := TableEnd(8, 3, 16)
	require.True(t, ok)
	assert.Equal(t, uint64(56), end)

	_, ok = TableEnd(0, math.MaxUint64, 2)
	assert.False(t, ok)
	_, ok = TableEnd(math.MaxUint64, 1, 1)
	assert.False(t, ok)

	end, ok = TableEnd(4, 0, math.MaxUint64)
	require.True(t, ok)
	assert.Equal(t, uint64(4), end)
}

func TestSubAndBytes(t *testing.T) {
	v := New([]byte{0, 1, 2, 3, 4})

	s, err := v.Sub(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, s.Raw())

	_, err = v.Sub(4, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = v.Sub(math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)

	empty, err := v.Sub(5, 0)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	b, err := v.Bytes(0, 5)
	require.NoError(t, err)
	assert.Len(t, b, 5)
}

func TestSubDoesNotCopy(t *testing.T) {
	buf := []byte{9, 9, 9, 9}
	s, err := New(buf).Sub(1, 2)
	require.NoError(t, err)
	buf[1] = 7
	assert.Equal(t, byte(7), s.Raw()[0])
	// The capacity is clipped so appends cannot scribble over the parent.
	assert.Equal(t, 2, cap(s.Raw()))
}

func TestIntegers(t *testing.T) {
	v := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	u8, err := v.U8(7)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), u8)

	u16, err := v.U16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)

	u32, err := v.U32(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x08070605), u32)

	u64, err := v.U64(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0807060504030201), u64)

	_, err = v.U32(5)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = v.U64(1)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = v.U8(8)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestRecordZeroFills(t *testing.T) {
	v := New([]byte{1, 2, 3, 4, 5, 6})

	r, err := v.Record(2, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5, 0, 0, 0, 0, 0}, r)

	r, err = v.Record(0, 2, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, r)

	_, err = v.Record(4, 8, 8)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCString(t *testing.T) {
	v := New([]byte("AAA\x00BB"))

	s, err := v.CString(0)
	require.NoError(t, err)
	assert.Equal(t, "AAA", string(s))

	s, err = v.CString(4)
	require.NoError(t, err)
	assert.Equal(t, "BB", string(s))

	s, err = v.CString(6)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = v.CString(7)
	require.ErrorIs(t, err, ErrOutOfBounds)
}
