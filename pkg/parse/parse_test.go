package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLittleEndianIntegers(t *testing.T) {
	in := NewInput([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f})

	rest, b, err := U8(in)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), b)
	assert.Equal(t, 1, rest.Offset())

	rest, h, err := LeU16(rest)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), h)

	rest, w, err := LeU32(rest)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), w)

	rest, q, err := LeU64(rest)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0f0e0d0c0b0a0908), q)
	assert.True(t, rest.Empty())
	assert.Equal(t, 15, rest.Offset())
}

func TestShortInputBacktracks(t *testing.T) {
	in := NewInput([]byte{0xaa, 0xbb, 0xcc}).Advance(1)
	_, _, err := LeU32(in)
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Backtrack, perr.Severity)
	assert.Equal(t, 1, perr.Offset())
	assert.Equal(t, KindEof, perr.Errors[0].Kind)
	assert.Equal(t, []byte{0xbb, 0xcc}, perr.Errors[0].Preview)
}

func TestTagMismatchIsFailure(t *testing.T) {
	magic := Tag([]byte("\x7fELF"))

	rest, v, err := magic(NewInput([]byte("\x7fELF\x02")))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x7fELF"), v)
	assert.Equal(t, 4, rest.Offset())

	for _, b := range [][]byte{nil, []byte("\x7fEL"), []byte("MZ\x90\x00")} {
		_, _, err := magic(NewInput(b))
		var perr *Error
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, Failure, perr.Severity)
		assert.Equal(t, 0, perr.Offset())
		assert.Equal(t, KindTag, perr.Errors[0].Kind)
	}
}

func TestContextStack(t *testing.T) {
	p := Context("Header", Preceded(Take(2), Context("Field", LeU32)))

	_, _, err := p(NewInput([]byte{0, 0, 1}))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	require.Len(t, perr.Errors, 3)
	assert.Equal(t, KindEof, perr.Errors[0].Kind)
	assert.Equal(t, 2, perr.Errors[0].Offset)
	assert.Equal(t, "Field", perr.Errors[1].Context)
	assert.Equal(t, 2, perr.Errors[1].Offset)
	assert.Equal(t, "Header", perr.Errors[2].Context)
	assert.Equal(t, 0, perr.Errors[2].Offset)
	assert.Equal(t, []string{"Header", "Field"}, perr.Contexts())
	assert.Contains(t, perr.Error(), "Header: Field: Eof at byte 0x2")
}

func TestMapResKeepsCause(t *testing.T) {
	errOdd := errors.New("odd")
	even := MapRes(U8, func(b uint8) (uint8, error) {
		if b%2 != 0 {
			return 0, errOdd
		}
		return b / 2, nil
	})

	_, v, err := even(NewInput([]byte{8}))
	require.NoError(t, err)
	assert.Equal(t, uint8(4), v)

	_, _, err = Cut(even)(NewInput([]byte{7}))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Failure, perr.Severity)
	assert.ErrorIs(t, err, errOdd)
}

func TestAlt(t *testing.T) {
	byteIs := func(want uint8) Parser[uint8] {
		return Verify(U8, func(b uint8) bool { return b == want })
	}
	p := Alt(Value("sysv", byteIs(0)), Value("linux", byteIs(3)))

	_, v, err := p(NewInput([]byte{3}))
	require.NoError(t, err)
	assert.Equal(t, "linux", v)

	_, _, err = p(NewInput([]byte{9}))
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Backtrack, perr.Severity)
	assert.Equal(t, KindAlt, perr.Errors[0].Kind)

	// a Failure inside an alternative is not retried
	q := Alt(Preceded(Tag([]byte{1}), U8), U8)
	_, _, err = q(NewInput([]byte{2, 2}))
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Failure, perr.Severity)
	assert.Equal(t, KindTag, perr.Errors[0].Kind)
}

func TestTuplesAndCount(t *testing.T) {
	in := NewInput([]byte{1, 0, 2, 0, 3, 0, 0, 0, 9, 9})

	rest, pair, err := Tuple2(LeU16, LeU16)(in)
	require.NoError(t, err)
	assert.Equal(t, Pair[uint16, uint16]{1, 2}, pair)

	rest, trip, err := Tuple3(U8, U8, LeU16)(rest)
	require.NoError(t, err)
	assert.Equal(t, Triple[uint8, uint8, uint16]{3, 0, 0}, trip)

	_, all, err := Count(U8, 2)(rest)
	require.NoError(t, err)
	assert.Equal(t, []uint8{9, 9}, all)

	_, _, err = Count(U8, 3)(rest)
	require.Error(t, err)
}

func TestAtReadsOutOfLine(t *testing.T) {
	in := NewInput([]byte{0xff, 0xff, 0x34, 0x12})

	rest, v, err := At(2, LeU16)(in)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)
	assert.Equal(t, 0, rest.Offset())

	_, _, err = At(5, LeU16)(in)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Failure, perr.Severity)
	assert.Equal(t, KindSeek, perr.Errors[0].Kind)
}

func TestInputSlice(t *testing.T) {
	in := NewInput([]byte{0, 1, 2, 3, 4})

	b, ok := in.Slice(1, 3)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, ok = in.Slice(3, 3)
	assert.False(t, ok)
	_, ok = in.Slice(^uint64(0), 2)
	assert.False(t, ok)
}
