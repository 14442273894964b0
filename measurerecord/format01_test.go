package measurerecord

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsciiBits_TwoShots(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, err := New(bytes.NewReader([]byte("00101\n11110\n")), FormatAsciiBits, 5, 0, 0)
	require.NoError(err)

	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 1)
	n, err := r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	assert.Equal(5, n)
	assert.Equal(byte(0x14), buf[0])
	end, err := r.IsEndOfRecord()
	require.NoError(err)
	assert.True(end)

	ok, err = r.StartRecord()
	require.NoError(err)
	require.True(ok)
	n, err = r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	assert.Equal(5, n)
	assert.Equal(byte(0x0F), buf[0])

	ok, err = r.StartRecord()
	require.NoError(err)
	assert.False(ok)
}

func TestAsciiBits_FramingErrorOnShortLine(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte("101\n")), FormatAsciiBits, 4, 0, 0)
	require.NoError(err)

	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	for i := 0; i < 3; i++ {
		_, err := r.ReadBit()
		require.NoError(err)
	}
	_, err = r.IsEndOfRecord()
	require.Error(err)
	require.True(errors.Is(err, ErrFramingError))
}

func TestAsciiBits_RejectsNonBinaryCharacter(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte("012\n")), FormatAsciiBits, 3, 0, 0)
	require.NoError(err)
	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	_, err = r.ReadBit()
	require.NoError(err)
	_, err = r.ReadBit()
	require.NoError(err)
	_, err = r.ReadBit()
	require.Error(err)
	require.True(errors.Is(err, ErrFormatMismatch))
}

func TestAsciiBits_ReadPastEnd(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte("1\n")), FormatAsciiBits, 1, 0, 0)
	require.NoError(err)
	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	_, err = r.ReadBit()
	require.NoError(err)
	_, err = r.ReadBit()
	require.Error(err)
	require.True(errors.Is(err, ErrReadPastEnd))
}
