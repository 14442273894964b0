package measurerecord

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseIndices_DuplicateCancels(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, err := New(bytes.NewReader([]byte("1,3,1\n")), FormatSparseIndices, 10, 0, 0)
	require.NoError(err)

	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 2)
	n, err := r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	assert.Equal(10, n)
	assert.Equal([]byte{0x08, 0x00}, buf)

	ok, err = r.StartRecord()
	require.NoError(err)
	assert.False(ok)
}

func TestSparseIndices_EmptyLineIsAllZeros(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, err := New(bytes.NewReader([]byte("\n")), FormatSparseIndices, 4, 0, 0)
	require.NoError(err)
	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 1)
	_, err = r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	assert.Equal(byte(0), buf[0])
}

func TestSparseIndices_OutOfRangeIndex(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte("10\n")), FormatSparseIndices, 10, 0, 0)
	require.NoError(err)
	_, err = r.StartRecord()
	require.Error(err)
	require.ErrorIs(err, ErrOutOfRange)
}

func TestSparseIndices_RejectsLeadingWhitespace(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte(" 1\n")), FormatSparseIndices, 10, 0, 0)
	require.NoError(err)
	_, err = r.StartRecord()
	require.Error(err)
	require.ErrorIs(err, ErrFormatMismatch)
}
