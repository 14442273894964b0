package measurerecord

import (
	"bytes"
	"testing"

	"github.com/qsimio/shotrecord/bittable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBulkTransposedFormat(t *testing.T) {
	_, err := New(bytes.NewReader(nil), FormatBulkTransposed, 8, 0, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNew_RejectsSectionsOnNonLabeledFormat(t *testing.T) {
	_, err := New(bytes.NewReader(nil), FormatAsciiBits, 8, 1, 0)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(bytes.NewReader(nil), FormatBytePacked, 8, 0, 1)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(bytes.NewReader(nil), Format("xyz"), 8, 0, 0)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadRecordsInto_MajorIsShot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r, err := New(bytes.NewReader([]byte("00101\n11110\n")), FormatAsciiBits, 5, 0, 0)
	require.NoError(err)

	table := bittable.New(4, 5)
	n, err := ReadRecordsInto(r, table, true, 4)
	require.NoError(err)
	assert.Equal(2, n)

	assertBits := func(row int, want []bool) {
		for i, w := range want {
			assert.Equal(w, table.Row(row).Bit(i), "row %d bit %d", row, i)
		}
	}
	assertBits(0, []bool{false, false, true, false, true})
	assertBits(1, []bool{true, true, true, true, false})

	// Rows beyond the returned count are untouched.
	for i := 0; i < table.NumMinorBitsPadded(); i++ {
		assert.False(table.Row(2).Bit(i))
	}
}

func TestReadRecordsInto_TransposedMatchesDirect(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	direct, err := New(bytes.NewReader([]byte("00101\n11110\n")), FormatAsciiBits, 5, 0, 0)
	require.NoError(err)
	directTable := bittable.New(2, 5)
	_, err = ReadRecordsInto(direct, directTable, true, 2)
	require.NoError(err)

	transposedReader, err := New(bytes.NewReader([]byte("00101\n11110\n")), FormatAsciiBits, 5, 0, 0)
	require.NoError(err)
	// With majorIsShot=false the major axis holds measurement bits and the
	// minor axis holds shots.
	transposedTable := bittable.New(5, 2)
	n, err := ReadRecordsInto(transposedReader, transposedTable, false, 2)
	require.NoError(err)
	assert.Equal(2, n)

	for shot := 0; shot < 2; shot++ {
		for bit := 0; bit < 5; bit++ {
			assert.Equal(directTable.Row(shot).Bit(bit), transposedTable.Row(bit).Bit(shot))
		}
	}
}

func TestReadRecordsInto_MoreBitsThanExpectedIsFramingError(t *testing.T) {
	require := require.New(t)
	data := make([]byte, 125)
	r, err := New(bytes.NewReader(data), FormatBytePacked, 1000, 0, 0)
	require.NoError(err)

	// A minor axis of 100 bits pads to at most 512 bits (64 bytes), whatever
	// SIMD width internal/cpuwidth picks, too small to hold the decoder's
	// 1000-bit shots.
	table := bittable.New(1, 100)
	_, err = ReadRecordsInto(r, table, true, 1)
	require.Error(err)
	require.ErrorIs(err, ErrFramingError)
}
