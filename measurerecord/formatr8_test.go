package measurerecord

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLength_SingleBitAbsorbedSentinel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// bitsPerRecord=16, only bit 3 set. 0x03 (3 zeros then a 1, position
	// 4), then a run to bitsPerRecord+1=17 (12 zeros then 1) -> 0x0C. The
	// synthetic 1 is absorbed; no terminator byte follows.
	r, err := New(bytes.NewReader([]byte{0x03, 0x0C}), FormatRunLength, 16, 0, 0)
	require.NoError(err)

	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 2)
	n, err := r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	assert.Equal(16, n)
	assert.Equal([]byte{0x08, 0x00}, buf)
	end, err := r.IsEndOfRecord()
	require.NoError(err)
	assert.True(end)
}

func TestRunLength_LastBitNeedsExplicitTerminator(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// bitsPerRecord=16, last bit (index 15) set: 15 zeros -> 0x0F, the
	// true bit lands exactly at bitsPerRecord (16), so a 0x00 terminator
	// must follow.
	r, err := New(bytes.NewReader([]byte{0x0F, 0x00}), FormatRunLength, 16, 0, 0)
	require.NoError(err)

	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 2)
	n, err := r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	assert.Equal(16, n)
	assert.Equal([]byte{0x00, 0x80}, buf)
	end, err := r.IsEndOfRecord()
	require.NoError(err)
	assert.True(end)
}

func TestRunLength_ContinuationAcrossMultipleBytes(t *testing.T) {
	require := require.New(t)

	// bitsPerRecord=300, all zeros: 0xFF 0x2D (255+45=300 zeros, then the
	// synthetic 1 at position 301).
	r, err := New(bytes.NewReader([]byte{0xFF, 0x2D}), FormatRunLength, 300, 0, 0)
	require.NoError(err)

	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 38) // ceil(300/8)
	n, err := r.ReadBitsIntoBytes(buf)
	require.NoError(err)
	require.Equal(300, n)
	for _, b := range buf {
		require.Equal(byte(0), b)
	}
}

func TestRunLength_MissingTerminatorIsFramingError(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte{0x0F}), FormatRunLength, 16, 0, 0)
	require.NoError(err)
	_, err = r.StartRecord()
	require.Error(err)
	require.ErrorIs(err, ErrFramingError)
}

func TestRunLength_ContinuationAtEOFIsError(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte{0xFF}), FormatRunLength, 300, 0, 0)
	require.NoError(err)
	_, err = r.StartRecord()
	require.Error(err)
	require.ErrorIs(err, ErrEndOfInputMidShot)
}

func TestRunLength_CleanEOFAtShotBoundary(t *testing.T) {
	require := require.New(t)
	r, err := New(bytes.NewReader([]byte{0x03, 0x0C}), FormatRunLength, 16, 0, 0)
	require.NoError(err)
	ok, err := r.StartRecord()
	require.NoError(err)
	require.True(ok)
	buf := make([]byte, 2)
	_, err = r.ReadBitsIntoBytes(buf)
	require.NoError(err)

	ok, err = r.StartRecord()
	require.NoError(err)
	require.False(ok)
}

func TestRunLength_JumpPastEndIsFramingError(t *testing.T) {
	require := require.New(t)
	// A single gap byte of 20 encodes a 1 at position 21, past
	// bitsPerRecord+1=17.
	r, err := New(bytes.NewReader([]byte{20}), FormatRunLength, 16, 0, 0)
	require.NoError(err)
	_, err = r.StartRecord()
	require.Error(err)
	require.ErrorIs(err, ErrFramingError)
}
