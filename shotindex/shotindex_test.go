package shotindex

import (
	"testing"

	"github.com/qsimio/shotrecord/bittable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBlocks_RoundTrip(t *testing.T) {
	cases := [][]uint32{
		nil,
		{0},
		{1, 2, 3, 4, 5},
		{0, 1, 2, 3, 1000000},
		makeRange(128),
		makeRange(300),
	}
	for _, xs := range cases {
		buf := EncodeBlocks(nil, xs)
		got, err := DecodeBlocks(nil, buf)
		require.NoError(t, err)
		assert.Equal(t, xs, got)
	}
}

func TestEncodeBlocks_UnsortedUsesZigZag(t *testing.T) {
	xs := []uint32{10, 2, 900, 1}
	buf := EncodeBlocks(nil, xs)
	require.GreaterOrEqual(t, len(buf), headerBytes)
	_, _, _, _, hasZigZag := decodeHeader(bo.Uint32(buf[:headerBytes]))
	assert.True(t, hasZigZag)
	got, err := DecodeBlocks(nil, buf)
	require.NoError(t, err)
	assert.Equal(t, xs, got)
}

func TestExtractFlagged(t *testing.T) {
	table := bittable.New(5, 4)
	table.Row(0).SetBit(2, true)
	table.Row(2).SetBit(2, true)
	table.Row(4).SetBit(2, true)
	table.Row(1).SetBit(1, true) // different bit position, must not appear

	flagged := ExtractFlagged(table, 2)
	assert.Equal(t, []uint32{0, 2, 4}, flagged)
}

func TestExtractFlagged_EncodeDecodeRoundTrip(t *testing.T) {
	table := bittable.New(400, 8)
	var want []uint32
	for i := 0; i < table.MajorCount(); i++ {
		if i%7 == 0 {
			table.Row(i).SetBit(3, true)
			want = append(want, uint32(i))
		}
	}

	flagged := ExtractFlagged(table, 3)
	require.Equal(t, want, flagged)

	buf := EncodeBlocks(nil, flagged)
	got, err := DecodeBlocks(nil, buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestShotIndexReader_SequentialAndSkipTo(t *testing.T) {
	xs := makeRange(300)
	buf := EncodeBlocks(nil, xs)

	r := NewShotIndexReader()
	require.NoError(t, r.Load(buf))
	assert.Equal(t, 300, r.Len())

	v, ok := r.Next()
	require.True(t, ok)
	assert.Equal(t, uint32(0), v)

	v, ok = r.SkipTo(150)
	require.True(t, ok)
	assert.Equal(t, uint32(150), v)

	assert.True(t, r.Contains(299))
	assert.False(t, r.Contains(100000))
}

func TestShotIndexReader_GetOutOfRange(t *testing.T) {
	r := NewShotIndexReader()
	require.NoError(t, r.Load(EncodeBlocks(nil, []uint32{1, 2, 3})))
	_, err := r.Get(10)
	require.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestShotIndexReader_NotLoaded(t *testing.T) {
	r := NewShotIndexReader()
	_, err := r.Get(0)
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestSlimShotIndexReader_MatchesFullDecode(t *testing.T) {
	xs := makeRange(128)
	buf := packOneBlock(xs)

	full := NewShotIndexReader()
	require.NoError(t, full.Load(buf))

	slim := NewSlimShotIndexReader()
	require.NoError(t, slim.Load(buf))
	assert.Equal(t, full.Len(), slim.Len())

	for i := 0; i < full.Len(); i++ {
		want, err := full.Get(i)
		require.NoError(t, err)
		got, err := slim.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "index %d", i)
	}
}

func TestSlimShotIndexReader_SequentialMatchesDecode(t *testing.T) {
	xs := []uint32{5, 6, 1000, 1001, 1002, 5000000}
	buf := packOneBlock(xs)

	slim := NewSlimShotIndexReader()
	require.NoError(t, slim.Load(buf))

	var got []uint32
	for {
		v, ok := slim.Next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, xs, got)
}

func TestSlimShotIndexReader_Decode(t *testing.T) {
	xs := []uint32{3, 9, 20, 21, 22, 400}
	buf := packOneBlock(xs)

	slim := NewSlimShotIndexReader()
	require.NoError(t, slim.Load(buf))
	assert.Equal(t, xs, slim.Decode(nil))
}

func TestDecodeBlocks_TruncatedHeaderIsInvalidDigest(t *testing.T) {
	_, err := DecodeBlocks(nil, []byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrInvalidDigest)
}

func packOneBlock(xs []uint32) []byte {
	return EncodeBlocks(nil, xs)
}

func makeRange(n int) []uint32 {
	xs := make([]uint32, n)
	for i := range xs {
		xs[i] = uint32(i)
	}
	return xs
}
