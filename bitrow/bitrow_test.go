package bitrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPadsToWordWidth(t *testing.T) {
	assert := assert.New(t)
	r := New(5)
	assert.Equal(5, r.NumBitsRequested())
	assert.GreaterOrEqual(r.NumBitsPadded(), 5)
	assert.Equal(0, r.NumBitsPadded()%8)
}

func TestBitSetAndClear(t *testing.T) {
	assert := assert.New(t)
	r := New(128)
	assert.False(r.Bit(3))
	r.SetBit(3, true)
	assert.True(r.Bit(3))
	r.SetBit(3, false)
	assert.False(r.Bit(3))

	r.SetBit(0, true)
	r.SetBit(127, true)
	r.Clear()
	assert.False(r.Bit(0))
	assert.False(r.Bit(127))
}

func TestXorBitTogglesTwiceCancels(t *testing.T) {
	assert := assert.New(t)
	r := New(64)
	r.XorBit(10)
	assert.True(r.Bit(10))
	r.XorBit(10)
	assert.False(r.Bit(10))
}

func TestWriteByteReadByteRoundTrip(t *testing.T) {
	assert := assert.New(t)
	r := New(64)
	r.WriteByte(0, 0xAB)
	r.WriteByte(1, 0x0C)
	assert.Equal(byte(0xAB), r.ReadByte(0))
	assert.Equal(byte(0x0C), r.ReadByte(1))
	assert.True(r.Bit(0))
	assert.True(r.Bit(1))
	assert.False(r.Bit(2))
}

func TestBytesMatchesBitLayout(t *testing.T) {
	assert := assert.New(t)
	r := New(16)
	r.SetBit(0, true)
	r.SetBit(2, true)
	r.SetBit(4, true)
	b := r.Bytes()
	assert.Equal(byte(0x15), b[0])
}

func TestFromBytesRoundTrip(t *testing.T) {
	assert := assert.New(t)
	src := []byte{0xAA, 0x0C, 0x55, 0x03}
	r := FromBytes(src, 12)
	assert.Equal(byte(0xAA), r.ReadByte(0))
	assert.Equal(byte(0x0C), r.ReadByte(1))
	assert.Equal(src, r.Bytes()[:len(src)])
}
