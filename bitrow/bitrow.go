// Package bitrow implements the bit-packed row buffer described in the
// shot-record codec's data model: a contiguous little-endian bit array,
// padded to a SIMD word width, addressable as individual bits and as bytes.
// It is used both as per-shot scratch space by the measurerecord decoders
// and as a single row inside a bittable.Table.
package bitrow

import (
	"encoding/binary"

	"github.com/qsimio/shotrecord/internal/cpuwidth"
)

var bo = binary.LittleEndian

// Row is a bit-packed row: byte k holds bits [8k, 8k+8), bit index b
// occupying value 1 << (b mod 8). Storage is a plain byte slice so the
// byte view (readBitsIntoBytes's destination) is the row's real backing
// array, not a copy.
type Row struct {
	bytes         []byte
	numBits       int // NumBitsRequested
	numBitsPadded int
}

// PaddedBits rounds n up to the current SIMD word width (see
// internal/cpuwidth), matching spec's "NumBitsPadded is rounded up to a
// SIMD word" invariant.
func PaddedBits(n int) int {
	word := cpuwidth.Bits()
	if n <= 0 {
		return word
	}
	rem := n % word
	if rem == 0 {
		return n
	}
	return n + (word - rem)
}

// New allocates a zeroed row able to hold numBitsRequested logical bits,
// padded up to the current SIMD word width.
func New(numBitsRequested int) *Row {
	padded := PaddedBits(numBitsRequested)
	return &Row{
		bytes:         make([]byte, padded/8),
		numBits:       numBitsRequested,
		numBitsPadded: padded,
	}
}

// FromBytes constructs a Row directly over buf, without copying.
// numBitsRequested must not exceed len(buf)*8.
func FromBytes(buf []byte, numBitsRequested int) *Row {
	return &Row{bytes: buf, numBits: numBitsRequested, numBitsPadded: len(buf) * 8}
}

// NumBitsPadded reports the padded bit capacity of the row.
func (r *Row) NumBitsPadded() int { return r.numBitsPadded }

// NumBitsRequested reports the logical (unpadded) width the row was
// constructed with.
func (r *Row) NumBitsRequested() int { return r.numBits }

// NumU8Padded reports the padded byte capacity of the row.
func (r *Row) NumU8Padded() int { return r.numBitsPadded / 8 }

// Bit returns the value of bit i.
func (r *Row) Bit(i int) bool {
	return r.bytes[i>>3]&(1<<uint(i&7)) != 0
}

// SetBit sets bit i to v.
func (r *Row) SetBit(i int, v bool) {
	mask := byte(1) << uint(i&7)
	if v {
		r.bytes[i>>3] |= mask
	} else {
		r.bytes[i>>3] &^= mask
	}
}

// XorBit toggles bit i, used by the sparse and labeled decoders' XOR
// semantics (listing the same index twice cancels).
func (r *Row) XorBit(i int) {
	r.bytes[i>>3] ^= 1 << uint(i&7)
}

// Clear zeroes the row's storage; a single bulk operation rather than a
// per-bit store, as the sparse and labeled decoders require between shots.
func (r *Row) Clear() {
	clear(r.bytes)
}

// Bytes returns the row's contiguous byte view, LSB-first within each byte.
// The returned slice aliases the row's storage: writes through it are
// writes to the row.
func (r *Row) Bytes() []byte {
	return r.bytes
}

// U64 returns the row's contents as a little-endian uint64 slice. Unlike
// Bytes, this is a fresh copy: bit-table transpose and popcount helpers
// that want word-at-a-time access should call this once per row rather
// than per word.
func (r *Row) U64() []uint64 {
	n := (len(r.bytes) + 7) / 8
	out := make([]uint64, n)
	for i := range out {
		lo := i * 8
		hi := lo + 8
		if hi > len(r.bytes) {
			var tail [8]byte
			copy(tail[:], r.bytes[lo:])
			out[i] = bo.Uint64(tail[:])
		} else {
			out[i] = bo.Uint64(r.bytes[lo:hi])
		}
	}
	return out
}

// WriteByte stores the packed byte value at byte index k.
func (r *Row) WriteByte(k int, b byte) {
	r.bytes[k] = b
}

// ReadByte loads the packed byte value at byte index k.
func (r *Row) ReadByte(k int) byte {
	return r.bytes[k]
}
