// Package shotindex compresses the sorted row indices of a bulk shot table
// where a chosen result bit is set, so a simulator can postselect on that bit
// without rescanning the table.
//
// A digest is a sequence of fixed blocks of up to 128 shot indices. Each
// block starts with a 32-bit header describing the bit width the payload was
// packed at, followed by a tightly packed sequence of that many bits per
// index (no SIMD lane padding — a digest block is its own small bitrow.Row,
// not a vector register image) and an optional patch table for indices that
// don't fit the chosen width. Indices arrive sorted ascending (ExtractFlagged
// always produces them that way), so delta encoding is always profitable and
// is applied unconditionally; zigzag is only engaged if a caller feeds
// EncodeBlocks an unsorted list.
package shotindex

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"slices"

	"github.com/mhr3/streamvbyte"

	"github.com/qsimio/shotrecord/bitrow"
)

// Block layout constants. Each block holds at most blockSize shot indices.
const (
	blockSize = 128

	headerBytes      = 4
	headerCountBits  = 8
	headerWidthBits  = 6
	headerCountMask  = (1 << headerCountBits) - 1
	headerWidthMask  = (1 << headerWidthBits) - 1
	headerWidthShift = headerCountBits

	headerDeltaFlag     = uint32(1 << 29)
	headerZigZagFlag    = uint32(1 << 30)
	headerExceptionFlag = uint32(1 << 31)

	mathMaxUint32 = ^uint32(0)
)

var bo = binary.LittleEndian

// MaxBlockBytes returns the maximum number of bytes a single encoded block
// can occupy, useful for sizing a reusable destination buffer.
func MaxBlockBytes() int {
	return headerBytes + blockSize*4
}

// packedPayloadBytes is the byte length of bitWidth*count tightly packed
// bits, rounded up to a whole byte. Unlike a SIMD-lane layout, a partial
// final block (count < blockSize) costs proportionally less — there is no
// full-lane padding to pay for.
func packedPayloadBytes(bitWidth, count int) int {
	return (bitWidth*count + 7) / 8
}

// packBlock encodes up to blockSize shot indices into dst, appending the
// result. The caller-supplied extraFlags carries the delta/zigzag bits
// already chosen by the caller.
func packBlock(dst []byte, values []uint32, extraFlags uint32) []byte {
	validateBlockLength(len(values))
	bitWidth, excCount := selectBitWidth(values)
	payloadLen := packedPayloadBytes(bitWidth, len(values))
	maxTotal := headerBytes + payloadLen + patchBytesMax(excCount)

	start := len(dst)
	dst = slices.Grow(dst, maxTotal)
	dst = dst[:start+maxTotal]

	flags := extraFlags
	if excCount > 0 {
		flags |= headerExceptionFlag
	}
	header := encodeHeader(len(values), bitWidth, flags)
	bo.PutUint32(dst[start:start+headerBytes], header)

	payloadStart := start + headerBytes
	payloadEnd := payloadStart + payloadLen
	if payloadLen > 0 {
		packValues(dst[payloadStart:payloadEnd], values, bitWidth)
	}

	actualPatchLen := 0
	if excCount > 0 {
		var highBits []uint32
		if cap(values) >= 2*blockSize {
			highBits = values[blockSize : blockSize+excCount]
		} else {
			highBits = make([]uint32, excCount)
		}
		actualPatchLen = writeExceptions(dst[payloadEnd:], values, bitWidth, highBits)
	}

	actualTotal := headerBytes + payloadLen + actualPatchLen
	return dst[:start+actualTotal]
}

// unpackBlock decodes a single packBlock-produced buffer, appending the
// reconstructed (and, if the header says so, delta-decoded) indices to dst.
// It returns the decoded values, the number of bytes consumed from buf, and
// an error if buf is structurally invalid.
func unpackBlock(dst []uint32, buf []byte) (values []uint32, consumed int, err error) {
	if len(buf) < headerBytes {
		return nil, 0, fmt.Errorf("%w: buffer too small for header (need %d bytes, got %d)",
			ErrInvalidDigest, headerBytes, len(buf))
	}
	count, bitWidth, hasExceptions, hasDelta, hasZigZag := decodeHeader(bo.Uint32(buf[:headerBytes]))
	if count < 0 || count > blockSize {
		return nil, 0, fmt.Errorf("%w: invalid element count %d", ErrInvalidDigest, count)
	}

	payloadLen := packedPayloadBytes(bitWidth, count)
	minNeeded := headerBytes + payloadLen
	if len(buf) < minNeeded {
		return nil, 0, fmt.Errorf("%w: buffer truncated (need %d bytes, got %d)",
			ErrInvalidDigest, minNeeded, len(buf))
	}

	if count == 0 {
		return dst, minNeeded, nil
	}

	start := len(dst)
	dst = ensureUint32Cap(dst, start+count, start+2*blockSize)
	out := dst[start : start+count]
	unpackValues(out, buf[headerBytes:minNeeded], count, bitWidth)

	consumed = minNeeded
	if hasExceptions {
		scratch := dst[start+blockSize : start+2*blockSize]
		n, err := applyExceptions(out, buf[minNeeded:], bitWidth, scratch)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
		}
		consumed += n
	}

	if hasDelta {
		deltaDecode(out, out, hasZigZag)
	}

	return dst[:start+count], consumed, nil
}

func validateBlockLength(n int) {
	if n < 0 {
		panic(fmt.Sprintf("shotindex: invalid block length %d (cannot be negative)", n))
	}
	if n > blockSize {
		panic(fmt.Sprintf("shotindex: block length %d exceeds maximum %d", n, blockSize))
	}
}

func ensureUint32Cap(dst []uint32, n, minCap int) []uint32 {
	if cap(dst) >= minCap {
		return dst[:n]
	}
	grown := make([]uint32, n, minCap)
	copy(grown, dst)
	return grown
}

// patchBytesMax is the worst-case size of the exception patch table:
// count(1) + positions(N) + svb_len(2) + StreamVByte(M).
func patchBytesMax(exceptionCount int) int {
	if exceptionCount == 0 {
		return 0
	}
	return 1 + exceptionCount + 2 + streamvbyte.MaxEncodedLen(exceptionCount)
}

func encodeHeader(count, bitWidth int, flags uint32) uint32 {
	return uint32(count&headerCountMask) |
		(uint32(bitWidth&headerWidthMask) << headerWidthShift) |
		flags
}

func decodeHeader(header uint32) (count, bitWidth int, hasExceptions, hasDelta, hasZigZag bool) {
	count = int(header & headerCountMask)
	bitWidth = int((header >> headerWidthShift) & headerWidthMask)
	hasExceptions = header&headerExceptionFlag != 0
	hasDelta = header&headerDeltaFlag != 0
	hasZigZag = header&headerZigZagFlag != 0
	return
}

// packValues bit-packs values into dst at bitWidth bits apiece, one after
// another with no padding between indices — dst is addressed through
// bitrow.Row, the same bit-packed-byte-span abstraction the codec layer uses
// for shot rows, rather than a hand-rolled SIMD lane accumulator. dst is
// cleared first so a caller reusing a buffer across EncodeBlocks calls never
// sees a stale tail bit from a previous, larger encode.
func packValues(dst []byte, values []uint32, bitWidth int) {
	if bitWidth == 0 {
		return
	}
	clear(dst)
	row := bitrow.FromBytes(dst, len(values)*bitWidth)
	pos := 0
	for _, v := range values {
		for b := 0; b < bitWidth; b++ {
			row.SetBit(pos, v&(1<<uint(b)) != 0)
			pos++
		}
	}
}

// unpackValues reverses packValues, reading count values of bitWidth bits
// each out of payload.
func unpackValues(dst []uint32, payload []byte, count, bitWidth int) {
	if bitWidth == 0 {
		clear(dst[:count])
		return
	}
	row := bitrow.FromBytes(payload, count*bitWidth)
	pos := 0
	for i := 0; i < count; i++ {
		var v uint32
		for b := 0; b < bitWidth; b++ {
			if row.Bit(pos) {
				v |= 1 << uint(b)
			}
			pos++
		}
		dst[i] = v
	}
}

// selectBitWidth picks the bit width minimizing the serialized block size,
// computing the histogram of bit lengths once and deriving each candidate
// width's exception count from the cumulative histogram. The size model is
// keyed off the block's actual element count rather than a fixed 128-lane
// assumption, so a partial final block never pays for padding it doesn't
// have.
func selectBitWidth(values []uint32) (width int, excCount int) {
	const uint32Bits = 32
	n := len(values)

	var freqs [uint32Bits + 1]int
	var orAll uint32
	for _, v := range values {
		freqs[bits.Len32(v)]++
		orAll |= v
	}
	maxWidth := bits.Len32(orAll)

	bestWidth := maxWidth
	bestSize := headerBytes + packedPayloadBytes(maxWidth, n)
	bestExcCount := 0

	// needsMoreBits[w] is the number of values whose natural bit length
	// exceeds w — exactly the exceptions a candidate width w would incur.
	var needsMoreBits [uint32Bits + 1]int
	running := 0
	for w := uint32Bits; w >= 0; w-- {
		needsMoreBits[w] = running
		running += freqs[w]
	}

	for candidate := 0; candidate < maxWidth; candidate++ {
		excCount := needsMoreBits[candidate]
		if excCount == 0 {
			continue
		}
		size := headerBytes + packedPayloadBytes(candidate, n) + patchBytesMax(excCount)
		if size < bestSize || (size == bestSize && candidate < bestWidth) {
			bestSize = size
			bestWidth = candidate
			bestExcCount = excCount
		}
	}

	return bestWidth, bestExcCount
}

func collectExceptions(values []uint32, bitWidth int, dst []byte, highBits []uint32) int {
	if bitWidth >= 32 {
		return 0
	}
	excIdx := 0
	for i, v := range values {
		if bits.Len32(v) > bitWidth {
			dst[excIdx] = byte(i)
			highBits[excIdx] = v >> bitWidth
			excIdx++
		}
	}
	return excIdx
}

// writeExceptions serializes the exception table:
//
//	dst[0]       : exception count (<= 128)
//	dst[1:n+1]   : ascending value-index positions of the exceptions
//	dst[n+1:n+3] : uint16 length of the StreamVByte payload (little-endian)
//	dst[n+3:]    : StreamVByte-encoded high bits
func writeExceptions(dst []byte, values []uint32, bitWidth int, highBits []uint32) int {
	excCount := collectExceptions(values, bitWidth, dst[1:], highBits)
	if excCount == 0 {
		return 0
	}

	dst[0] = byte(excCount)
	pos := 1 + excCount

	svbData := streamvbyte.EncodeUint32(highBits[:excCount], &streamvbyte.EncodeOptions[uint32]{
		Buffer: dst[pos+2:],
	})
	svbLen := len(svbData)
	bo.PutUint16(dst[pos:], uint16(svbLen))

	return pos + 2 + svbLen
}

// applyExceptions reads the exception table from the start of patch and ORs
// each high-bit group back into dst. It returns the number of patch bytes
// consumed.
func applyExceptions(dst []uint32, patch []byte, bitWidth int, scratch []uint32) (int, error) {
	if len(patch) < 1 {
		return 0, fmt.Errorf("missing exception count byte")
	}
	excCount := int(patch[0])
	rest := patch[1:]

	if len(rest) < excCount {
		return 0, fmt.Errorf("truncated exception positions (need %d bytes, got %d)", excCount, len(rest))
	}
	positions := rest[:excCount]
	rest = rest[excCount:]

	if len(rest) < 2 {
		return 0, fmt.Errorf("missing StreamVByte length (need 2 bytes, got %d)", len(rest))
	}
	svbLen := int(bo.Uint16(rest[:2]))
	rest = rest[2:]

	if len(rest) < svbLen {
		return 0, fmt.Errorf("truncated StreamVByte data (need %d bytes, got %d)", svbLen, len(rest))
	}

	highBits := streamvbyte.DecodeUint32(rest[:svbLen], excCount, &streamvbyte.DecodeOptions[uint32]{
		Buffer: scratch[:excCount],
	})
	for i, idx := range positions {
		if int(idx) >= len(dst) {
			return 0, fmt.Errorf("exception index %d out of range (max %d)", int(idx), len(dst)-1)
		}
		dst[int(idx)] |= highBits[i] << bitWidth
	}

	return 1 + excCount + 2 + svbLen, nil
}

// deltaEncode replaces src with successive differences, writing into dst
// (which may alias src — every write below lands on an index not yet read
// by a later iteration, since the pass runs from the high end down). A
// single upfront scan decides whether src is sorted ascending; sorted input
// (everything ExtractFlagged produces) skips zigzag entirely, since every
// delta is already non-negative. A caller handing EncodeBlocks an unsorted
// list pays for zigzag on the whole block instead.
func deltaEncode(dst, src []uint32) bool {
	n := len(src)
	if n == 0 {
		return false
	}

	sorted := true
	for i := 1; i < n; i++ {
		if src[i] < src[i-1] {
			sorted = false
			break
		}
	}

	if sorted {
		for i := n - 1; i > 0; i-- {
			dst[i] = src[i] - src[i-1]
		}
		dst[0] = src[0]
		return false
	}

	for i := n - 1; i > 0; i-- {
		dst[i] = zigzagEncode32(int32(src[i] - src[i-1]))
	}
	dst[0] = zigzagEncode32(int32(src[0]))
	return true
}

// deltaDecode reverses deltaEncode: a running prefix sum kept in int64 so
// the uint32 truncation on each write reproduces the same wraparound a
// uint32 accumulator would have, whether or not the deltas were zigzag
// encoded.
func deltaDecode(dst, deltas []uint32, useZigZag bool) {
	var prev int64
	for i, d := range deltas {
		if useZigZag {
			prev += int64(zigzagDecode32(d))
		} else {
			prev += int64(d)
		}
		dst[i] = uint32(prev)
	}
}

func zigzagEncode32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func zigzagDecode32(v uint32) int32 {
	return int32((v >> 1) ^ (-(v & 1)))
}
