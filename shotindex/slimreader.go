package shotindex

import (
	"fmt"

	"github.com/qsimio/shotrecord/bitrow"
)

// SlimShotIndexReader provides memory-efficient random access into a single
// encoded block without pre-decoding it into a values slice. It decodes
// on-the-fly at each access, trading per-call CPU for a near-zero memory
// footprint — useful when a digest is one block and is addressed by an
// mmap'd region rather than copied in.
//
// A SlimShotIndexReader is safe for concurrent reads of the same underlying
// buffer, but a single instance must not be accessed concurrently.
type SlimShotIndexReader struct {
	buf        []byte
	lastValue  uint32
	count      uint8
	bitWidth   uint8
	flags      uint8
	pos        uint8
	payloadEnd uint16
}

const (
	slimFlagDelta      = 1 << 0
	slimFlagZigZag     = 1 << 1
	slimFlagExceptions = 1 << 2
	slimFlagLoaded     = 1 << 3
)

// NewSlimShotIndexReader creates an empty reader that must be loaded with
// Load before use.
func NewSlimShotIndexReader() *SlimShotIndexReader {
	return &SlimShotIndexReader{}
}

// Load points the reader at a single block encoded by packBlock (i.e. one
// EncodeBlocks chunk, at most 128 indices). Passing a multi-block digest
// decodes only its first block; use ShotIndexReader for multi-block
// digests.
func (r *SlimShotIndexReader) Load(buf []byte) error {
	if len(buf) < headerBytes {
		return fmt.Errorf("%w: buffer too small for header (need %d bytes, got %d)",
			ErrInvalidDigest, headerBytes, len(buf))
	}
	header := bo.Uint32(buf[:headerBytes])
	count, bitWidth, hasExceptions, hasDelta, hasZigZag := decodeHeader(header)
	if count < 0 || count > blockSize {
		return fmt.Errorf("%w: invalid element count %d", ErrInvalidDigest, count)
	}

	payloadLen := packedPayloadBytes(bitWidth, count)
	minNeeded := headerBytes + payloadLen
	if len(buf) < minNeeded {
		return fmt.Errorf("%w: buffer truncated (need %d bytes, got %d)",
			ErrInvalidDigest, minNeeded, len(buf))
	}

	var flags uint8 = slimFlagLoaded
	if hasDelta {
		flags |= slimFlagDelta
	}
	if hasZigZag {
		flags |= slimFlagZigZag
	}
	if hasExceptions {
		flags |= slimFlagExceptions
	}

	r.buf = buf
	r.count = uint8(count)
	r.bitWidth = uint8(bitWidth)
	r.flags = flags
	r.payloadEnd = uint16(minNeeded)
	r.pos = 0
	r.lastValue = 0
	return nil
}

// IsLoaded reports whether Load has succeeded.
func (r *SlimShotIndexReader) IsLoaded() bool {
	return r.flags&slimFlagLoaded != 0
}

// Len returns the number of shot indices in the block.
func (r *SlimShotIndexReader) Len() int {
	return int(r.count)
}

// Reset rewinds sequential iteration to the first index.
func (r *SlimShotIndexReader) Reset() {
	r.pos = 0
	r.lastValue = 0
}

// Get returns the shot index at pos. For delta-encoded blocks this runs in
// O(count) to reconstruct the prefix sum; for non-delta blocks it's O(bitWidth).
func (r *SlimShotIndexReader) Get(pos int) (uint32, error) {
	if r.flags&slimFlagLoaded == 0 {
		return 0, ErrNotLoaded
	}
	if pos < 0 || pos >= int(r.count) {
		return 0, ErrPositionOutOfRange
	}
	if r.flags&slimFlagDelta != 0 {
		return r.getWithDelta(uint32(pos)), nil
	}
	return r.getSingle(uint32(pos)), nil
}

func (r *SlimShotIndexReader) getSingle(pos uint32) uint32 {
	bitWidth := int(r.bitWidth)
	var value uint32
	if bitWidth > 0 {
		value = r.readPackedValue(pos, bitWidth)
	}
	if r.flags&slimFlagExceptions != 0 {
		value = r.applyExceptionIfPresent(pos, value, bitWidth)
	}
	return value
}

// readPackedValue reads the single bitWidth-wide value at index pos out of
// the block's tightly packed payload, addressed through bitrow.Row rather
// than a hand-unrolled accumulator — the same bit-indexing primitive the
// codec layer uses everywhere else for a byte-addressable bit span.
func (r *SlimShotIndexReader) readPackedValue(pos uint32, bitWidth int) uint32 {
	payload := r.buf[headerBytes:r.payloadEnd]
	row := bitrow.FromBytes(payload, len(payload)*8)
	base := int(pos) * bitWidth
	var v uint32
	for b := 0; b < bitWidth; b++ {
		if row.Bit(base + b) {
			v |= 1 << uint(b)
		}
	}
	return v
}

// applyExceptionIfPresent ORs in the high bits for pos if pos appears in the
// block's exception patch table. The position scan and the StreamVByte
// decode are fused into a single forward pass: positions are written in
// ascending value-index order by collectExceptions, and the StreamVByte
// values are encoded in that same order, so the Nth position visited is
// exactly the Nth StreamVByte value — there is no need to first locate an
// exception's index and then separately seek the StreamVByte stream to it.
func (r *SlimShotIndexReader) applyExceptionIfPresent(pos uint32, value uint32, bitWidth int) uint32 {
	patch := r.buf[r.payloadEnd:]
	excCount := int(patch[0])
	if excCount == 0 {
		return value
	}
	positions := patch[1 : 1+excCount]
	svbData := patch[1+excCount+2:]

	numControlBytes := (excCount + 3) / 4
	control := svbData[:numControlBytes]
	data := svbData[numControlBytes:]

	dataOffset := 0
	for i := 0; i < excCount; i++ {
		ctrl := control[i/4]
		byteLen := int((ctrl>>((i%4)*2))&0x03) + 1
		if uint32(positions[i]) == pos {
			return value | (svbReadValue(data[dataOffset:], byteLen) << bitWidth)
		}
		if uint32(positions[i]) > pos {
			return value
		}
		dataOffset += byteLen
	}
	return value
}

// svbReadValue reads a StreamVByte-encoded value of the given byte length
// (1-4, little-endian) — the fixed wire shape the mhr3/streamvbyte package
// itself writes, so this can't be varied without breaking decode.
func svbReadValue(data []byte, byteLen int) uint32 {
	switch byteLen {
	case 1:
		return uint32(data[0])
	case 2:
		return uint32(bo.Uint16(data))
	case 3:
		return uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16
	case 4:
		return bo.Uint32(data)
	}
	return 0
}

func (r *SlimShotIndexReader) getWithDelta(pos uint32) uint32 {
	var values [blockSize]uint32
	var scratch [blockSize]uint32
	count := int(r.count)
	bitWidth := int(r.bitWidth)

	if bitWidth > 0 {
		unpackValues(values[:count], r.buf[headerBytes:r.payloadEnd], count, bitWidth)
	}
	if r.flags&slimFlagExceptions != 0 {
		_, _ = applyExceptions(values[:count], r.buf[r.payloadEnd:], bitWidth, scratch[:])
	}
	useZigZag := r.flags&slimFlagZigZag != 0
	deltaDecode(values[:count], values[:count], useZigZag)
	return values[pos]
}

// Next returns the next shot index in sequence, or ok=false once the block
// is exhausted.
func (r *SlimShotIndexReader) Next() (value uint32, ok bool) {
	if r.flags&slimFlagLoaded == 0 || r.pos >= r.count {
		return 0, false
	}
	value = r.nextValue()
	r.pos++
	return value, true
}

func (r *SlimShotIndexReader) nextValue() uint32 {
	bitWidth := int(r.bitWidth)
	var value uint32
	if bitWidth > 0 {
		value = r.readPackedValue(uint32(r.pos), bitWidth)
	}
	if r.flags&slimFlagExceptions != 0 {
		value = r.applyExceptionIfPresent(uint32(r.pos), value, bitWidth)
	}
	if r.flags&slimFlagDelta != 0 {
		if r.flags&slimFlagZigZag != 0 {
			value = uint32(zigzagDecode32(value))
		}
		value += r.lastValue
		r.lastValue = value
	}
	return value
}

// Decode reconstructs every shot index in the block into dst, growing it if
// needed.
func (r *SlimShotIndexReader) Decode(dst []uint32) []uint32 {
	if r.flags&slimFlagLoaded == 0 {
		return nil
	}
	count := int(r.count)
	if cap(dst) < count {
		dst = make([]uint32, count)
	} else {
		dst = dst[:count]
	}
	if count == 0 {
		return dst
	}

	bitWidth := int(r.bitWidth)
	unpackValues(dst, r.buf[headerBytes:r.payloadEnd], count, bitWidth)
	if r.flags&slimFlagExceptions != 0 {
		var scratch [blockSize]uint32
		_, _ = applyExceptions(dst, r.buf[r.payloadEnd:], bitWidth, scratch[:])
	}
	if r.flags&slimFlagDelta != 0 {
		useZigZag := r.flags&slimFlagZigZag != 0
		deltaDecode(dst, dst, useZigZag)
	}
	return dst
}
