package shotindex

import "github.com/qsimio/shotrecord/bittable"

// ExtractFlagged walks the major axis of table and returns, in ascending
// order, every row index whose minor-axis bit at bitPos is set. The result
// is the natural input to EncodeBlocks: a sorted list of shot indices a
// simulator wants to postselect on.
func ExtractFlagged(table *bittable.Table, bitPos int) []uint32 {
	var flagged []uint32
	for row := 0; row < table.MajorCount(); row++ {
		if table.Row(row).Bit(bitPos) {
			flagged = append(flagged, uint32(row))
		}
	}
	return flagged
}

// EncodeBlocks compresses values into a sequence of concatenated
// FastPFOR-style blocks, delta-encoding each block's 128-or-fewer elements
// before packing. values is treated as sorted ascending by the caller's
// convention (ExtractFlagged's output always is); if a block turns out not
// to be sorted, zigzag is engaged automatically so the block still encodes
// correctly. EncodeBlocks appends to dst so callers can reuse a buffer
// across calls.
func EncodeBlocks(dst []byte, values []uint32) []byte {
	var scratch [2 * blockSize]uint32
	for len(values) > 0 {
		n := min(len(values), blockSize)
		chunk := scratch[:n]
		copy(chunk, values[:n])

		useZigZag := deltaEncode(chunk, chunk)
		flags := headerDeltaFlag
		if useZigZag {
			flags |= headerZigZagFlag
		}
		dst = packBlock(dst, scratch[:n], flags)
		values = values[n:]
	}
	return dst
}

// DecodeBlocks reverses EncodeBlocks, appending the reconstructed shot
// indices to dst. It returns an error if buf contains a malformed block.
func DecodeBlocks(dst []uint32, buf []byte) ([]uint32, error) {
	for len(buf) > 0 {
		values, consumed, err := unpackBlock(dst, buf)
		if err != nil {
			return nil, err
		}
		dst = values
		buf = buf[consumed:]
	}
	return dst, nil
}
