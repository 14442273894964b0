package measurerecord

import (
	"fmt"

	"github.com/qsimio/shotrecord/bitrow"
)

// sparseIndexReader decodes the "hits" format: each shot is a line of
// decimal integers, comma-separated, terminated by a line feed. Each
// integer is the index of a 1 bit in an otherwise-zero shot; duplicates
// XOR (a bit listed twice cancels).
type sparseIndexReader struct {
	src           ByteSource
	bitsPerRecord int
	scratch       *bitrow.Row
	position      int
}

func newSparseIndexReader(src ByteSource, bitsPerRecord int) *sparseIndexReader {
	return &sparseIndexReader{src: src, bitsPerRecord: bitsPerRecord, scratch: bitrow.New(bitsPerRecord), position: bitsPerRecord}
}

func (d *sparseIndexReader) StartRecord() (bool, error) {
	c, err := getByte(d.src)
	if err != nil {
		return false, err
	}
	if c == eof {
		return false, nil
	}

	d.scratch.Clear()
	d.position = 0

	isFirst := true
	for c != '\n' {
		parsed, value, next, err := readUint64(d.src, c, isFirst)
		if err != nil {
			return false, err
		}
		if !parsed {
			return false, fmt.Errorf("%w: an integer didn't start immediately at the start of the line or right after a comma in 'hits' format", ErrFormatMismatch)
		}
		c = next
		if c != ',' && c != '\n' {
			return false, fmt.Errorf("%w: 'hits' format requires integers to be followed by a comma or newline, got %q", ErrFormatMismatch, rune(c))
		}
		if int(value) >= d.bitsPerRecord {
			return false, fmt.Errorf("%w: bits per record is %d but got hit index %d", ErrOutOfRange, d.bitsPerRecord, value)
		}
		d.scratch.XorBit(int(value))
		isFirst = false
	}
	return true, nil
}

func (d *sparseIndexReader) ReadBit() (bool, error) {
	if d.position >= d.bitsPerRecord {
		return false, ErrReadPastEnd
	}
	bit := d.scratch.Bit(d.position)
	d.position++
	return bit, nil
}

func (d *sparseIndexReader) IsEndOfRecord() (bool, error) {
	return d.position >= d.bitsPerRecord, nil
}

func (d *sparseIndexReader) ReadBitsIntoBytes(out []byte) (int, error) {
	return defaultReadBitsIntoBytes(d, out)
}

func (d *sparseIndexReader) CurrentResultType() SectionKind {
	return Measurement
}
