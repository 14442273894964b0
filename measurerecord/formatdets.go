package measurerecord

import (
	"fmt"

	"github.com/qsimio/shotrecord/bitrow"
)

// labeledSectionsReader decodes the "dets" format: each shot starts with
// the literal keyword "shot" then a whitespace-separated list of tokens
// terminated by a line feed. Each token is a single letter M/D/L followed
// immediately by a decimal integer identifying a bit within that section;
// duplicates XOR.
type labeledSectionsReader struct {
	src      ByteSource
	m, d, l  int
	scratch  *bitrow.Row
	position int
}

func newLabeledSectionsReader(src ByteSource, m, d, l int) *labeledSectionsReader {
	total := m + d + l
	return &labeledSectionsReader{src: src, m: m, d: d, l: l, scratch: bitrow.New(total), position: total}
}

func (r *labeledSectionsReader) StartRecord() (bool, error) {
	found, c, err := maybeConsumeKeyword(r.src, "shot")
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	r.scratch.Clear()
	r.position = 0

	for {
		hadSpacing := c == ' '
		for c == ' ' {
			c, err = getByte(r.src)
			if err != nil {
				return false, err
			}
		}
		if c == '\n' || c == eof {
			break
		}
		if !hadSpacing {
			return false, fmt.Errorf("%w: dets values must be separated by spaces", ErrFormatMismatch)
		}

		prefix := c
		var offset, size int
		switch c {
		case 'M':
			offset, size = 0, r.m
		case 'D':
			offset, size = r.m, r.d
		case 'L':
			offset, size = r.m+r.d, r.l
		default:
			return false, fmt.Errorf("%w: unrecognized dets prefix %q", ErrFormatMismatch, rune(c))
		}

		parsed, value, next, err := readUint64(r.src, 0, false)
		if err != nil {
			return false, err
		}
		if !parsed {
			return false, fmt.Errorf("%w: dets prefix %q wasn't followed by an integer", ErrFormatMismatch, rune(prefix))
		}
		c = next
		if int(value) >= size {
			return false, fmt.Errorf("%w: got prefix %q index %d but that section only has %d values", ErrOutOfRange, rune(prefix), value, size)
		}
		r.scratch.XorBit(offset + int(value))
	}
	return true, nil
}

func (r *labeledSectionsReader) ReadBit() (bool, error) {
	total := r.m + r.d + r.l
	if r.position >= total {
		return false, ErrReadPastEnd
	}
	bit := r.scratch.Bit(r.position)
	r.position++
	return bit, nil
}

func (r *labeledSectionsReader) IsEndOfRecord() (bool, error) {
	return r.position == r.m+r.d+r.l, nil
}

func (r *labeledSectionsReader) ReadBitsIntoBytes(out []byte) (int, error) {
	return defaultReadBitsIntoBytes(r, out)
}

// CurrentResultType inspects position against cumulative section lengths:
// while below M (and M>0) it's Measurement, while below M+D (and D>0) it's
// Detection, otherwise Logical if L>0, else Detection if D>0, else
// Measurement. This is what triggers the early stop in
// ReadBitsIntoBytes so callers can split output by section.
func (r *labeledSectionsReader) CurrentResultType() SectionKind {
	if r.position < r.m && r.m > 0 {
		return Measurement
	}
	if r.position < r.m+r.d && r.d > 0 {
		return Detection
	}
	if r.l > 0 {
		return Logical
	}
	if r.d > 0 {
		return Detection
	}
	return Measurement
}
