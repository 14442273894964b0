package measurerecord

import "fmt"

// asciiBitsReader decodes the "01" format: each shot is a line of '0'/'1'
// characters terminated by a line feed, of length exactly bitsPerRecord.
type asciiBitsReader struct {
	src           ByteSource
	payload       int // one-character lookahead
	position      int
	bitsPerRecord int
}

func newAsciiBitsReader(src ByteSource, bitsPerRecord int) *asciiBitsReader {
	// The initial lookahead carries a line-feed sentinel so the very
	// first StartRecord simply reads a character, matching every
	// subsequent record.
	return &asciiBitsReader{src: src, payload: '\n', position: bitsPerRecord, bitsPerRecord: bitsPerRecord}
}

func (d *asciiBitsReader) StartRecord() (bool, error) {
	c, err := getByte(d.src)
	if err != nil {
		return false, err
	}
	d.payload = c
	d.position = 0
	return c != eof, nil
}

func (d *asciiBitsReader) ReadBit() (bool, error) {
	if d.payload == eof {
		return false, fmt.Errorf("%w: attempt to read past end of input", ErrEndOfInputMidShot)
	}
	if d.payload == '\n' || d.position >= d.bitsPerRecord {
		return false, ErrReadPastEnd
	}
	if d.payload != '0' && d.payload != '1' {
		return false, fmt.Errorf("%w: expected '0' or '1', got %q", ErrFormatMismatch, rune(d.payload))
	}

	bit := d.payload == '1'
	c, err := getByte(d.src)
	if err != nil {
		return false, err
	}
	d.payload = c
	d.position++
	return bit, nil
}

func (d *asciiBitsReader) IsEndOfRecord() (bool, error) {
	payloadEnded := d.payload == eof || d.payload == '\n'
	expectedEnd := d.position >= d.bitsPerRecord
	if payloadEnded && !expectedEnd {
		return false, fmt.Errorf("%w: record ended early, before the expected %d bits", ErrFramingError, d.bitsPerRecord)
	}
	if !payloadEnded && expectedEnd {
		return false, fmt.Errorf("%w: record did not end by the expected length of %d bits", ErrFramingError, d.bitsPerRecord)
	}
	return payloadEnded, nil
}

func (d *asciiBitsReader) ReadBitsIntoBytes(out []byte) (int, error) {
	return defaultReadBitsIntoBytes(d, out)
}

func (d *asciiBitsReader) CurrentResultType() SectionKind {
	return Measurement
}
