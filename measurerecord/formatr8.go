package measurerecord

import "fmt"

// runLengthReader decodes the "r8" format: a stream of unsigned bytes
// interpreted as gaps between successive 1 bits. A byte value v < 0xFF
// means "emit v zeros then a one"; 0xFF means "emit 255 zeros and
// continue the run". A synthetic 1 just past the end of the data marks the
// shot boundary, either absorbed into a run landing at bitsPerRecord+1 or
// followed by an explicit 0x00 terminator when the run lands exactly at
// bitsPerRecord.
type runLengthReader struct {
	src           ByteSource
	bitsPerRecord int
	buffered0s    int
	buffered1s    int
	position      int
	haveSeenEnd   bool // haveSeenTerminalOne
}

func newRunLengthReader(src ByteSource, bitsPerRecord int) *runLengthReader {
	return &runLengthReader{src: src, bitsPerRecord: bitsPerRecord}
}

func (d *runLengthReader) StartRecord() (bool, error) {
	d.position = 0
	d.haveSeenEnd = false
	return d.maybeBufferData()
}

// maybeBufferData refills buffered0s/buffered1s by reading gap bytes until
// a non-continuation byte is found, then decides whether the resulting 1
// bit is real shot data or the synthetic post-end sentinel.
func (d *runLengthReader) maybeBufferData() (bool, error) {
	var r int
	for {
		c, err := getByte(d.src)
		if err != nil {
			return false, err
		}
		r = c
		if r == eof {
			if d.buffered0s == 0 && d.position == 0 {
				return false, nil // clean end of input at a shot boundary
			}
			return false, fmt.Errorf("%w: r8 data ended on a continuation, which is not allowed", ErrEndOfInputMidShot)
		}
		d.buffered0s += r
		if r != 0xFF {
			break
		}
	}
	d.buffered1s = 1

	total := d.position + d.buffered0s + d.buffered1s
	switch {
	case total == d.bitsPerRecord:
		t, err := getByte(d.src)
		if err != nil {
			return false, err
		}
		if t == eof {
			return false, fmt.Errorf("%w: r8 data ended too early, missing the 0x00 terminator for the synthetic trailing 1", ErrFramingError)
		}
		if t != 0 {
			return false, fmt.Errorf("%w: r8 data ended too early, expected a 0x00 terminator but got 0x%02X", ErrFramingError, t)
		}
		d.haveSeenEnd = true
	case total == d.bitsPerRecord+1:
		d.haveSeenEnd = true
		d.buffered1s = 0
	case total > d.bitsPerRecord+1:
		return false, fmt.Errorf("%w: r8 data encoded a jump past the expected end of encoded data", ErrFramingError)
	}
	return true, nil
}

func (d *runLengthReader) ReadBit() (bool, error) {
	if d.haveSeenEnd && d.buffered0s == 0 && d.buffered1s == 0 {
		return false, ErrReadPastEnd
	}
	if d.buffered0s == 0 && d.buffered1s == 0 {
		ok, err := d.maybeBufferData()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, ErrReadPastEnd
		}
	}
	switch {
	case d.buffered0s > 0:
		d.buffered0s--
		d.position++
		return false, nil
	case d.buffered1s > 0:
		d.buffered1s--
		d.position++
		return true, nil
	default:
		return false, ErrReadPastEnd
	}
}

func (d *runLengthReader) IsEndOfRecord() (bool, error) {
	return d.position == d.bitsPerRecord && d.haveSeenEnd, nil
}

func (d *runLengthReader) ReadBitsIntoBytes(out []byte) (int, error) {
	n := 0
	for i := range out {
		out[i] = 0
		if d.buffered0s >= 8 {
			d.position += 8
			d.buffered0s -= 8
			n += 8
			continue
		}
		for k := 0; k < 8; k++ {
			if d.buffered0s == 0 && d.buffered1s == 0 && !d.haveSeenEnd {
				if _, err := d.maybeBufferData(); err != nil {
					return n, err
				}
			}
			end, err := d.IsEndOfRecord()
			if err != nil {
				return n, err
			}
			if end {
				return n, nil
			}
			bit, err := d.ReadBit()
			if err != nil {
				return n, err
			}
			if bit {
				out[i] |= 1 << uint(k)
			}
			n++
		}
	}
	return n, nil
}

func (d *runLengthReader) CurrentResultType() SectionKind {
	return Measurement
}
