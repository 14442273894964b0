package measurerecord

import (
	"fmt"
	"io"
)

// bytePackedReader decodes the "b8" format: each shot is
// ceil(bitsPerRecord/8) raw bytes, LSB-first, with no in-band delimiter —
// shot count is determined by reaching stream EOF at a shot boundary.
type bytePackedReader struct {
	src           ByteSource
	bitsPerRecord int
	payload       int
	bitsAvailable int
	position      int
}

func newBytePackedReader(src ByteSource, bitsPerRecord int) *bytePackedReader {
	return &bytePackedReader{src: src, bitsPerRecord: bitsPerRecord, position: bitsPerRecord}
}

func (d *bytePackedReader) maybeUpdatePayload() error {
	if d.bitsAvailable > 0 {
		return nil
	}
	c, err := getByte(d.src)
	if err != nil {
		return err
	}
	d.payload = c
	if c != eof {
		d.bitsAvailable = 8
	}
	return nil
}

func (d *bytePackedReader) StartRecord() (bool, error) {
	d.position = 0
	d.bitsAvailable = 0
	d.payload = 0
	if err := d.maybeUpdatePayload(); err != nil {
		return false, err
	}
	return d.payload != eof, nil
}

func (d *bytePackedReader) ReadBit() (bool, error) {
	if d.position >= d.bitsPerRecord {
		return false, ErrReadPastEnd
	}
	if err := d.maybeUpdatePayload(); err != nil {
		return false, err
	}
	if d.payload == eof {
		return false, fmt.Errorf("%w: attempt to read past end of input", ErrEndOfInputMidShot)
	}
	bit := d.payload&1 != 0
	d.payload >>= 1
	d.bitsAvailable--
	d.position++
	return bit, nil
}

func (d *bytePackedReader) IsEndOfRecord() (bool, error) {
	return d.position >= d.bitsPerRecord, nil
}

func (d *bytePackedReader) ReadBitsIntoBytes(out []byte) (int, error) {
	if d.position >= d.bitsPerRecord {
		return 0, nil
	}
	if d.bitsAvailable > 0 {
		return defaultReadBitsIntoBytes(d, out)
	}

	nBits := 8 * len(out)
	if remaining := d.bitsPerRecord - d.position; remaining < nBits {
		nBits = remaining
	}
	nBytesWanted := (nBits + 7) / 8

	nBytesRead, err := readBulk(d.src, out[:nBytesWanted])
	if err != nil {
		return 0, err
	}
	if 8*nBytesRead < nBits {
		nBits = 8 * nBytesRead
	}
	d.position += nBits
	return nBits, nil
}

func (d *bytePackedReader) CurrentResultType() SectionKind {
	return Measurement
}

// readBulk reads until buf is full or the source reaches EOF, returning
// however many bytes actually landed — the byte-packed format's shots have
// no in-band delimiter, so a short final read at end-of-input is not an
// error, only a signal that the tail of the last byte's bits are unused.
func readBulk(src ByteSource, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := src.Read(buf[total:])
		total += n
		if err != nil {
			if err == io.EOF {
				break
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
