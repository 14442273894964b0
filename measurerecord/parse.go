package measurerecord

import (
	"fmt"
	"io"
)

// eof mirrors C's getc() EOF sentinel so the lookahead variables threaded
// through the decoders can hold either a byte value in [0,255] or EOF in a
// single int, exactly as spec.md's decoder cursor describes.
const eof = -1

// ByteSource is the input byte stream a decoder is bound to: a byte-at-a-
// time reader plus a bulk reader for the byte-packed format's fast path.
type ByteSource interface {
	io.Reader
	io.ByteReader
}

// getByte reads one byte from src, translating io.EOF into the eof
// sentinel so callers never have to special-case io.EOF directly.
func getByte(src ByteSource) (int, error) {
	b, err := src.ReadByte()
	if err == io.EOF {
		return eof, nil
	}
	if err != nil {
		return 0, err
	}
	return int(b), nil
}

// maybeConsumeKeyword reads one character; if EOF, it returns (false, eof)
// cleanly (the caller's start-of-record hook uses this to signal a clean
// end of input). Any mismatch against keyword is a hard FormatMismatch.
// On success next is the first character after the keyword.
func maybeConsumeKeyword(src ByteSource, keyword string) (found bool, next int, err error) {
	next, err = getByte(src)
	if err != nil {
		return false, 0, err
	}
	if next == eof {
		return false, eof, nil
	}

	for _, want := range []byte(keyword) {
		if int(want) != next {
			return false, 0, fmt.Errorf("%w: expected keyword %q", ErrFormatMismatch, keyword)
		}
		next, err = getByte(src)
		if err != nil {
			return false, 0, err
		}
	}

	return true, next, nil
}

func isDigit(c int) bool {
	return c >= '0' && c <= '9'
}

// readUint64 optionally consumes one character first (when includeInitial
// is true, initialChar is used directly instead of reading), then consumes
// a run of decimal digits. It returns parsed=false without consuming
// further input if the first character examined isn't a digit. Overflow
// (the running value going backwards after *10+digit) is a hard error.
func readUint64(src ByteSource, initialChar int, includeInitial bool) (parsed bool, value uint64, next int, err error) {
	next = initialChar
	if !includeInitial {
		next, err = getByte(src)
		if err != nil {
			return false, 0, 0, err
		}
	}
	if !isDigit(next) {
		return false, 0, next, nil
	}

	value = 0
	for isDigit(next) {
		prev := value
		value *= 10
		value += uint64(next - '0')
		if value < prev {
			return false, 0, 0, fmt.Errorf("%w: integer value read from input was too big", ErrOverflow)
		}
		next, err = getByte(src)
		if err != nil {
			return false, 0, 0, err
		}
	}
	return true, value, next, nil
}
