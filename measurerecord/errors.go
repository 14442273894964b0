package measurerecord

import "errors"

// Error taxonomy, one sentinel per category. Every returned error wraps the
// relevant sentinel with fmt.Errorf("%w: …") so callers can errors.Is
// against these values without string matching.
var (
	// ErrFormatMismatch is returned when a byte or character is
	// inconsistent with the declared format.
	ErrFormatMismatch = errors.New("measurerecord: format mismatch")

	// ErrFramingError is returned when a shot ends too early or too late.
	ErrFramingError = errors.New("measurerecord: framing error")

	// ErrOverflow is returned when a decimal integer overflows during
	// parsing.
	ErrOverflow = errors.New("measurerecord: integer overflow")

	// ErrOutOfRange is returned when a sparse or labeled index is beyond
	// its section width.
	ErrOutOfRange = errors.New("measurerecord: index out of range")

	// ErrEndOfInputMidShot is returned when the input ends while a shot
	// is in progress.
	ErrEndOfInputMidShot = errors.New("measurerecord: end of input mid-shot")

	// ErrReadPastEnd is returned when ReadBit is called after
	// IsEndOfRecord reports true.
	ErrReadPastEnd = errors.New("measurerecord: read past end of record")

	// ErrUnsupportedFormat is returned by New when the requested format
	// cannot be read by this component (bulk-transposed format) or when
	// non-measurement sections are requested for a non-labeled format.
	ErrUnsupportedFormat = errors.New("measurerecord: unsupported format")
)
