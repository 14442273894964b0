// Package measurerecord implements the shot-record I/O codec layer: five
// format-specific decoders (ascii-bits, byte-packed, run-length,
// sparse-index, labeled-sections) driven forward-only through a uniform
// five-operation facade, and a bulk driver that decodes directly into a
// bittable.Table, transposing automatically when the caller's axis
// orientation disagrees with the natural per-shot layout.
package measurerecord

import (
	"fmt"

	"github.com/qsimio/shotrecord/bittable"
)

// SectionKind identifies which of a labeled shot's three sections the next
// bit belongs to. Every format other than Dets produces only Measurement
// bits.
type SectionKind int

const (
	Measurement SectionKind = iota
	Detection
	Logical
)

func (k SectionKind) String() string {
	switch k {
	case Measurement:
		return "M"
	case Detection:
		return "D"
	case Logical:
		return "L"
	default:
		return "?"
	}
}

// Format identifies one of the on-disk shot-record encodings.
type Format string

const (
	FormatAsciiBits       Format = "01"
	FormatBytePacked      Format = "b8"
	FormatRunLength       Format = "r8"
	FormatSparseIndices   Format = "hits"
	FormatLabeledSections Format = "dets"
	FormatBulkTransposed  Format = "ptb64"
)

// Reader is the uniform contract every decoder implements. A Reader is
// bound to a single ByteSource and driven forward-only: once StartRecord
// has advanced past shot k, shot k cannot be revisited.
type Reader interface {
	// StartRecord advances to the next shot. It returns (true, nil) if a
	// shot is available, (false, nil) on clean end-of-input, and a
	// non-nil error if a partial shot is encountered.
	StartRecord() (bool, error)

	// IsEndOfRecord reports whether the current shot's bits are
	// exhausted. Calling it does not advance state. Some formats detect
	// framing errors only at this check (a line that's the wrong
	// length); such errors are returned here.
	IsEndOfRecord() (bool, error)

	// ReadBit returns the next bit of the current shot. It fails with
	// ErrReadPastEnd if IsEndOfRecord is true, or ErrEndOfInputMidShot at
	// end-of-input.
	ReadBit() (bool, error)

	// ReadBitsIntoBytes fills out (LSB-first within each byte) with up to
	// 8*len(out) bits of the current shot. It stops early at end-of-
	// record or, for the labeled format, at a change of section kind. It
	// returns the number of bits actually written.
	ReadBitsIntoBytes(out []byte) (int, error)

	// CurrentResultType reports the kind of the next bit to be produced.
	CurrentResultType() SectionKind
}

// New dispatches on format and constructs the matching decoder. It rejects
// n_detection_events != 0 or n_logical_observables != 0 for any format
// other than labeled sections, and rejects the bulk-transposed format
// outright as incompatible with single-shot reading.
func New(src ByteSource, format Format, numMeasurements, numDetectionEvents, numLogicalObservables int) (Reader, error) {
	if format != FormatLabeledSections {
		if numDetectionEvents != 0 {
			return nil, fmt.Errorf("%w: only the labeled-sections format supports detection event records", ErrUnsupportedFormat)
		}
		if numLogicalObservables != 0 {
			return nil, fmt.Errorf("%w: only the labeled-sections format supports logical observable records", ErrUnsupportedFormat)
		}
	}

	switch format {
	case FormatAsciiBits:
		return newAsciiBitsReader(src, numMeasurements), nil
	case FormatBytePacked:
		return newBytePackedReader(src, numMeasurements), nil
	case FormatRunLength:
		return newRunLengthReader(src, numMeasurements), nil
	case FormatSparseIndices:
		return newSparseIndexReader(src, numMeasurements), nil
	case FormatLabeledSections:
		return newLabeledSectionsReader(src, numMeasurements, numDetectionEvents, numLogicalObservables), nil
	case FormatBulkTransposed:
		return nil, fmt.Errorf("%w: bulk-transposed format is incompatible with single-shot reading", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: unrecognized format %q", ErrUnsupportedFormat, format)
	}
}

// defaultReadBitsIntoBytes implements the generic per-bit fallback used by
// decoders with no bulk fast path: it stops at end-of-record or, for
// formats that expose more than one SectionKind, at a change of section
// kind so callers can split output by section.
func defaultReadBitsIntoBytes(r Reader, out []byte) (int, error) {
	end, err := r.IsEndOfRecord()
	if err != nil {
		return 0, err
	}
	if end {
		return 0, nil
	}
	resultType := r.CurrentResultType()
	n := 0
	for i := range out {
		out[i] = 0
		for k := 0; k < 8; k++ {
			bit, err := r.ReadBit()
			if err != nil {
				return n, err
			}
			if bit {
				out[i] |= 1 << uint(k)
			}
			n++
			end, err := r.IsEndOfRecord()
			if err != nil {
				return n, err
			}
			if end || r.CurrentResultType() != resultType {
				return n, nil
			}
		}
	}
	return n, nil
}

// ReadRecordsInto drives r to decode up to maxShots shots into table. When
// majorIsShot is true, each shot becomes one row along table's major axis.
// When false, a scratch table with the axes swapped is decoded and then
// transposed into table. It returns the number of shots actually read,
// which may be less than maxShots on clean end-of-input. With majorIsShot
// true, rows beyond the returned count are left unmodified; with
// majorIsShot false, the transpose overwrites every row of table.
func ReadRecordsInto(r Reader, table *bittable.Table, majorIsShot bool, maxShots int) (int, error) {
	if !majorIsShot {
		scratch := bittable.New(table.NumMinorBitsPadded(), table.NumMajorBitsPadded())
		n, err := ReadRecordsInto(r, scratch, true, maxShots)
		if err != nil {
			return n, err
		}
		scratch.TransposeInto(table)
		return n, nil
	}

	if maxShots > table.MajorCount() {
		maxShots = table.MajorCount()
	}

	rec := 0
	for rec < maxShots {
		ok, err := r.StartRecord()
		if err != nil {
			return rec, err
		}
		if !ok {
			break
		}
		row := table.Row(rec)
		if _, err := r.ReadBitsIntoBytes(row.Bytes()); err != nil {
			return rec, err
		}
		end, err := r.IsEndOfRecord()
		if err != nil {
			return rec, err
		}
		if !end {
			return rec, fmt.Errorf("%w: shot contained more bits than expected", ErrFramingError)
		}
		rec++
	}
	return rec, nil
}
