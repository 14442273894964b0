// Package bittable implements the bulk bit-table described in the
// shot-record codec's data model: a two-dimensional array of bits with a
// major axis (typically shots) and a minor axis (typically measurement
// bits), each padded to a SIMD word boundary, supporting transpose.
package bittable

import "github.com/qsimio/shotrecord/bitrow"

// Table is a (MajorCount, MinorCount) bit matrix. Rows along the major axis
// are bit-packed as bitrow.Row values.
type Table struct {
	rows             []*bitrow.Row
	majorCount       int
	minorCount       int
	majorCountPadded int
	minorCountPadded int
}

// New allocates a zeroed table of the requested logical shape, padding both
// axes up to the current SIMD word width.
func New(majorCount, minorCount int) *Table {
	majorPadded := bitrow.PaddedBits(majorCount)
	minorPadded := bitrow.PaddedBits(minorCount)
	rows := make([]*bitrow.Row, majorPadded)
	for i := range rows {
		rows[i] = bitrow.New(minorCount)
	}
	return &Table{
		rows:             rows,
		majorCount:       majorCount,
		minorCount:       minorCount,
		majorCountPadded: majorPadded,
		minorCountPadded: minorPadded,
	}
}

// NumMajorBitsPadded reports the padded major-axis extent.
func (t *Table) NumMajorBitsPadded() int { return t.majorCountPadded }

// NumMinorBitsPadded reports the padded minor-axis extent.
func (t *Table) NumMinorBitsPadded() int { return t.minorCountPadded }

// MajorCount reports the requested (unpadded) major-axis extent.
func (t *Table) MajorCount() int { return t.majorCount }

// MinorCount reports the requested (unpadded) minor-axis extent.
func (t *Table) MinorCount() int { return t.minorCount }

// Row returns the bit-packed row at major index i. The caller owns
// whatever it does with the row but must not retain it past the Table's
// lifetime if the Table is reused for a different shape.
func (t *Table) Row(i int) *bitrow.Row {
	return t.rows[i]
}

// TransposeInto exchanges the major and minor axes of t into dst, overwriting
// dst's previous contents. dst's padded major extent must cover t's padded
// minor extent and dst's padded minor extent must cover t's padded major
// extent, as with the swapped-shape scratch table the facade allocates for
// readRecordsInto with majorIsShot=false. The shapes are not validated; a
// dst that is too small panics with an index out of range.
func (t *Table) TransposeInto(dst *Table) {
	for _, row := range dst.rows {
		row.Clear()
	}
	for major := 0; major < t.majorCountPadded; major++ {
		src := t.rows[major]
		for minor := 0; minor < t.minorCountPadded; minor++ {
			if src.Bit(minor) {
				dst.rows[minor].SetBit(major, true)
			}
		}
	}
}
