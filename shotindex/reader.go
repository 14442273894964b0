package shotindex

import "slices"

// ShotIndexReader provides sequential and random access over a fully
// decoded digest (one or more concatenated blocks produced by
// EncodeBlocks). It decodes the whole digest on Load and is the right
// choice when a caller wants to iterate or binary-search the complete shot
// list; for a single small block accessed only a handful of times, see
// SlimShotIndexReader.
//
// A ShotIndexReader is not safe for concurrent use.
type ShotIndexReader struct {
	values []uint32
	pos    int
	loaded bool
}

// NewShotIndexReader creates an empty reader that must be loaded with Load
// before use.
func NewShotIndexReader() *ShotIndexReader {
	return &ShotIndexReader{}
}

// Load decodes buf (as produced by EncodeBlocks) into the reader, replacing
// any previously loaded digest. It can be called repeatedly to reuse the
// reader's internal buffer across digests.
func (r *ShotIndexReader) Load(buf []byte) error {
	values, err := DecodeBlocks(r.values[:0], buf)
	if err != nil {
		return err
	}
	r.values = values
	r.pos = 0
	r.loaded = true
	return nil
}

// IsLoaded reports whether Load has succeeded at least once.
func (r *ShotIndexReader) IsLoaded() bool {
	return r.loaded
}

// Len returns the number of shot indices in the loaded digest.
func (r *ShotIndexReader) Len() int {
	return len(r.values)
}

// Reset rewinds sequential iteration to the first index.
func (r *ShotIndexReader) Reset() {
	r.pos = 0
}

// Get returns the shot index at the given position in the digest.
func (r *ShotIndexReader) Get(pos int) (uint32, error) {
	if !r.loaded {
		return 0, ErrNotLoaded
	}
	if pos < 0 || pos >= len(r.values) {
		return 0, ErrPositionOutOfRange
	}
	return r.values[pos], nil
}

// Next returns the next shot index in sequence, or ok=false once the
// digest is exhausted.
func (r *ShotIndexReader) Next() (value uint32, ok bool) {
	if !r.loaded || r.pos >= len(r.values) {
		return 0, false
	}
	value = r.values[r.pos]
	r.pos++
	return value, true
}

// SkipTo advances to and returns the first shot index >= req, using binary
// search since EncodeBlocks's contract is a sorted input. Returns ok=false
// if no such index remains.
func (r *ShotIndexReader) SkipTo(req uint32) (value uint32, ok bool) {
	if !r.loaded {
		return 0, false
	}
	search := r.values[r.pos:]
	idx, _ := slices.BinarySearch(search, req)
	abs := r.pos + idx
	if abs >= len(r.values) {
		r.pos = len(r.values)
		return 0, false
	}
	r.pos = abs + 1
	return r.values[abs], true
}

// Contains reports whether shotIndex appears anywhere in the loaded
// digest, using binary search over the full decoded list.
func (r *ShotIndexReader) Contains(shotIndex uint32) bool {
	if !r.loaded {
		return false
	}
	_, found := slices.BinarySearch(r.values, shotIndex)
	return found
}

// Decode copies every shot index in the loaded digest into dst, growing it
// if needed, and returns the resulting slice.
func (r *ShotIndexReader) Decode(dst []uint32) []uint32 {
	if !r.loaded {
		return nil
	}
	if cap(dst) < len(r.values) {
		dst = make([]uint32, len(r.values))
	} else {
		dst = dst[:len(r.values)]
	}
	copy(dst, r.values)
	return dst
}
