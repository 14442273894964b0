package shotindex

import "errors"

// ErrInvalidDigest is returned when a digest buffer is too small, truncated,
// or otherwise fails a structural check during decoding.
var ErrInvalidDigest = errors.New("shotindex: invalid digest")

// ErrNotLoaded is returned when a ShotIndexReader method is called before
// Load.
var ErrNotLoaded = errors.New("shotindex: reader not loaded")

// ErrPositionOutOfRange is returned when Get is called with a position
// outside [0, Len()).
var ErrPositionOutOfRange = errors.New("shotindex: position out of range")
