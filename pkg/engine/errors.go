package engine

import "errors"

var (
	// ErrDuplicateKey is returned by Append when a live record already
	// holds the key. Tombstoned keys are reused, not rejected.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned for absent keys and out-of-range positions.
	ErrNotFound = errors.New("not found")

	// ErrCorrupted is returned when a header fails magic/version checks or
	// the first index page is out of order.
	ErrCorrupted = errors.New("corrupted database")

	// ErrBufferTooSmall is returned by Get when the record payload does not
	// fit the caller's buffer.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrShortWrite is returned when the backend accepts fewer bytes than
	// requested.
	ErrShortWrite = errors.New("short write")
)
