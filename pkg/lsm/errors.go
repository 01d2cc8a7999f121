package lsm

import "errors"

var (
	// ErrClosed is returned when an operation is attempted on a closed engine.
	ErrClosed = errors.New("lsm: engine is closed")

	// ErrCorrupt is returned when an on-disk structure fails validation
	// (bad magic, bad version, CRC mismatch, short read).
	ErrCorrupt = errors.New("lsm: corrupt data")
)
