package store

import "errors"

var (
	// ErrCorrupt means a backing JSON document exists but does not parse.
	ErrCorrupt = errors.New("store: corrupt document")
	// ErrNotFound means the requested record or file does not exist.
	ErrNotFound = errors.New("store: not found")
)
