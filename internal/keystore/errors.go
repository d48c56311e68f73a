package keystore

import "errors"

var (
	// ErrEmptyPath is returned when a leaf path has no segments.
	ErrEmptyPath = errors.New("keystore: empty path")

	// ErrNotMapping is returned when a leaf path walks through a value that
	// is not a mapping.
	ErrNotMapping = errors.New("keystore: path walks through a non-mapping value")
)
