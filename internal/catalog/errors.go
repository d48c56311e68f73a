package catalog

import "errors"

var (
	// ErrEmptyID is returned when a thing, device or recipe has no identifier.
	ErrEmptyID = errors.New("catalog: empty id")

	// ErrBadPayload is returned when a bus message cannot be decoded.
	ErrBadPayload = errors.New("catalog: malformed payload")

	// ErrBadCookbook is returned when a cookbook file cannot be parsed.
	ErrBadCookbook = errors.New("catalog: malformed cookbook")
)
