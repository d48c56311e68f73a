package session

import "errors"

var (
	// ErrTokenInvalid is returned for unsigned, expired or malformed tokens.
	ErrTokenInvalid = errors.New("session: invalid token")

	// ErrNoSecret is returned when a signing secret is empty.
	ErrNoSecret = errors.New("session: signing secret not set")

	// ErrUserNotFound is returned when a session names an unknown user.
	ErrUserNotFound = errors.New("session: user not found")

	// ErrInvalidIdentity is returned when a provider token carries no identity.
	ErrInvalidIdentity = errors.New("session: missing identity")
)
