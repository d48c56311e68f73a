package routes

import "errors"

var (
	// ErrRouteCollision is returned when a path is already registered.
	ErrRouteCollision = errors.New("routes: path already registered")

	// ErrInvalidRoute is returned for a spec without a usable path or target.
	ErrInvalidRoute = errors.New("routes: invalid route")
)
