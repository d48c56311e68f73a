package render

import "errors"

var (
	// ErrCustomizeTimeout is returned when a customize step does not finish
	// within its budget.
	ErrCustomizeTimeout = errors.New("render: customize step timed out")

	// ErrCustomizePanic is returned when a customize step panics.
	ErrCustomizePanic = errors.New("render: customize step panicked")

	// ErrUnknownWidget is returned when a page names a widget that is not
	// registered.
	ErrUnknownWidget = errors.New("render: unknown widget")
)
