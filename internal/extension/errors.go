package extension

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned when a frozen builder is written to.
	ErrFrozen = errors.New("extension: composition context is frozen")

	// ErrDuplicateName is returned when two manifest entries share a name.
	ErrDuplicateName = errors.New("extension: duplicate extension name")

	// ErrUnknownHook is returned by Dispatch for an unrecognised hook.
	ErrUnknownHook = errors.New("extension: unknown hook")

	// ErrMissingArgument is returned by Dispatch when Args lacks what the
	// hook needs.
	ErrMissingArgument = errors.New("extension: missing hook argument")
)

// HookError reports which extension failed during a dispatch pass.
type HookError struct {
	Extension string
	Hook      Hook
	Err       error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("extension %s: %s: %v", e.Extension, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
