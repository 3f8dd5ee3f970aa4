package core

import (
	"errors"
)

// Error taxonomy shared by the whole engine. Wrap these with fmt.Errorf
// and %w so callers can classify failures with errors.Is.
var (
	// ErrInvalidArg reports malformed caller input, detected before any mutation.
	ErrInvalidArg = errors.New("invalid argument")
	// ErrInvalidUsage reports an operation attempted out of its required state
	// sequence, e.g. drawing before configuring.
	ErrInvalidUsage = errors.New("invalid usage")
	// ErrUnsupported reports a backend or feature that is not compiled in or
	// not present on this device.
	ErrUnsupported = errors.New("unsupported")
	// ErrGraphicsUnsupported reports a graphics operation rejected by the
	// native driver, e.g. an incomplete framebuffer.
	ErrGraphicsUnsupported = errors.New("graphics unsupported")
	// ErrMemory reports a native allocation failure.
	ErrMemory = errors.New("out of memory")
	// ErrExternal reports a failure from an external native subsystem.
	ErrExternal = errors.New("external error")
)
