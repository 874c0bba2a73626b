package timeseries

import (
	"errors"
	"fmt"
)

// ErrFreezeViolation marks programmer errors in the builder lifecycle. They
// are never recoverable; callers abort the run when they see one.
var ErrFreezeViolation = errors.New("freeze violation")

var (
	ErrAlreadyFrozen = fmt.Errorf("%w: store already frozen", ErrFreezeViolation)
	ErrEmptySeries   = fmt.Errorf("%w: store has no samples", ErrFreezeViolation)

	ErrCorruptSample = errors.New("corrupt sample")
	ErrProfileLength = errors.New("profile length mismatch")
	ErrInvalidRange  = errors.New("invalid year range")
	ErrUnknownPolicy = errors.New("unknown extrapolation policy")
)
