package task

import "errors"

// Sentinel errors for lifecycle operations. Not-found conditions are
// reported with the repository's domain sentinel and are not redeclared here.
var (
	// ErrInvalidStatus is returned when a requested status is not one of
	// the enumerated values.
	ErrInvalidStatus = errors.New("invalid status value")

	// ErrIllegalTransition is returned when the requested status change is
	// not permitted by the transition table.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrStoreUnavailable is returned when the persistence collaborator
	// fails on a write, erase, or re-read.
	ErrStoreUnavailable = errors.New("store unavailable")
)
