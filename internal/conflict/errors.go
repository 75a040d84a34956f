package conflict

import "errors"

// Sentinel errors returned by the resolver. Callers should use [errors.Is]
// to match against these values.
var (
	// ErrUnknownStrategy is returned when Resolve receives a strategy
	// outside the supported set.
	ErrUnknownStrategy = errors.New("unknown resolution strategy")

	// ErrInvalidConflict is returned when a conflict carries no state to
	// resolve, i.e. both sides are nil.
	ErrInvalidConflict = errors.New("conflict has no resolvable state")

	// ErrMergingPayloads is returned when the field-level union cannot be
	// computed or its result does not decode back into the entity's
	// payload shape.
	ErrMergingPayloads = errors.New("merging conflict payloads")
)
