package optimistic

import "errors"

// Sentinel errors returned by the update manager. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidOperation is returned when Apply receives an operation
	// that cannot address an arena record: empty entity id, unknown
	// entity type or unknown kind.
	ErrInvalidOperation = errors.New("operation not applicable to the arena")

	// ErrPendingUpdateExists is returned when Apply finds an earlier
	// update for the same operation id still pending.
	ErrPendingUpdateExists = errors.New("pending update already registered for operation")

	// ErrUpdateNotFound is returned when Rollback targets an unknown
	// update id.
	ErrUpdateNotFound = errors.New("optimistic update not found")

	// ErrUpdateConfirmed is returned when Rollback targets an update the
	// remote has already confirmed. Confirmed state is immutable.
	ErrUpdateConfirmed = errors.New("optimistic update already confirmed")
)
