package store

import "errors"

// Sentinel errors returned by store implementations. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when a Get targets a collection/key pair
	// that does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordNotSaved is returned when an insert completes without error
	// but the number of affected rows is zero, indicating that nothing was
	// actually persisted.
	ErrRecordNotSaved = errors.New("record was not saved")

	// ErrEmptyKey is returned when a record is written or read with an empty
	// collection or key.
	ErrEmptyKey = errors.New("collection and key must not be empty")
)

// Low-level database operation errors. These wrap driver failures so that
// callers can treat any of them as a StorageError without inspecting
// driver-specific error strings.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRows is returned when scanning column values from a result
	// set fails, typically mid-iteration.
	ErrScanningRows = errors.New("failed to scan record rows")
)

// IsStorageFailure reports whether err is one of the low-level persistence
// failures: the affected write must be considered not applied and may be
// retried by the caller.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrBuildingSQLQuery) ||
		errors.Is(err, ErrExecutingQuery) ||
		errors.Is(err, ErrExecutingStatement) ||
		errors.Is(err, ErrScanningRows) ||
		errors.Is(err, ErrRecordNotSaved)
}
