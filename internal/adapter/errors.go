package adapter

import (
	"errors"
	"fmt"
	"net"

	"github.com/loreleaf/loreleaf/models"
)

// Sentinel errors mapped from transport failures and response status codes.
// Callers should use [errors.Is] to match against these values.
var (
	// ErrNetwork marks a transport-level failure: connection refused,
	// reset, DNS, timeout. Retryable.
	ErrNetwork = errors.New("network failure")

	// ErrRemoteInternal marks a 5xx reply. Retryable, the remote is
	// expected to recover.
	ErrRemoteInternal = errors.New("remote internal error")

	// ErrBadRequest marks a 400 reply: the request was malformed. Not
	// retryable.
	ErrBadRequest = errors.New("remote rejected the request")

	// ErrUnprocessableEntity marks a 422 reply: the payload failed remote
	// validation. Not retryable.
	ErrUnprocessableEntity = errors.New("remote rejected the payload")

	// ErrUnauthorized marks a 401 reply or an expired bearer token.
	ErrUnauthorized = errors.New("remote rejected the token")

	// ErrForbidden marks a 403 reply.
	ErrForbidden = errors.New("remote denied access")

	// ErrNotFound marks a 404 reply on endpoints where absence is an
	// error. Fetch translates 404 into a nil record instead.
	ErrNotFound = errors.New("remote entity not found")
)

// ConflictError is returned on a 409 reply: the remote rejected the
// mutation because the entity moved past the operation's base version, and
// included its current view of the entity. A zero-valued Remote (no
// EntityID) means the reply body was missing or undecodable and the caller
// should fetch the entity explicitly.
type ConflictError struct {
	OperationID string
	Remote      models.RemoteEntity
}

func (e *ConflictError) Error() string {
	if e.Remote.EntityID == "" {
		return fmt.Sprintf("remote conflict on operation %s", e.OperationID)
	}
	return fmt.Sprintf("remote conflict on %s/%s at version %d",
		e.Remote.EntityType, e.Remote.EntityID, e.Remote.Version)
}

// AsConflict unwraps err into a *ConflictError if one is in its chain.
func AsConflict(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err is a retryable transport failure:
// a connection problem, a timeout, or a 5xx reply.
func IsNetworkError(err error) bool {
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrRemoteInternal) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsValidationRejection reports whether the remote rejected the mutation as
// invalid (400 or 422). Never retried.
func IsValidationRejection(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrUnprocessableEntity)
}

// IsAuthRejection reports whether the remote refused the credentials (401
// or 403). Permanent until the token is replaced.
func IsAuthRejection(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}
