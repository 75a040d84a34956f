// Package adapter is the transport layer between the sync engine and the
// remote sync endpoint.
//
// The [Remote] interface decouples the orchestrator from the protocol; the
// package ships an HTTP/REST implementation built on resty. Transport and
// response failures are mapped onto the sentinel values and the typed
// [ConflictError] in errors.go, so callers classify outcomes with
// [errors.Is] and [errors.As] instead of inspecting status codes.
package adapter

import (
	"context"

	"github.com/loreleaf/loreleaf/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_mock.go -package=mock

// Remote is the server side of the sync protocol.
type Remote interface {
	// SetToken stores the bearer token attached to all subsequent
	// requests. Safe for concurrent use with in-flight calls.
	SetToken(token string)

	// Token returns the bearer token currently held, or "".
	Token() string

	// Submit sends one operation. The endpoint is idempotent on
	// req.OperationID, so resubmitting after a timeout is safe. A 409
	// reply surfaces as a *ConflictError carrying the remote's view of
	// the entity.
	Submit(ctx context.Context, req models.SubmitRequest) (models.SubmitResponse, error)

	// Fetch returns the remote's current record for an entity, or
	// (nil, nil) when the remote does not hold one.
	Fetch(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntityRecord, error)
}
