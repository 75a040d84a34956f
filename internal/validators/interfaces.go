// Package validators checks operations and their payloads before they
// enter the queue, so that nothing the remote is guaranteed to reject
// ever ties up a sync cycle.
package validators

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/validators_mock.go -package=mock

// Validator validates the given object. When fields are supplied only
// those fields are checked, otherwise the whole object is.
type Validator interface {
	Validate(ctx context.Context, obj any, fields ...string) error
}
