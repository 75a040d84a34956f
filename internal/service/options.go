package service

import "github.com/loreleaf/loreleaf/models"

// Option adjusts a single enqueued operation.
type Option func(*models.SyncOperation)

// WithPriority sets the queue drain priority of the operation.
func WithPriority(p models.Priority) Option {
	return func(op *models.SyncOperation) { op.Priority = p }
}

// WithMaxRetries overrides the engine default retry budget for the
// operation.
func WithMaxRetries(n int) Option {
	return func(op *models.SyncOperation) { op.MaxRetries = n }
}

// WithDependsOn holds the operation back until every listed operation id
// has completed.
func WithDependsOn(ids ...string) Option {
	return func(op *models.SyncOperation) {
		op.DependsOn = append(op.DependsOn, ids...)
	}
}
