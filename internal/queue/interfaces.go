// Package queue holds pending mutations while the engine is offline and
// feeds them to the orchestrator in priority order once connectivity
// returns.
//
// Every accepted operation is persisted to the sync-queue collection before
// it counts as queued, so a crash or restart never loses work. A
// single-writer mutex serializes all mutations; reads briefly take the same
// lock and copy out.
package queue

import (
	"context"
	"time"

	"github.com/loreleaf/loreleaf/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/queue_mock.go -package=mock

// Queue is the durable outbox of the sync engine.
type Queue interface {
	// Load rebuilds the in-memory index from the persisted sync-queue
	// collection. Records that no longer decode are skipped and logged,
	// not deleted. The insertion sequence continues above the highest
	// loaded value.
	Load(ctx context.Context) error

	// Enqueue validates op, assigns ID (when empty), EnqueuedAt, Seq and
	// defaults, persists it, and adds it to the queue. On persistence
	// failure the operation is NOT queued and the storage error is
	// returned; the caller owns retrying the enqueue. The assigned fields
	// are written back into op.
	Enqueue(ctx context.Context, op *models.SyncOperation) error

	// Dequeue removes the operation by id. Removing an absent id is a
	// no-op.
	Dequeue(ctx context.Context, id string) error

	// RemoveMany removes all given ids, continuing past individual
	// failures and returning them joined.
	RemoveMany(ctx context.Context, ids []string) error

	// NextOperations returns up to n operations ready for submission:
	// ordered by priority, then EnqueuedAt, ties broken by Seq; excluding
	// operations whose DependsOn references an id still queued and
	// operations whose NextAttemptAt lies in the future.
	NextOperations(n int) []models.SyncOperation

	// Optimize collapses redundant operations per entity (update chains,
	// create+update runs, update+delete runs, unsubmitted create+delete
	// pairs). It never grows the queue, never reorders across entities,
	// and is idempotent. Operations that were already submitted, are in
	// retry, or have dependants are left alone.
	Optimize(ctx context.Context) error

	// IncrementRetry bumps the operation's retry count and pushes its
	// NextAttemptAt by backoffBase doubled per retry, capped at
	// backoffMax. It reports true while the operation may still be
	// retried and false once retries are exhausted; the caller then
	// removes the operation and surfaces the failure.
	IncrementRetry(ctx context.Context, id string, backoffBase, backoffMax time.Duration) (bool, error)

	// MarkSubmitted records that the operation reached the remote at
	// least once, which disqualifies it from create+delete annihilation.
	MarkSubmitted(ctx context.Context, id string) error

	// Size returns the number of queued operations.
	Size() int

	// IsEmpty reports whether the queue holds no operations.
	IsEmpty() bool

	// All returns a snapshot of every queued operation in drain order.
	All() []models.SyncOperation
}
