// Package optimistic keeps the local entity arena: the state the UI reads
// immediately after a mutation, before the remote has confirmed anything.
//
// Every applied operation captures a snapshot of the record it replaces, so
// a failed submission can roll the arena back to exactly what was there
// before. Arena records are written through to per-entity-type collections
// in the local store; the pending update set itself lives in process memory
// only and starts empty after a restart.
package optimistic

import (
	"context"

	"github.com/loreleaf/loreleaf/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/optimistic_mock.go -package=mock

// Manager applies queued operations to the local arena ahead of remote
// confirmation and undoes them when the remote rejects.
type Manager interface {
	// Load seeds the arena from the persisted entity collections. Records
	// that no longer decode are skipped and logged, not deleted.
	Load(ctx context.Context) error

	// Apply snapshots the current record for op's entity (clone, or nil
	// when absent), applies the payload to the arena (create inserts a
	// version-0 record, update overlays by entity-type merge semantics,
	// delete sets the tombstone) and registers a pending update whose id
	// is returned. A second pending update for the same operation id is
	// rejected. Write-through failures are logged, never returned: the
	// arena keeps the applied state and the operation stays queued.
	Apply(ctx context.Context, op models.SyncOperation) (string, error)

	// Confirm transitions a pending update to confirmed: the arena record
	// takes the server-issued version, the snapshot is dropped. A
	// confirmed delete removes the record from the arena and the store.
	// Confirming an already-confirmed or unknown update is a no-op.
	Confirm(ctx context.Context, updateID string, newVersion int64)

	// Rollback transitions a pending update to rolledback and restores
	// the arena record from its snapshot; a nil snapshot restores
	// absence. Rolling back an already-confirmed update fails with
	// ErrUpdateConfirmed and leaves the arena untouched.
	Rollback(ctx context.Context, updateID string) error

	// Pending returns the pending updates ordered by application time.
	Pending() []models.OptimisticUpdate

	// PendingCount returns the number of pending updates.
	PendingCount() int

	// UpdateByOperation returns a clone of the pending update registered
	// for the given operation id and whether one exists.
	UpdateByOperation(operationID string) (models.OptimisticUpdate, bool)

	// Record returns a clone of the arena record for entityType/entityID
	// and whether one exists. Tombstoned records are returned with
	// Deleted set.
	Record(entityType models.EntityType, entityID string) (models.EntityRecord, bool)

	// SetRecord clones record into the arena and writes it through,
	// replacing whatever was there. Used when adopting remote state.
	SetRecord(ctx context.Context, record models.EntityRecord)

	// ClearAll discards every tracked update, pending ones included,
	// without restoring any snapshots. Arena records stay as they are.
	ClearAll()
}
