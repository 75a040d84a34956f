package models

import "time"

// UpdateStatus is the lifecycle state of an optimistic update.
// Pending is the only live state; confirmed and rolledback are terminal.
type UpdateStatus string

const (
	UpdatePending    UpdateStatus = "pending"
	UpdateConfirmed  UpdateStatus = "confirmed"
	UpdateRolledBack UpdateStatus = "rolledback"
)

// OptimisticUpdate pairs a queued operation with a snapshot of the entity
// state that preceded it. The pending set lives in process memory only: after
// a restart the optimistic layer starts empty while the operations themselves
// are redelivered from the persisted queue.
type OptimisticUpdate struct {
	ID          string       `json:"id"`
	OperationID string       `json:"operation_id"`
	EntityType  EntityType   `json:"entity_type"`
	EntityID    string       `json:"entity_id"`
	Status      UpdateStatus `json:"status"`
	AppliedAt   time.Time    `json:"applied_at"`

	// PriorSnapshot is the entity record as it was before the operation was
	// applied. Nil means the entity did not exist; rollback then removes the
	// record instead of restoring one.
	PriorSnapshot *EntityRecord `json:"prior_snapshot,omitempty"`
}

// Clone returns an independent copy of the update, snapshot included.
func (u OptimisticUpdate) Clone() OptimisticUpdate {
	if u.PriorSnapshot != nil {
		snapshot := u.PriorSnapshot.Clone()
		u.PriorSnapshot = &snapshot
	}
	return u
}
