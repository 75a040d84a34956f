package models

import "time"

// ConflictType classifies the divergence between local and remote state.
type ConflictType string

const (
	// ConflictVersionMismatch: both sides advanced the version counter past
	// the operation's base version.
	ConflictVersionMismatch ConflictType = "version-mismatch"

	// ConflictConcurrentEdit: versions agree but field-level hashes differ.
	ConflictConcurrentEdit ConflictType = "concurrent-edit"

	// ConflictDeletedRemotely: the remote record is gone or tombstoned while
	// a local mutation is still pending.
	ConflictDeletedRemotely ConflictType = "deleted-remotely"

	// ConflictDeletedLocally: the local record is gone or tombstoned while
	// the remote still holds a live version.
	ConflictDeletedLocally ConflictType = "deleted-locally"
)

// ResolutionStrategy selects how a conflict is settled.
type ResolutionStrategy string

const (
	// ResolveLocal keeps the local value and resubmits it.
	ResolveLocal ResolutionStrategy = "local"

	// ResolveRemote adopts the remote value and discards the local mutation.
	ResolveRemote ResolutionStrategy = "remote"

	// ResolveMerge unions fields from both sides, newest modification wins.
	ResolveMerge ResolutionStrategy = "merge"

	// ResolveManual parks the conflict for an external decision. Operations
	// on the conflicting entity stay blocked until it is resolved.
	ResolveManual ResolutionStrategy = "manual"
)

// KnownStrategy reports whether s is one of the supported strategies.
func KnownStrategy(s ResolutionStrategy) bool {
	switch s {
	case ResolveLocal, ResolveRemote, ResolveMerge, ResolveManual:
		return true
	}
	return false
}

// SyncConflict is a detected divergence for one pending operation.
type SyncConflict struct {
	ID          string `json:"id"`
	OperationID string `json:"operation_id"`

	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`

	Type ConflictType `json:"type"`

	// LocalData and RemoteData are independent copies of the two sides at
	// detection time. Either may be nil for deletion conflicts.
	LocalData  *EntityRecord `json:"local_data,omitempty"`
	RemoteData *EntityRecord `json:"remote_data,omitempty"`

	LocalVersion  int64 `json:"local_version"`
	RemoteVersion int64 `json:"remote_version"`

	Resolved   bool      `json:"resolved"`
	DetectedAt time.Time `json:"detected_at"`
}

// Clone returns an independent copy of the conflict, both sides included.
func (c SyncConflict) Clone() SyncConflict {
	if c.LocalData != nil {
		local := c.LocalData.Clone()
		c.LocalData = &local
	}
	if c.RemoteData != nil {
		remote := c.RemoteData.Clone()
		c.RemoteData = &remote
	}
	return c
}

// Resolution is the audited outcome of applying a strategy to a conflict.
type Resolution struct {
	ConflictID  string             `json:"conflict_id"`
	OperationID string             `json:"operation_id"`
	EntityType  EntityType         `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Strategy    ResolutionStrategy `json:"strategy"`

	// Resolved is false only for the manual strategy, which parks the
	// conflict for an external decision instead of producing a value.
	Resolved bool `json:"resolved"`

	// Deleted marks outcomes whose winning value is a deletion.
	Deleted bool `json:"deleted"`

	// Payload is the winning value. Nil for deletions and manual outcomes.
	Payload Payload `json:"-"`

	ResolvedAt time.Time `json:"resolved_at"`
}
