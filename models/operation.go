package models

import (
	"encoding/json"
	"slices"
	"time"
)

// OperationKind is the mutation verb of a SyncOperation.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
)

// KnownOperationKind reports whether k is one of the supported verbs.
func KnownOperationKind(k OperationKind) bool {
	switch k {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Priority orders operations within the queue. Higher priority drains first;
// within one priority level operations drain in enqueue order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to its sort position, lower draining first.
// Unknown values sort last so a corrupted record cannot jump the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// SyncOperation is one pending mutation in the offline queue.
type SyncOperation struct {
	// ID is the unique identifier of the operation. The remote endpoint
	// deduplicates on it, so a resubmission after a timeout is safe.
	ID string `json:"id"`

	// Kind is the mutation verb.
	Kind OperationKind `json:"kind"`

	// EntityType and EntityID address the local record the mutation targets.
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`

	// Payload carries the mutation body. Nil for deletes.
	Payload Payload `json:"-"`

	// BaseVersion is the entity version the mutation was built against.
	// The remote uses it for optimistic-locking checks.
	BaseVersion int64 `json:"base_version"`

	// EnqueuedAt is assigned by the queue when the operation is accepted.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// Seq is the queue's monotonic insertion counter. It breaks ordering
	// ties between operations sharing the same EnqueuedAt.
	Seq uint64 `json:"seq"`

	// Priority controls drain order relative to other queued operations.
	Priority Priority `json:"priority"`

	// RetryCount counts failed submission attempts so far.
	// Always ≤ MaxRetries.
	RetryCount int `json:"retry_count"`

	// MaxRetries bounds transient-failure retries. Once RetryCount reaches
	// it and a retry still fails, the operation is terminally failed.
	MaxRetries int `json:"max_retries"`

	// NextAttemptAt gates retries: the operation is not eligible for
	// submission before this instant. Zero means ready now.
	NextAttemptAt time.Time `json:"next_attempt_at"`

	// Submitted records that the operation reached the remote at least once.
	// A submitted create is never annihilated against a later delete, since
	// the remote may already hold its effect.
	Submitted bool `json:"submitted"`

	// DependsOn lists operation ids that must complete before this one may
	// be submitted.
	DependsOn []string `json:"depends_on,omitempty"`
}

// Ready reports whether the operation's backoff gate has passed at now.
func (op *SyncOperation) Ready(now time.Time) bool {
	return op.NextAttemptAt.IsZero() || !op.NextAttemptAt.After(now)
}

// Clone returns an independent copy of the operation.
func (op SyncOperation) Clone() SyncOperation {
	if op.Payload != nil {
		op.Payload = op.Payload.Clone()
	}
	op.DependsOn = slices.Clone(op.DependsOn)
	return op
}

// syncOperationJSON is the persisted form of SyncOperation. The payload is
// kept as raw JSON so the tagged union round-trips by entity type.
type syncOperationJSON struct {
	ID            string          `json:"id"`
	Kind          OperationKind   `json:"kind"`
	EntityType    EntityType      `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	BaseVersion   int64           `json:"base_version"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
	Seq           uint64          `json:"seq"`
	Priority      Priority        `json:"priority"`
	RetryCount    int             `json:"retry_count"`
	MaxRetries    int             `json:"max_retries"`
	NextAttemptAt time.Time       `json:"next_attempt_at"`
	Submitted     bool            `json:"submitted"`
	DependsOn     []string        `json:"depends_on,omitempty"`
}

func (op SyncOperation) MarshalJSON() ([]byte, error) {
	raw, err := EncodePayload(op.Payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(syncOperationJSON{
		ID:            op.ID,
		Kind:          op.Kind,
		EntityType:    op.EntityType,
		EntityID:      op.EntityID,
		Payload:       raw,
		BaseVersion:   op.BaseVersion,
		EnqueuedAt:    op.EnqueuedAt,
		Seq:           op.Seq,
		Priority:      op.Priority,
		RetryCount:    op.RetryCount,
		MaxRetries:    op.MaxRetries,
		NextAttemptAt: op.NextAttemptAt,
		Submitted:     op.Submitted,
		DependsOn:     op.DependsOn,
	})
}

func (op *SyncOperation) UnmarshalJSON(data []byte) error {
	var aux syncOperationJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	payload, err := DecodePayload(aux.EntityType, aux.Payload)
	if err != nil {
		return err
	}

	op.ID = aux.ID
	op.Kind = aux.Kind
	op.EntityType = aux.EntityType
	op.EntityID = aux.EntityID
	op.Payload = payload
	op.BaseVersion = aux.BaseVersion
	op.EnqueuedAt = aux.EnqueuedAt
	op.Seq = aux.Seq
	op.Priority = aux.Priority
	op.RetryCount = aux.RetryCount
	op.MaxRetries = aux.MaxRetries
	op.NextAttemptAt = aux.NextAttemptAt
	op.Submitted = aux.Submitted
	op.DependsOn = aux.DependsOn

	return nil
}
