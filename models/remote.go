package models

import (
	"encoding/json"
	"time"
)

// SubmitRequest is the wire form of one operation sent to the remote submit
// endpoint. The endpoint is idempotent on OperationID: resubmitting after a
// timeout is always safe.
type SubmitRequest struct {
	OperationID string          `json:"operation_id"`
	EntityType  EntityType      `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	Kind        OperationKind   `json:"kind"`
	BaseVersion int64           `json:"base_version"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// SubmitResponse is the success reply: the version the remote assigned to
// the entity after applying the mutation.
type SubmitResponse struct {
	OperationID string    `json:"operation_id"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RemoteEntity is the remote's current view of one entity: the body of a
// fetch reply, and of a 409 conflict reply where it rides along with the
// rejection.
type RemoteEntity struct {
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Version    int64           `json:"version"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Deleted    bool            `json:"deleted"`
	Message    string          `json:"message,omitempty"`
}

// Record converts the remote view into an entity record, decoding the
// payload variant for its entity type.
func (c RemoteEntity) Record() (*EntityRecord, error) {
	payload, err := DecodePayload(c.EntityType, c.Payload)
	if err != nil {
		return nil, err
	}

	return &EntityRecord{
		EntityType: c.EntityType,
		EntityID:   c.EntityID,
		Version:    c.Version,
		Payload:    payload,
		UpdatedAt:  c.UpdatedAt,
		Deleted:    c.Deleted,
	}, nil
}
