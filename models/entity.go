package models

import (
	"encoding/json"
	"time"
)

// EntityRecord is one row of the local entity state: the last known value of
// an entity plus its version marker. The optimistic layer keeps records in
// memory; confirmed records are also written through to the local store under
// their entity-type collection.
type EntityRecord struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`

	// Version is the remote's monotonic version counter, assigned on
	// confirmation. Locally created records hold 0 until first sync.
	Version int64 `json:"version"`

	// Payload is the entity's current value.
	Payload Payload `json:"-"`

	UpdatedAt time.Time `json:"updated_at"`

	// Deleted marks a tombstone: the entity was removed locally but the
	// deletion has not necessarily been confirmed remotely yet.
	Deleted bool `json:"deleted"`
}

// Clone returns an independent copy. Snapshot and restore paths always work
// on clones so rollback state can never alias live state.
func (r EntityRecord) Clone() EntityRecord {
	if r.Payload != nil {
		r.Payload = r.Payload.Clone()
	}
	return r
}

type entityRecordJSON struct {
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Version    int64           `json:"version"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Deleted    bool            `json:"deleted"`
}

func (r EntityRecord) MarshalJSON() ([]byte, error) {
	raw, err := EncodePayload(r.Payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(entityRecordJSON{
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Version:    r.Version,
		Payload:    raw,
		UpdatedAt:  r.UpdatedAt,
		Deleted:    r.Deleted,
	})
}

func (r *EntityRecord) UnmarshalJSON(data []byte) error {
	var aux entityRecordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	payload, err := DecodePayload(aux.EntityType, aux.Payload)
	if err != nil {
		return err
	}

	r.EntityType = aux.EntityType
	r.EntityID = aux.EntityID
	r.Version = aux.Version
	r.Payload = payload
	r.UpdatedAt = aux.UpdatedAt
	r.Deleted = aux.Deleted

	return nil
}
