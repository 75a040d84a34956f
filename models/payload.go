package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EntityType identifies which kind of local entity a mutation targets.
// Every payload variant is bound to exactly one entity type; the pairing is
// enforced when operations are validated and when persisted payloads are
// decoded back into their concrete variant.
type EntityType string

const (
	EntityContent      EntityType = "content"
	EntityProgress     EntityType = "progress"
	EntitySettings     EntityType = "settings"
	EntityRelationship EntityType = "relationship"
)

// KnownEntityType reports whether t is one of the supported entity types.
func KnownEntityType(t EntityType) bool {
	switch t {
	case EntityContent, EntityProgress, EntitySettings, EntityRelationship:
		return true
	}
	return false
}

// EntityTypes lists every supported entity type in stable order.
func EntityTypes() []EntityType {
	return []EntityType{EntityContent, EntityProgress, EntitySettings, EntityRelationship}
}

// Payload is the tagged union carried by a SyncOperation. The queue and the
// orchestrator treat payloads generically; only the per-entity-type merge
// functions and the optimistic arena look inside.
//
// Implementations are value structs. Clone returns an independent copy so
// snapshots never alias live state.
type Payload interface {
	// EntityType names the variant, and therefore the entity collection the
	// payload belongs to.
	EntityType() EntityType

	// Clone returns a deep copy of the payload.
	Clone() Payload
}

// ContentPayload carries a change to a note or document.
type ContentPayload struct {
	Title  string   `json:"title,omitempty"`
	Body   string   `json:"body,omitempty"`
	Format string   `json:"format,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

func (p ContentPayload) EntityType() EntityType { return EntityContent }

func (p ContentPayload) Clone() Payload {
	p.Tags = slices.Clone(p.Tags)
	return p
}

// ProgressPayload carries a change to reading/learning progress. All fields
// are meaningful at their zero value, so progress updates always replace the
// previous state wholesale instead of overlaying.
type ProgressPayload struct {
	Score     float64 `json:"score"`
	Completed bool    `json:"completed"`
	Position  int     `json:"position"`
}

func (p ProgressPayload) EntityType() EntityType { return EntityProgress }

func (p ProgressPayload) Clone() Payload { return p }

// SettingsPayload carries a change to user preferences. AutoSync is a
// pointer so "not set" and "explicitly off" stay distinguishable when
// settings updates are overlaid onto each other.
type SettingsPayload struct {
	Theme           string `json:"theme,omitempty"`
	Language        string `json:"language,omitempty"`
	SyncIntervalSec int    `json:"sync_interval_sec,omitempty"`
	AutoSync        *bool  `json:"auto_sync,omitempty"`
}

func (p SettingsPayload) EntityType() EntityType { return EntitySettings }

func (p SettingsPayload) Clone() Payload {
	if p.AutoSync != nil {
		v := *p.AutoSync
		p.AutoSync = &v
	}
	return p
}

// RelationshipPayload links two entities (e.g. a note referencing another).
type RelationshipPayload struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Relation string `json:"relation"`
}

func (p RelationshipPayload) EntityType() EntityType { return EntityRelationship }

func (p RelationshipPayload) Clone() Payload { return p }

// EncodePayload serializes a payload for persistence or transport.
// A nil payload (legal for delete operations) encodes as nil.
func EncodePayload(p Payload) (json.RawMessage, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.EntityType(), err)
	}
	return raw, nil
}

// DecodePayload restores the concrete payload variant for the given entity
// type. Empty input yields a nil payload.
func DecodePayload(t EntityType, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch t {
	case EntityContent:
		var p ContentPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode content payload: %w", err)
		}
		return p, nil
	case EntityProgress:
		var p ProgressPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode progress payload: %w", err)
		}
		return p, nil
	case EntitySettings:
		var p SettingsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode settings payload: %w", err)
		}
		return p, nil
	case EntityRelationship:
		var p RelationshipPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode relationship payload: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("decode payload: unknown entity type %q", t)
	}
}
