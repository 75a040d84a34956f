package models

import "time"

// EventType names the engine lifecycle moments surfaced to subscribers.
type EventType string

const (
	EventOperationQueued  EventType = "operation-queued"
	EventOperationSynced  EventType = "operation-synced"
	EventOperationFailed  EventType = "operation-failed"
	EventConflictDetected EventType = "conflict-detected"
	EventConflictResolved EventType = "conflict-resolved"
	EventNetworkChanged   EventType = "network-changed"
	EventSyncStarted      EventType = "sync-started"
	EventSyncFinished     EventType = "sync-finished"
)

// EngineEvent is one entry of the engine's event stream. Reason carries
// human-readable context for failures and conflicts so the UI can present
// actionable notifications.
type EngineEvent struct {
	Type        EventType  `json:"type"`
	OperationID string     `json:"operation_id,omitempty"`
	EntityType  EntityType `json:"entity_type,omitempty"`
	EntityID    string     `json:"entity_id,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	At          time.Time  `json:"at"`
}
