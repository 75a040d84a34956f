package models

import "time"

// QueueResponse lists the queued operations in drain order.
type QueueResponse struct {
	Operations []SyncOperation `json:"operations"`
	Length     int             `json:"length"`
}

// ConflictsResponse lists the unresolved conflicts ordered by detection
// time.
type ConflictsResponse struct {
	Conflicts []SyncConflict `json:"conflicts"`
	Length    int            `json:"length"`
}

// ResolveConflictRequest selects the strategy applied to a parked conflict.
type ResolveConflictRequest struct {
	Strategy ResolutionStrategy `json:"strategy"`
}

// ConfigResponse is the auto-sync snapshot returned after a config update.
type ConfigResponse struct {
	EnableAutoSync bool          `json:"enable_auto_sync"`
	SyncInterval   time.Duration `json:"sync_interval"`
}
