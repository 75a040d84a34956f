package models

import "time"

// SyncResult summarizes one sync cycle. Callers that joined an in-progress
// cycle receive the same result as the caller that started it.
type SyncResult struct {
	CycleID    uint64    `json:"cycle_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Submitted counts operations dispatched this cycle; the remaining
	// counters partition them by outcome. Retried operations stay queued.
	Submitted int `json:"submitted"`
	Succeeded int `json:"succeeded"`
	Conflicts int `json:"conflicts"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// EngineStatus is the snapshot surfaced to the UI layer.
type EngineStatus struct {
	IsOnline            bool       `json:"is_online"`
	IsSyncing           bool       `json:"is_syncing"`
	QueueSize           int        `json:"queue_size"`
	PendingUpdates      int        `json:"pending_updates"`
	UnresolvedConflicts int        `json:"unresolved_conflicts"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
}

// EngineStatistics holds cumulative counters since engine start.
type EngineStatistics struct {
	Enqueued          int64 `json:"enqueued"`
	Synced            int64 `json:"synced"`
	Failed            int64 `json:"failed"`
	Retries           int64 `json:"retries"`
	ConflictsDetected int64 `json:"conflicts_detected"`
	ConflictsResolved int64 `json:"conflicts_resolved"`
	Cycles            int64 `json:"cycles"`

	LastCycleDuration time.Duration `json:"last_cycle_duration"`
}
