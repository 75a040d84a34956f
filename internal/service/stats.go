package service

import (
	"sync/atomic"
	"time"

	"github.com/loreleaf/loreleaf/models"
)

// Stats accumulates engine counters. All methods are safe for concurrent
// use; Snapshot reads each counter independently, so a snapshot taken
// mid-cycle can be ahead on one counter and behind on another.
type Stats struct {
	enqueued          atomic.Int64
	synced            atomic.Int64
	failed            atomic.Int64
	retries           atomic.Int64
	conflictsDetected atomic.Int64
	conflictsResolved atomic.Int64
	cycles            atomic.Int64
	lastCycleNanos    atomic.Int64
}

// NewStats returns a zeroed counter set.
func NewStats() *Stats {
	return &Stats{}
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() models.EngineStatistics {
	return models.EngineStatistics{
		Enqueued:          s.enqueued.Load(),
		Synced:            s.synced.Load(),
		Failed:            s.failed.Load(),
		Retries:           s.retries.Load(),
		ConflictsDetected: s.conflictsDetected.Load(),
		ConflictsResolved: s.conflictsResolved.Load(),
		Cycles:            s.cycles.Load(),
		LastCycleDuration: time.Duration(s.lastCycleNanos.Load()),
	}
}

func (s *Stats) addEnqueued(n int64)          { s.enqueued.Add(n) }
func (s *Stats) addSynced(n int64)            { s.synced.Add(n) }
func (s *Stats) addFailed(n int64)            { s.failed.Add(n) }
func (s *Stats) addRetries(n int64)           { s.retries.Add(n) }
func (s *Stats) addConflictsDetected(n int64) { s.conflictsDetected.Add(n) }
func (s *Stats) addConflictsResolved(n int64) { s.conflictsResolved.Add(n) }

func (s *Stats) recordCycle(d time.Duration) {
	s.cycles.Add(1)
	s.lastCycleNanos.Store(int64(d))
}
