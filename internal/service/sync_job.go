package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/netmon"
)

type syncJob struct {
	engine  Engine
	monitor netmon.Monitor
	logger  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates the background sync job. The job is idle until Start
// is called; its cadence follows the engine's runtime config.
func NewSyncJob(engine Engine, monitor netmon.Monitor, log *logger.Logger) SyncJob {
	if log == nil {
		log = logger.Nop()
	}
	return &syncJob{engine: engine, monitor: monitor, logger: log}
}

// Start implements SyncJob. It stops any previously running loop, then
// launches a goroutine that triggers a sync cycle on every tick. Interval
// changes made through UpdateConfig are picked up after the current tick.
func (j *syncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()

		_, interval := j.engine.AutoSync()
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-ticker.C:
				j.tick(jobCtx)
				if _, next := j.engine.AutoSync(); next > 0 && next != interval {
					interval = next
					ticker.Reset(interval)
				}
			}
		}
	}()
}

// tick runs one background cycle. Ticks are skipped while auto-sync is
// off, the network is down, or the link is too poor for eager syncing;
// on-demand SyncNow is unaffected by any of these.
func (j *syncJob) tick(ctx context.Context) {
	enabled, _ := j.engine.AutoSync()
	if !enabled || !j.monitor.IsOnline() || j.monitor.IsSlowConnection() {
		return
	}

	if _, err := j.engine.SyncNow(ctx); err != nil && !errors.Is(err, ErrOffline) {
		j.logger.Warn().Err(err).
			Str("func", "syncJob.tick").
			Msg("background sync failed")
	}
}

// Stop implements SyncJob. It cancels the loop's context and blocks until
// the goroutine has fully exited. No-op when the job is not running.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
