package netmon

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/models"
)

type subscriber struct {
	id int
	fn func(models.NetworkStatus)
}

type monitor struct {
	prober   Prober
	interval time.Duration
	logger   *logger.Logger

	mu          sync.RWMutex
	status      models.NetworkStatus
	subs        []subscriber
	nextSubID   int
	backlog     []models.NetworkStatus
	dispatching bool

	jobMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a Monitor that runs prober every interval once started.
// If interval is zero or negative it defaults to 30 seconds. Until the first
// probe completes the monitor assumes it is online, so queued work is not
// held back by a monitor that has not run yet.
func NewMonitor(prober Prober, interval time.Duration, log *logger.Logger) Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	return &monitor{
		prober:   prober,
		interval: interval,
		logger:   log,
		status: models.NetworkStatus{
			IsOnline:       true,
			ConnectionType: models.ConnectionUnknown,
		},
	}
}

// Start implements Monitor. It stops any previously running loop, probes
// once immediately, then keeps probing on a ticker until ctx is cancelled
// or Stop is called.
func (m *monitor) Start(ctx context.Context) {
	m.Stop()

	m.jobMu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.jobMu.Unlock()

	go func() {
		defer m.wg.Done()

		m.probe(loopCtx)

		t := time.NewTicker(m.interval)
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				m.probe(loopCtx)
			}
		}
	}()
}

// Stop implements Monitor. It cancels the probe loop and blocks until the
// goroutine has fully exited. Safe to call when the monitor is not running.
func (m *monitor) Stop() {
	m.jobMu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.jobMu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// IsOnline implements Monitor.
func (m *monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.IsOnline
}

// Status implements Monitor.
func (m *monitor) Status() models.NetworkStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsSlowConnection implements Monitor.
func (m *monitor) IsSlowConnection() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Slow()
}

// Subscribe implements Monitor.
func (m *monitor) Subscribe(listener func(models.NetworkStatus)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs = append(m.subs, subscriber{id: id, fn: listener})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool {
			return s.id == id
		})
	}
}

// SetStatus implements Monitor.
func (m *monitor) SetStatus(status models.NetworkStatus) {
	if status.CheckedAt.IsZero() {
		status.CheckedAt = time.Now()
	}
	m.update(status)
}

func (m *monitor) probe(ctx context.Context) {
	status, err := m.prober.Probe(ctx)
	if err != nil {
		return
	}
	m.update(status)
}

// update swaps in the new status and, when it differs from the previous one
// in connectivity or link quality, queues it for subscriber dispatch.
func (m *monitor) update(status models.NetworkStatus) {
	m.mu.Lock()
	previous := m.status
	m.status = status

	if !statusChanged(previous, status) {
		m.mu.Unlock()
		return
	}

	m.backlog = append(m.backlog, status)
	startDrain := !m.dispatching
	if startDrain {
		m.dispatching = true
	}
	m.mu.Unlock()

	m.logger.Info().
		Str("func", "monitor.update").
		Bool("online", status.IsOnline).
		Str("effective_type", string(status.EffectiveType)).
		Msg("network status changed")

	if startDrain {
		go m.drain()
	}
}

// drain delivers queued statuses to subscribers one at a time, in the order
// the changes were observed. Subscribers registered mid-dispatch see only
// later statuses. The goroutine exits once the backlog is empty.
func (m *monitor) drain() {
	for {
		m.mu.Lock()
		if len(m.backlog) == 0 {
			m.dispatching = false
			m.mu.Unlock()
			return
		}
		status := m.backlog[0]
		m.backlog = m.backlog[1:]
		subs := slices.Clone(m.subs)
		m.mu.Unlock()

		for _, sub := range subs {
			sub.fn(status)
		}
	}
}

func statusChanged(previous, current models.NetworkStatus) bool {
	return previous.IsOnline != current.IsOnline ||
		previous.EffectiveType != current.EffectiveType ||
		previous.ConnectionType != current.ConnectionType
}
