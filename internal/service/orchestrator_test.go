package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreleaf/loreleaf/internal/adapter"
	"github.com/loreleaf/loreleaf/internal/conflict"
	"github.com/loreleaf/loreleaf/internal/config"
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/optimistic"
	"github.com/loreleaf/loreleaf/internal/queue"
	"github.com/loreleaf/loreleaf/internal/store"
	"github.com/loreleaf/loreleaf/models"
)

// ── test doubles ────────────────────────────────────────────────────────────

// stubRemote scripts the remote store. The default script accepts every
// submission with version base+1.
type stubRemote struct {
	mu       sync.Mutex
	token    string
	submits  []models.SubmitRequest
	submitFn func(req models.SubmitRequest) (models.SubmitResponse, error)
	fetchFn  func(entityType models.EntityType, entityID string) (*models.EntityRecord, error)
}

func (r *stubRemote) SetToken(token string) { r.token = token }
func (r *stubRemote) Token() string         { return r.token }

func (r *stubRemote) Submit(_ context.Context, req models.SubmitRequest) (models.SubmitResponse, error) {
	r.mu.Lock()
	r.submits = append(r.submits, req)
	fn := r.submitFn
	r.mu.Unlock()

	if fn == nil {
		return models.SubmitResponse{
			OperationID: req.OperationID,
			Version:     req.BaseVersion + 1,
			UpdatedAt:   time.Now(),
		}, nil
	}
	return fn(req)
}

func (r *stubRemote) Fetch(_ context.Context, entityType models.EntityType, entityID string) (*models.EntityRecord, error) {
	r.mu.Lock()
	fn := r.fetchFn
	r.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(entityType, entityID)
}

func (r *stubRemote) submitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submits)
}

func (r *stubRemote) submitted(i int) models.SubmitRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submits[i]
}

// stubMonitor is a hand-driven netmon.Monitor.
type stubMonitor struct {
	mu        sync.Mutex
	status    models.NetworkStatus
	listeners map[int]func(models.NetworkStatus)
	nextID    int
}

func newStubMonitor(online bool) *stubMonitor {
	return &stubMonitor{
		status: models.NetworkStatus{
			IsOnline:       online,
			ConnectionType: models.ConnectionWifi,
			EffectiveType:  models.Effective4G,
			Downlink:       50,
			CheckedAt:      time.Now(),
		},
		listeners: make(map[int]func(models.NetworkStatus)),
	}
}

func (m *stubMonitor) Start(context.Context) {}
func (m *stubMonitor) Stop()                 {}

func (m *stubMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.IsOnline
}

func (m *stubMonitor) Status() models.NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *stubMonitor) IsSlowConnection() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.Slow()
}

func (m *stubMonitor) Subscribe(listener func(models.NetworkStatus)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *stubMonitor) SetStatus(status models.NetworkStatus) {
	m.mu.Lock()
	m.status = status
	listeners := make([]func(models.NetworkStatus), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(status)
	}
}

// setOnline flips connectivity and notifies subscribers.
func (m *stubMonitor) setOnline(online bool) {
	status := m.Status()
	status.IsOnline = online
	status.CheckedAt = time.Now()
	m.SetStatus(status)
}

// setOnlineQuiet flips connectivity without notifying anyone, the way a
// mid-cycle drop is first seen by the polling submit loop.
func (m *stubMonitor) setOnlineQuiet(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.IsOnline = online
}

// ── fixture ─────────────────────────────────────────────────────────────────

type fixture struct {
	store   store.Store
	queue   queue.Queue
	arena   optimistic.Manager
	remote  *stubRemote
	monitor *stubMonitor
	deps    Deps
	orc     Orchestrator
	engine  Engine
}

func newFixture(t *testing.T, cfg config.Engine) *fixture {
	t.Helper()

	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 2 * time.Millisecond
	}

	st := store.NewMemoryStore()
	q := queue.NewOperationQueue(st, nil, cfg.MaxRetries, logger.Nop())
	arena := optimistic.NewUpdateManager(st, nil, logger.Nop())
	resolver := conflict.NewResolver([]string{"title"}, logger.Nop())
	remote := &stubRemote{}
	monitor := newStubMonitor(true)

	deps := NewDeps(q, arena, resolver, remote, monitor, logger.Nop())
	orc := NewOrchestrator(deps, cfg, logger.Nop())
	engine := NewEngine(deps, orc, cfg, logger.Nop())

	return &fixture{
		store:   st,
		queue:   q,
		arena:   arena,
		remote:  remote,
		monitor: monitor,
		deps:    deps,
		orc:     orc,
		engine:  engine,
	}
}

// remoteContent builds the remote's view of a content entity the way a 409
// body carries it.
func remoteContent(entityID string, version int64, title, body string, updatedAt time.Time) models.RemoteEntity {
	raw, _ := json.Marshal(models.ContentPayload{Title: title, Body: body})
	return models.RemoteEntity{
		EntityType: models.EntityContent,
		EntityID:   entityID,
		Version:    version,
		Payload:    raw,
		UpdatedAt:  updatedAt,
	}
}

func networkFailure(models.SubmitRequest) (models.SubmitResponse, error) {
	return models.SubmitResponse{}, fmt.Errorf("submit request: %w", adapter.ErrNetwork)
}

// ── cycles ──────────────────────────────────────────────────────────────────

func TestSyncNow_HappyPathDrainsQueue(t *testing.T) {
	f := newFixture(t, config.Engine{})
	ctx := context.Background()

	f.monitor.setOnlineQuiet(false)
	opID, err := f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "Offline first", Format: "markdown"})
	require.NoError(t, err)
	require.Equal(t, 1, f.queue.Size())
	require.Equal(t, 1, f.arena.PendingCount())

	f.monitor.setOnlineQuiet(true)
	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Submitted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)
	assert.True(t, f.queue.IsEmpty())
	assert.Zero(t, f.arena.PendingCount())

	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	assert.Equal(t, int64(1), record.Version)

	// The confirmed record survives a restart.
	reloaded := optimistic.NewUpdateManager(f.store, nil, logger.Nop())
	require.NoError(t, reloaded.Load(ctx))
	persisted, ok := reloaded.Record(models.EntityContent, "c1")
	require.True(t, ok)
	assert.Equal(t, int64(1), persisted.Version)

	req := f.remote.submitted(0)
	assert.Equal(t, opID, req.OperationID)
	assert.Equal(t, models.OpCreate, req.Kind)
	assert.Equal(t, int64(0), req.BaseVersion)
}

func TestSyncNow_OfflineRefusesToStart(t *testing.T) {
	f := newFixture(t, config.Engine{})
	ctx := context.Background()

	f.monitor.setOnlineQuiet(false)
	_, err := f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "t"})
	require.NoError(t, err)

	_, err = f.orc.SyncNow(ctx)

	require.ErrorIs(t, err, ErrOffline)
	assert.Zero(t, f.remote.submitCount())
	assert.Equal(t, 1, f.queue.Size())
}

func TestSyncNow_ConcurrentCallersShareOneCycle(t *testing.T) {
	f := newFixture(t, config.Engine{})
	ctx := context.Background()

	_, err := f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "t"})
	require.NoError(t, err)

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		once.Do(func() { close(started) })
		<-release
		return models.SubmitResponse{Version: req.BaseVersion + 1}, nil
	}

	var wg sync.WaitGroup
	results := make([]models.SyncResult, 2)
	errs := make([]error, 2)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.orc.SyncNow(ctx)
		}()
		if i == 0 {
			<-started
		}
	}

	// The first cycle is parked inside the remote call; give the second
	// caller time to join it, then let the cycle finish.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.Equal(t, results[0].CycleID, results[1].CycleID)
	assert.Equal(t, 1, f.remote.submitCount())
	assert.True(t, f.queue.IsEmpty())
}

func TestSyncNow_TransientFailureSchedulesRetry(t *testing.T) {
	f := newFixture(t, config.Engine{})
	ctx := context.Background()

	_, err := f.engine.UpdateProgress(ctx, "p1", models.ProgressPayload{Score: 40})
	require.NoError(t, err)
	f.remote.submitFn = networkFailure

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Retried)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, f.queue.Size())
	assert.Equal(t, 1, f.arena.PendingCount(), "optimistic state survives a retryable failure")
}

func TestSyncNow_RetryExhaustionRollsBackAndSurfaces(t *testing.T) {
	f := newFixture(t, config.Engine{MaxRetries: 3})
	ctx := context.Background()

	events, unsubscribe := f.deps.Events.Subscribe(32)
	defer unsubscribe()

	_, err := f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "doomed"})
	require.NoError(t, err)
	f.remote.submitFn = networkFailure

	// Each cycle fails once; the backoff gate is a few milliseconds.
	for i := 0; i < 5; i++ {
		_, err = f.orc.SyncNow(ctx)
		require.NoError(t, err)
		if f.queue.IsEmpty() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, 3, f.remote.submitCount(), "three failed attempts, then removal")
	assert.True(t, f.queue.IsEmpty())
	assert.Zero(t, f.arena.PendingCount())

	_, ok := f.arena.Record(models.EntityContent, "c1")
	assert.False(t, ok, "optimistic create rolled back to absence")

	var failed bool
	for len(events) > 0 {
		if e := <-events; e.Type == models.EventOperationFailed {
			failed = true
			assert.Contains(t, e.Reason, "retries exhausted")
		}
	}
	assert.True(t, failed, "permanent failure surfaced to subscribers")
	assert.Equal(t, int64(1), f.deps.Stats.Snapshot().Failed)
}

func TestSyncNow_RemoteValidationRejectionIsTerminal(t *testing.T) {
	f := newFixture(t, config.Engine{})
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now(),
	})
	_, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "rejected upstream"})
	require.NoError(t, err)
	f.remote.submitFn = func(models.SubmitRequest) (models.SubmitResponse, error) {
		return models.SubmitResponse{}, fmt.Errorf("http 422: %w", adapter.ErrUnprocessableEntity)
	}

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.True(t, f.queue.IsEmpty(), "no retry for validation rejections")

	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	content, ok := record.Payload.(models.ContentPayload)
	require.True(t, ok)
	assert.Equal(t, "original", content.Title, "optimistic overlay rolled back")
}

func TestSyncNow_EntityGroupStopsAfterUnsettledOutcome(t *testing.T) {
	f := newFixture(t, config.Engine{})
	ctx := context.Background()

	// A delete followed by a recreate of the same entity survives queue
	// optimization as one ordered group.
	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "v1"},
		UpdatedAt:  time.Now(),
	})
	_, err := f.engine.DeleteContent(ctx, "c1")
	require.NoError(t, err)
	_, err = f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "recreated"})
	require.NoError(t, err)
	_, err = f.engine.CreateContent(ctx, "c2", models.ContentPayload{Title: "unrelated"})
	require.NoError(t, err)

	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		if req.EntityID == "c1" {
			return models.SubmitResponse{}, fmt.Errorf("submit request: %w", adapter.ErrNetwork)
		}
		return models.SubmitResponse{Version: req.BaseVersion + 1}, nil
	}

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	// c1's delete failed, so the recreate never left the queue; c2
	// proceeded independently.
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Retried)
	assert.Equal(t, 2, f.queue.Size())
}

func TestSyncNow_OfflineMidCycleStopsNewSubmissions(t *testing.T) {
	f := newFixture(t, config.Engine{MaxConcurrent: 1})
	ctx := context.Background()

	_, err := f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "one"})
	require.NoError(t, err)
	_, err = f.engine.CreateContent(ctx, "c2", models.ContentPayload{Title: "two"})
	require.NoError(t, err)

	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		f.monitor.setOnlineQuiet(false)
		return models.SubmitResponse{Version: req.BaseVersion + 1}, nil
	}

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Submitted, "the in-flight submission finished, no new one started")
	assert.Equal(t, 1, f.queue.Size())
}

func TestSyncNow_BatchSizeCapsTheCycle(t *testing.T) {
	f := newFixture(t, config.Engine{BatchSize: 1})
	ctx := context.Background()

	_, err := f.engine.CreateContent(ctx, "c1", models.ContentPayload{Title: "one"})
	require.NoError(t, err)
	_, err = f.engine.CreateContent(ctx, "c2", models.ContentPayload{Title: "two"})
	require.NoError(t, err)

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Submitted)
	assert.Equal(t, 1, f.queue.Size())
}

// ── conflicts ───────────────────────────────────────────────────────────────

func TestSyncNow_RemoteWinsConflict(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "remote"})
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now().Add(-time.Hour),
	})
	opID, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "local edit"})
	require.NoError(t, err)

	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		return models.SubmitResponse{}, &adapter.ConflictError{
			OperationID: req.OperationID,
			Remote:      remoteContent("c1", 3, "remote edit", "remote body", time.Now()),
		}
	}

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.True(t, f.queue.IsEmpty(), "conflicted operation dequeued, no retry")
	assert.Empty(t, f.orc.Conflicts())

	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	assert.Equal(t, int64(3), record.Version)
	content, ok := record.Payload.(models.ContentPayload)
	require.True(t, ok)
	assert.Equal(t, "remote edit", content.Title, "local state reverted to the remote value")

	_, pending := f.arena.UpdateByOperation(opID)
	assert.False(t, pending)

	stats := f.deps.Stats.Snapshot()
	assert.Equal(t, int64(1), stats.ConflictsDetected)
	assert.Equal(t, int64(1), stats.ConflictsResolved)
}

func TestSyncNow_MergeConflictResubmitsResolvedValue(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "merge"})
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now().Add(-time.Hour),
	})
	_, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "local title"})
	require.NoError(t, err)

	// Another device added a body a minute ago and moved the entity to v2;
	// the local side only touched the title. First submission conflicts,
	// the resubmission is accepted.
	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		if req.BaseVersion < 2 {
			return models.SubmitResponse{}, &adapter.ConflictError{
				OperationID: req.OperationID,
				Remote:      remoteContent("c1", 2, "original", "remote body", time.Now().Add(-time.Minute)),
			}
		}
		return models.SubmitResponse{Version: req.BaseVersion + 1, UpdatedAt: time.Now()}, nil
	}

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.True(t, f.queue.IsEmpty())
	require.Equal(t, 2, f.remote.submitCount())

	retry := f.remote.submitted(1)
	assert.Equal(t, int64(2), retry.BaseVersion, "resubmission builds on the remote version")
	assert.Equal(t, models.OpUpdate, retry.Kind)

	var merged models.ContentPayload
	require.NoError(t, json.Unmarshal(retry.Payload, &merged))
	assert.Equal(t, "local title", merged.Title, "local edit kept")
	assert.Equal(t, "remote body", merged.Body, "remote edit adopted")

	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	assert.Equal(t, int64(3), record.Version)
	content, ok := record.Payload.(models.ContentPayload)
	require.True(t, ok)
	assert.Equal(t, "local title", content.Title)
	assert.Equal(t, "remote body", content.Body)
}

func TestSyncNow_ManualStrategyParksAndBlocksEntity(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "manual"})
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now(),
	})
	_, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "local edit"})
	require.NoError(t, err)

	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		return models.SubmitResponse{}, &adapter.ConflictError{
			OperationID: req.OperationID,
			Remote:      remoteContent("c1", 2, "remote edit", "", time.Now()),
		}
	}

	_, err = f.orc.SyncNow(ctx)
	require.NoError(t, err)

	conflicts := f.orc.Conflicts()
	require.Len(t, conflicts, 1)
	assert.False(t, conflicts[0].Resolved)
	assert.Equal(t, 1, f.queue.Size(), "the operation waits for the decision")

	// Further cycles leave the blocked entity alone.
	before := f.remote.submitCount()
	_, err = f.orc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, f.remote.submitCount())
}

func TestSyncNow_SecondConflictInCycleParks(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "local"})
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now(),
	})
	_, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "local edit"})
	require.NoError(t, err)

	// The remote moves ahead of every attempt.
	version := int64(1)
	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		version++
		return models.SubmitResponse{}, &adapter.ConflictError{
			OperationID: req.OperationID,
			Remote:      remoteContent("c1", version, "remote edit", "", time.Now()),
		}
	}

	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 2, f.remote.submitCount(), "one resolution attempt within the cycle, then parked")
	assert.Len(t, f.orc.Conflicts(), 1)
	assert.Equal(t, 1, f.queue.Size())
}

func TestSyncNow_ConflictReplyWithoutBodyFetchesRemote(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "remote"})
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now(),
	})
	_, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "local edit"})
	require.NoError(t, err)

	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		return models.SubmitResponse{}, &adapter.ConflictError{OperationID: req.OperationID}
	}
	fetched := false
	f.remote.fetchFn = func(entityType models.EntityType, entityID string) (*models.EntityRecord, error) {
		fetched = true
		return &models.EntityRecord{
			EntityType: entityType,
			EntityID:   entityID,
			Version:    4,
			Payload:    models.ContentPayload{Title: "fetched remote"},
			UpdatedAt:  time.Now(),
		}, nil
	}

	_, err = f.orc.SyncNow(ctx)
	require.NoError(t, err)

	assert.True(t, fetched)
	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	assert.Equal(t, int64(4), record.Version)
}

// ── parked conflict resolution ──────────────────────────────────────────────

// parkConflict drives one update into a parked manual conflict and returns
// its id.
func parkConflict(t *testing.T, f *fixture, remoteTitle string) string {
	t.Helper()
	ctx := context.Background()

	f.arena.SetRecord(ctx, models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    1,
		Payload:    models.ContentPayload{Title: "original"},
		UpdatedAt:  time.Now().Add(-time.Hour),
	})
	_, err := f.engine.UpdateContent(ctx, "c1", models.ContentPayload{Title: "local edit"})
	require.NoError(t, err)

	f.remote.submitFn = func(req models.SubmitRequest) (models.SubmitResponse, error) {
		return models.SubmitResponse{}, &adapter.ConflictError{
			OperationID: req.OperationID,
			Remote:      remoteContent("c1", 2, remoteTitle, "", time.Now()),
		}
	}

	_, err = f.orc.SyncNow(ctx)
	require.NoError(t, err)

	conflicts := f.orc.Conflicts()
	require.Len(t, conflicts, 1)
	return conflicts[0].ID
}

func TestResolveConflict_RemoteAdoptsAndDequeues(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "manual"})
	ctx := context.Background()
	conflictID := parkConflict(t, f, "remote edit")

	require.NoError(t, f.orc.ResolveConflict(ctx, conflictID, models.ResolveRemote))

	assert.Empty(t, f.orc.Conflicts())
	assert.True(t, f.queue.IsEmpty())

	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	content, ok := record.Payload.(models.ContentPayload)
	require.True(t, ok)
	assert.Equal(t, "remote edit", content.Title)
	assert.Equal(t, int64(2), record.Version)
}

func TestResolveConflict_LocalRequeuesAgainstRemoteVersion(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "manual"})
	ctx := context.Background()
	conflictID := parkConflict(t, f, "remote edit")

	require.NoError(t, f.orc.ResolveConflict(ctx, conflictID, models.ResolveLocal))

	assert.Empty(t, f.orc.Conflicts())
	require.Equal(t, 1, f.queue.Size())
	requeued := f.queue.All()[0]
	assert.Equal(t, int64(2), requeued.BaseVersion, "resolved push builds on the remote version")
	content, ok := requeued.Payload.(models.ContentPayload)
	require.True(t, ok)
	assert.Equal(t, "local edit", content.Title)

	// The entity is unblocked: the next cycle pushes the resolved value.
	f.remote.submitFn = nil
	result, err := f.orc.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.True(t, f.queue.IsEmpty())

	record, ok := f.arena.Record(models.EntityContent, "c1")
	require.True(t, ok)
	assert.Equal(t, int64(3), record.Version)
}

func TestResolveConflict_ManualStrategySettlesNothing(t *testing.T) {
	f := newFixture(t, config.Engine{ConflictStrategy: "manual"})
	conflictID := parkConflict(t, f, "remote edit")

	err := f.orc.ResolveConflict(context.Background(), conflictID, models.ResolveManual)

	require.ErrorIs(t, err, ErrManualResolution)
	assert.Len(t, f.orc.Conflicts(), 1, "conflict stays parked")
}

func TestResolveConflict_UnknownConflict(t *testing.T) {
	f := newFixture(t, config.Engine{})

	err := f.orc.ResolveConflict(context.Background(), "no-such-conflict", models.ResolveRemote)

	require.ErrorIs(t, err, ErrConflictNotFound)
}
