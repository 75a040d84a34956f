package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loreleaf/loreleaf/internal/config"
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/validators"
	"github.com/loreleaf/loreleaf/models"
)

// ConfigUpdate is the subset of engine settings that can change at
// runtime. Nil fields leave the current value unchanged.
type ConfigUpdate struct {
	EnableAutoSync *bool          `json:"enable_auto_sync,omitempty"`
	SyncInterval   *time.Duration `json:"sync_interval,omitempty"`
	MaxRetries     *int           `json:"max_retries,omitempty"`
}

type engine struct {
	deps   Deps
	orc    Orchestrator
	logger *logger.Logger

	mu           sync.Mutex
	autoSync     bool
	syncInterval time.Duration
	maxRetries   int
	online       bool
	unsubscribe  func()
	closed       bool
}

// NewEngine builds the engine facade on top of an orchestrator. Both must
// share the same Deps value so events and counters line up.
func NewEngine(deps Deps, orc Orchestrator, cfg config.Engine, log *logger.Logger) Engine {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Validator == nil {
		deps.Validator = validators.NewPayloadValidator()
	}
	if deps.Events == nil {
		deps.Events = NewEvents(log)
	}
	if deps.Stats == nil {
		deps.Stats = NewStats()
	}

	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &engine{
		deps:         deps,
		orc:          orc,
		logger:       log,
		autoSync:     !cfg.DisableAutoSync,
		syncInterval: interval,
		maxRetries:   retries,
	}
}

// Start implements Engine.
func (e *engine) Start(ctx context.Context) error {
	if err := e.deps.Queue.Load(ctx); err != nil {
		return fmt.Errorf("load queue: %w", err)
	}
	if err := e.deps.Arena.Load(ctx); err != nil {
		return fmt.Errorf("load arena: %w", err)
	}

	e.mu.Lock()
	e.online = e.deps.Monitor.IsOnline()
	e.unsubscribe = e.deps.Monitor.Subscribe(e.onNetworkChange)
	e.mu.Unlock()

	e.logger.Info().
		Str("func", "engine.Start").
		Int("queued", e.deps.Queue.Size()).
		Int("pending", e.deps.Arena.PendingCount()).
		Bool("online", e.deps.Monitor.IsOnline()).
		Msg("engine started")
	return nil
}

// Close implements Engine.
func (e *engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	e.deps.Events.Close()

	e.logger.Info().Str("func", "engine.Close").Msg("engine closed")
	return nil
}

// onNetworkChange relays monitor transitions to subscribers and triggers a
// sync when connectivity returns with work queued.
func (e *engine) onNetworkChange(status models.NetworkStatus) {
	reason := "offline"
	if status.IsOnline {
		reason = fmt.Sprintf("online (%s)", status.ConnectionType)
	}
	e.deps.Events.Publish(models.EngineEvent{
		Type:   models.EventNetworkChanged,
		Reason: reason,
	})

	e.mu.Lock()
	wasOnline := e.online
	e.online = status.IsOnline
	autoSync := e.autoSync
	closed := e.closed
	e.mu.Unlock()

	if closed || wasOnline || !status.IsOnline {
		return
	}
	if !autoSync || e.deps.Queue.IsEmpty() {
		return
	}

	go func() {
		if _, err := e.SyncNow(context.Background()); err != nil {
			e.logger.Warn().Err(err).
				Str("func", "engine.onNetworkChange").
				Msg("reconnect sync failed")
		}
	}()
}

// CreateContent implements Engine.
func (e *engine) CreateContent(ctx context.Context, entityID string, payload models.ContentPayload, opts ...Option) (string, error) {
	return e.enqueue(ctx, models.OpCreate, models.EntityContent, entityID, payload, opts)
}

// UpdateContent implements Engine.
func (e *engine) UpdateContent(ctx context.Context, entityID string, payload models.ContentPayload, opts ...Option) (string, error) {
	return e.enqueue(ctx, models.OpUpdate, models.EntityContent, entityID, payload, opts)
}

// DeleteContent implements Engine.
func (e *engine) DeleteContent(ctx context.Context, entityID string, opts ...Option) (string, error) {
	return e.enqueue(ctx, models.OpDelete, models.EntityContent, entityID, nil, opts)
}

// UpdateProgress implements Engine.
func (e *engine) UpdateProgress(ctx context.Context, entityID string, payload models.ProgressPayload, opts ...Option) (string, error) {
	return e.enqueue(ctx, models.OpUpdate, models.EntityProgress, entityID, payload, opts)
}

// UpdateSettings implements Engine.
func (e *engine) UpdateSettings(ctx context.Context, entityID string, payload models.SettingsPayload, opts ...Option) (string, error) {
	return e.enqueue(ctx, models.OpUpdate, models.EntitySettings, entityID, payload, opts)
}

// LinkEntities implements Engine.
func (e *engine) LinkEntities(ctx context.Context, entityID string, payload models.RelationshipPayload, opts ...Option) (string, error) {
	return e.enqueue(ctx, models.OpCreate, models.EntityRelationship, entityID, payload, opts)
}

// enqueue validates the mutation, persists it to the queue and applies it
// optimistically, in that order. A mutation that fails validation never
// touches the queue or the arena.
func (e *engine) enqueue(ctx context.Context, kind models.OperationKind, entityType models.EntityType, entityID string, payload models.Payload, opts []Option) (string, error) {
	if e.isClosed() {
		return "", ErrEngineClosed
	}

	op := models.SyncOperation{
		Kind:       kind,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
		MaxRetries: e.defaultMaxRetries(),
	}
	for _, opt := range opts {
		opt(&op)
	}

	if err := e.deps.Validator.Validate(ctx, op); err != nil {
		return "", fmt.Errorf("validate %s %s: %w", kind, entityType, err)
	}

	if record, ok := e.deps.Arena.Record(entityType, entityID); ok {
		op.BaseVersion = record.Version
	}

	if err := e.deps.Queue.Enqueue(ctx, &op); err != nil {
		return "", fmt.Errorf("enqueue %s %s: %w", kind, entityType, err)
	}

	if _, err := e.deps.Arena.Apply(ctx, op); err != nil {
		// The operation is durable and will sync; only the optimistic
		// view is missing its effect.
		e.logger.Error().Err(err).
			Str("func", "engine.enqueue").
			Str("operation_id", op.ID).
			Str("entity_id", entityID).
			Msg("optimistic apply failed, operation stays queued")
	}

	e.deps.Stats.addEnqueued(1)
	e.deps.Events.Publish(models.EngineEvent{
		Type:        models.EventOperationQueued,
		OperationID: op.ID,
		EntityType:  entityType,
		EntityID:    entityID,
	})
	return op.ID, nil
}

// SyncNow implements Engine.
func (e *engine) SyncNow(ctx context.Context) (models.SyncResult, error) {
	if e.isClosed() {
		return models.SyncResult{}, ErrEngineClosed
	}
	return e.orc.SyncNow(ctx)
}

// ResolveConflict implements Engine.
func (e *engine) ResolveConflict(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	return e.orc.ResolveConflict(ctx, conflictID, strategy)
}

// Conflicts implements Engine.
func (e *engine) Conflicts() []models.SyncConflict {
	return e.orc.Conflicts()
}

// Record implements Engine.
func (e *engine) Record(entityType models.EntityType, entityID string) (models.EntityRecord, bool) {
	return e.deps.Arena.Record(entityType, entityID)
}

// PendingOperations implements Engine.
func (e *engine) PendingOperations() []models.SyncOperation {
	return e.deps.Queue.All()
}

// Status implements Engine.
func (e *engine) Status() models.EngineStatus {
	return models.EngineStatus{
		IsOnline:            e.deps.Monitor.IsOnline(),
		IsSyncing:           e.orc.IsSyncing(),
		QueueSize:           e.deps.Queue.Size(),
		PendingUpdates:      e.deps.Arena.PendingCount(),
		UnresolvedConflicts: len(e.orc.Conflicts()),
		LastSyncAt:          e.orc.LastSyncAt(),
	}
}

// Statistics implements Engine.
func (e *engine) Statistics() models.EngineStatistics {
	return e.deps.Stats.Snapshot()
}

// UpdateConfig implements Engine.
func (e *engine) UpdateConfig(ctx context.Context, update ConfigUpdate) error {
	if update.SyncInterval != nil && *update.SyncInterval <= 0 {
		return fmt.Errorf("%w: sync interval must be positive", ErrInvalidUpdate)
	}
	if update.MaxRetries != nil && *update.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidUpdate)
	}

	e.mu.Lock()
	if update.EnableAutoSync != nil {
		e.autoSync = *update.EnableAutoSync
	}
	if update.SyncInterval != nil {
		e.syncInterval = *update.SyncInterval
	}
	if update.MaxRetries != nil {
		e.maxRetries = *update.MaxRetries
	}
	autoSync, interval, retries := e.autoSync, e.syncInterval, e.maxRetries
	e.mu.Unlock()

	e.logger.Info().
		Str("func", "engine.UpdateConfig").
		Bool("auto_sync", autoSync).
		Dur("sync_interval", interval).
		Int("max_retries", retries).
		Msg("runtime config updated")
	return nil
}

// AutoSync implements Engine.
func (e *engine) AutoSync() (bool, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoSync, e.syncInterval
}

// Subscribe implements Engine.
func (e *engine) Subscribe(buffer int) (<-chan models.EngineEvent, func()) {
	return e.deps.Events.Subscribe(buffer)
}

func (e *engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *engine) defaultMaxRetries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxRetries
}
