// Package service ties the sync engine together: the engine facade the
// application calls, the orchestrator that drains the queue against the
// remote store, and the background job that keeps cycles running.
package service

import (
	"context"
	"time"

	"github.com/loreleaf/loreleaf/internal/adapter"
	"github.com/loreleaf/loreleaf/internal/conflict"
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/netmon"
	"github.com/loreleaf/loreleaf/internal/optimistic"
	"github.com/loreleaf/loreleaf/internal/queue"
	"github.com/loreleaf/loreleaf/internal/validators"
	"github.com/loreleaf/loreleaf/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// Deps bundles the collaborators shared by the services in this package.
// Build it once with NewDeps and hand the same value to the orchestrator
// and the engine so they share the event stream and the counters.
type Deps struct {
	Queue     queue.Queue
	Arena     optimistic.Manager
	Resolver  conflict.Resolver
	Remote    adapter.Remote
	Monitor   netmon.Monitor
	Validator validators.Validator
	Events    Events
	Stats     *Stats
}

// NewDeps assembles a Deps with the shared members filled in.
func NewDeps(q queue.Queue, arena optimistic.Manager, resolver conflict.Resolver, remote adapter.Remote, monitor netmon.Monitor, log *logger.Logger) Deps {
	return Deps{
		Queue:     q,
		Arena:     arena,
		Resolver:  resolver,
		Remote:    remote,
		Monitor:   monitor,
		Validator: validators.NewPayloadValidator(),
		Events:    NewEvents(log),
		Stats:     NewStats(),
	}
}

// Orchestrator runs sync cycles against the remote store.
type Orchestrator interface {
	// SyncNow runs one sync cycle and returns its result. Concurrent
	// callers join the cycle already in flight and receive its result.
	// Returns ErrOffline without starting a cycle when the network is
	// down.
	SyncNow(ctx context.Context) (models.SyncResult, error)

	// ResolveConflict applies strategy to a parked conflict: remote rolls
	// the local operation back and adopts the remote record; local and
	// merge re-enqueue the resolved value for the next cycle. The entity
	// is unblocked either way. The manual strategy settles nothing and is
	// rejected with ErrManualResolution.
	ResolveConflict(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) error

	// Conflicts returns the unresolved conflicts ordered by detection
	// time.
	Conflicts() []models.SyncConflict

	// IsSyncing reports whether a cycle is currently in flight.
	IsSyncing() bool

	// LastSyncAt returns when the last cycle finished, nil before the
	// first one.
	LastSyncAt() *time.Time
}

// Engine is the facade the application and the control API work against.
// Mutations validate, enqueue and optimistically apply in one call and
// return the operation id; syncing happens later, when connectivity and
// the sync cadence allow.
type Engine interface {
	CreateContent(ctx context.Context, entityID string, payload models.ContentPayload, opts ...Option) (string, error)
	UpdateContent(ctx context.Context, entityID string, payload models.ContentPayload, opts ...Option) (string, error)
	DeleteContent(ctx context.Context, entityID string, opts ...Option) (string, error)
	UpdateProgress(ctx context.Context, entityID string, payload models.ProgressPayload, opts ...Option) (string, error)
	UpdateSettings(ctx context.Context, entityID string, payload models.SettingsPayload, opts ...Option) (string, error)
	LinkEntities(ctx context.Context, entityID string, payload models.RelationshipPayload, opts ...Option) (string, error)

	SyncNow(ctx context.Context) (models.SyncResult, error)
	ResolveConflict(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) error
	Conflicts() []models.SyncConflict

	// Record returns the current optimistic view of one entity.
	Record(entityType models.EntityType, entityID string) (models.EntityRecord, bool)

	// PendingOperations returns a snapshot of the queued operations in
	// drain order.
	PendingOperations() []models.SyncOperation

	// Status is a point-in-time snapshot for the UI layer.
	Status() models.EngineStatus

	// Statistics returns the cumulative counters since engine start.
	Statistics() models.EngineStatistics

	// UpdateConfig applies a runtime settings change atomically: either
	// every given field is applied or none is.
	UpdateConfig(ctx context.Context, update ConfigUpdate) error

	// AutoSync reports whether background syncing is enabled and at what
	// cadence.
	AutoSync() (enabled bool, interval time.Duration)

	// Subscribe registers an event subscriber with the given channel
	// buffer. The returned function unsubscribes and closes the channel.
	Subscribe(buffer int) (<-chan models.EngineEvent, func())

	// Start loads persisted queue and arena state and hooks the engine to
	// network transitions.
	Start(ctx context.Context) error

	// Close detaches from the monitor and closes every subscriber
	// channel. The engine accepts no further mutations afterwards.
	Close() error
}

// Events fans engine events out to subscribers in one synchronous pass.
type Events interface {
	// Publish delivers event to every subscriber. Sends never block: a
	// subscriber whose buffer is full misses the event.
	Publish(event models.EngineEvent)

	// Subscribe registers a subscriber channel with the given buffer
	// (minimum 1). The returned function removes the subscriber and
	// closes its channel.
	Subscribe(buffer int) (<-chan models.EngineEvent, func())

	// Close closes every subscriber channel. Publish becomes a no-op.
	Close()
}

// SyncJob triggers background sync cycles between Start and Stop.
type SyncJob interface {
	// Start launches the ticker loop, stopping any previous one first.
	// The loop exits when ctx is cancelled or Stop is called.
	Start(ctx context.Context)

	// Stop halts the loop and blocks until it has exited. Safe to call
	// when the job is not running.
	Stop()
}
