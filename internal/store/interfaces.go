// Package store provides the durable local persistence layer of the sync
// engine: generic key/value access grouped by collection.
//
// Two implementations exist. The SQLite store backs the running application
// with a single `records` table; the memory store backs tests and ephemeral
// setups. Both serialize values as JSON blobs and treat them as opaque.
package store

import (
	"context"
	"time"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// Record is one persisted entry: an opaque JSON value addressed by
// collection and key.
type Record struct {
	Collection string    `json:"collection"`
	Key        string    `json:"key"`
	Data       []byte    `json:"data"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is durable key/value access grouped by collection. The operation
// queue persists pending mutations in the CollectionSyncQueue collection;
// the optimistic arena writes entity records through under per-entity-type
// collections.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the record stored under collection/key.
	// Returns ErrRecordNotFound when no such record exists.
	Get(ctx context.Context, collection, key string) (Record, error)

	// Put inserts or replaces the record under record.Collection/record.Key.
	// UpdatedAt is assigned by the store.
	Put(ctx context.Context, record Record) error

	// Delete removes the record under collection/key. Deleting an absent
	// record is not an error.
	Delete(ctx context.Context, collection, key string) error

	// GetAll returns every record of a collection, ordered by key.
	GetAll(ctx context.Context, collection string) ([]Record, error)
}

// CollectionSyncQueue holds the persisted operation queue, one record per
// pending operation keyed by operation id.
const CollectionSyncQueue = "sync-queue"

// CollectionEntityPrefix prefixes the per-entity-type collections that hold
// arena records, e.g. "entity-content". Keys are entity ids.
const CollectionEntityPrefix = "entity-"
