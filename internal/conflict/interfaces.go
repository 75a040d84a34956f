// Package conflict classifies divergence between local and remote entity
// state and produces resolutions. The resolver is invoked only by the sync
// orchestrator: detection builds a models.SyncConflict from the two sides,
// resolution applies one of the four strategies to it.
package conflict

import "github.com/loreleaf/loreleaf/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/conflict_mock.go -package=mock

// Resolver detects and settles sync conflicts. Implementations never mutate
// the records or conflicts they are given.
type Resolver interface {
	// Detect compares the two sides of an entity against the version the
	// pending operation was built on and returns the classified conflict,
	// or nil when the sides agree. Either side may be nil for an absent
	// record; both sides are cloned into the result.
	Detect(local, remote *models.EntityRecord, baseVersion int64) *models.SyncConflict

	// Resolve applies strategy to the conflict. The local, remote and
	// merge strategies return a resolved outcome carrying the winning
	// payload (or a deletion); manual returns an unresolved outcome and
	// leaves the decision to an external caller.
	Resolve(conflict models.SyncConflict, strategy models.ResolutionStrategy) (models.Resolution, error)
}
