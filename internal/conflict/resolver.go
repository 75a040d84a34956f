package conflict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

type resolver struct {
	uuid   *utils.UUIDGenerator
	logger *logger.Logger

	// fieldPriority names the payload fields that resolve an exact
	// modification-time tie toward the local side during a merge. Fields
	// not listed fall to the remote copy on a tie.
	fieldPriority []string
}

// NewResolver creates a resolver whose merge strategy favors the local side
// for the given payload field names when both sides were modified at the
// same instant.
func NewResolver(fieldPriority []string, log *logger.Logger) Resolver {
	if log == nil {
		log = logger.Nop()
	}

	return &resolver{
		uuid:          utils.NewUUIDGenerator(),
		logger:        log,
		fieldPriority: slices.Clone(fieldPriority),
	}
}

// Detect implements Resolver. Classification: exactly one side absent or
// tombstoned gives deleted-remotely/deleted-locally; diverging version
// counters give version-mismatch (canonically both sides advanced past
// baseVersion); equal versions with differing field hashes give
// concurrent-edit.
func (r *resolver) Detect(local, remote *models.EntityRecord, baseVersion int64) *models.SyncConflict {
	localGone := local == nil || local.Deleted
	remoteGone := remote == nil || remote.Deleted

	var conflictType models.ConflictType
	switch {
	case localGone && remoteGone:
		return nil
	case remoteGone:
		conflictType = models.ConflictDeletedRemotely
	case localGone:
		conflictType = models.ConflictDeletedLocally
	case local.Version != remote.Version:
		conflictType = models.ConflictVersionMismatch
	case r.payloadsDiverge(local.Payload, remote.Payload):
		conflictType = models.ConflictConcurrentEdit
	default:
		return nil
	}

	conflict := &models.SyncConflict{
		ID:         r.uuid.Generate(),
		Type:       conflictType,
		DetectedAt: time.Now(),
	}

	if local != nil {
		side := local.Clone()
		conflict.LocalData = &side
		conflict.LocalVersion = local.Version
		conflict.EntityType = local.EntityType
		conflict.EntityID = local.EntityID
	}
	if remote != nil {
		side := remote.Clone()
		conflict.RemoteData = &side
		conflict.RemoteVersion = remote.Version
		if conflict.EntityID == "" {
			conflict.EntityType = remote.EntityType
			conflict.EntityID = remote.EntityID
		}
	}

	r.logger.Info().
		Str("func", "resolver.Detect").
		Str("conflict_id", conflict.ID).
		Str("type", string(conflictType)).
		Str("entity_id", conflict.EntityID).
		Int64("base_version", baseVersion).
		Int64("local_version", conflict.LocalVersion).
		Int64("remote_version", conflict.RemoteVersion).
		Msg("conflict detected")

	return conflict
}

// Resolve implements Resolver.
func (r *resolver) Resolve(conflict models.SyncConflict, strategy models.ResolutionStrategy) (models.Resolution, error) {
	if !models.KnownStrategy(strategy) {
		return models.Resolution{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if conflict.LocalData == nil && conflict.RemoteData == nil {
		return models.Resolution{}, fmt.Errorf("%w: conflict %s", ErrInvalidConflict, conflict.ID)
	}

	resolution := models.Resolution{
		ConflictID:  conflict.ID,
		OperationID: conflict.OperationID,
		EntityType:  conflict.EntityType,
		EntityID:    conflict.EntityID,
		Strategy:    strategy,
		ResolvedAt:  time.Now(),
	}

	switch strategy {
	case models.ResolveManual:
		return resolution, nil
	case models.ResolveLocal:
		resolution.Payload, resolution.Deleted = sideValue(conflict.LocalData)
	case models.ResolveRemote:
		resolution.Payload, resolution.Deleted = sideValue(conflict.RemoteData)
	case models.ResolveMerge:
		payload, err := r.mergePayloads(conflict)
		if err != nil {
			return models.Resolution{}, err
		}
		resolution.Payload = payload
		resolution.Deleted = payload == nil
	}
	resolution.Resolved = true

	r.logger.Info().
		Str("func", "resolver.Resolve").
		Str("conflict_id", conflict.ID).
		Str("strategy", string(strategy)).
		Str("entity_id", conflict.EntityID).
		Bool("deleted", resolution.Deleted).
		Msg("conflict resolved")

	return resolution, nil
}

// mergePayloads unions the two sides field by field. Fields present on one
// side only are kept; fields present on both take the most recently
// modified side's value, exact ties going to local for prioritized fields
// and to remote otherwise. A tombstoned or absent side degrades the merge
// to the surviving side's value.
func (r *resolver) mergePayloads(conflict models.SyncConflict) (models.Payload, error) {
	local, remote := conflict.LocalData, conflict.RemoteData

	if local == nil || local.Deleted || local.Payload == nil {
		if remote == nil || remote.Deleted || remote.Payload == nil {
			return nil, nil
		}
		return remote.Payload.Clone(), nil
	}
	if remote == nil || remote.Deleted || remote.Payload == nil {
		return local.Payload.Clone(), nil
	}

	localFields, err := payloadFields(local.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: local side: %w", ErrMergingPayloads, err)
	}
	remoteFields, err := payloadFields(remote.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: remote side: %w", ErrMergingPayloads, err)
	}

	localWins := local.UpdatedAt.After(remote.UpdatedAt)
	tied := local.UpdatedAt.Equal(remote.UpdatedAt)

	merged := make(map[string]json.RawMessage, len(remoteFields)+len(localFields))
	maps.Copy(merged, remoteFields)
	for name, value := range localFields {
		remoteValue, onBoth := remoteFields[name]
		switch {
		case !onBoth:
			merged[name] = value
		case bytes.Equal(value, remoteValue):
			// sides agree on this field
		case localWins:
			merged[name] = value
		case tied && slices.Contains(r.fieldPriority, name):
			merged[name] = value
		}
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMergingPayloads, err)
	}
	payload, err := models.DecodePayload(conflict.EntityType, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMergingPayloads, err)
	}
	return payload, nil
}

// payloadsDiverge compares the two payloads by their per-field SHA-256
// hashes. Undecodable payloads count as diverging so a conflict is surfaced
// rather than swallowed.
func (r *resolver) payloadsDiverge(local, remote models.Payload) bool {
	localHashes, err := utils.FieldHashes(local)
	if err != nil {
		r.logger.Error().Err(err).
			Str("func", "resolver.payloadsDiverge").
			Msg("hashing local payload")
		return true
	}
	remoteHashes, err := utils.FieldHashes(remote)
	if err != nil {
		r.logger.Error().Err(err).
			Str("func", "resolver.payloadsDiverge").
			Msg("hashing remote payload")
		return true
	}
	return !maps.Equal(localHashes, remoteHashes)
}

func payloadFields(p models.Payload) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// sideValue extracts a side's winning value: its payload for a live record,
// a deletion for an absent or tombstoned one.
func sideValue(side *models.EntityRecord) (models.Payload, bool) {
	if side == nil || side.Deleted {
		return nil, true
	}
	if side.Payload == nil {
		return nil, false
	}
	return side.Payload.Clone(), false
}
