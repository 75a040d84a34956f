package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/loreleaf/loreleaf/internal/adapter"
	"github.com/loreleaf/loreleaf/internal/config"
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/models"
)

// outcomeKind partitions submission outcomes the way SyncResult counts
// them.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeConflict
	outcomeRetry
	outcomeFailed

	// outcomeDiscarded marks work that finished after its cycle had been
	// superseded; it is not applied and not counted.
	outcomeDiscarded
)

// outcome is the result of submitting one operation. settled reports that
// the entity reached a state the remote accepted, which is what allows the
// next operation of the same entity to proceed within the cycle.
type outcome struct {
	kind    outcomeKind
	settled bool
}

type syncOrchestrator struct {
	deps   Deps
	cfg    config.Engine
	logger *logger.Logger

	flight  singleflight.Group
	cycleID atomic.Uint64
	syncing atomic.Bool

	mu        sync.Mutex
	conflicts map[string]models.SyncConflict // unresolved, by conflict id
	blocked   map[string]string              // entity key -> conflict id
	lastSync  *time.Time
}

// NewOrchestrator builds the sync orchestrator. Zero config fields fall
// back to the engine defaults.
func NewOrchestrator(deps Deps, cfg config.Engine, log *logger.Logger) Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Events == nil {
		deps.Events = NewEvents(log)
	}
	if deps.Stats == nil {
		deps.Stats = NewStats()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 25
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 4
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 30 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		cfg.BackoffMax = 5 * time.Minute
	}
	if !models.KnownStrategy(models.ResolutionStrategy(cfg.ConflictStrategy)) {
		cfg.ConflictStrategy = string(models.ResolveMerge)
	}

	return &syncOrchestrator{
		deps:      deps,
		cfg:       cfg,
		logger:    log,
		conflicts: make(map[string]models.SyncConflict),
		blocked:   make(map[string]string),
	}
}

// SyncNow implements Orchestrator.
func (o *syncOrchestrator) SyncNow(ctx context.Context) (models.SyncResult, error) {
	value, err, _ := o.flight.Do("sync-cycle", func() (any, error) {
		result, cycleErr := o.runCycle(ctx)
		return result, cycleErr
	})
	result, _ := value.(models.SyncResult)
	return result, err
}

func (o *syncOrchestrator) runCycle(ctx context.Context) (models.SyncResult, error) {
	cycleID := o.cycleID.Add(1)
	result := models.SyncResult{CycleID: cycleID, StartedAt: time.Now()}

	if !o.deps.Monitor.IsOnline() {
		result.FinishedAt = time.Now()
		return result, ErrOffline
	}

	o.syncing.Store(true)
	defer o.syncing.Store(false)

	o.deps.Events.Publish(models.EngineEvent{Type: models.EventSyncStarted})

	if err := o.deps.Queue.Optimize(ctx); err != nil {
		o.logger.Warn().Err(err).
			Str("func", "syncOrchestrator.runCycle").
			Msg("queue optimization failed, draining unoptimized")
	}

	batch := o.eligible(o.deps.Queue.NextOperations(o.cfg.BatchSize))
	groups := groupByEntity(batch)

	var (
		tallyMu sync.Mutex
		group   errgroup.Group
	)
	group.SetLimit(o.cfg.MaxConcurrent)
	for _, ops := range groups {
		ops := ops
		group.Go(func() error {
			tally := o.submitGroup(ctx, cycleID, ops)

			tallyMu.Lock()
			result.Submitted += tally.Submitted
			result.Succeeded += tally.Succeeded
			result.Conflicts += tally.Conflicts
			result.Retried += tally.Retried
			result.Failed += tally.Failed
			tallyMu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	finished := time.Now()
	result.FinishedAt = finished

	o.mu.Lock()
	o.lastSync = &finished
	o.mu.Unlock()

	o.deps.Stats.recordCycle(finished.Sub(result.StartedAt))
	o.deps.Events.Publish(models.EngineEvent{
		Type: models.EventSyncFinished,
		Reason: fmt.Sprintf("%d submitted, %d synced, %d conflicts, %d retried, %d failed",
			result.Submitted, result.Succeeded, result.Conflicts, result.Retried, result.Failed),
	})
	o.logger.Info().
		Str("func", "syncOrchestrator.runCycle").
		Uint64("cycle", cycleID).
		Int("submitted", result.Submitted).
		Int("succeeded", result.Succeeded).
		Int("conflicts", result.Conflicts).
		Int("retried", result.Retried).
		Int("failed", result.Failed).
		Dur("took", finished.Sub(result.StartedAt)).
		Msg("sync cycle finished")

	return result, nil
}

// eligible drops operations for entities blocked by a parked conflict.
// Operations depending on a blocked operation are already held back by the
// queue's dependency gate, since the blocked operation stays queued.
func (o *syncOrchestrator) eligible(ops []models.SyncOperation) []models.SyncOperation {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.blocked) == 0 {
		return ops
	}
	out := make([]models.SyncOperation, 0, len(ops))
	for _, op := range ops {
		if _, blocked := o.blocked[entityKey(op.EntityType, op.EntityID)]; blocked {
			continue
		}
		out = append(out, op)
	}
	return out
}

// submitGroup pushes one entity's operations in queue order. The group
// stops at the first operation that does not settle: anything behind it
// builds on state the remote has not accepted yet.
func (o *syncOrchestrator) submitGroup(ctx context.Context, cycleID uint64, ops []models.SyncOperation) models.SyncResult {
	var tally models.SyncResult
	for _, op := range ops {
		if ctx.Err() != nil || !o.deps.Monitor.IsOnline() {
			return tally
		}

		tally.Submitted++
		res := o.submitOne(ctx, cycleID, op)
		switch res.kind {
		case outcomeSuccess:
			tally.Succeeded++
		case outcomeConflict:
			tally.Conflicts++
		case outcomeRetry:
			tally.Retried++
		case outcomeFailed:
			tally.Failed++
		case outcomeDiscarded:
			tally.Submitted--
		}
		if !res.settled {
			return tally
		}
	}
	return tally
}

func (o *syncOrchestrator) submitOne(ctx context.Context, cycleID uint64, op models.SyncOperation) outcome {
	if err := o.deps.Queue.MarkSubmitted(ctx, op.ID); err != nil {
		o.logger.Warn().Err(err).
			Str("func", "syncOrchestrator.submitOne").
			Str("operation_id", op.ID).
			Msg("could not mark operation submitted")
	}

	resp, err := o.submit(ctx, op, op.BaseVersion, op.Payload, op.Kind)
	if err != nil {
		return o.applyFailure(ctx, cycleID, op, err)
	}
	return o.applySuccess(ctx, cycleID, op, resp)
}

// submit sends one mutation under the per-submission timeout.
func (o *syncOrchestrator) submit(ctx context.Context, op models.SyncOperation, baseVersion int64, payload models.Payload, kind models.OperationKind) (models.SubmitResponse, error) {
	req := models.SubmitRequest{
		OperationID: op.ID,
		EntityType:  op.EntityType,
		EntityID:    op.EntityID,
		Kind:        kind,
		BaseVersion: baseVersion,
	}
	raw, err := models.EncodePayload(payload)
	if err != nil {
		return models.SubmitResponse{}, err
	}
	req.Payload = raw

	submitCtx, cancel := context.WithTimeout(ctx, o.cfg.SubmitTimeout)
	defer cancel()

	return o.deps.Remote.Submit(submitCtx, req)
}

func (o *syncOrchestrator) applySuccess(ctx context.Context, cycleID uint64, op models.SyncOperation, resp models.SubmitResponse) outcome {
	if o.stale(cycleID) {
		o.discard(cycleID, op)
		return outcome{kind: outcomeDiscarded}
	}

	o.confirmOperation(ctx, op, op.Payload, resp, op.Kind)

	o.deps.Events.Publish(models.EngineEvent{
		Type:        models.EventOperationSynced,
		OperationID: op.ID,
		EntityType:  op.EntityType,
		EntityID:    op.EntityID,
	})
	return outcome{kind: outcomeSuccess, settled: true}
}

// confirmOperation settles a remotely accepted mutation: confirm the
// pending update (write-through included), adopt the accepted value into
// the arena, and drop the operation from the queue.
func (o *syncOrchestrator) confirmOperation(ctx context.Context, op models.SyncOperation, payload models.Payload, resp models.SubmitResponse, kind models.OperationKind) {
	updatedAt := resp.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	update, pending := o.deps.Arena.UpdateByOperation(op.ID)
	switch {
	case kind == models.OpDelete:
		// Confirm removes tombstoned records; make sure the arena holds
		// the tombstone even when the original operation was not a
		// delete (a resolution can turn it into one).
		o.deps.Arena.SetRecord(ctx, models.EntityRecord{
			EntityType: op.EntityType,
			EntityID:   op.EntityID,
			Version:    resp.Version,
			UpdatedAt:  updatedAt,
			Deleted:    true,
		})
		if pending {
			o.deps.Arena.Confirm(ctx, update.ID, resp.Version)
		}
	case pending && payloadEqual(payload, op.Payload):
		o.deps.Arena.Confirm(ctx, update.ID, resp.Version)
	default:
		// Either the accepted value differs from the optimistic overlay
		// (conflict resolutions) or no pending update exists (process
		// restarted since enqueue). Adopt the accepted value directly.
		if pending {
			o.deps.Arena.Confirm(ctx, update.ID, resp.Version)
		}
		record := models.EntityRecord{
			EntityType: op.EntityType,
			EntityID:   op.EntityID,
			Version:    resp.Version,
			Payload:    payload,
			UpdatedAt:  updatedAt,
		}
		if payload == nil {
			if current, ok := o.deps.Arena.Record(op.EntityType, op.EntityID); ok {
				record.Payload = current.Payload
			}
		}
		o.deps.Arena.SetRecord(ctx, record)
	}

	if err := o.deps.Queue.Dequeue(ctx, op.ID); err != nil {
		o.logger.Error().Err(err).
			Str("func", "syncOrchestrator.confirmOperation").
			Str("operation_id", op.ID).
			Msg("dequeue after confirmation failed")
	}
	o.deps.Stats.addSynced(1)
}

func (o *syncOrchestrator) applyFailure(ctx context.Context, cycleID uint64, op models.SyncOperation, err error) outcome {
	if o.stale(cycleID) {
		o.discard(cycleID, op)
		return outcome{kind: outcomeDiscarded}
	}

	if conflictErr, ok := adapter.AsConflict(err); ok {
		return o.handleConflict(ctx, cycleID, op, conflictErr)
	}
	if adapter.IsValidationRejection(err) {
		return o.failTerminally(ctx, op, "rejected by remote validation", err)
	}
	if adapter.IsAuthRejection(err) {
		return o.failTerminally(ctx, op, "not authorized", err)
	}
	if adapter.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return o.handleTransient(ctx, op, err)
	}
	return o.failTerminally(ctx, op, "submission failed", err)
}

func (o *syncOrchestrator) handleTransient(ctx context.Context, op models.SyncOperation, cause error) outcome {
	allowed, err := o.deps.Queue.IncrementRetry(ctx, op.ID, o.cfg.BackoffBase, o.cfg.BackoffMax)
	if err != nil {
		o.logger.Error().Err(err).
			Str("func", "syncOrchestrator.handleTransient").
			Str("operation_id", op.ID).
			Msg("retry bookkeeping failed, operation stays queued")
		return outcome{kind: outcomeRetry}
	}
	if !allowed {
		return o.failTerminally(ctx, op, "retries exhausted", cause)
	}

	o.deps.Stats.addRetries(1)
	o.logger.Info().Err(cause).
		Str("func", "syncOrchestrator.handleTransient").
		Str("operation_id", op.ID).
		Str("entity_id", op.EntityID).
		Int("retry", op.RetryCount+1).
		Msg("transient failure, retry scheduled")
	return outcome{kind: outcomeRetry}
}

// failTerminally rolls the optimistic update back, removes the operation
// and surfaces the failure to subscribers.
func (o *syncOrchestrator) failTerminally(ctx context.Context, op models.SyncOperation, reason string, cause error) outcome {
	o.rollbackOperation(ctx, op.ID)
	if err := o.deps.Queue.Dequeue(ctx, op.ID); err != nil {
		o.logger.Error().Err(err).
			Str("func", "syncOrchestrator.failTerminally").
			Str("operation_id", op.ID).
			Msg("dequeue of failed operation failed")
	}

	o.deps.Stats.addFailed(1)
	o.deps.Events.Publish(models.EngineEvent{
		Type:        models.EventOperationFailed,
		OperationID: op.ID,
		EntityType:  op.EntityType,
		EntityID:    op.EntityID,
		Reason:      fmt.Sprintf("%s: %v", reason, cause),
	})
	o.logger.Error().Err(cause).
		Str("func", "syncOrchestrator.failTerminally").
		Str("operation_id", op.ID).
		Str("entity_id", op.EntityID).
		Msg("operation failed permanently")
	return outcome{kind: outcomeFailed}
}

func (o *syncOrchestrator) rollbackOperation(ctx context.Context, operationID string) {
	update, ok := o.deps.Arena.UpdateByOperation(operationID)
	if !ok {
		return
	}
	if err := o.deps.Arena.Rollback(ctx, update.ID); err != nil {
		o.logger.Error().Err(err).
			Str("func", "syncOrchestrator.rollbackOperation").
			Str("operation_id", operationID).
			Str("update_id", update.ID).
			Msg("rollback failed")
	}
}

func (o *syncOrchestrator) handleConflict(ctx context.Context, cycleID uint64, op models.SyncOperation, conflictErr *adapter.ConflictError) outcome {
	remote, err := o.remoteSide(ctx, op, conflictErr)
	if err != nil {
		// Without the remote side the conflict cannot be classified;
		// treat the attempt as transient and let the next cycle retry.
		return o.handleTransient(ctx, op, err)
	}

	var local *models.EntityRecord
	if record, ok := o.deps.Arena.Record(op.EntityType, op.EntityID); ok {
		local = &record
	}

	conflict := o.deps.Resolver.Detect(local, remote, op.BaseVersion)
	if conflict == nil {
		// The remote refused the base version but the sides agree.
		// Adopt its version number and push the local value once more.
		return o.resubmit(ctx, cycleID, op, op.Payload, remoteVersion(remote), op.Kind, nil)
	}
	conflict.OperationID = op.ID

	o.deps.Stats.addConflictsDetected(1)
	o.deps.Events.Publish(models.EngineEvent{
		Type:        models.EventConflictDetected,
		OperationID: op.ID,
		EntityType:  op.EntityType,
		EntityID:    op.EntityID,
		Reason:      string(conflict.Type),
	})

	strategy := models.ResolutionStrategy(o.cfg.ConflictStrategy)
	resolution, err := o.deps.Resolver.Resolve(*conflict, strategy)
	if err != nil {
		o.logger.Error().Err(err).
			Str("func", "syncOrchestrator.handleConflict").
			Str("operation_id", op.ID).
			Str("strategy", string(strategy)).
			Msg("automatic resolution failed, parking for a manual decision")
		o.park(*conflict)
		return outcome{kind: outcomeConflict}
	}
	if !resolution.Resolved {
		o.park(*conflict)
		return outcome{kind: outcomeConflict}
	}

	if strategy == models.ResolveRemote {
		o.adoptRemote(ctx, op, remote)
		o.settleConflict(*conflict)
		return outcome{kind: outcomeConflict, settled: true}
	}

	// local or merge: push the resolved value with the remote version as
	// base. A create that conflicted now targets an existing entity, so
	// the resubmission is an update unless the resolution is a deletion.
	kind := models.OpUpdate
	if resolution.Deleted {
		kind = models.OpDelete
	} else if remote == nil {
		kind = models.OpCreate
	}
	return o.resubmit(ctx, cycleID, op, resolution.Payload, remoteVersion(remote), kind, conflict)
}

// resubmit pushes a resolved value once within the cycle. A second
// conflict parks the operation for a manual decision rather than looping.
func (o *syncOrchestrator) resubmit(ctx context.Context, cycleID uint64, op models.SyncOperation, payload models.Payload, baseVersion int64, kind models.OperationKind, conflict *models.SyncConflict) outcome {
	resp, err := o.submit(ctx, op, baseVersion, payload, kind)
	if err == nil {
		if o.stale(cycleID) {
			o.discard(cycleID, op)
			return outcome{kind: outcomeDiscarded}
		}
		o.confirmOperation(ctx, op, payload, resp, kind)
		if conflict == nil {
			o.deps.Events.Publish(models.EngineEvent{
				Type:        models.EventOperationSynced,
				OperationID: op.ID,
				EntityType:  op.EntityType,
				EntityID:    op.EntityID,
			})
			return outcome{kind: outcomeSuccess, settled: true}
		}
		o.settleConflict(*conflict)
		return outcome{kind: outcomeConflict, settled: true}
	}

	if o.stale(cycleID) {
		o.discard(cycleID, op)
		return outcome{kind: outcomeDiscarded}
	}

	if secondErr, ok := adapter.AsConflict(err); ok {
		if conflict == nil {
			conflict = o.conflictForResubmission(ctx, op, secondErr)
		}
		if conflict != nil {
			o.park(*conflict)
			return outcome{kind: outcomeConflict}
		}
		return o.handleTransient(ctx, op, err)
	}
	if adapter.IsValidationRejection(err) || adapter.IsAuthRejection(err) {
		return o.failTerminally(ctx, op, "resubmission rejected", err)
	}
	if adapter.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return o.handleTransient(ctx, op, err)
	}
	return o.failTerminally(ctx, op, "resubmission failed", err)
}

// conflictForResubmission builds a conflict for a resubmission that was
// itself rejected, when the first round produced none to park.
func (o *syncOrchestrator) conflictForResubmission(ctx context.Context, op models.SyncOperation, conflictErr *adapter.ConflictError) *models.SyncConflict {
	remote, err := o.remoteSide(ctx, op, conflictErr)
	if err != nil {
		return nil
	}
	var local *models.EntityRecord
	if record, ok := o.deps.Arena.Record(op.EntityType, op.EntityID); ok {
		local = &record
	}
	conflict := o.deps.Resolver.Detect(local, remote, op.BaseVersion)
	if conflict != nil {
		conflict.OperationID = op.ID
		o.deps.Stats.addConflictsDetected(1)
	}
	return conflict
}

// remoteSide extracts the remote's view from the conflict reply, falling
// back to an explicit fetch when the reply carried none.
func (o *syncOrchestrator) remoteSide(ctx context.Context, op models.SyncOperation, conflictErr *adapter.ConflictError) (*models.EntityRecord, error) {
	if conflictErr.Remote.EntityID != "" {
		record, err := conflictErr.Remote.Record()
		if err == nil {
			return record, nil
		}
		o.logger.Warn().Err(err).
			Str("func", "syncOrchestrator.remoteSide").
			Str("operation_id", op.ID).
			Msg("conflict reply payload undecodable, fetching remote state")
	}

	record, err := o.deps.Remote.Fetch(ctx, op.EntityType, op.EntityID)
	if err != nil {
		return nil, fmt.Errorf("fetch remote side of conflict: %w", err)
	}
	return record, nil
}

// adoptRemote makes the remote value the local truth: roll the optimistic
// update back, write the remote record into arena and store, drop the
// operation. A nil remote means the entity is gone remotely; the local
// record becomes a tombstone.
func (o *syncOrchestrator) adoptRemote(ctx context.Context, op models.SyncOperation, remote *models.EntityRecord) {
	o.rollbackOperation(ctx, op.ID)

	if remote != nil {
		o.deps.Arena.SetRecord(ctx, *remote)
	} else {
		o.deps.Arena.SetRecord(ctx, models.EntityRecord{
			EntityType: op.EntityType,
			EntityID:   op.EntityID,
			UpdatedAt:  time.Now(),
			Deleted:    true,
		})
	}

	if err := o.deps.Queue.Dequeue(ctx, op.ID); err != nil {
		o.logger.Error().Err(err).
			Str("func", "syncOrchestrator.adoptRemote").
			Str("operation_id", op.ID).
			Msg("dequeue after adopting remote failed")
	}
}

func (o *syncOrchestrator) park(conflict models.SyncConflict) {
	conflict.Resolved = false

	o.mu.Lock()
	o.conflicts[conflict.ID] = conflict
	o.blocked[entityKey(conflict.EntityType, conflict.EntityID)] = conflict.ID
	o.mu.Unlock()

	o.logger.Info().
		Str("func", "syncOrchestrator.park").
		Str("conflict_id", conflict.ID).
		Str("operation_id", conflict.OperationID).
		Str("entity_id", conflict.EntityID).
		Str("type", string(conflict.Type)).
		Msg("conflict parked, entity blocked until resolved")
}

// settleConflict clears a conflict's bookkeeping and announces the
// resolution.
func (o *syncOrchestrator) settleConflict(conflict models.SyncConflict) {
	key := entityKey(conflict.EntityType, conflict.EntityID)

	o.mu.Lock()
	delete(o.conflicts, conflict.ID)
	if o.blocked[key] == conflict.ID {
		delete(o.blocked, key)
	}
	o.mu.Unlock()

	o.deps.Stats.addConflictsResolved(1)
	o.deps.Events.Publish(models.EngineEvent{
		Type:        models.EventConflictResolved,
		OperationID: conflict.OperationID,
		EntityType:  conflict.EntityType,
		EntityID:    conflict.EntityID,
		Reason:      string(conflict.Type),
	})
}

// ResolveConflict implements Orchestrator.
func (o *syncOrchestrator) ResolveConflict(ctx context.Context, conflictID string, strategy models.ResolutionStrategy) error {
	o.mu.Lock()
	conflict, ok := o.conflicts[conflictID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrConflictNotFound, conflictID)
	}

	resolution, err := o.deps.Resolver.Resolve(conflict, strategy)
	if err != nil {
		return fmt.Errorf("resolve conflict %s: %w", conflictID, err)
	}
	if !resolution.Resolved {
		return ErrManualResolution
	}

	if strategy == models.ResolveRemote {
		o.rollbackOperation(ctx, conflict.OperationID)
		if conflict.RemoteData != nil {
			o.deps.Arena.SetRecord(ctx, *conflict.RemoteData)
		} else {
			o.deps.Arena.SetRecord(ctx, models.EntityRecord{
				EntityType: conflict.EntityType,
				EntityID:   conflict.EntityID,
				Version:    conflict.RemoteVersion,
				UpdatedAt:  time.Now(),
				Deleted:    true,
			})
		}
		if err := o.deps.Queue.Dequeue(ctx, conflict.OperationID); err != nil {
			o.logger.Error().Err(err).
				Str("func", "syncOrchestrator.ResolveConflict").
				Str("operation_id", conflict.OperationID).
				Msg("dequeue of conflicted operation failed")
		}
	} else if err := o.requeueResolved(ctx, conflict, resolution); err != nil {
		return err
	}

	o.settleConflict(conflict)
	o.logger.Info().
		Str("func", "syncOrchestrator.ResolveConflict").
		Str("conflict_id", conflictID).
		Str("strategy", string(strategy)).
		Msg("parked conflict resolved")
	return nil
}

// requeueResolved replaces the conflicted operation with one that pushes
// the resolved value against the remote version seen at detection time.
// The operation id is kept, so the remote's idempotency layer still
// recognizes the mutation and the pending optimistic update stays
// attached.
func (o *syncOrchestrator) requeueResolved(ctx context.Context, conflict models.SyncConflict, resolution models.Resolution) error {
	op, queued := o.queuedOperation(conflict.OperationID)
	if queued {
		if err := o.deps.Queue.Dequeue(ctx, op.ID); err != nil {
			return fmt.Errorf("replace conflicted operation: %w", err)
		}
	}

	next := models.SyncOperation{
		ID:          conflict.OperationID,
		Kind:        models.OpUpdate,
		EntityType:  conflict.EntityType,
		EntityID:    conflict.EntityID,
		Payload:     resolution.Payload,
		BaseVersion: conflict.RemoteVersion,
		Priority:    op.Priority,
		MaxRetries:  op.MaxRetries,
		DependsOn:   op.DependsOn,
	}
	if resolution.Deleted {
		next.Kind = models.OpDelete
		next.Payload = nil
	}
	if err := o.deps.Queue.Enqueue(ctx, &next); err != nil {
		return fmt.Errorf("requeue resolved operation: %w", err)
	}

	// The arena shows the resolved value while the push is in flight.
	record := models.EntityRecord{
		EntityType: conflict.EntityType,
		EntityID:   conflict.EntityID,
		Version:    conflict.RemoteVersion,
		Payload:    resolution.Payload,
		UpdatedAt:  time.Now(),
		Deleted:    resolution.Deleted,
	}
	o.deps.Arena.SetRecord(ctx, record)
	return nil
}

// Conflicts implements Orchestrator.
func (o *syncOrchestrator) Conflicts() []models.SyncConflict {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]models.SyncConflict, 0, len(o.conflicts))
	for _, conflict := range o.conflicts {
		out = append(out, conflict.Clone())
	}
	slices.SortFunc(out, func(a, b models.SyncConflict) int {
		if c := a.DetectedAt.Compare(b.DetectedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// IsSyncing implements Orchestrator.
func (o *syncOrchestrator) IsSyncing() bool {
	return o.syncing.Load()
}

// LastSyncAt implements Orchestrator.
func (o *syncOrchestrator) LastSyncAt() *time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.lastSync == nil {
		return nil
	}
	at := *o.lastSync
	return &at
}

func (o *syncOrchestrator) queuedOperation(id string) (models.SyncOperation, bool) {
	for _, op := range o.deps.Queue.All() {
		if op.ID == id {
			return op, true
		}
	}
	return models.SyncOperation{}, false
}

func (o *syncOrchestrator) stale(cycleID uint64) bool {
	return o.cycleID.Load() != cycleID
}

func (o *syncOrchestrator) discard(cycleID uint64, op models.SyncOperation) {
	o.logger.Warn().
		Str("func", "syncOrchestrator.discard").
		Uint64("cycle", cycleID).
		Str("operation_id", op.ID).
		Msg("outcome of a superseded cycle discarded")
}

func remoteVersion(remote *models.EntityRecord) int64 {
	if remote == nil {
		return 0
	}
	return remote.Version
}

func entityKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}

// groupByEntity splits a batch into per-entity groups, keeping queue order
// inside each group and first-appearance order across groups.
func groupByEntity(ops []models.SyncOperation) [][]models.SyncOperation {
	index := make(map[string]int, len(ops))
	groups := make([][]models.SyncOperation, 0, len(ops))
	for _, op := range ops {
		key := entityKey(op.EntityType, op.EntityID)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], op)
	}
	return groups
}

// payloadEqual reports whether two payloads encode identically.
func payloadEqual(a, b models.Payload) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	rawA, errA := models.EncodePayload(a)
	rawB, errB := models.EncodePayload(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(rawA) == string(rawB)
}
