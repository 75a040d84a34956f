package optimistic

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/store"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

type updateManager struct {
	store  store.Store
	merges models.MergeRegistry
	uuid   *utils.UUIDGenerator
	logger *logger.Logger

	mu    sync.Mutex
	arena map[string]models.EntityRecord

	// updates keeps terminal entries too, so a late rollback of a
	// confirmed update fails loudly instead of reporting "not found".
	updates     map[string]*models.OptimisticUpdate
	pendingByOp map[string]string
}

// NewUpdateManager creates an empty arena persisting into st. A nil merges
// registry falls back to the default table.
func NewUpdateManager(st store.Store, merges models.MergeRegistry, log *logger.Logger) Manager {
	if merges == nil {
		merges = models.DefaultMergeRegistry()
	}
	if log == nil {
		log = logger.Nop()
	}

	return &updateManager{
		store:       st,
		merges:      merges,
		uuid:        utils.NewUUIDGenerator(),
		logger:      log,
		arena:       make(map[string]models.EntityRecord),
		updates:     make(map[string]*models.OptimisticUpdate),
		pendingByOp: make(map[string]string),
	}
}

// Load implements Manager.
func (m *updateManager) Load(ctx context.Context) error {
	arena := make(map[string]models.EntityRecord)
	for _, entityType := range models.EntityTypes() {
		records, err := m.store.GetAll(ctx, entityCollection(entityType))
		if err != nil {
			return fmt.Errorf("load %s records: %w", entityType, err)
		}
		for _, raw := range records {
			var record models.EntityRecord
			if err := json.Unmarshal(raw.Data, &record); err != nil {
				m.logger.Error().Err(err).
					Str("func", "updateManager.Load").
					Str("key", raw.Key).
					Msg("skipping undecodable entity record")
				continue
			}
			arena[arenaKey(record.EntityType, record.EntityID)] = record
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.arena = arena

	return nil
}

// Apply implements Manager.
func (m *updateManager) Apply(ctx context.Context, op models.SyncOperation) (string, error) {
	if err := validateApply(op); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if updateID, exists := m.pendingByOp[op.ID]; exists {
		return "", fmt.Errorf("%w: operation %s is held by update %s", ErrPendingUpdateExists, op.ID, updateID)
	}

	key := arenaKey(op.EntityType, op.EntityID)

	var snapshot *models.EntityRecord
	if current, ok := m.arena[key]; ok {
		prior := current.Clone()
		snapshot = &prior
	}

	now := time.Now()
	applied := m.appliedRecordLocked(op, now)
	m.arena[key] = applied

	update := models.OptimisticUpdate{
		ID:            m.uuid.Generate(),
		OperationID:   op.ID,
		EntityType:    op.EntityType,
		EntityID:      op.EntityID,
		Status:        models.UpdatePending,
		AppliedAt:     now,
		PriorSnapshot: snapshot,
	}
	m.updates[update.ID] = &update
	m.pendingByOp[op.ID] = update.ID

	if err := m.persistRecord(ctx, applied); err != nil {
		m.logger.Error().Err(err).
			Str("func", "updateManager.Apply").
			Str("entity_id", op.EntityID).
			Msg("keeping optimistic record in memory only")
	}

	return update.ID, nil
}

// Confirm implements Manager.
func (m *updateManager) Confirm(ctx context.Context, updateID string, newVersion int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	update, ok := m.updates[updateID]
	if !ok {
		m.logger.Warn().
			Str("func", "updateManager.Confirm").
			Str("update_id", updateID).
			Msg("confirm for unknown update ignored")
		return
	}
	if update.Status == models.UpdateConfirmed {
		return
	}
	if update.Status == models.UpdateRolledBack {
		m.logger.Warn().
			Str("func", "updateManager.Confirm").
			Str("update_id", updateID).
			Msg("confirm arrived after rollback, ignored")
		return
	}

	update.Status = models.UpdateConfirmed
	update.PriorSnapshot = nil
	delete(m.pendingByOp, update.OperationID)

	key := arenaKey(update.EntityType, update.EntityID)
	record, ok := m.arena[key]
	if !ok {
		return
	}

	if record.Deleted {
		delete(m.arena, key)
		if err := m.store.Delete(ctx, entityCollection(update.EntityType), update.EntityID); err != nil {
			m.logger.Error().Err(err).
				Str("func", "updateManager.Confirm").
				Str("entity_id", update.EntityID).
				Msg("stale record left in store after confirmed delete")
		}
		return
	}

	record.Version = newVersion
	m.arena[key] = record
	if err := m.persistRecord(ctx, record); err != nil {
		m.logger.Error().Err(err).
			Str("func", "updateManager.Confirm").
			Str("entity_id", update.EntityID).
			Msg("confirmed record kept in memory only")
	}
}

// Rollback implements Manager.
func (m *updateManager) Rollback(ctx context.Context, updateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	update, ok := m.updates[updateID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUpdateNotFound, updateID)
	}

	switch update.Status {
	case models.UpdateConfirmed:
		m.logger.Error().
			Str("func", "updateManager.Rollback").
			Str("update_id", updateID).
			Str("entity_id", update.EntityID).
			Msg("refusing to roll back a confirmed update")
		return fmt.Errorf("%w: %s", ErrUpdateConfirmed, updateID)
	case models.UpdateRolledBack:
		return nil
	}

	update.Status = models.UpdateRolledBack
	delete(m.pendingByOp, update.OperationID)

	key := arenaKey(update.EntityType, update.EntityID)
	if update.PriorSnapshot == nil {
		delete(m.arena, key)
		if err := m.store.Delete(ctx, entityCollection(update.EntityType), update.EntityID); err != nil {
			m.logger.Error().Err(err).
				Str("func", "updateManager.Rollback").
				Str("entity_id", update.EntityID).
				Msg("stale record left in store after rollback")
		}
		return nil
	}

	restored := update.PriorSnapshot.Clone()
	update.PriorSnapshot = nil
	m.arena[key] = restored
	if err := m.persistRecord(ctx, restored); err != nil {
		m.logger.Error().Err(err).
			Str("func", "updateManager.Rollback").
			Str("entity_id", update.EntityID).
			Msg("restored record kept in memory only")
	}

	return nil
}

// Pending implements Manager.
func (m *updateManager) Pending() []models.OptimisticUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.OptimisticUpdate, 0, len(m.pendingByOp))
	for _, update := range m.updates {
		if update.Status == models.UpdatePending {
			out = append(out, update.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.OptimisticUpdate) int {
		if c := a.AppliedAt.Compare(b.AppliedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// PendingCount implements Manager.
func (m *updateManager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pendingByOp)
}

// UpdateByOperation implements Manager.
func (m *updateManager) UpdateByOperation(operationID string) (models.OptimisticUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updateID, ok := m.pendingByOp[operationID]
	if !ok {
		return models.OptimisticUpdate{}, false
	}
	return m.updates[updateID].Clone(), true
}

// Record implements Manager.
func (m *updateManager) Record(entityType models.EntityType, entityID string) (models.EntityRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.arena[arenaKey(entityType, entityID)]
	if !ok {
		return models.EntityRecord{}, false
	}
	return record.Clone(), true
}

// SetRecord implements Manager.
func (m *updateManager) SetRecord(ctx context.Context, record models.EntityRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := record.Clone()
	m.arena[arenaKey(stored.EntityType, stored.EntityID)] = stored
	if err := m.persistRecord(ctx, stored); err != nil {
		m.logger.Error().Err(err).
			Str("func", "updateManager.SetRecord").
			Str("entity_id", stored.EntityID).
			Msg("adopted record kept in memory only")
	}
}

// ClearAll implements Manager.
func (m *updateManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates = make(map[string]*models.OptimisticUpdate)
	m.pendingByOp = make(map[string]string)
}

// appliedRecordLocked computes the arena record after op. Callers hold m.mu.
func (m *updateManager) appliedRecordLocked(op models.SyncOperation, now time.Time) models.EntityRecord {
	current, ok := m.arena[arenaKey(op.EntityType, op.EntityID)]
	if !ok {
		current = models.EntityRecord{
			EntityType: op.EntityType,
			EntityID:   op.EntityID,
			Version:    op.BaseVersion,
		}
	}

	switch op.Kind {
	case models.OpCreate:
		current = models.EntityRecord{
			EntityType: op.EntityType,
			EntityID:   op.EntityID,
			Version:    0,
		}
		if op.Payload != nil {
			current.Payload = op.Payload.Clone()
		}
	case models.OpUpdate:
		current.Payload = m.merges.Merge(op.EntityType, current.Payload, op.Payload)
		current.Deleted = false
	case models.OpDelete:
		current.Deleted = true
	}

	current.UpdatedAt = now
	return current
}

func (m *updateManager) persistRecord(ctx context.Context, record models.EntityRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record %s/%s: %w", record.EntityType, record.EntityID, err)
	}

	stored := store.Record{
		Collection: entityCollection(record.EntityType),
		Key:        record.EntityID,
		Data:       data,
	}
	if err := m.store.Put(ctx, stored); err != nil {
		return fmt.Errorf("persist record %s/%s: %w", record.EntityType, record.EntityID, err)
	}
	return nil
}

func validateApply(op models.SyncOperation) error {
	if op.ID == "" {
		return fmt.Errorf("%w: operation without id", ErrInvalidOperation)
	}
	if op.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidOperation)
	}
	if !models.KnownEntityType(op.EntityType) {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidOperation, op.EntityType)
	}
	if !models.KnownOperationKind(op.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}
	return nil
}

func arenaKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}

func entityCollection(entityType models.EntityType) string {
	return store.CollectionEntityPrefix + string(entityType)
}
