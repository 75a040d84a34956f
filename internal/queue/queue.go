package queue

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/store"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

type operationQueue struct {
	store      store.Store
	merges     models.MergeRegistry
	uuid       *utils.UUIDGenerator
	logger     *logger.Logger
	maxRetries int

	mu      sync.Mutex
	ops     map[string]*models.SyncOperation
	nextSeq uint64
}

// NewOperationQueue creates an empty queue persisting into st. Operations
// enqueued without an explicit MaxRetries inherit maxRetries (defaulting to
// 3 when non-positive). A nil merges registry falls back to the default
// table.
func NewOperationQueue(st store.Store, merges models.MergeRegistry, maxRetries int, log *logger.Logger) Queue {
	if merges == nil {
		merges = models.DefaultMergeRegistry()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if log == nil {
		log = logger.Nop()
	}

	return &operationQueue{
		store:      st,
		merges:     merges,
		uuid:       utils.NewUUIDGenerator(),
		logger:     log,
		maxRetries: maxRetries,
		ops:        make(map[string]*models.SyncOperation),
		nextSeq:    1,
	}
}

// Load implements Queue.
func (q *operationQueue) Load(ctx context.Context) error {
	records, err := q.store.GetAll(ctx, store.CollectionSyncQueue)
	if err != nil {
		return fmt.Errorf("load queued operations: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.ops = make(map[string]*models.SyncOperation, len(records))
	var maxSeq uint64
	for _, record := range records {
		var op models.SyncOperation
		if err := json.Unmarshal(record.Data, &op); err != nil {
			q.logger.Error().Err(err).
				Str("func", "operationQueue.Load").
				Str("key", record.Key).
				Msg("skipping undecodable queued operation")
			continue
		}
		q.ops[op.ID] = &op
		if op.Seq > maxSeq {
			maxSeq = op.Seq
		}
	}
	if maxSeq >= q.nextSeq {
		q.nextSeq = maxSeq + 1
	}

	return nil
}

// Enqueue implements Queue.
func (q *operationQueue) Enqueue(ctx context.Context, op *models.SyncOperation) error {
	if err := validateOperation(op); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	stored := op.Clone()
	if stored.ID == "" {
		stored.ID = q.uuid.Generate()
	}
	if stored.Priority == "" {
		stored.Priority = models.PriorityMedium
	}
	if stored.MaxRetries <= 0 {
		stored.MaxRetries = q.maxRetries
	}
	stored.EnqueuedAt = time.Now()
	stored.Seq = q.nextSeq

	if _, exists := q.ops[stored.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, stored.ID)
	}

	if err := q.persist(ctx, &stored); err != nil {
		return err
	}

	q.nextSeq++
	q.ops[stored.ID] = &stored
	*op = stored.Clone()

	return nil
}

// Dequeue implements Queue.
func (q *operationQueue) Dequeue(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(ctx, id)
}

// RemoveMany implements Queue.
func (q *operationQueue) RemoveMany(ctx context.Context, ids []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeManyLocked(ctx, ids)
}

// NextOperations implements Queue.
func (q *operationQueue) NextOperations(n int) []models.SyncOperation {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	eligible := make([]*models.SyncOperation, 0, len(q.ops))
	for _, op := range q.ops {
		if !op.Ready(now) {
			continue
		}
		if q.hasQueuedDependencyLocked(op) {
			continue
		}
		eligible = append(eligible, op)
	}

	slices.SortFunc(eligible, compareOperations)

	if len(eligible) > n {
		eligible = eligible[:n]
	}

	out := make([]models.SyncOperation, 0, len(eligible))
	for _, op := range eligible {
		out = append(out, op.Clone())
	}
	return out
}

// IncrementRetry implements Queue. The in-memory retry state advances even
// when re-persisting fails; the error is returned alongside the verdict so
// the caller can log it.
func (q *operationQueue) IncrementRetry(ctx context.Context, id string, backoffBase, backoffMax time.Duration) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}

	op.RetryCount++
	op.NextAttemptAt = time.Now().Add(backoffDelay(backoffBase, backoffMax, op.RetryCount))

	allowed := op.RetryCount < op.MaxRetries
	if err := q.persist(ctx, op); err != nil {
		return allowed, err
	}
	return allowed, nil
}

// MarkSubmitted implements Queue.
func (q *operationQueue) MarkSubmitted(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	op, ok := q.ops[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}
	if op.Submitted {
		return nil
	}

	op.Submitted = true
	return q.persist(ctx, op)
}

// Size implements Queue.
func (q *operationQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// IsEmpty implements Queue.
func (q *operationQueue) IsEmpty() bool {
	return q.Size() == 0
}

// All implements Queue.
func (q *operationQueue) All() []models.SyncOperation {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.SyncOperation, 0, len(q.ops))
	for _, op := range q.ops {
		out = append(out, op.Clone())
	}
	slices.SortFunc(out, func(a, b models.SyncOperation) int {
		return compareOperations(&a, &b)
	})
	return out
}

// removeLocked deletes one operation from the store and the index. Absent
// ids are a no-op. Callers hold q.mu.
func (q *operationQueue) removeLocked(ctx context.Context, id string) error {
	if _, ok := q.ops[id]; !ok {
		return nil
	}
	if err := q.store.Delete(ctx, store.CollectionSyncQueue, id); err != nil {
		return fmt.Errorf("unpersist operation %s: %w", id, err)
	}
	delete(q.ops, id)
	return nil
}

func (q *operationQueue) removeManyLocked(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := q.removeLocked(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *operationQueue) persist(ctx context.Context, op *models.SyncOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encode operation %s: %w", op.ID, err)
	}

	record := store.Record{
		Collection: store.CollectionSyncQueue,
		Key:        op.ID,
		Data:       data,
	}
	if err := q.store.Put(ctx, record); err != nil {
		return fmt.Errorf("persist operation %s: %w", op.ID, err)
	}
	return nil
}

func (q *operationQueue) hasQueuedDependencyLocked(op *models.SyncOperation) bool {
	for _, dep := range op.DependsOn {
		if _, queued := q.ops[dep]; queued {
			return true
		}
	}
	return false
}

func compareOperations(a, b *models.SyncOperation) int {
	if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
		return c
	}
	if c := a.EnqueuedAt.Compare(b.EnqueuedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// backoffDelay doubles base once per retry and caps the result at max.
func backoffDelay(base, max time.Duration, retryCount int) time.Duration {
	if base <= 0 {
		return 0
	}

	delay := base
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
	}
	return delay
}

func validateOperation(op *models.SyncOperation) error {
	if op == nil {
		return ErrNilOperation
	}
	if op.EntityID == "" {
		return fmt.Errorf("%w: empty entity id", ErrInvalidOperation)
	}
	if !models.KnownOperationKind(op.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}
	if !models.KnownEntityType(op.EntityType) {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidOperation, op.EntityType)
	}
	if op.Kind != models.OpDelete && op.Payload == nil {
		return fmt.Errorf("%w: %s operation without payload", ErrInvalidOperation, op.Kind)
	}
	if op.Payload != nil && op.Payload.EntityType() != op.EntityType {
		return fmt.Errorf("%w: payload type %s does not match entity type %s",
			ErrInvalidOperation, op.Payload.EntityType(), op.EntityType)
	}
	return nil
}
