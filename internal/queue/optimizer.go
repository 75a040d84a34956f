package queue

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/loreleaf/loreleaf/models"
)

// Optimize implements Queue. Collapsing works per entity; a group is only
// touched when every operation in it is still fully local: never submitted,
// not in retry, and not depended on by another queued operation. That keeps
// the pass idempotent and keeps DependsOn references valid, at the cost of
// occasionally skipping a group a finer rule could shrink.
func (q *operationQueue) Optimize(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	dependants := make(map[string]bool)
	for _, op := range q.ops {
		for _, dep := range op.DependsOn {
			dependants[dep] = true
		}
	}

	groups := make(map[string][]*models.SyncOperation)
	for _, op := range q.ops {
		key := string(op.EntityType) + "/" + op.EntityID
		groups[key] = append(groups[key], op)
	}

	var errs []error
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		if !collapsible(group, dependants) {
			continue
		}

		slices.SortFunc(group, func(a, b *models.SyncOperation) int {
			return cmp.Compare(a.Seq, b.Seq)
		})

		if err := q.collapseGroupLocked(ctx, group); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func collapsible(group []*models.SyncOperation, dependants map[string]bool) bool {
	for _, op := range group {
		if op.RetryCount > 0 || op.Submitted || dependants[op.ID] {
			return false
		}
	}
	return true
}

// collapseGroupLocked reduces one entity's operations, sorted by Seq, to
// their minimal equivalent:
//
//	create + updates          -> one create with the folded payload
//	updates                   -> one update with the folded payload
//	updates + delete          -> the delete alone
//	create + updates + delete -> nothing (net no-op)
//
// Groups in any other shape are left untouched. Callers hold q.mu.
func (q *operationQueue) collapseGroupLocked(ctx context.Context, group []*models.SyncOperation) error {
	first, last := group[0], group[len(group)-1]

	startsWithCreate := first.Kind == models.OpCreate
	endsWithDelete := last.Kind == models.OpDelete

	for i, op := range group {
		switch {
		case i == 0 && startsWithCreate:
		case i == len(group)-1 && endsWithDelete:
		case op.Kind == models.OpUpdate:
		default:
			return nil
		}
	}

	switch {
	case startsWithCreate && endsWithDelete:
		// The entity was created and destroyed without ever reaching the
		// remote; nothing needs to sync.
		ids := make([]string, 0, len(group))
		for _, op := range group {
			ids = append(ids, op.ID)
		}
		return q.removeManyLocked(ctx, ids)

	case endsWithDelete:
		// Updates before a delete are moot; the delete alone survives.
		ids := make([]string, 0, len(group)-1)
		for _, op := range group[:len(group)-1] {
			ids = append(ids, op.ID)
		}
		return q.removeManyLocked(ctx, ids)

	default:
		merged := first.Payload
		for _, op := range group[1:] {
			merged = q.merges.Merge(first.EntityType, merged, op.Payload)
		}

		survivor := first.Clone()
		survivor.Payload = merged
		if err := q.persist(ctx, &survivor); err != nil {
			return err
		}
		q.ops[first.ID] = &survivor

		ids := make([]string, 0, len(group)-1)
		for _, op := range group[1:] {
			ids = append(ids, op.ID)
		}
		return q.removeManyLocked(ctx, ids)
	}
}
