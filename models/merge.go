package models

import "slices"

// MergeFunc folds a newer payload onto an older one of the same entity type
// and returns the combined payload. Implementations never mutate their
// inputs.
type MergeFunc func(older, newer Payload) Payload

// MergeRegistry maps entity types to their payload merge semantics. The
// queue optimizer and the optimistic arena both consult it, so collapsed
// operations and optimistically applied updates agree on what an "update"
// does to each entity type.
type MergeRegistry map[EntityType]MergeFunc

// DefaultMergeRegistry returns the standard merge table: content and
// settings overlay the newer payload's non-zero fields onto the older one;
// progress and relationship updates replace the payload wholesale.
func DefaultMergeRegistry() MergeRegistry {
	return MergeRegistry{
		EntityContent:      MergeContent,
		EntitySettings:     MergeSettings,
		EntityProgress:     ReplaceNewer,
		EntityRelationship: ReplaceNewer,
	}
}

// Merge applies the registered MergeFunc for entityType. Unknown entity
// types fall back to replacing with the newer payload.
func (r MergeRegistry) Merge(entityType EntityType, older, newer Payload) Payload {
	if fn, ok := r[entityType]; ok {
		return fn(older, newer)
	}
	return ReplaceNewer(older, newer)
}

// ReplaceNewer discards the older payload entirely.
func ReplaceNewer(_, newer Payload) Payload {
	if newer == nil {
		return nil
	}
	return newer.Clone()
}

// MergeContent overlays the non-zero fields of the newer content payload
// onto the older one. A nil or foreign-typed operand degrades to
// ReplaceNewer.
func MergeContent(older, newer Payload) Payload {
	base, okOlder := older.(ContentPayload)
	next, okNewer := newer.(ContentPayload)
	if !okOlder || !okNewer {
		return ReplaceNewer(older, newer)
	}

	merged := base.Clone().(ContentPayload)
	if next.Title != "" {
		merged.Title = next.Title
	}
	if next.Body != "" {
		merged.Body = next.Body
	}
	if next.Format != "" {
		merged.Format = next.Format
	}
	if next.Tags != nil {
		merged.Tags = slices.Clone(next.Tags)
	}
	return merged
}

// MergeSettings overlays the non-zero fields of the newer settings payload
// onto the older one. A nil or foreign-typed operand degrades to
// ReplaceNewer.
func MergeSettings(older, newer Payload) Payload {
	base, okOlder := older.(SettingsPayload)
	next, okNewer := newer.(SettingsPayload)
	if !okOlder || !okNewer {
		return ReplaceNewer(older, newer)
	}

	merged := base.Clone().(SettingsPayload)
	if next.Theme != "" {
		merged.Theme = next.Theme
	}
	if next.Language != "" {
		merged.Language = next.Language
	}
	if next.SyncIntervalSec != 0 {
		merged.SyncIntervalSec = next.SyncIntervalSec
	}
	if next.AutoSync != nil {
		autoSync := *next.AutoSync
		merged.AutoSync = &autoSync
	}
	return merged
}
