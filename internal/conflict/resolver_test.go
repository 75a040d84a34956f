package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreleaf/loreleaf/models"
)

// ── helpers ───────────────────────────────────────────────────────────────────

var (
	earlier = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	later   = earlier.Add(time.Hour)
)

func newTestResolver(fieldPriority ...string) Resolver {
	return NewResolver(fieldPriority, nil)
}

func liveContent(version int64, payload models.ContentPayload, updatedAt time.Time) *models.EntityRecord {
	return &models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    version,
		Payload:    payload,
		UpdatedAt:  updatedAt,
	}
}

func tombstoned(version int64) *models.EntityRecord {
	return &models.EntityRecord{
		EntityType: models.EntityContent,
		EntityID:   "c1",
		Version:    version,
		Deleted:    true,
		UpdatedAt:  earlier,
	}
}

func mergedContent(t *testing.T, resolution models.Resolution) models.ContentPayload {
	t.Helper()
	payload, ok := resolution.Payload.(models.ContentPayload)
	require.True(t, ok, "expected a content payload, got %T", resolution.Payload)
	return payload
}

// ── Detect ────────────────────────────────────────────────────────────────────

func TestDetect_NilWhenSidesAgree(t *testing.T) {
	r := newTestResolver()
	payload := models.ContentPayload{Title: "same", Body: "text"}

	tests := []struct {
		name          string
		local, remote *models.EntityRecord
	}{
		{name: "both absent"},
		{name: "both tombstoned", local: tombstoned(2), remote: tombstoned(2)},
		{
			name:   "equal versions and payloads",
			local:  liveContent(3, payload, earlier),
			remote: liveContent(3, payload, later),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, r.Detect(tt.local, tt.remote, 3))
		})
	}
}

func TestDetect_DeletedRemotely(t *testing.T) {
	r := newTestResolver()
	local := liveContent(3, models.ContentPayload{Title: "still here"}, earlier)

	conflict := r.Detect(local, nil, 3)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictDeletedRemotely, conflict.Type)
	assert.Equal(t, "c1", conflict.EntityID)
	assert.Equal(t, models.EntityContent, conflict.EntityType)
	assert.NotEmpty(t, conflict.ID)
	assert.False(t, conflict.DetectedAt.IsZero())
	assert.Nil(t, conflict.RemoteData)

	conflict = r.Detect(local, tombstoned(4), 3)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictDeletedRemotely, conflict.Type, "a tombstone counts as deleted")
}

func TestDetect_DeletedLocally(t *testing.T) {
	r := newTestResolver()
	remote := liveContent(4, models.ContentPayload{Title: "remote lives"}, later)

	conflict := r.Detect(nil, remote, 3)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictDeletedLocally, conflict.Type)
	assert.Equal(t, "c1", conflict.EntityID, "identity falls back to the remote side")
	assert.Equal(t, int64(4), conflict.RemoteVersion)
}

func TestDetect_VersionMismatch(t *testing.T) {
	r := newTestResolver()

	local := liveContent(4, models.ContentPayload{Title: "mine"}, earlier)
	remote := liveContent(5, models.ContentPayload{Title: "theirs"}, later)

	conflict := r.Detect(local, remote, 3)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictVersionMismatch, conflict.Type)
	assert.Equal(t, int64(4), conflict.LocalVersion)
	assert.Equal(t, int64(5), conflict.RemoteVersion)

	// the usual rejected-submission shape: local still sits on the base
	// version while the remote moved ahead
	local.Version = 3
	conflict = r.Detect(local, remote, 3)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictVersionMismatch, conflict.Type)
}

func TestDetect_ConcurrentEdit(t *testing.T) {
	r := newTestResolver()

	local := liveContent(3, models.ContentPayload{Title: "mine"}, earlier)
	remote := liveContent(3, models.ContentPayload{Title: "theirs"}, later)

	conflict := r.Detect(local, remote, 3)
	require.NotNil(t, conflict)
	assert.Equal(t, models.ConflictConcurrentEdit, conflict.Type)
}

func TestDetect_ClonesBothSides(t *testing.T) {
	r := newTestResolver()

	local := liveContent(3, models.ContentPayload{Title: "mine", Tags: []string{"a"}}, earlier)
	remote := liveContent(5, models.ContentPayload{Title: "theirs"}, later)

	conflict := r.Detect(local, remote, 3)
	require.NotNil(t, conflict)

	local.Payload = models.ContentPayload{Title: "tampered"}
	assert.Equal(t, "mine", conflict.LocalData.Payload.(models.ContentPayload).Title)
}

// ── Resolve: local / remote / manual ──────────────────────────────────────────

func TestResolve_LocalKeepsLocalValue(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "mine"}, earlier),
		liveContent(5, models.ContentPayload{Title: "theirs"}, later),
		3,
	)

	resolution, err := r.Resolve(conflict, models.ResolveLocal)
	require.NoError(t, err)

	assert.True(t, resolution.Resolved)
	assert.False(t, resolution.Deleted)
	assert.Equal(t, models.ResolveLocal, resolution.Strategy)
	assert.Equal(t, conflict.ID, resolution.ConflictID)
	assert.Equal(t, "mine", mergedContent(t, resolution).Title)
}

func TestResolve_RemoteAdoptsRemoteValue(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "mine"}, earlier),
		liveContent(5, models.ContentPayload{Title: "theirs"}, later),
		3,
	)

	resolution, err := r.Resolve(conflict, models.ResolveRemote)
	require.NoError(t, err)

	assert.True(t, resolution.Resolved)
	assert.False(t, resolution.Deleted)
	assert.Equal(t, "theirs", mergedContent(t, resolution).Title)
}

func TestResolve_RemoteOnRemoteDeletionAcceptsIt(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(liveContent(3, models.ContentPayload{Title: "mine"}, earlier), nil, 3)

	resolution, err := r.Resolve(conflict, models.ResolveRemote)
	require.NoError(t, err)

	assert.True(t, resolution.Resolved)
	assert.True(t, resolution.Deleted)
	assert.Nil(t, resolution.Payload)
}

func TestResolve_LocalOnLocalDeletionPushesIt(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(tombstoned(3), liveContent(4, models.ContentPayload{Title: "theirs"}, later), 3)
	require.Equal(t, models.ConflictDeletedLocally, conflict.Type)

	resolution, err := r.Resolve(conflict, models.ResolveLocal)
	require.NoError(t, err)

	assert.True(t, resolution.Resolved)
	assert.True(t, resolution.Deleted)
	assert.Nil(t, resolution.Payload)
}

func TestResolve_ManualStaysUnresolved(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "mine"}, earlier),
		liveContent(5, models.ContentPayload{Title: "theirs"}, later),
		3,
	)

	resolution, err := r.Resolve(conflict, models.ResolveManual)
	require.NoError(t, err)

	assert.False(t, resolution.Resolved)
	assert.Nil(t, resolution.Payload)
	assert.Equal(t, models.ResolveManual, resolution.Strategy)
}

func TestResolve_UnknownStrategy(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(liveContent(3, models.ContentPayload{Title: "x"}, earlier), nil, 3)

	_, err := r.Resolve(conflict, "coin-flip")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestResolve_ConflictWithoutSides(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(models.SyncConflict{ID: "orphan"}, models.ResolveLocal)
	assert.ErrorIs(t, err, ErrInvalidConflict)
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "mine", Tags: []string{"a"}}, later),
		liveContent(5, models.ContentPayload{Title: "theirs", Body: "body"}, earlier),
		3,
	)
	localBefore := conflict.LocalData.Clone()
	remoteBefore := conflict.RemoteData.Clone()

	_, err := r.Resolve(conflict, models.ResolveMerge)
	require.NoError(t, err)

	assert.Equal(t, localBefore, *conflict.LocalData)
	assert.Equal(t, remoteBefore, *conflict.RemoteData)
}

// ── Resolve: merge ────────────────────────────────────────────────────────────

func TestResolve_MergeUnionsDisjointFields(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "mine"}, later),
		liveContent(5, models.ContentPayload{Body: "remote body"}, earlier),
		3,
	)

	resolution, err := r.Resolve(conflict, models.ResolveMerge)
	require.NoError(t, err)

	payload := mergedContent(t, resolution)
	assert.Equal(t, "mine", payload.Title)
	assert.Equal(t, "remote body", payload.Body)
}

func TestResolve_MergeNewerSideWinsSharedFields(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "stale", Tags: []string{"keep"}}, earlier),
		liveContent(5, models.ContentPayload{Title: "fresh"}, later),
		3,
	)

	resolution, err := r.Resolve(conflict, models.ResolveMerge)
	require.NoError(t, err)

	payload := mergedContent(t, resolution)
	assert.Equal(t, "fresh", payload.Title, "remote modified later, remote wins the shared field")
	assert.Equal(t, []string{"keep"}, payload.Tags, "local-only field survives")
}

func TestResolve_MergeExactTieFavorsLocalForPrioritizedFields(t *testing.T) {
	r := newTestResolver("title")
	conflict := *r.Detect(
		liveContent(3, models.ContentPayload{Title: "local title", Body: "local body"}, earlier),
		liveContent(5, models.ContentPayload{Title: "remote title", Body: "remote body"}, earlier),
		3,
	)

	resolution, err := r.Resolve(conflict, models.ResolveMerge)
	require.NoError(t, err)

	payload := mergedContent(t, resolution)
	assert.Equal(t, "local title", payload.Title, "prioritized field breaks the tie toward local")
	assert.Equal(t, "remote body", payload.Body, "unprioritized field falls to remote")
}

func TestResolve_MergeDegradesToSurvivingSide(t *testing.T) {
	r := newTestResolver()
	conflict := *r.Detect(liveContent(3, models.ContentPayload{Title: "survivor"}, earlier), tombstoned(4), 3)

	resolution, err := r.Resolve(conflict, models.ResolveMerge)
	require.NoError(t, err)

	assert.False(t, resolution.Deleted)
	assert.Equal(t, "survivor", mergedContent(t, resolution).Title)
}

func TestResolve_MergeSettingsPayloads(t *testing.T) {
	r := newTestResolver()
	autoSync := true
	local := &models.EntityRecord{
		EntityType: models.EntitySettings,
		EntityID:   "s1",
		Version:    2,
		Payload:    models.SettingsPayload{Theme: "dark", AutoSync: &autoSync},
		UpdatedAt:  later,
	}
	remote := &models.EntityRecord{
		EntityType: models.EntitySettings,
		EntityID:   "s1",
		Version:    3,
		Payload:    models.SettingsPayload{Language: "en"},
		UpdatedAt:  earlier,
	}

	conflict := r.Detect(local, remote, 2)
	require.NotNil(t, conflict)

	resolution, err := r.Resolve(*conflict, models.ResolveMerge)
	require.NoError(t, err)

	payload, ok := resolution.Payload.(models.SettingsPayload)
	require.True(t, ok)
	assert.Equal(t, "dark", payload.Theme)
	assert.Equal(t, "en", payload.Language)
	require.NotNil(t, payload.AutoSync)
	assert.True(t, *payload.AutoSync)
}
