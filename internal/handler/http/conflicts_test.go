package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/loreleaf/loreleaf/internal/service"
	"github.com/loreleaf/loreleaf/models"
)

func TestGetConflicts_ListsUnresolved(t *testing.T) {
	f := newHandlerFixture(t)

	detected := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	f.engine.EXPECT().Conflicts().Return([]models.SyncConflict{
		{
			ID:            "cfl-1",
			OperationID:   "op-1",
			EntityType:    models.EntityContent,
			EntityID:      "c1",
			Type:          models.ConflictVersionMismatch,
			LocalVersion:  1,
			RemoteVersion: 3,
			DetectedAt:    detected,
		},
	})

	rec := f.do(http.MethodGet, "/api/conflicts", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var response models.ConflictsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Length)
	require.Len(t, response.Conflicts, 1)
	assert.Equal(t, "cfl-1", response.Conflicts[0].ID)
	assert.Equal(t, models.ConflictVersionMismatch, response.Conflicts[0].Type)
	assert.Equal(t, int64(3), response.Conflicts[0].RemoteVersion)
}

func TestResolveConflict_AppliesStrategy(t *testing.T) {
	f := newHandlerFixture(t)

	f.engine.EXPECT().
		ResolveConflict(gomock.Any(), "cfl-1", models.ResolveRemote).
		Return(nil)
	f.engine.EXPECT().Conflicts().Return(nil)

	body := strings.NewReader(`{"strategy": "remote"}`)
	rec := f.do(http.MethodPost, "/api/conflicts/cfl-1/resolve", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var response models.ConflictsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Zero(t, response.Length)
}

func TestResolveConflict_UnknownIDMapsToNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	f.engine.EXPECT().
		ResolveConflict(gomock.Any(), "missing", models.ResolveLocal).
		Return(service.ErrConflictNotFound)

	body := strings.NewReader(`{"strategy": "local"}`)
	rec := f.do(http.MethodPost, "/api/conflicts/missing/resolve", body)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveConflict_ManualStrategyMapsToUnprocessable(t *testing.T) {
	f := newHandlerFixture(t)

	f.engine.EXPECT().
		ResolveConflict(gomock.Any(), "cfl-1", models.ResolveManual).
		Return(service.ErrManualResolution)

	body := strings.NewReader(`{"strategy": "manual"}`)
	rec := f.do(http.MethodPost, "/api/conflicts/cfl-1/resolve", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestResolveConflict_MalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	body := strings.NewReader(`{"strategy": `)
	rec := f.do(http.MethodPost, "/api/conflicts/cfl-1/resolve", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
