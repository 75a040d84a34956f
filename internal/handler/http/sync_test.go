package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/loreleaf/loreleaf/internal/service"
	"github.com/loreleaf/loreleaf/models"
)

func TestTriggerSync_ReturnsCycleResult(t *testing.T) {
	f := newHandlerFixture(t)

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.engine.EXPECT().SyncNow(gomock.Any()).Return(models.SyncResult{
		CycleID:    7,
		StartedAt:  started,
		FinishedAt: started.Add(200 * time.Millisecond),
		Submitted:  4,
		Succeeded:  3,
		Retried:    1,
	}, nil)

	rec := f.do(http.MethodPost, "/api/sync", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, uint64(7), result.CycleID)
	assert.Equal(t, 4, result.Submitted)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 1, result.Retried)
}

func TestTriggerSync_OfflineMapsToServiceUnavailable(t *testing.T) {
	f := newHandlerFixture(t)

	f.engine.EXPECT().SyncNow(gomock.Any()).Return(models.SyncResult{}, service.ErrOffline)

	rec := f.do(http.MethodPost, "/api/sync", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerSync_ClosedEngineMapsToServiceUnavailable(t *testing.T) {
	f := newHandlerFixture(t)

	f.engine.EXPECT().SyncNow(gomock.Any()).
		Return(models.SyncResult{}, fmt.Errorf("sync now: %w", service.ErrEngineClosed))

	rec := f.do(http.MethodPost, "/api/sync", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
