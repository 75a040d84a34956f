package http

import (
	"context"
	"encoding/json"
	"fmt"
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

func TestUpdateConfig_AppliesAndReturnsSnapshot(t *testing.T) {
	f := newHandlerFixture(t)

	var applied service.ConfigUpdate
	f.engine.EXPECT().
		UpdateConfig(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, update service.ConfigUpdate) error {
			applied = update
			return nil
		})
	f.engine.EXPECT().AutoSync().Return(true, time.Minute)

	body := strings.NewReader(`{"enable_auto_sync": true, "sync_interval": 60000000000}`)
	rec := f.do(http.MethodPatch, "/api/config", body)

	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, applied.EnableAutoSync)
	assert.True(t, *applied.EnableAutoSync)
	require.NotNil(t, applied.SyncInterval)
	assert.Equal(t, time.Minute, *applied.SyncInterval)
	assert.Nil(t, applied.MaxRetries)

	var response models.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.EnableAutoSync)
	assert.Equal(t, time.Minute, response.SyncInterval)
}

func TestUpdateConfig_InvalidUpdateMapsToBadRequest(t *testing.T) {
	f := newHandlerFixture(t)

	f.engine.EXPECT().
		UpdateConfig(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("%w: sync interval must be positive", service.ErrInvalidUpdate))

	body := strings.NewReader(`{"sync_interval": -5}`)
	rec := f.do(http.MethodPatch, "/api/config", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateConfig_MalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	body := strings.NewReader(`{"max_retries": "three"}`)
	rec := f.do(http.MethodPatch, "/api/config", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
