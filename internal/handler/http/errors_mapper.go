package http

import (
	"errors"
	"net/http"

	"github.com/loreleaf/loreleaf/internal/adapter"
	"github.com/loreleaf/loreleaf/internal/conflict"
	"github.com/loreleaf/loreleaf/internal/queue"
	"github.com/loreleaf/loreleaf/internal/service"
	"github.com/loreleaf/loreleaf/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrOffline:          http.StatusServiceUnavailable,
	service.ErrEngineClosed:     http.StatusServiceUnavailable,
	service.ErrConflictNotFound: http.StatusNotFound,
	service.ErrManualResolution: http.StatusUnprocessableEntity,
	service.ErrInvalidUpdate:    http.StatusBadRequest,

	queue.ErrNilOperation:       http.StatusBadRequest,
	queue.ErrInvalidOperation:   http.StatusBadRequest,
	queue.ErrDuplicateOperation: http.StatusConflict,
	queue.ErrOperationNotFound:  http.StatusNotFound,

	conflict.ErrUnknownStrategy: http.StatusBadRequest,
	conflict.ErrInvalidConflict: http.StatusUnprocessableEntity,
	conflict.ErrMergingPayloads: http.StatusUnprocessableEntity,

	adapter.ErrNetwork:             http.StatusBadGateway,
	adapter.ErrRemoteInternal:      http.StatusBadGateway,
	adapter.ErrBadRequest:          http.StatusBadRequest,
	adapter.ErrUnprocessableEntity: http.StatusUnprocessableEntity,
	adapter.ErrUnauthorized:        http.StatusUnauthorized,
	adapter.ErrForbidden:           http.StatusForbidden,
	adapter.ErrNotFound:            http.StatusNotFound,

	store.ErrRecordNotFound:     http.StatusNotFound,
	store.ErrRecordNotSaved:     http.StatusInternalServerError,
	store.ErrEmptyKey:           http.StatusInternalServerError,
	store.ErrBuildingSQLQuery:   http.StatusInternalServerError,
	store.ErrExecutingQuery:     http.StatusInternalServerError,
	store.ErrExecutingStatement: http.StatusInternalServerError,
	store.ErrScanningRows:       http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
