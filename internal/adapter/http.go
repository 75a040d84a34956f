package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/loreleaf/loreleaf/internal/config"
	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/internal/utils"
	"github.com/loreleaf/loreleaf/models"
)

// tokenLeeway widens the local expiry pre-check so a token that would die
// mid-request is refused up front instead of burning a submission on a 401.
const tokenLeeway = 30 * time.Second

type httpRemote struct {
	client *utils.HTTPClient
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPRemote constructs the HTTP/REST implementation of [Remote]. It
// normalizes and validates cfg.BaseURL and configures the underlying client
// with the resolved base URL and request timeout.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a URL.
func NewHTTPRemote(cfg config.Remote, log *logger.Logger) (Remote, error) {
	if log == nil {
		log = logger.Nop()
	}

	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout)

	remote := &httpRemote{client: client, logger: log}
	remote.SetToken(cfg.Token)
	return remote, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [Remote]. It stores token (whitespace-trimmed) for
// use in the Authorization header of all subsequent requests.
func (h *httpRemote) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [Remote].
func (h *httpRemote) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Submit implements [Remote]. It POSTs the operation to
// POST /api/sync/operations and decodes the assigned version on success.
// A 409 reply is returned as a *ConflictError carrying the remote's view.
func (h *httpRemote) Submit(ctx context.Context, req models.SubmitRequest) (models.SubmitResponse, error) {
	if err := h.checkToken(); err != nil {
		return models.SubmitResponse{}, err
	}

	var result models.SubmitResponse
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		Post("/api/sync/operations")
	if err != nil {
		return models.SubmitResponse{}, fmt.Errorf("submit request: %w: %w", ErrNetwork, err)
	}
	if err = mapHTTPError(resp, req.OperationID); err != nil {
		return models.SubmitResponse{}, err
	}

	return result, nil
}

// Fetch implements [Remote]. It GETs the remote's current record from
// GET /api/sync/entities/{entityType}/{entityID}; a 404 means the remote
// holds no record and yields (nil, nil).
func (h *httpRemote) Fetch(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntityRecord, error) {
	if err := h.checkToken(); err != nil {
		return nil, err
	}

	var remote models.RemoteEntity
	resp, err := h.authedRequest(ctx).
		SetPathParam("entityType", string(entityType)).
		SetPathParam("entityID", entityID).
		SetResult(&remote).
		Get("/api/sync/entities/{entityType}/{entityID}")
	if err != nil {
		return nil, fmt.Errorf("fetch request: %w: %w", ErrNetwork, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err = mapHTTPError(resp, ""); err != nil {
		return nil, err
	}

	record, err := remote.Record()
	if err != nil {
		return nil, fmt.Errorf("decode fetched entity: %w", err)
	}
	return record, nil
}

func (h *httpRemote) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// checkToken refuses a request whose bearer token is already expired. An
// empty or unparsable token passes through; the remote is the authority on
// whether it accepts those.
func (h *httpRemote) checkToken() error {
	token := h.Token()
	if token == "" {
		return nil
	}

	expired, err := utils.IsTokenExpired(token, tokenLeeway)
	if err != nil {
		h.logger.Debug().Err(err).
			Str("func", "httpRemote.checkToken").
			Msg("token expiry not locally checkable")
		return nil
	}
	if expired {
		return fmt.Errorf("%w: bearer token expired", ErrUnauthorized)
	}
	return nil
}
