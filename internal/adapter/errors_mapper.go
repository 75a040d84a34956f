package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response, operationID string) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch code {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrUnprocessableEntity, body)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusConflict:
		return conflictError(resp.Body(), operationID)
	}

	if body == "" {
		body = http.StatusText(code)
	}
	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrRemoteInternal, code, body)
	}
	return fmt.Errorf("http %d: %s", code, body)
}

// conflictError decodes the 409 body into the remote's entity view. An
// undecodable body still yields a ConflictError, just without the remote
// side; the orchestrator then fetches the entity explicitly.
func conflictError(body []byte, operationID string) error {
	conflictErr := &ConflictError{OperationID: operationID}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &conflictErr.Remote)
	}
	return conflictErr
}
