package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/cartx/internal/shared"
)

const fallbackMessage = "Network or server error"

// HTTPError is a failed API call. Status is zero when no response was received.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Payload any
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

func (e *HTTPError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	case shared.ErrServiceUnavailable:
		return e.Status == http.StatusServiceUnavailable || e.Status == http.StatusBadGateway
	}
	return false
}

// NotFound reports whether err is an HTTPError with status 404.
func NotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound
}

// newHTTPError normalizes a response body or a transport failure.
func newHTTPError(method, path string, status int, body []byte, cause error) *HTTPError {
	e := &HTTPError{Method: method, Path: path, Status: status, Err: cause}

	var payload any
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		e.Payload = payload
	}

	if fields, ok := payload.(map[string]any); ok {
		if msg, ok := fields["message"].(string); ok && msg != "" {
			e.Message = msg
		} else if msg, ok := fields["error"].(string); ok && msg != "" {
			e.Message = msg
		}
	}
	if e.Message == "" && cause != nil {
		e.Message = cause.Error()
	}
	if e.Message == "" {
		e.Message = fallbackMessage
	}
	return e
}
