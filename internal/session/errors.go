package session

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRefreshFailed matches every error returned by a failed token refresh.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrCSRFFetch is returned when the CSRF token could not be re-fetched while recovering a request.
	ErrCSRFFetch = errors.New("csrf token fetch failed")
)

// RefreshError describes a failed exchange of the refresh cookie for an access token.
//
// Status is zero when no response was received.
type RefreshError struct {
	Status  int
	Message string
	Err     error
}

func (e *RefreshError) Error() string {
	msg := ErrRefreshFailed.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d %s", msg, e.Status, http.StatusText(e.Status))
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RefreshError) Is(target error) bool { return target == ErrRefreshFailed }
func (e *RefreshError) Unwrap() error        { return e.Err }
