package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/session"
	"github.com/desertthunder/cartx/internal/shared"
)

// UserService signs users in and out of the backend.
type UserService struct {
	api     *APIService
	session *session.Manager
	logger  *log.Logger
}

// NewUserService creates a UserService that records tokens in m.
func NewUserService(api *APIService, m *session.Manager, logger *log.Logger) *UserService {
	if logger == nil {
		logger = log.Default()
	}
	return &UserService{api: api, session: m, logger: logger}
}

// Signup creates an account and signs it in.
func (s *UserService) Signup(ctx context.Context, creds models.Credentials) (*models.User, error) {
	return s.authenticate(ctx, "users/signup", creds)
}

// Login signs in with creds.
func (s *UserService) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	return s.authenticate(ctx, "users/login", creds)
}

// authenticate posts creds and stores the returned access token. When the body carries no token the refresh
// cookie set by the same response is exchanged for one.
func (s *UserService) authenticate(ctx context.Context, path string, creds models.Credentials) (*models.User, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	var resp models.AuthResponse
	if err := s.api.Do(session.WithoutRefresh(ctx), http.MethodPost, path, creds, &resp); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && (httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, httpErr.Message)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if resp.AccessToken != "" {
		s.session.Store().SetAccessToken(resp.AccessToken)
	} else if _, err := s.session.RefreshAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	s.logger.Info("signed in", "email", resp.User.Email)
	return &resp.User, nil
}

// Logout ends the server session and clears local credentials. Local state is cleared even when the server call
// fails, and that failure is returned.
func (s *UserService) Logout(ctx context.Context) error {
	serverErr := s.api.Do(ctx, http.MethodPost, "users/logout", nil, nil)
	if serverErr != nil {
		s.logger.Warn("server logout failed", "error", serverErr)
	}

	if err := s.session.SignOut(ctx); err != nil {
		return fmt.Errorf("failed to clear stored cookies: %w", err)
	}
	return serverErr
}

// CSRFToken fetches a new CSRF token and stores it in the session's registry.
func (s *UserService) CSRFToken(ctx context.Context) (string, error) {
	token, err := s.session.FetchCSRFToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	s.session.CSRF().Set(token)
	return token, nil
}
