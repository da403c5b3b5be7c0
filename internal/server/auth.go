package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// CSRFToken issues a new CSRF token for the caller's CSRF cookie, setting the cookie when it is missing.
func (s *Server) CSRFToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := s.issueCSRF(w, r)
		if err != nil {
			s.logger.Error("failed to issue csrf token", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to issue csrf token")
			return
		}
		writeJSON(w, http.StatusOK, csrfResponse{CSRFToken: token})
	}
}

// issueCSRF returns a new token bound to the caller's CSRF cookie. Every token issued for the same cookie stays
// valid, so clients that recover concurrently do not invalidate each other.
func (s *Server) issueCSRF(w http.ResponseWriter, r *http.Request) (string, error) {
	sid := ""
	if c, err := r.Cookie(csrfCookie); err == nil && c.Value != "" {
		sid = c.Value
	} else {
		sid = shared.GenerateID()
		http.SetCookie(w, &http.Cookie{
			Name:     csrfCookie,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	claims := jwt.RegisteredClaims{
		ID:       shared.GenerateID(),
		Subject:  sid,
		Audience: jwt.ClaimStrings{csrfAudience},
		IssuedAt: jwt.NewNumericDate(s.now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// validCSRF reports whether token was issued for the CSRF cookie sid.
func (s *Server) validCSRF(sid, token string) bool {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(csrfAudience),
		jwt.WithTimeFunc(s.now),
	)
	return err == nil && subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(sid)) == 1
}

// Signup creates an account and signs it in.
func (s *Server) Signup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if !decodeRequest(&creds, w, r) {
			return
		}
		if err := creds.Validate(); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
		if err != nil {
			s.logger.Error("failed to hash password", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to create account")
			return
		}

		user, err := s.data.createAccount(creds.Email, hash)
		if errors.Is(err, errEmailTaken) {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}

		s.logger.Info("account created", "email", user.Email)
		s.signIn(w, r, http.StatusCreated, user)
	}
}

// Login checks credentials and signs the account in.
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		if !decodeRequest(&creds, w, r) {
			return
		}

		a, ok := s.data.accountByEmail(creds.Email)
		if !ok || bcrypt.CompareHashAndPassword(a.hash, []byte(creds.Password)) != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		s.signIn(w, r, http.StatusOK, a.user)
	}
}

// signIn opens a refresh session, sets its cookie and answers with the user, an access token and a new CSRF token.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, status int, user models.User) {
	access, err := s.issueAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to issue access token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	csrf, err := s.issueCSRF(w, r)
	if err != nil {
		s.logger.Error("failed to issue csrf token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to issue csrf token")
		return
	}

	s.setRefreshCookie(w, s.data.openSession(user.ID, s.now().Add(s.refreshTTL)))
	writeJSON(w, status, models.AuthResponse{
		User:        user,
		AccessToken: access,
		CSRFToken:   csrf,
	})
}

// Refresh consumes the refresh cookie, rotates it and returns a new access token.
func (s *Server) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(refreshCookie)
		if err != nil || c.Value == "" {
			writeMessage(w, http.StatusUnauthorized, "Missing refresh token")
			return
		}

		sess, ok := s.data.consumeSession(c.Value)
		if !ok || !s.now().Before(sess.expiresAt) {
			s.clearRefreshCookie(w)
			writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		user, ok := s.data.userByID(sess.userID)
		if !ok {
			s.clearRefreshCookie(w)
			writeMessage(w, http.StatusUnauthorized, "Unknown user")
			return
		}

		access, err := s.issueAccessToken(user.ID, user.Email)
		if err != nil {
			s.logger.Error("failed to issue access token", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		s.setRefreshCookie(w, s.data.openSession(user.ID, s.now().Add(s.refreshTTL)))
		writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
	}
}

// Logout drops the refresh session and expires its cookie.
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(refreshCookie); err == nil {
			s.data.consumeSession(c.Value)
		}
		s.clearRefreshCookie(w)
		writeMessage(w, http.StatusOK, "Logged out")
	}
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    sid,
		Path:     apiPrefix + "/users",
		MaxAge:   int(s.refreshTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     apiPrefix + "/users",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
