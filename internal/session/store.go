package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// flight is one shared refresh exchange. token and err are written before done is closed.
type flight struct {
	done  chan struct{}
	token string
	err   error
}

func newFlight() *flight {
	return &flight{done: make(chan struct{})}
}

// wait blocks until the flight settles or ctx is done. Abandoning the wait leaves the flight running.
func (f *flight) wait(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.token, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *flight) finish(token string, err error) {
	f.token, f.err = token, err
	close(f.done)
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithLeeway treats tokens as expired d before their exp claim.
func WithLeeway(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.leeway = d
		}
	}
}

// WithClock replaces the wall clock used for expiry checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds the in-memory access token and the refresh currently in flight.
//
// The zero value is not usable; call [NewStore].
type Store struct {
	mu       sync.Mutex
	token    *oauth2.Token
	inflight *flight
	leeway   time.Duration
	now      func() time.Time
}

// NewStore returns an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bearer(raw string) *oauth2.Token {
	if raw == "" {
		return nil
	}
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := ExpiryFromToken(raw); ok {
		tok.Expiry = exp
	}
	return tok
}

// SetAccessToken replaces the stored token. The expiry is decoded from the token's exp claim and left unset when it
// cannot be decoded. An empty token clears the credential.
func (s *Store) SetAccessToken(raw string) {
	tok := bearer(raw)

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
}

// AccessToken returns the stored token and whether one is present.
func (s *Store) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return "", false
	}
	return s.token.AccessToken, true
}

// Expiry returns the decoded expiry of the stored token and whether it is known.
func (s *Store) Expiry() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || s.token.Expiry.IsZero() {
		return time.Time{}, false
	}
	return s.token.Expiry, true
}

// IsTokenExpired reports whether the stored token has a known expiry that has passed.
//
// A token whose expiry could not be decoded is never considered expired.
func (s *Store) IsTokenExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || s.token.Expiry.IsZero() {
		return false
	}
	return !s.now().Before(s.token.Expiry.Add(-s.leeway))
}

// ClearTokens drops the access token, its expiry and the reference to any refresh in flight.
//
// A refresh that is still running when the tokens are cleared does not store its result.
func (s *Store) ClearTokens() {
	s.mu.Lock()
	s.token = nil
	s.inflight = nil
	s.mu.Unlock()
}

// RefreshInFlight reports whether a refresh is currently published.
func (s *Store) RefreshInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil
}

// authorize sets the bearer Authorization header on req when a token is stored.
func (s *Store) authorize(req *http.Request) {
	s.mu.Lock()
	tok := s.token
	s.mu.Unlock()

	if tok != nil {
		tok.SetAuthHeader(req)
	}
}

// acquire returns the published flight, publishing a new one when none exists. leader is true for the caller that
// published it.
func (s *Store) acquire() (f *flight, leader bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != nil {
		return s.inflight, false
	}
	s.inflight = newFlight()
	return s.inflight, true
}

// settle records the outcome of f, unpublishes it and reports whether f was still the published flight.
//
// A flight superseded by [Store.ClearTokens] leaves the credential alone whatever its outcome.
func (s *Store) settle(f *flight, token string, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight != f {
		return false
	}
	s.inflight = nil

	if err != nil {
		s.token = nil
	} else {
		s.token = bearer(token)
	}
	return true
}
