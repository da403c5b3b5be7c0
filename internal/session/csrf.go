package session

import "sync"

// CSRFRegistry holds the current anti-forgery token.
type CSRFRegistry struct {
	mu    sync.RWMutex
	token string
}

// Get returns the current token, or "" when none is known.
func (r *CSRFRegistry) Get() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

// Set replaces the current token.
func (r *CSRFRegistry) Set(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}
