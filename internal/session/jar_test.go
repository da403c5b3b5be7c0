package session

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/models"
)

type memoryCookies struct {
	mu      sync.Mutex
	cookies map[string]models.Cookie
}

func newMemoryCookies(seed ...models.Cookie) *memoryCookies {
	m := &memoryCookies{cookies: make(map[string]models.Cookie)}
	for _, c := range seed {
		m.cookies[c.Host+"|"+c.Name+"|"+c.Path] = c
	}
	return m
}

func (m *memoryCookies) AllCookies(context.Context) ([]models.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Cookie, 0, len(m.cookies))
	for _, c := range m.cookies {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryCookies) SaveCookie(_ context.Context, c models.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cookies[c.Host+"|"+c.Name+"|"+c.Path] = c
	return nil
}

func (m *memoryCookies) DeleteCookie(_ context.Context, host, name, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, host+"|"+name+"|"+path)
	return nil
}

func (m *memoryCookies) ClearCookies(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.cookies)
	return nil
}

func (m *memoryCookies) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cookies)
}

func TestPersistentJar(t *testing.T) {
	logger := log.New(io.Discard)
	apiURL, _ := url.Parse("http://localhost:3030/api/users/login")
	refreshURL, _ := url.Parse("http://localhost:3030/api/users/refresh")

	t.Run("received cookies are persisted and reloaded", func(t *testing.T) {
		store := newMemoryCookies()
		jar, err := NewJar(store, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		jar.SetCookies(apiURL, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/api/users", HttpOnly: true, MaxAge: 3600}})
		if store.len() != 1 {
			t.Fatalf("expected 1 stored cookie, got %d", store.len())
		}

		reloaded, err := NewJar(store, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cookies := reloaded.Cookies(refreshURL)
		if len(cookies) != 1 || cookies[0].Value != "r1" {
			t.Errorf("expected refresh cookie after reload, got %v", cookies)
		}
	})

	t.Run("default path comes from the request URL", func(t *testing.T) {
		store := newMemoryCookies()
		jar, _ := NewJar(store, logger)
		jar.SetCookies(apiURL, []*http.Cookie{{Name: "sid", Value: "s"}})

		cookies, _ := store.AllCookies(context.Background())
		if len(cookies) != 1 || cookies[0].Path != "/api/users" {
			t.Errorf("expected default path /api/users, got %+v", cookies)
		}
	})

	t.Run("expired cookies are removed", func(t *testing.T) {
		store := newMemoryCookies(models.Cookie{
			Host: "localhost", Name: "old", Value: "x", Path: "/",
			ExpiresAt: time.Now().Add(-time.Hour),
		})
		jar, err := NewJar(store, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.len() != 0 {
			t.Error("expected expired cookie to be deleted on load")
		}

		jar.SetCookies(apiURL, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/"}})
		jar.SetCookies(apiURL, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/", MaxAge: -1}})
		if store.len() != 0 {
			t.Error("expected cleared cookie to be deleted")
		}
		if got := jar.Cookies(refreshURL); len(got) != 0 {
			t.Errorf("expected no cookies, got %v", got)
		}
	})

	t.Run("Clear empties memory and store", func(t *testing.T) {
		store := newMemoryCookies()
		jar, _ := NewJar(store, logger)
		jar.SetCookies(apiURL, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/"}})

		if err := jar.Clear(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.len() != 0 {
			t.Error("expected store to be empty")
		}
		if got := jar.Cookies(refreshURL); len(got) != 0 {
			t.Errorf("expected no cookies, got %v", got)
		}
	})

	t.Run("nil store keeps cookies in memory", func(t *testing.T) {
		jar, err := NewJar(nil, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		jar.SetCookies(apiURL, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/"}})
		if got := jar.Cookies(refreshURL); len(got) != 1 {
			t.Errorf("expected in-memory cookie, got %v", got)
		}
		if err := jar.Clear(context.Background()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestDefaultPath(t *testing.T) {
	tests := map[string]string{
		"":                 "/",
		"/":                "/",
		"/login":           "/",
		"/api/users/login": "/api/users",
		"relative":         "/",
	}
	for in, want := range tests {
		if got := defaultPath(in); got != want {
			t.Errorf("defaultPath(%q) = %q, want %q", in, got, want)
		}
	}
}
