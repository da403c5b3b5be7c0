package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	tu "github.com/desertthunder/cartx/internal/testing"
)

// backend is a scripted API server that counts requests and fails the test if the skip marker ever arrives.
type backend struct {
	srv     *httptest.Server
	mux     *http.ServeMux
	counter tu.Counter
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{mux: http.NewServeMux()}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.counter.Hit(r)
		if r.Header.Get(SkipHeader) != "" {
			t.Errorf("%s reached the server on %s %s", SkipHeader, r.Method, r.URL.Path)
		}
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

func (b *backend) manager(t *testing.T, nav Navigator) *Manager {
	t.Helper()

	m, err := NewManager(Options{
		BaseURL:   b.srv.URL + "/api",
		Timeout:   5 * time.Second,
		Navigator: nav,
		Logger:    log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

func (b *backend) url(path string) string {
	return b.srv.URL + "/api" + path
}

func doRequest(t *testing.T, c *http.Client, method, url string, body []byte) (*http.Response, []byte, error) {
	t.Helper()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, data, nil
}

func TestTransport(t *testing.T) {
	t.Run("expired token triggers one refresh for concurrent requests", func(t *testing.T) {
		b := newBackend(t)
		fresh := tu.MintToken(t, "u1", time.Now().Add(time.Hour))

		b.handle("POST /api/users/refresh", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			tu.WriteJSON(w, 200, map[string]string{"accessToken": fresh})
		})
		b.handle("GET /api/lists", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+fresh {
				tu.WriteJSON(w, 401, map[string]string{"message": "unauthorized"})
				return
			}
			tu.WriteJSON(w, 200, []any{})
		})

		m := b.manager(t, nil)
		m.Store().SetAccessToken(tu.MintToken(t, "u1", time.Now().Add(-time.Minute)))
		client := m.Client()

		var wg sync.WaitGroup
		statuses := make([]int, 3)
		for i := range statuses {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, _, err := doRequest(t, client, http.MethodGet, b.url("/lists"), nil)
				if err != nil {
					t.Errorf("request %d failed: %v", i, err)
					return
				}
				statuses[i] = resp.StatusCode
			}()
		}
		wg.Wait()

		if got := b.counter.Count(http.MethodPost, "/api/users/refresh"); got != 1 {
			t.Errorf("expected exactly 1 refresh, got %d", got)
		}
		for i, status := range statuses {
			if status != 200 {
				t.Errorf("request %d: expected 200, got %d", i, status)
			}
		}
		if got := b.counter.Count(http.MethodGet, "/api/lists"); got != 3 {
			t.Errorf("expected 3 list requests, got %d", got)
		}
	})

	t.Run("csrf failure refetches token and resends once", func(t *testing.T) {
		b := newBackend(t)
		var posts atomic.Int32

		b.handle("GET /api/users/csrf-token", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 200, map[string]string{"csrfToken": "fresh"})
		})
		b.handle("POST /api/lists", func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"name":"Groceries"}` {
				t.Errorf("attempt %d: unexpected body %q", posts.Load()+1, body)
			}
			if posts.Add(1) == 1 {
				tu.WriteJSON(w, 403, map[string]string{"message": "invalid csrf token"})
				return
			}
			if got := r.Header.Get(CSRFHeader); got != "fresh" {
				t.Errorf("expected retried request to carry the fresh token, got %q", got)
			}
			tu.WriteJSON(w, 201, map[string]string{"_id": "l1", "name": "Groceries"})
		})

		m := b.manager(t, nil)
		m.CSRF().Set("stale")

		resp, _, err := doRequest(t, m.Client(), http.MethodPost, b.url("/lists"), []byte(`{"name":"Groceries"}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 201 {
			t.Errorf("expected 201, got %d", resp.StatusCode)
		}
		if got := b.counter.Count(http.MethodGet, "/api/users/csrf-token"); got != 1 {
			t.Errorf("expected 1 csrf fetch, got %d", got)
		}
		if got := posts.Load(); got != 2 {
			t.Errorf("expected 2 POST attempts, got %d", got)
		}
		if got := m.CSRF().Get(); got != "fresh" {
			t.Errorf("expected registry to hold fresh token, got %q", got)
		}
	})

	t.Run("concurrent csrf failures share one fetch", func(t *testing.T) {
		const requests = 5
		b := newBackend(t)
		var rejected atomic.Int32
		allRejected := make(chan struct{})

		b.handle("GET /api/users/csrf-token", func(w http.ResponseWriter, r *http.Request) {
			<-allRejected
			time.Sleep(100 * time.Millisecond)
			tu.WriteJSON(w, 200, map[string]string{"csrfToken": "fresh"})
		})
		b.handle("POST /api/lists", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(CSRFHeader) != "fresh" {
				tu.WriteJSON(w, 403, map[string]string{"message": "invalid csrf token"})
				if rejected.Add(1) == requests {
					close(allRejected)
				}
				return
			}
			tu.WriteJSON(w, 201, map[string]string{"_id": "l1", "name": "Groceries"})
		})

		m := b.manager(t, nil)
		m.CSRF().Set("stale")
		client := m.Client()

		var wg sync.WaitGroup
		statuses := make([]int, requests)
		for i := range statuses {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, _, err := doRequest(t, client, http.MethodPost, b.url("/lists"), []byte(`{"name":"Groceries"}`))
				if err != nil {
					t.Errorf("request %d failed: %v", i, err)
					return
				}
				statuses[i] = resp.StatusCode
			}()
		}
		wg.Wait()

		for i, status := range statuses {
			if status != 201 {
				t.Errorf("request %d: expected 201, got %d", i, status)
			}
		}
		if got := b.counter.Count(http.MethodGet, "/api/users/csrf-token"); got != 1 {
			t.Errorf("expected 1 shared csrf fetch, got %d", got)
		}
		if got := m.CSRF().Get(); got != "fresh" {
			t.Errorf("expected registry to hold fresh token, got %q", got)
		}
	})

	t.Run("csrf retry is bounded", func(t *testing.T) {
		b := newBackend(t)
		b.handle("GET /api/users/csrf-token", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 200, map[string]string{"csrfToken": "fresh"})
		})
		b.handle("POST /api/lists", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 403, map[string]string{"message": "Invalid CSRF Token"})
		})

		m := b.manager(t, nil)
		resp, body, err := doRequest(t, m.Client(), http.MethodPost, b.url("/lists"), []byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 403 {
			t.Errorf("expected the second 403 to surface, got %d", resp.StatusCode)
		}
		if !bytes.Contains(body, []byte("CSRF")) {
			t.Errorf("expected original body to be readable, got %q", body)
		}
		if got := b.counter.Count(http.MethodPost, "/api/lists"); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
		if got := b.counter.Count(http.MethodGet, "/api/users/csrf-token"); got != 1 {
			t.Errorf("expected 1 csrf fetch, got %d", got)
		}
	})

	t.Run("403 without csrf message passes through", func(t *testing.T) {
		b := newBackend(t)
		b.handle("DELETE /api/lists/l1", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 403, map[string]string{"message": "not your list"})
		})

		m := b.manager(t, nil)
		resp, _, err := doRequest(t, m.Client(), http.MethodDelete, b.url("/lists/l1"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 403 {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}
		if got := b.counter.Total(); got != 1 {
			t.Errorf("expected a single request, got %d", got)
		}
	})

	t.Run("csrf refetch failure is reported", func(t *testing.T) {
		b := newBackend(t)
		b.handle("GET /api/users/csrf-token", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 500, map[string]string{"message": "down"})
		})
		b.handle("POST /api/lists", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 403, map[string]string{"message": "invalid csrf token"})
		})

		m := b.manager(t, nil)
		_, _, err := doRequest(t, m.Client(), http.MethodPost, b.url("/lists"), []byte(`{}`))
		if !errors.Is(err, ErrCSRFFetch) {
			t.Errorf("expected ErrCSRFFetch, got %v", err)
		}
	})

	t.Run("401 refreshes and resends once", func(t *testing.T) {
		b := newBackend(t)
		b.handle("POST /api/users/refresh", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 200, map[string]string{"accessToken": "renewed"})
		})
		b.handle("PUT /api/items/i1", func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"checked":true}` {
				t.Errorf("unexpected body %q", body)
			}
			if r.Header.Get("Authorization") != "Bearer renewed" {
				tu.WriteJSON(w, 401, map[string]string{"message": "jwt expired"})
				return
			}
			tu.WriteJSON(w, 200, map[string]any{"_id": "i1", "checked": true})
		})

		m := b.manager(t, nil)
		m.Store().SetAccessToken("old")

		resp, _, err := doRequest(t, m.Client(), http.MethodPut, b.url("/items/i1"), []byte(`{"checked":true}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if got := b.counter.Count(http.MethodPut, "/api/items/i1"); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
	})

	t.Run("401 retry is bounded", func(t *testing.T) {
		b := newBackend(t)
		b.handle("POST /api/users/refresh", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 200, map[string]string{"accessToken": "renewed"})
		})
		b.handle("GET /api/lists", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 401, map[string]string{"message": "nope"})
		})

		m := b.manager(t, nil)
		resp, _, err := doRequest(t, m.Client(), http.MethodGet, b.url("/lists"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Errorf("expected the second 401 to surface, got %d", resp.StatusCode)
		}
		if got := b.counter.Count(http.MethodGet, "/api/lists"); got != 2 {
			t.Errorf("expected 2 attempts, got %d", got)
		}
		if got := b.counter.Count(http.MethodPost, "/api/users/refresh"); got != 1 {
			t.Errorf("expected 1 refresh, got %d", got)
		}
	})

	t.Run("credential exchange 401 is returned without refresh", func(t *testing.T) {
		b := newBackend(t)
		b.handle("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 401, map[string]string{"message": "Invalid email or password"})
		})

		m := b.manager(t, nil)
		req, err := http.NewRequestWithContext(WithoutRefresh(context.Background()), http.MethodPost, b.url("/users/login"), bytes.NewReader([]byte(`{}`)))
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		resp, err := m.Client().Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != 401 {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
		if got := b.counter.Count(http.MethodPost, "/api/users/refresh"); got != 0 {
			t.Errorf("expected no refresh, got %d", got)
		}
	})

	t.Run("refresh failure on 401 clears session and navigates", func(t *testing.T) {
		b := newBackend(t)
		b.handle("POST /api/users/refresh", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 401, map[string]string{"message": "refresh token expired"})
		})
		b.handle("GET /api/lists", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 401, map[string]string{"message": "nope"})
		})

		var navigated atomic.Bool
		m := b.manager(t, NavigatorFunc(func(error) { navigated.Store(true) }))
		m.Store().SetAccessToken("old")

		_, _, err := doRequest(t, m.Client(), http.MethodGet, b.url("/lists"), nil)
		if !errors.Is(err, ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
		if m.Authenticated() {
			t.Error("expected session to be cleared")
		}
		if !navigated.Load() {
			t.Error("expected navigator to fire")
		}
	})

	t.Run("refresh 500 rejects every waiting request", func(t *testing.T) {
		b := newBackend(t)
		b.handle("POST /api/users/refresh", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			tu.WriteJSON(w, 500, map[string]string{"message": "internal error"})
		})
		b.handle("GET /api/lists", func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request should be dispatched after a failed refresh")
		})

		var navigations atomic.Int32
		m := b.manager(t, NavigatorFunc(func(error) { navigations.Add(1) }))
		m.Store().SetAccessToken(tu.MintToken(t, "u1", time.Now().Add(-time.Minute)))
		client := m.Client()

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, errs[i] = doRequest(t, client, http.MethodGet, b.url("/lists"), nil)
			}()
		}
		wg.Wait()

		if _, ok := m.Store().AccessToken(); ok {
			t.Error("expected store to be cleared")
		}
		if got := navigations.Load(); got != 1 {
			t.Errorf("expected navigation once, got %d", got)
		}
		if got := b.counter.Count(http.MethodPost, "/api/users/refresh"); got != 1 {
			t.Errorf("expected 1 refresh, got %d", got)
		}

		var shared *RefreshError
		for i, err := range errs {
			var re *RefreshError
			if !errors.As(err, &re) {
				t.Fatalf("request %d: expected *RefreshError, got %v", i, err)
			}
			if shared == nil {
				shared = re
			}
			if re != shared {
				t.Errorf("request %d: expected the same underlying error", i)
			}
			if re.Status != 500 {
				t.Errorf("request %d: expected status 500, got %d", i, re.Status)
			}
		}
	})

	t.Run("csrf header only on state-changing methods", func(t *testing.T) {
		b := newBackend(t)
		seen := make(map[string]string)
		var mu sync.Mutex
		record := func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen[r.Method] = r.Header.Get(CSRFHeader)
			mu.Unlock()
			w.WriteHeader(204)
		}
		b.handle("/api/things", record)

		m := b.manager(t, nil)
		m.CSRF().Set("tok")
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead} {
			if _, _, err := doRequest(t, m.Client(), method, b.url("/things"), nil); err != nil {
				t.Fatalf("%s failed: %v", method, err)
			}
		}

		for method, want := range map[string]string{
			http.MethodGet: "", http.MethodHead: "",
			http.MethodPost: "tok", http.MethodPut: "tok", http.MethodPatch: "tok", http.MethodDelete: "tok",
		} {
			if seen[method] != want {
				t.Errorf("%s: expected csrf header %q, got %q", method, want, seen[method])
			}
		}
	})

	t.Run("bearer header only when a token is stored", func(t *testing.T) {
		b := newBackend(t)
		var auth atomic.Value
		b.handle("GET /api/lists", func(w http.ResponseWriter, r *http.Request) {
			auth.Store(r.Header.Get("Authorization"))
			tu.WriteJSON(w, 200, []any{})
		})

		m := b.manager(t, nil)
		doRequest(t, m.Client(), http.MethodGet, b.url("/lists"), nil)
		if got := auth.Load().(string); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}

		m.Store().SetAccessToken("abc")
		doRequest(t, m.Client(), http.MethodGet, b.url("/lists"), nil)
		if got := auth.Load().(string); got != "Bearer abc" {
			t.Errorf("expected bearer header, got %q", got)
		}
	})

	t.Run("csrf token in a successful body updates the registry", func(t *testing.T) {
		b := newBackend(t)
		b.handle("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 200, map[string]any{"user": map[string]string{"_id": "u1"}, "csrfToken": "issued"})
		})

		m := b.manager(t, nil)
		_, body, err := doRequest(t, m.Client(), http.MethodPost, b.url("/users/login"), []byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := m.CSRF().Get(); got != "issued" {
			t.Errorf("expected registry to capture token, got %q", got)
		}
		if !bytes.Contains(body, []byte(`"issued"`)) {
			t.Errorf("expected body to remain readable, got %q", body)
		}
	})

	t.Run("error responses pass through untouched", func(t *testing.T) {
		b := newBackend(t)
		b.handle("GET /api/lists/missing", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, 404, map[string]string{"message": "List not found"})
		})

		m := b.manager(t, nil)
		resp, body, err := doRequest(t, m.Client(), http.MethodGet, b.url("/lists/missing"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 404 || !bytes.Contains(body, []byte("List not found")) {
			t.Errorf("expected untouched 404, got %d %q", resp.StatusCode, body)
		}
	})
}
