package session

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/models"
)

// CookieStore persists cookies between runs.
type CookieStore interface {
	AllCookies(ctx context.Context) ([]models.Cookie, error)
	SaveCookie(ctx context.Context, c models.Cookie) error
	DeleteCookie(ctx context.Context, host, name, path string) error
	ClearCookies(ctx context.Context) error
}

// PersistentJar is an [http.CookieJar] that mirrors every cookie it accepts into a [CookieStore], so the refresh
// cookie set by the backend survives the process. With a nil store it behaves like a plain in-memory jar.
type PersistentJar struct {
	mu     sync.RWMutex
	jar    *cookiejar.Jar
	store  CookieStore
	logger *log.Logger
	now    func() time.Time
}

// NewJar creates a jar and loads the unexpired cookies of store into it. Expired cookies are removed from store.
func NewJar(store CookieStore, logger *log.Logger) (*PersistentJar, error) {
	if logger == nil {
		logger = log.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &PersistentJar{jar: jar, store: store, logger: logger, now: time.Now}
	if store == nil {
		return j, nil
	}

	ctx := context.Background()
	cookies, err := store.AllCookies(ctx)
	if err != nil {
		return nil, err
	}

	now := j.now()
	for _, c := range cookies {
		if c.Expired(now) {
			if err := store.DeleteCookie(ctx, c.Host, c.Name, c.Path); err != nil {
				logger.Warn("failed to delete expired cookie", "name", c.Name, "error", err)
			}
			continue
		}
		jar.SetCookies(cookieURL(c), []*http.Cookie{toHTTPCookie(c)})
	}
	logger.Debug("cookies loaded", "count", len(cookies))
	return j, nil
}

// Cookies implements [http.CookieJar].
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// SetCookies implements [http.CookieJar]. Storage failures are logged; the in-memory jar is always updated.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	j.jar.SetCookies(u, cookies)
	j.mu.RUnlock()

	if j.store == nil {
		return
	}

	ctx := context.Background()
	now := j.now()
	for _, hc := range cookies {
		c := fromHTTPCookie(u, hc, now)
		if c.Expired(now) {
			if err := j.store.DeleteCookie(ctx, c.Host, c.Name, c.Path); err != nil {
				j.logger.Warn("failed to delete cookie", "name", c.Name, "error", err)
			}
			continue
		}
		if err := j.store.SaveCookie(ctx, c); err != nil {
			j.logger.Warn("failed to persist cookie", "name", c.Name, "error", err)
		}
	}
}

// Clear drops every cookie from memory and from the store.
func (j *PersistentJar) Clear(ctx context.Context) error {
	fresh, err := cookiejar.New(nil)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.jar = fresh
	j.mu.Unlock()

	if j.store == nil {
		return nil
	}
	return j.store.ClearCookies(ctx)
}

func fromHTTPCookie(u *url.URL, hc *http.Cookie, now time.Time) models.Cookie {
	host := u.Hostname()
	if hc.Domain != "" {
		host = strings.TrimPrefix(hc.Domain, ".")
	}

	c := models.Cookie{
		Host:      strings.ToLower(host),
		Name:      hc.Name,
		Value:     hc.Value,
		Path:      hc.Path,
		Secure:    hc.Secure,
		HTTPOnly:  hc.HttpOnly,
		UpdatedAt: now,
	}
	if c.Path == "" || !strings.HasPrefix(c.Path, "/") {
		c.Path = defaultPath(u.Path)
	}

	switch {
	case hc.MaxAge < 0:
		c.ExpiresAt = now
	case hc.MaxAge > 0:
		c.ExpiresAt = now.Add(time.Duration(hc.MaxAge) * time.Second)
	case !hc.Expires.IsZero():
		c.ExpiresAt = hc.Expires
	}
	return c
}

// defaultPath is the cookie default-path of RFC 6265 section 5.1.4.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func toHTTPCookie(c models.Cookie) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Expires:  c.ExpiresAt,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
}

func cookieURL(c models.Cookie) *url.URL {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: c.Host, Path: c.Path}
}
