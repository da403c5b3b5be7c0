package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a [Manager].
type Options struct {
	// BaseURL is the API root, e.g. "http://localhost:3030/api".
	BaseURL string

	// CSRFPath and RefreshPath are joined to BaseURL. Defaults are "/users/csrf-token" and "/users/refresh".
	CSRFPath    string
	RefreshPath string

	// Client is the client the pipeline is installed into. A new client with Timeout is created when nil.
	Client  *http.Client
	Timeout time.Duration

	// Jar, when set, replaces the client's cookie jar. Without either, an in-memory jar is created.
	Jar http.CookieJar

	RefreshTimeout time.Duration
	ExpiryLeeway   time.Duration
	Navigator      Navigator
	Logger         *log.Logger
	Clock          func() time.Time
}

// BootstrapResult reports what [Manager.Bootstrap] achieved. Neither failure prevents the ready signal.
type BootstrapResult struct {
	CSRF          bool
	Authenticated bool
	CSRFErr       error
	RefreshErr    error
}

// Manager is the session context: one credential store, one CSRF registry and one refresher bound to one client.
type Manager struct {
	baseURL    string
	csrfURL    string
	client     *http.Client
	store      *Store
	csrf       *CSRFRegistry
	refresher  *Refresher
	navigator  *navigatorSlot
	logger     *log.Logger
	transport  *Transport
	installMu  sync.Mutex
	installed  bool
	bootOnce   sync.Once
	ready      chan struct{}
	bootResult BootstrapResult
}

// navigatorSlot lets the navigator be swapped after the refresher is built.
type navigatorSlot struct {
	mu sync.RWMutex
	n  Navigator
}

func (s *navigatorSlot) Unauthenticated(err error) {
	s.mu.RLock()
	n := s.n
	s.mu.RUnlock()
	if n != nil {
		n.Unauthenticated(err)
	}
}

// NewManager validates opts and builds a Manager. The pipeline is not installed until [Manager.Install] or
// [Manager.Bootstrap] runs.
func NewManager(opts Options) (*Manager, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	baseURL := strings.TrimRight(base.String(), "/")

	if opts.CSRFPath == "" {
		opts.CSRFPath = "/users/csrf-token"
	}
	if opts.RefreshPath == "" {
		opts.RefreshPath = "/users/refresh"
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Jar != nil {
		client.Jar = opts.Jar
	}
	if client.Jar == nil {
		jar, err := NewJar(nil, logger)
		if err != nil {
			return nil, err
		}
		client.Jar = jar
	}

	m := &Manager{
		baseURL:   baseURL,
		csrfURL:   join(baseURL, opts.CSRFPath),
		client:    client,
		store:     NewStore(WithLeeway(opts.ExpiryLeeway), WithClock(opts.Clock)),
		csrf:      &CSRFRegistry{},
		navigator: &navigatorSlot{n: opts.Navigator},
		logger:    logger,
		ready:     make(chan struct{}),
	}

	m.refresher = NewRefresher(RefresherOpts{
		Store:     m.store,
		CSRF:      m.csrf,
		Send:      m.sendDirect,
		URL:       join(baseURL, opts.RefreshPath),
		Timeout:   opts.RefreshTimeout,
		Navigator: m.navigator,
		Logger:    logger,
	})
	return m, nil
}

func join(base, path string) string {
	return base + "/" + strings.TrimLeft(path, "/")
}

func (m *Manager) BaseURL() string       { return m.baseURL }
func (m *Manager) Store() *Store         { return m.store }
func (m *Manager) CSRF() *CSRFRegistry   { return m.csrf }
func (m *Manager) Refresher() *Refresher { return m.refresher }

// Ready is closed once [Manager.Bootstrap] has finished, whatever its outcome.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Authenticated reports whether an access token is stored.
func (m *Manager) Authenticated() bool {
	_, ok := m.store.AccessToken()
	return ok
}

// SetNavigator replaces the hook notified when a refresh fails.
func (m *Manager) SetNavigator(n Navigator) {
	m.navigator.mu.Lock()
	m.navigator.n = n
	m.navigator.mu.Unlock()
}

// Client returns the client the pipeline is installed into, installing it first if needed.
func (m *Manager) Client() *http.Client {
	m.Install()
	return m.client
}

// Install wraps the client's transport with the pipeline. Only the first call has an effect, and a transport that
// is already a pipeline is never wrapped again. It reports whether this call installed the pipeline.
func (m *Manager) Install() bool {
	m.installMu.Lock()
	defer m.installMu.Unlock()

	if m.installed {
		return false
	}
	m.installed = true

	if existing, ok := m.client.Transport.(*Transport); ok {
		m.transport = existing
		m.logger.Debug("pipeline already present on client")
		return false
	}

	m.transport = &Transport{
		base:      m.client.Transport,
		store:     m.store,
		csrf:      m.csrf,
		refresher: m.refresher,
		fetchCSRF: m.FetchCSRFToken,
		jar:       m.client.Jar,
		logger:    m.logger,
	}
	m.client.Transport = m.transport
	m.logger.Debug("request pipeline installed", "base_url", m.baseURL)
	return true
}

// sendDirect sends req through the client with the skip marker so the pipeline leaves it untouched while the
// cookie jar still applies.
func (m *Manager) sendDirect(req *http.Request) (*http.Response, error) {
	m.Install()
	req.Header.Set(SkipHeader, "true")
	return m.client.Do(req)
}

// FetchCSRFToken requests a new CSRF token from the backend, bypassing the pipeline. It does not update the
// registry.
func (m *Manager) FetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.csrfURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.sendDirect(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPeekBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("csrf endpoint returned %d: %s", resp.StatusCode, messageFrom(data))
	}

	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("malformed csrf response: %w", err)
	}
	if payload.CSRFToken == "" {
		return "", errors.New("csrf response carried no token")
	}
	return payload.CSRFToken, nil
}

// RefreshAccessToken delegates to the shared [Refresher].
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	return m.refresher.RefreshAccessToken(ctx)
}

// Bootstrap runs the startup sequence once per Manager: install the pipeline, fetch a CSRF token, attempt a silent
// refresh, then close [Manager.Ready]. Failures of the fetch and the refresh are logged and reported in the result
// but never keep the ready signal from firing. Later calls wait for the first and return its result.
func (m *Manager) Bootstrap(ctx context.Context) BootstrapResult {
	m.bootOnce.Do(func() {
		defer close(m.ready)

		m.Install()

		token, err := m.FetchCSRFToken(ctx)
		if err != nil {
			m.bootResult.CSRFErr = err
			m.logger.Warn("failed to fetch csrf token", "error", err)
		} else {
			m.csrf.Set(token)
			m.bootResult.CSRF = true
		}

		if _, err := m.refresher.RefreshAccessToken(ctx); err != nil {
			m.bootResult.RefreshErr = err
			m.logger.Warn("no active session, continuing signed out", "error", err)
		} else {
			m.bootResult.Authenticated = true
		}

		m.logger.Info("session ready", "authenticated", m.bootResult.Authenticated)
	})
	return m.bootResult
}

// SignOut drops the access token and every stored cookie, including the refresh cookie.
func (m *Manager) SignOut(ctx context.Context) error {
	m.store.ClearTokens()

	if jar, ok := m.client.Jar.(interface{ Clear(context.Context) error }); ok {
		return jar.Clear(ctx)
	}
	return nil
}
