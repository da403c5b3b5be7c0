package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	// SkipHeader marks a request that must bypass the pipeline. It is removed before the request is sent.
	SkipHeader = "X-Skip-Interceptor"
	// CSRFHeader carries the anti-forgery token on state-changing requests.
	CSRFHeader = "x-csrf-token"
)

type noRefreshKey struct{}

// WithoutRefresh marks requests made with ctx as credential exchanges. A 401 answer to such a request is returned to
// the caller instead of starting a token refresh.
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRefreshKey{}, true)
}

func refreshAllowed(ctx context.Context) bool {
	skip, _ := ctx.Value(noRefreshKey{}).(bool)
	return !skip
}

// tokenRefresher is satisfied by [*Refresher].
type tokenRefresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Transport is the interception pipeline. See the package documentation for the order of operations.
type Transport struct {
	base      http.RoundTripper
	store     *Store
	csrf      *CSRFRegistry
	refresher tokenRefresher
	fetchCSRF func(ctx context.Context) (string, error)
	jar       http.CookieJar
	logger    *log.Logger

	csrfMu     sync.Mutex
	csrfFlight *flight
}

// attempt is one logical request and the retry state that travels with it.
type attempt struct {
	req     *http.Request
	body    func() (io.ReadCloser, error)
	retried bool
}

func (t *Transport) transport() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(SkipHeader) != "" {
		out := req.Clone(req.Context())
		out.Header.Del(SkipHeader)
		return t.transport().RoundTrip(out)
	}

	body, err := replayable(req)
	if err != nil {
		return nil, err
	}
	return t.do(&attempt{req: req, body: body})
}

// replayable returns a function that yields a fresh copy of the request body for every send.
func replayable(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func (t *Transport) do(a *attempt) (*http.Response, error) {
	ctx := a.req.Context()

	out, err := t.prepare(ctx, a)
	if err != nil {
		return nil, err
	}

	resp, err := t.transport().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		t.capture(resp)
		return resp, nil
	case a.retried:
		return resp, nil
	case resp.StatusCode == http.StatusForbidden && isCSRFFailure(resp):
		drain(resp)
		t.logger.Debug("csrf token rejected, fetching a new one", "method", out.Method, "url", out.URL.Redacted())

		if _, err := t.recoverCSRF(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCSRFFetch, err)
		}
		return t.do(&attempt{req: a.req, body: a.body, retried: true})
	case resp.StatusCode == http.StatusUnauthorized && refreshAllowed(ctx):
		drain(resp)
		t.logger.Debug("request unauthorized, refreshing access token", "method", out.Method, "url", out.URL.Redacted())

		if _, err := t.refresher.RefreshAccessToken(ctx); err != nil {
			return nil, err
		}
		return t.do(&attempt{req: a.req, body: a.body, retried: true})
	default:
		return resp, nil
	}
}

// recoverCSRF fetches a new CSRF token into the registry. Requests rejected at the same time share one fetch.
func (t *Transport) recoverCSRF(ctx context.Context) (string, error) {
	t.csrfMu.Lock()
	f := t.csrfFlight
	leader := f == nil
	if leader {
		f = newFlight()
		t.csrfFlight = f
	}
	t.csrfMu.Unlock()

	if leader {
		go func() {
			fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultRefreshTimeout)
			defer cancel()

			token, err := t.fetchCSRF(fetchCtx)
			if err == nil {
				t.csrf.Set(token)
			}

			t.csrfMu.Lock()
			t.csrfFlight = nil
			t.csrfMu.Unlock()
			f.finish(token, err)
		}()
	} else {
		t.logger.Debug("joining csrf fetch in flight")
	}
	return f.wait(ctx)
}

// prepare builds the outgoing request: CSRF header, staleness refresh, then bearer header.
func (t *Transport) prepare(ctx context.Context, a *attempt) (*http.Request, error) {
	out := a.req.Clone(ctx)
	if a.body != nil {
		body, err := a.body()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		out.Body = body
	}

	if a.retried {
		t.reloadCookies(out)
	}

	if isStateChanging(out.Method) {
		if token := t.csrf.Get(); token != "" {
			out.Header.Set(CSRFHeader, token)
		}
	}

	if t.store.IsTokenExpired() {
		t.logger.Debug("access token expired, refreshing before send")
		if _, err := t.refresher.RefreshAccessToken(ctx); err != nil {
			if out.Body != nil {
				out.Body.Close()
			}
			return nil, err
		}
	}

	t.store.authorize(out)
	return out, nil
}

// reloadCookies replaces the Cookie header of a resent request so cookies set during recovery are sent.
func (t *Transport) reloadCookies(req *http.Request) {
	if t.jar == nil {
		return
	}
	req.Header.Del("Cookie")
	for _, c := range t.jar.Cookies(req.URL) {
		req.AddCookie(c)
	}
}

// capture records a csrfToken found in a successful JSON response.
func (t *Transport) capture(resp *http.Response) {
	if !isJSON(resp.Header) {
		return
	}

	data, err := peekBody(resp)
	if err != nil {
		return
	}
	if p, ok := decodePayload(data); ok && p.CSRFToken != "" {
		t.csrf.Set(p.CSRFToken)
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// isCSRFFailure reports whether a 403 response blames the CSRF token.
func isCSRFFailure(resp *http.Response) bool {
	data, err := peekBody(resp)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(messageFrom(data)), "csrf")
}
