package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultRefreshTimeout bounds a refresh exchange when no timeout is configured.
const DefaultRefreshTimeout = 10 * time.Second

var errRefreshAborted = errors.New("refresh aborted")

// Navigator is told when the session can no longer be authenticated, so the caller can route the user back to a
// sign-in entry point.
type Navigator interface {
	Unauthenticated(err error)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(err error)

func (f NavigatorFunc) Unauthenticated(err error) { f(err) }

// Sender dispatches a request that bypasses the interception pipeline.
type Sender func(*http.Request) (*http.Response, error)

// Refresher exchanges the refresh cookie for a new access token.
//
// Concurrent calls to [Refresher.RefreshAccessToken] share a single exchange and receive the same result.
type Refresher struct {
	store     *Store
	csrf      *CSRFRegistry
	send      Sender
	url       string
	timeout   time.Duration
	navigator Navigator
	logger    *log.Logger
}

// RefresherOpts configures a [Refresher]. Store, CSRF, Send and URL are required.
type RefresherOpts struct {
	Store     *Store
	CSRF      *CSRFRegistry
	Send      Sender
	URL       string
	Timeout   time.Duration
	Navigator Navigator
	Logger    *log.Logger
}

// NewRefresher creates a Refresher.
func NewRefresher(opts RefresherOpts) *Refresher {
	r := &Refresher{
		store:     opts.Store,
		csrf:      opts.CSRF,
		send:      opts.Send,
		url:       opts.URL,
		timeout:   opts.Timeout,
		navigator: opts.Navigator,
		logger:    opts.Logger,
	}

	if r.csrf == nil {
		r.csrf = &CSRFRegistry{}
	}
	if r.timeout <= 0 {
		r.timeout = DefaultRefreshTimeout
	}
	if r.navigator == nil {
		r.navigator = NavigatorFunc(func(error) {})
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// RefreshAccessToken returns a fresh access token, joining the refresh already in flight when there is one.
//
// On failure the stored credential is cleared and the navigator is notified, unless the session was cleared while the
// exchange ran. Every caller sharing the flight gets the same error, which matches [ErrRefreshFailed]. A caller whose ctx ends first returns ctx.Err() and the shared
// refresh carries on.
func (r *Refresher) RefreshAccessToken(ctx context.Context) (string, error) {
	f, leader := r.store.acquire()
	if leader {
		go r.run(context.WithoutCancel(ctx), f)
	} else {
		r.logger.Debug("joining refresh in flight")
	}
	return f.wait(ctx)
}

func (r *Refresher) run(ctx context.Context, f *flight) {
	var token string
	err := error(&RefreshError{Err: errRefreshAborted})

	defer func() {
		current := r.store.settle(f, token, err)
		switch {
		case !current:
			r.logger.Debug("discarding superseded refresh", "error", err)
		case err != nil:
			r.logger.Error("token refresh failed", "error", err)
			r.navigator.Unauthenticated(err)
		default:
			r.logger.Debug("access token refreshed")
		}
		f.finish(token, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	token, err = r.exchange(ctx)
}

func (r *Refresher) exchange(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, nil)
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	req.Header.Set(SkipHeader, "true")
	req.Header.Set("Accept", "application/json")
	if token := r.csrf.Get(); token != "" {
		req.Header.Set(CSRFHeader, token)
	}

	resp, err := r.send(req)
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPeekBytes))
	if err != nil {
		return "", &RefreshError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RefreshError{Status: resp.StatusCode, Message: messageFrom(data)}
	}

	payload, ok := decodePayload(data)
	if !ok {
		return "", &RefreshError{Status: resp.StatusCode, Message: "malformed refresh response"}
	}
	if payload.AccessToken == "" {
		return "", &RefreshError{Status: resp.StatusCode, Message: "refresh response carried no access token"}
	}
	if payload.CSRFToken != "" {
		r.csrf.Set(payload.CSRFToken)
	}
	return payload.AccessToken, nil
}
