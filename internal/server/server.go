// package server contains the router, middleware and handlers of the development backend
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CSRF checks, panic recovery, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const (
	refreshCookie = "refreshToken"
	csrfCookie    = "_csrf"
	csrfHeader    = "x-csrf-token"
	csrfAudience  = "csrf"
	apiPrefix     = "/api"
)

// Options configures a [Server].
type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost defaults to [bcrypt.DefaultCost].
	BcryptCost int
	Logger     *log.Logger
	Clock      func() time.Time
}

// Server is the development backend.
type Server struct {
	router     Router
	data       *store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int
	logger     *log.Logger
	now        func() time.Time
}

// New builds a Server with all routes registered.
func New(opts Options) *Server {
	s := &Server{
		data:       newStore(),
		secret:     opts.Secret,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		cost:       opts.BcryptCost,
		logger:     opts.Logger,
		now:        opts.Clock,
	}

	if len(s.secret) == 0 {
		s.secret = []byte(shared.GenerateID())
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 15 * time.Minute
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 7 * 24 * time.Hour
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.router = s.routes()
	return s
}

// FromConfig builds a Server from the [server] config section.
func FromConfig(cfg shared.ServerConfig, logger *log.Logger) *Server {
	return New(Options{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		Logger:     logger,
	})
}

func (s *Server) routes() Router {
	r := NewMuxRouter()
	r.Use(s.recoverer, s.requestLogger, s.csrfProtect)

	r.Handle(http.MethodGet, apiPrefix+"/users/csrf-token", s.CSRFToken())
	r.Handle(http.MethodPost, apiPrefix+"/users/signup", s.Signup())
	r.Handle(http.MethodPost, apiPrefix+"/users/login", s.Login())
	r.Handle(http.MethodPost, apiPrefix+"/users/refresh", s.Refresh())
	r.Handle(http.MethodPost, apiPrefix+"/users/logout", s.Logout())

	r.Handle(http.MethodGet, apiPrefix+"/lists", s.requireAuth(s.AllLists()))
	r.Handle(http.MethodPost, apiPrefix+"/lists", s.requireAuth(s.CreateList()))
	r.Handle(http.MethodGet, apiPrefix+"/lists/{id}", s.requireAuth(s.GetList()))
	r.Handle(http.MethodDelete, apiPrefix+"/lists/{id}", s.requireAuth(s.DeleteList()))

	r.Handle(http.MethodPost, apiPrefix+"/items", s.requireAuth(s.CreateItem()))
	r.Handle(http.MethodGet, apiPrefix+"/items/all/{listId}", s.requireAuth(s.ListItems()))
	r.Handle(http.MethodPut, apiPrefix+"/items/{id}", s.requireAuth(s.UpdateItem()))
	r.Handle(http.MethodDelete, apiPrefix+"/items/{id}", s.requireAuth(s.DeleteItem()))

	r.Handler(NewJoinHandler())
	return r
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("development backend listening", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down development backend")
		return srv.Shutdown(shutdownCtx)
	}
}
