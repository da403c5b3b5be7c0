package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/repositories"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/session"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/desertthunder/cartx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	session *session.Manager
	api     *services.APIService
	users   *services.UserService
	lists   services.Lists
	items   *services.ItemService
	cache   *repositories.ListRepository
	logger  *log.Logger
	output  io.Writer
	engine  *tasks.ListEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Session *session.Manager
	API     *services.APIService
	Users   *services.UserService
	Lists   services.Lists
	Items   *services.ItemService
	Cache   *repositories.ListRepository
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	var (
		items services.Items
		cache tasks.Cache
	)
	if opts.Items != nil {
		items = opts.Items
	}
	if opts.Cache != nil {
		cache = opts.Cache
	}
	engine := tasks.NewListEngine(opts.Lists, items, cache, opts.Logger)

	return &Runner{
		config:  opts.Config,
		session: opts.Session,
		api:     opts.API,
		users:   opts.Users,
		lists:   opts.Lists,
		items:   opts.Items,
		cache:   opts.Cache,
		logger:  opts.Logger,
		output:  opts.Output,
		engine:  engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, listsCommand, itemsCommand, apiCommand, cacheCommand, exportCommand,
		serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// connect runs the session bootstrap: CSRF token and a silent refresh from the stored cookie. Failures only mean
// the session starts signed out.
func (r *Runner) connect(ctx context.Context) (session.BootstrapResult, error) {
	if r.session == nil {
		return session.BootstrapResult{}, fmt.Errorf("%w: session not initialized", shared.ErrServiceUnavailable)
	}
	return r.session.Bootstrap(ctx), nil
}

// requireAuth connects and fails with [shared.ErrNotAuthenticated] when no session could be restored.
func (r *Runner) requireAuth(ctx context.Context) error {
	if _, err := r.connect(ctx); err != nil {
		return err
	}
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run 'cartx auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// cliNavigator is the navigator of command-line sessions. Before the ready signal a failed refresh only means
// there was no session to restore; after it the user is told to sign in again. The hint is printed once.
func cliNavigator(ready func() <-chan struct{}, logger *log.Logger) session.Navigator {
	var once sync.Once
	return session.NavigatorFunc(func(err error) {
		select {
		case <-ready():
			once.Do(func() {
				logger.Warn("session expired, run 'cartx auth login' to sign in again", "error", err)
			})
		default:
			logger.Debug("no session to restore", "error", err)
		}
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
