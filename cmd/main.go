package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/repositories"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/session"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("CARTX_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.LoadOrDefault(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
	}

	var (
		jar   http.CookieJar
		cache *repositories.ListRepository
	)
	if db, err := shared.OpenMigrated(config.Database); err != nil {
		logger.Warn("local database unavailable, cache and cookie persistence disabled", "error", err)
	} else {
		defer db.Close()
		cache = repositories.NewListRepository(db)

		if config.Session.PersistCookies {
			if j, err := session.NewJar(repositories.NewCookieRepository(db), logger); err != nil {
				logger.Warn("failed to load stored cookies", "error", err)
			} else {
				jar = j
			}
		}
	}

	manager, err := session.NewManager(session.Options{
		BaseURL:        config.API.BaseURL,
		CSRFPath:       config.API.CSRFPath,
		RefreshPath:    config.API.RefreshPath,
		Timeout:        config.API.Timeout,
		Jar:            jar,
		RefreshTimeout: config.Session.RefreshTimeout,
		ExpiryLeeway:   config.Session.ExpiryLeeway,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatalf("failed to create session: %v", err)
	}
	manager.SetNavigator(cliNavigator(manager.Ready, logger))

	apiService := services.NewAPIService(config.API.BaseURL, manager.Client(), logger)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Session: manager,
		API:     apiService,
		Users:   services.NewUserService(apiService, manager, logger),
		Lists:   services.NewListService(apiService),
		Items:   services.NewItemService(apiService),
		Cache:   cache,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:    "cartx",
		Usage:   "Shopping lists from the terminal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		logger.Fatalf("application error: %v", err)
	}
}
