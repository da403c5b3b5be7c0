package main

import (
	"context"

	"github.com/desertthunder/cartx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the development backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me" {
		r.logger.Warn("server.jwt_secret is unset or the example value, tokens are forgeable")
	}

	srv := server.FromConfig(cfg, r.logger)
	r.writePlain("Serving on http://%s (API under /api)\n", cfg.Addr())
	return srv.ListenAndServe(ctx, cfg.Addr())
}
