package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/urfave/cli/v3"
)

// authStatus is the --json shape of [Runner.AuthStatus].
type authStatus struct {
	BaseURL       string     `json:"base_url"`
	CSRF          bool       `json:"csrf"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func credentialsFrom(cmd *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{Email: cmd.String("email"), Password: cmd.String("password")}
	if creds.Password == "" {
		return creds, fmt.Errorf("%w: --password or CARTX_PASSWORD is required", shared.ErrMissingArgument)
	}
	return creds, nil
}

// AuthLogin signs in. The refresh cookie the backend sets is what later invocations restore the session from.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	return r.authenticate(ctx, cmd, false)
}

// AuthSignup creates an account and signs in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	return r.authenticate(ctx, cmd, true)
}

func (r *Runner) authenticate(ctx context.Context, cmd *cli.Command, signup bool) error {
	creds, err := credentialsFrom(cmd)
	if err != nil {
		return err
	}
	if r.users == nil {
		return fmt.Errorf("%w: user service not initialized", shared.ErrServiceUnavailable)
	}
	if _, err := r.connect(ctx); err != nil {
		return err
	}

	login := r.users.Login
	if signup {
		login = r.users.Signup
	}

	user, err := login(ctx, creds)
	if err != nil {
		return err
	}

	if signup {
		return r.writePlain("✓ Account created, signed in as %s\n", user.Email)
	}
	return r.writePlain("✓ Signed in as %s\n", user.Email)
}

// AuthLogout ends the session on the server and clears local credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.users == nil {
		return fmt.Errorf("%w: user service not initialized", shared.ErrServiceUnavailable)
	}
	if _, err := r.connect(ctx); err != nil {
		return err
	}

	if err := r.users.Logout(ctx); err != nil {
		r.writePlain("Local session cleared\n")
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus bootstraps the session and reports what it restored.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	result, err := r.connect(ctx)
	if err != nil {
		return err
	}

	status := authStatus{
		BaseURL:       r.session.BaseURL(),
		CSRF:          result.CSRF,
		Authenticated: r.session.Authenticated(),
	}
	if exp, ok := r.session.Store().Expiry(); ok && status.Authenticated {
		status.ExpiresAt = &exp
	}
	if result.CSRFErr != nil {
		status.Error = result.CSRFErr.Error()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("Backend: %s\n", status.BaseURL)
	if status.CSRF {
		r.writePlain("CSRF: ✓ token fetched\n")
	} else {
		r.writePlain("CSRF: ✗ %s\n", status.Error)
	}
	if !status.Authenticated {
		return r.writePlain("Authentication: ✗ Not authenticated\n")
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	if status.ExpiresAt != nil {
		r.writePlain("Access token expires: %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}
