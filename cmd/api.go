package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a GET request through the session pipeline
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	return r.apiCall(ctx, cmd, http.MethodGet, nil)
}

// APIPost makes a POST request with the --data JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	data, err := jsonBody(cmd)
	if err != nil {
		return err
	}
	return r.apiCall(ctx, cmd, http.MethodPost, data)
}

// APIPut makes a PUT request with the --data JSON body
func (r *Runner) APIPut(ctx context.Context, cmd *cli.Command) error {
	data, err := jsonBody(cmd)
	if err != nil {
		return err
	}
	return r.apiCall(ctx, cmd, http.MethodPut, data)
}

// APIDelete makes a DELETE request
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	return r.apiCall(ctx, cmd, http.MethodDelete, nil)
}

func jsonBody(cmd *cli.Command) ([]byte, error) {
	data := cmd.String("data")
	if data == "" {
		return nil, fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return nil, fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}
	return []byte(data), nil
}

func (r *Runner) apiCall(ctx context.Context, cmd *cli.Command, method string, data []byte) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	if r.api == nil {
		return fmt.Errorf("%w: API service not initialized", shared.ErrServiceUnavailable)
	}
	if _, err := r.connect(ctx); err != nil {
		return err
	}

	r.logger.Info(method+" request", "path", path)

	var resp *services.APIResponse
	switch method {
	case http.MethodGet:
		resp, err = r.api.Get(ctx, path)
	case http.MethodPost:
		resp, err = r.api.Post(ctx, path, data)
	case http.MethodPut:
		resp, err = r.api.Put(ctx, path, data)
	case http.MethodDelete:
		resp, err = r.api.Delete(ctx, path)
	default:
		return fmt.Errorf("%w: method %s", shared.ErrInvalidArgument, method)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	if len(resp.Body) == 0 {
		return r.writePlain("✓ %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
