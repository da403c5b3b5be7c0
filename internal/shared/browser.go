package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the command that opens target with the platform's default handler.
func browserCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(target string) error {
	cmd, err := browserCommand(getRuntime(), target)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// JoinLink builds the web link other users follow to join a shared list.
//
// The web app is served from the same origin as the API, so only scheme and host of apiBase are kept.
func JoinLink(apiBase, listID string) (string, error) {
	if listID == "" {
		return "", fmt.Errorf("%w: list id", ErrMissingArgument)
	}

	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: api base url %q", ErrInvalidConfig, apiBase)
	}

	link := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/list/join/" + listID}
	return link.String(), nil
}
