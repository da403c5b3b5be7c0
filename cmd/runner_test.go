package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cartx/internal/models"
	"github.com/desertthunder/cartx/internal/repositories"
	"github.com/desertthunder/cartx/internal/server"
	"github.com/desertthunder/cartx/internal/services"
	"github.com/desertthunder/cartx/internal/session"
	"github.com/desertthunder/cartx/internal/shared"
	tu "github.com/desertthunder/cartx/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

// harness wires a Runner to a development backend the way main does, with an in-memory cache.
type harness struct {
	t      *testing.T
	runner *Runner
	out    *bytes.Buffer
	base   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := shared.DiscardLogger()
	srv := httptest.NewServer(server.New(server.Options{
		Secret:     []byte("cmd-test-secret"),
		BcryptCost: bcrypt.MinCost,
		Logger:     logger,
	}))
	t.Cleanup(srv.Close)
	base := srv.URL + "/api"

	manager, err := session.NewManager(session.Options{BaseURL: base, Logger: logger})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	db, err := shared.OpenMigrated(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.API.BaseURL = base

	api := services.NewAPIService(base, manager.Client(), logger)
	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Session: manager,
		API:     api,
		Users:   services.NewUserService(api, manager, logger),
		Lists:   services.NewListService(api),
		Items:   services.NewItemService(api),
		Cache:   repositories.NewListRepository(db),
		Logger:  logger,
		Output:  out,
	})

	return &harness{t: t, runner: runner, out: out, base: base}
}

// run executes one command line and returns what it printed.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()

	h.out.Reset()
	app := &cli.Command{
		Name:      "cartx",
		Commands:  h.runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	err := app.Run(context.Background(), append([]string{"cartx"}, args...))
	return h.out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()

	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%s: expected no error, got %v", strings.Join(args, " "), err)
	}
	return out
}

func (h *harness) signup() {
	h.t.Helper()
	h.t.Setenv("CARTX_PASSWORD", "hunter22")
	h.mustRun("auth", "signup", "--email", "shopper@example.com")
}

func (h *harness) createList(name string) models.List {
	h.t.Helper()

	h.mustRun("lists", "create", name)
	lists, err := h.runner.lists.All(context.Background())
	if err != nil {
		h.t.Fatalf("failed to fetch lists: %v", err)
	}
	for _, l := range lists {
		if l.Name == name {
			return l
		}
	}
	h.t.Fatalf("list %q was not created", name)
	return models.List{}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			api := services.NewAPIService("http://localhost/api", nil, logger)
			lists := services.NewListService(api)
			items := services.NewItemService(api)

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				API:    api,
				Lists:  lists,
				Items:  items,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.items != items {
				t.Error("expected items to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("without session commands report unavailable", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.requireAuth(context.Background())
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "lists", "items", "api", "cache", "export", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestCLINavigator(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	ready := make(chan struct{})
	nav := cliNavigator(func() <-chan struct{} { return ready }, logger)

	nav.Unauthenticated(errors.New("no cookie"))
	if strings.Contains(buf.String(), "auth login") {
		t.Errorf("expected no re-login hint before ready, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "no session to restore") {
		t.Errorf("expected debug entry before ready, got %q", buf.String())
	}

	close(ready)
	buf.Reset()
	nav.Unauthenticated(errors.New("expired"))
	nav.Unauthenticated(errors.New("expired again"))

	if n := strings.Count(buf.String(), "auth login"); n != 1 {
		t.Errorf("expected exactly one re-login hint, got %d in %q", n, buf.String())
	}
}

func TestSetupCommands(t *testing.T) {
	wd := tu.MustGetwd(t)
	dir := t.TempDir()
	tu.MustChdir(t, dir)
	t.Cleanup(func() { os.Chdir(wd) })

	runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.DiscardLogger()})
	run := func(args ...string) error {
		app := &cli.Command{Name: "cartx", Commands: runner.register(), Writer: io.Discard, ErrWriter: io.Discard}
		return app.Run(context.Background(), append([]string{"cartx"}, args...))
	}

	t.Run("config writes the template once", func(t *testing.T) {
		path := filepath.Join(dir, "custom.toml")

		if err := run("setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected written config to load, got %v", err)
		}

		if err := run("setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database creates config and migrates", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")

		if err := run("setup", "database", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		tu.AssertFileExists(t, filepath.Join(dir, "cartx.db"))

		if err := run("setup", "database", "--config", path, "--rollback"); err != nil {
			t.Errorf("expected rollback to succeed, got %v", err)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("lists require a session", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run("lists", "ls")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("auth", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run("auth", "status", "--json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var status authStatus
		if err := json.Unmarshal([]byte(out), &status); err != nil {
			t.Fatalf("expected JSON status, got %q: %v", out, err)
		}
		if status.Authenticated || !status.CSRF {
			t.Errorf("expected signed-out session with csrf token, got %+v", status)
		}

		t.Setenv("CARTX_PASSWORD", "")
		if _, err := h.run("auth", "login", "--email", "shopper@example.com"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without password, got %v", err)
		}

		h.signup()
		if out := h.mustRun("auth", "status"); !strings.Contains(out, "✓ Authenticated") {
			t.Errorf("expected authenticated status, got %q", out)
		}

		if out := h.mustRun("auth", "logout"); !strings.Contains(out, "Signed out") {
			t.Errorf("expected sign-out confirmation, got %q", out)
		}
		if _, err := h.run("lists", "ls"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
		}

		t.Setenv("CARTX_PASSWORD", "wrong-password")
		if _, err := h.run("auth", "login", "--email", "shopper@example.com"); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}

		t.Setenv("CARTX_PASSWORD", "hunter22")
		if out := h.mustRun("auth", "login", "--email", "shopper@example.com"); !strings.Contains(out, "Signed in as shopper@example.com") {
			t.Errorf("expected sign-in confirmation, got %q", out)
		}
	})

	t.Run("lists and items", func(t *testing.T) {
		h := newHarness(t)
		h.signup()

		if out := h.mustRun("lists", "ls"); !strings.Contains(out, "No lists yet") {
			t.Errorf("expected empty hint, got %q", out)
		}

		list := h.createList("Weekly Shop")

		if out := h.mustRun("items", "add", list.ID, "Milk"); !strings.Contains(out, "Added Milk (Dairy)") {
			t.Errorf("expected created item, got %q", out)
		}
		if out := h.mustRun("items", "add", list.ID, "milk"); !strings.Contains(out, "Milk is now x2") {
			t.Errorf("expected bumped quantity, got %q", out)
		}
		h.mustRun("items", "add", list.ID, "Carrots")

		if out := h.mustRun("items", "check", list.ID, "Carrots"); !strings.Contains(out, "Checked Carrots") {
			t.Errorf("expected checked item, got %q", out)
		}

		out := h.mustRun("items", "ls", list.ID)
		for _, want := range []string{"2 items, 1 left to buy", "Vegetables", "[x] Carrots", "Dairy", "[ ] Milk"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in items output, got %q", want, out)
			}
		}
		if strings.Index(out, "Vegetables") > strings.Index(out, "Dairy") {
			t.Errorf("expected category order to follow the table, got %q", out)
		}

		if out := h.mustRun("items", "uncheck-all", list.ID); !strings.Contains(out, "Unchecked 1 item") {
			t.Errorf("expected one item unchecked, got %q", out)
		}

		if out := h.mustRun("items", "remove", list.ID, "Milk"); !strings.Contains(out, "Milk is now x1") {
			t.Errorf("expected lowered quantity, got %q", out)
		}
		if out := h.mustRun("items", "remove", list.ID, "Milk"); !strings.Contains(out, "Removed Milk") {
			t.Errorf("expected removal, got %q", out)
		}
		if _, err := h.run("items", "remove", list.ID, "Milk"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}

		items, err := h.runner.items.ByList(context.Background(), list.ID)
		if err != nil || len(items) != 1 {
			t.Fatalf("expected one item left, got %v (%v)", items, err)
		}

		if _, err := h.run("items", "update", items[0].ID); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without fields, got %v", err)
		}
		out = h.mustRun("items", "update", "--quantity", "3", "--unit", "kg", "--price", "2.5", items[0].ID)
		if !strings.Contains(out, "3 kg") || !strings.Contains(out, "2.50") {
			t.Errorf("expected updated item, got %q", out)
		}

		out = h.mustRun("lists", "show", "--format", "markdown", "--link", list.ID)
		if !strings.Contains(out, "Weekly Shop") || !strings.Contains(out, "/list/join/"+list.ID) {
			t.Errorf("expected markdown with join link, got %q", out)
		}

		if _, err := h.run("lists", "show", "--format", "pdf", list.ID); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for unknown format, got %v", err)
		}
		if _, err := h.run("lists", "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without id, got %v", err)
		}

		h.mustRun("items", "delete", items[0].ID)
		if out := h.mustRun("items", "ls", list.ID); !strings.Contains(out, "No items yet") {
			t.Errorf("expected empty list, got %q", out)
		}

		h.mustRun("lists", "delete", list.ID)
		if _, err := h.run("lists", "show", list.ID); !errors.Is(err, shared.ErrListNotFound) {
			t.Errorf("expected ErrListNotFound after delete, got %v", err)
		}
	})

	t.Run("api", func(t *testing.T) {
		h := newHarness(t)
		h.signup()

		out := h.mustRun("api", "post", "--data", `{"name":"Party"}`, "lists")
		if !strings.Contains(out, `"Party"`) {
			t.Errorf("expected created list in response, got %q", out)
		}

		out = h.mustRun("api", "get", "--json", "lists")
		var lists []models.List
		if err := json.Unmarshal([]byte(out), &lists); err != nil {
			t.Fatalf("expected JSON array, got %q: %v", out, err)
		}
		if len(lists) != 1 || lists[0].Name != "Party" {
			t.Errorf("expected the created list, got %+v", lists)
		}

		if _, err := h.run("api", "post", "--data", "{not json", "lists"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if _, err := h.run("api", "get", "lists/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for 404, got %v", err)
		}

		h.mustRun("api", "delete", "lists/"+lists[0].ID)
	})

	t.Run("cache", func(t *testing.T) {
		h := newHarness(t)
		h.signup()

		if out := h.mustRun("cache", "ls"); !strings.Contains(out, "Cache is empty") {
			t.Errorf("expected empty cache, got %q", out)
		}

		list := h.createList("Weekly Shop")
		h.mustRun("items", "add", list.ID, "Bread")

		out := h.mustRun("cache", "sync")
		if !strings.Contains(out, "Synced 1 list (1 item)") {
			t.Errorf("expected sync summary, got %q", out)
		}

		if out := h.mustRun("cache", "ls"); !strings.Contains(out, "Weekly Shop") || !strings.Contains(out, "1/1 left") {
			t.Errorf("expected cached list, got %q", out)
		}
		if out := h.mustRun("cache", "show", list.ID); !strings.Contains(out, "Bread") {
			t.Errorf("expected cached items, got %q", out)
		}

		h.mustRun("lists", "delete", list.ID)
		if _, err := h.run("cache", "show", list.ID); !errors.Is(err, shared.ErrListNotFound) {
			t.Errorf("expected cached copy to be dropped, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		h := newHarness(t)
		h.signup()

		h.createList("Weekly Shop")
		h.createList("Party")
		dir := filepath.Join(t.TempDir(), "out")

		out := h.mustRun("export", "--format", "csv", "--output", dir, "--rate", "100")
		if !strings.Contains(out, "Exported 2 of 2 lists") {
			t.Errorf("expected export summary, got %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		if _, err := h.run("export", "--format", "pdf", "--output", dir); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
