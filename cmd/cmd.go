// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a default config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	credentials := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password",
				Sources: cli.EnvVars("CARTX_PASSWORD"),
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and keep the session for later commands",
				Flags:  credentials(),
				Action: r.AuthLogin,
			},
			{
				Name:   "signup",
				Usage:  "Create an account and sign in",
				Flags:  credentials(),
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "End the session and forget stored cookies",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Restore the session and report whether it is signed in",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// listsCommand handles shopping list operations
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lists",
		Aliases: []string{"list", "l"},
		Usage:   "Shopping list operations",
		Commands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "List your shopping lists",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ListsLs,
			},
			{
				Name:  "show",
				Usage: "Show a list with its items",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: txt, markdown, csv or json",
						Value:   "txt",
					},
					&cli.BoolFlag{
						Name:  "link",
						Usage: "Print the link others use to join the list",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the join link in the browser",
					},
				},
				Action: r.ListsShow,
			},
			{
				Name:  "create",
				Usage: "Create a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.ListsCreate,
			},
			{
				Name:  "delete",
				Usage: "Delete a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ListsDelete,
			},
		},
	}
}

// itemsCommand handles item operations within a list
func itemsCommand(r *Runner) *cli.Command {
	nameArgs := func() []cli.Argument {
		return []cli.Argument{
			&cli.StringArg{Name: "list-id"},
			&cli.StringArg{Name: "name"},
		}
	}

	return &cli.Command{
		Name:    "items",
		Aliases: []string{"item", "i"},
		Usage:   "Item operations",
		Commands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List the items of a list grouped by category",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list-id"},
				},
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ItemsLs,
			},
			{
				Name:      "add",
				Usage:     "Add an item by name, or bump its quantity when it is already on the list",
				Arguments: nameArgs(),
				Action:    r.ItemsAdd,
			},
			{
				Name:      "remove",
				Usage:     "Lower an item's quantity, deleting it at zero",
				Arguments: nameArgs(),
				Action:    r.ItemsRemove,
			},
			{
				Name:      "check",
				Usage:     "Mark an item as bought",
				Arguments: nameArgs(),
				Action:    r.ItemsCheck,
			},
			{
				Name:      "uncheck",
				Usage:     "Mark an item as not bought",
				Arguments: nameArgs(),
				Action:    r.ItemsUncheck,
			},
			{
				Name:  "uncheck-all",
				Usage: "Uncheck every item of a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list-id"},
				},
				Action: r.ItemsUncheckAll,
			},
			{
				Name:  "update",
				Usage: "Change fields of an item",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringFlag{Name: "category", Usage: "New category"},
					&cli.StringFlag{Name: "unit", Usage: "Unit, e.g. kg"},
					&cli.StringFlag{Name: "description", Usage: "Free-form note"},
					&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Usage: "Quantity"},
					&cli.FloatFlag{Name: "price", Usage: "Price"},
					&cli.BoolFlag{Name: "checked", Usage: "Checked state"},
				},
				Action: r.ItemsUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete an item",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ItemsDelete,
			},
		},
	}
}

// apiCommand handles raw calls through the session pipeline
func apiCommand(r *Runner) *cli.Command {
	pathArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "path"}}
	}
	dataFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "JSON body to send",
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Raw API calls with session handling",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path relative to the API base URL",
				Arguments: pathArg(),
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body",
				Arguments: pathArg(),
				Flags:     []cli.Flag{dataFlag()},
				Action:    r.APIPost,
			},
			{
				Name:      "put",
				Usage:     "PUT a JSON body",
				Arguments: pathArg(),
				Flags:     []cli.Flag{dataFlag()},
				Action:    r.APIPut,
			},
			{
				Name:      "delete",
				Usage:     "DELETE a path",
				Arguments: pathArg(),
				Action:    r.APIDelete,
			},
		},
	}
}

// cacheCommand handles the local list cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Local cache of lists and items",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Pull every list and its items into the local database",
				Action: r.CacheSync,
			},
			{
				Name:   "ls",
				Usage:  "List cached lists",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.CacheLs,
			},
			{
				Name:  "show",
				Usage: "Show a cached list without contacting the backend",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CacheShow,
			},
		},
	}
}

// exportCommand exports lists to files
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export lists to json, csv, markdown or txt files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "List ID to export (repeatable, all lists when omitted)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown or txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file writers",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Backend fetches per second",
			},
		},
		Action: r.Export,
	}
}

// serveCommand runs the local development backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local development backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (defaults to server.port)"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive list management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the UI owns the terminal",
				Value: "./tmp/cartx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
