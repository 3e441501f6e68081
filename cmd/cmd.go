// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// chatCommand launches the interactive chat shell.
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive chat shell",
		Action:  r.Chat,
	}
}

// askCommand runs a single message through the dispatcher.
func askCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one message and print the reply",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "content",
				Usage: "File content used when the message is 'create file <name>'",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening it",
			},
		},
		Action: r.Ask,
	}
}

// classifyCommand prints how a message would be routed without calling the backend.
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Show the route, action and entity parsed from a message",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Classify,
	}
}

// serveCommand runs the backend HTTP server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the backend (Spotify, chat and file endpoints)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authorization against the backend.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Open the Spotify authorization page and wait for the backend to receive a token",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for authorization",
						Value: defaultLoginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening it",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check backend health and authorization state (calls /health)",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored Spotify token",
				Action: r.AuthLogout,
			},
		},
	}
}
