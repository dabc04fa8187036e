// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, json, yaml or csv",
		Value:   "table",
	}
}

// setupCommand writes the config template and prepares the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize local storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles the admin session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the admin session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and store the session locally",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Admin username",
						Sources: cli.EnvVars("EPGCTL_USERNAME"),
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Admin password",
						Sources: cli.EnvVars("EPGCTL_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session state",
				Action: r.AuthStatus,
			},
			{
				Name:  "whoami",
				Usage: "Show the logged-in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "Ask the backend (GET /auth/me) instead of reading the stored session",
					},
					formatFlag(),
				},
				Action: r.AuthWhoami,
			},
			{
				Name:  "passwd",
				Usage: "Change the admin password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "old", Usage: "Current password"},
					&cli.StringFlag{Name: "new", Usage: "New password (at least 8 characters)"},
					&cli.StringFlag{Name: "confirm", Usage: "New password again"},
				},
				Action: r.AuthPasswd,
			},
		},
	}
}

func channelFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
		&cli.StringFlag{Name: "category", Usage: "Category"},
		&cli.StringFlag{Name: "area", Usage: "Area code", Value: "CN"},
		&cli.StringFlag{Name: "logo", Usage: "Logo URL"},
		&cli.StringFlag{Name: "timezone", Usage: "IANA timezone", Value: "Asia/Shanghai"},
		&cli.StringFlag{Name: "regexp", Usage: "Regular expression matching provider channel names"},
		&cli.BoolFlag{Name: "inactive", Usage: "Disable the channel"},
	}
}

// channelsCommand handles channel CRUD and batch import
func channelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "channels",
		Aliases: []string{"ch"},
		Usage:   "Manage canonical channels",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List channels",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.ChannelsList,
			},
			{
				Name:      "show",
				Usage:     "Show one channel",
				Arguments: []cli.Argument{&cli.StringArg{Name: "channel_id"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.ChannelsShow,
			},
			{
				Name:      "create",
				Usage:     "Create a channel",
				Arguments: []cli.Argument{&cli.StringArg{Name: "channel_id"}},
				Flags:     channelFieldFlags(),
				Action:    r.ChannelsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a channel; only the given flags change",
				Arguments: []cli.Argument{&cli.StringArg{Name: "channel_id"}},
				Flags:     append(channelFieldFlags(), &cli.BoolFlag{Name: "active", Usage: "Enable the channel"}),
				Action:    r.ChannelsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a channel",
				Arguments: []cli.Argument{&cli.StringArg{Name: "channel_id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm the deletion"},
				},
				Action: r.ChannelsDelete,
			},
			{
				Name:      "import",
				Usage:     "Batch-create channels from a file (or - for stdin), one 'channel_id,display_name,category,area,logo_url,timezone' per line",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.ChannelsImport,
			},
			{
				Name:      "mappings",
				Usage:     "Show the provider mappings of one channel",
				Arguments: []cli.Argument{&cli.StringArg{Name: "channel_id"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.ChannelMappings,
			},
		},
	}
}

// mappingsCommand handles the read-only mapping review
func mappingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mappings",
		Aliases: []string{"map"},
		Usage:   "Review channel-to-provider mappings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List mappings, filtered locally",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Substring of the canonical or provider channel id"},
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "Provider id, or 'all'", Value: "all"},
					formatFlag(),
				},
				Action: r.MappingsList,
			},
			{
				Name:   "providers",
				Usage:  "List the providers that have mappings",
				Action: r.MappingsProviders,
			},
		},
	}
}

// programsCommand handles the server-side program search
func programsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "programs",
		Aliases: []string{"prog"},
		Usage:   "Browse program guide data",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search programs page by page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "channel", Aliases: []string{"c"}, Usage: "Channel id, or 'all'", Value: "all"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day to show (YYYY-MM-DD); defaults to today"},
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "page-size", Usage: "Rows per page (defaults to display.page_size)"},
					&cli.StringFlag{Name: "timezone", Aliases: []string{"tz"}, Usage: "IANA timezone for the date and times"},
					formatFlag(),
				},
				Action: r.ProgramsSearch,
			},
		},
	}
}

// syncCommand handles manual sync triggers and the local sync log
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Trigger EPG syncs",
		Commands: []*cli.Command{
			{
				Name:      "channel",
				Usage:     "Sync one or more channels",
				ArgsUsage: "<channel_id> [channel_id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Sync a single day (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "start", Usage: "First day to sync (YYYY-MM-DD); defaults to today"},
					&cli.StringFlag{Name: "end", Usage: "Last day to sync (YYYY-MM-DD); defaults to --start"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests when syncing several channels", Value: 3},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second when syncing several channels", Value: 2},
				},
				Action: r.SyncChannel,
			},
			{
				Name:  "all",
				Usage: "Start the backend's full sync job",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Re-fetch data that is already up to date"},
				},
				Action: r.SyncAll,
			},
			{
				Name:  "logs",
				Usage: "Show the local sync history",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.SyncLogs,
			},
		},
	}
}

// exportCommand handles the public guide feeds
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Download guide feeds",
		Commands: []*cli.Command{
			{
				Name:  "xmltv",
				Usage: "Download the XMLTV guide",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to a file instead of stdout"},
				},
				Action: r.ExportXMLTV,
			},
			{
				Name:  "diyp",
				Usage: "Show one channel-day of the DIYP feed",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "channel", Aliases: []string{"c"}, Usage: "Channel id or display name", Required: true},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day (YYYY-MM-DD); defaults to today"},
					formatFlag(),
				},
				Action: r.ExportDIYP,
			},
		},
	}
}

// apiCommand handles direct backend calls for debugging
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the EPG backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Query parameter as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Snapshot of the admin state (user, channels, mappings, sync log)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also save the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// storageCommand inspects the local key-value store
func storageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "storage",
		Usage: "Inspect local client storage",
		Commands: []*cli.Command{
			{
				Name:   "keys",
				Usage:  "List stored keys",
				Action: r.StorageKeys,
			},
			{
				Name:      "get",
				Usage:     "Print the value stored under a key",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Action:    r.StorageGet,
			},
			{
				Name:      "remove",
				Usage:     "Remove a key",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Action:    r.StorageRemove,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive console.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive admin console",
		Action:  r.TUI,
	}
}
