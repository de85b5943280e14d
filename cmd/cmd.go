// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func pageFlags(limit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Result page",
			Value: 1,
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of results",
			Value:   limit,
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the configuration file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "rollback",
				Usage: "Revert the most recent database migration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupRollback,
			},
		},
	}
}

// seasonCommand lists the anime airing this season.
func seasonCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "season",
		Usage:  "List anime airing this season with their next episode",
		Flags:  append(pageFlags(25), jsonFlags()...),
		Action: r.Season,
	}
}

// scheduleCommand lists anime airing on a weekday.
func scheduleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "List anime broadcast on a weekday (default: today in JST)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "day",
			},
		},
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
		}, jsonFlags()...),
		Action: r.Schedule,
	}
}

// topCommand ranks the current season.
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Best rated anime this season, falling back to this year and all time",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   10,
			},
		}, jsonFlags()...),
		Action: r.Top,
	}
}

// searchCommand searches anime by title.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search anime by title",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags:  append(pageFlags(10), jsonFlags()...),
		Action: r.Search,
	}
}

// showCommand prints one anime.
func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show details of an anime by MyAnimeList id",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  jsonFlags(),
		Action: r.Show,
	}
}

// randomCommand draws random anime.
func randomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Suggest random anime",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of suggestions (1-10)",
				Value:   1,
			},
		}, jsonFlags()...),
		Action: r.Random,
	}
}

// recommendCommand lists anime recommended by the community.
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"recs"},
		Usage:   "List recently recommended anime",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
		}, jsonFlags()...),
		Action: r.Recommend,
	}
}

// countdownCommand shows a live countdown to the next episode.
func countdownCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "countdown",
		Usage: "Live countdown to the next episode of a watch list entry, title or MyAnimeList id",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "anime",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Print the countdown once and exit",
			},
		},
		Action: r.Countdown,
	}
}

// openCommand opens an anime page in the browser.
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open an anime's MyAnimeList page in the browser",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Action: r.Open,
	}
}

// listCommand manages the watch list.
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls", "watchlist"},
		Usage:   "Manage your watch list",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add an anime by MyAnimeList id or title",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "anime",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "status",
						Aliases: []string{"s"},
						Usage:   "Watching, Completed, On-Hold, Dropped or Plan to Watch",
						Value:   "watching",
					},
				},
				Action: r.ListAdd,
			},
			{
				Name:  "ls",
				Usage: "List watch list entries",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "status",
						Aliases: []string{"s"},
						Usage:   "Only entries with this status",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only titles containing this text",
					},
				}, jsonFlags()...),
				Action: r.ListEntries,
			},
			{
				Name:  "edit",
				Usage: "Update an entry by id or title",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "entry",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "status",
						Aliases: []string{"s"},
						Usage:   "New status",
					},
					&cli.IntFlag{
						Name:    "episodes",
						Aliases: []string{"e"},
						Usage:   "Episodes watched",
						Value:   -1,
					},
					&cli.IntFlag{
						Name:  "score",
						Usage: "Score from 1 to 10, 0 clears it",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  "start",
						Usage: "Start date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "finish",
						Usage: "Finish date (YYYY-MM-DD)",
					},
				},
				Action: r.ListEdit,
			},
			{
				Name:    "rm",
				Aliases: []string{"remove", "delete"},
				Usage:   "Remove an entry by id or title",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "entry",
					},
				},
				Action: r.ListRemove,
			},
			{
				Name:  "upcoming",
				Usage: "Next airing of every entry you are watching, soonest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "status",
						Aliases: []string{"s"},
						Usage:   "Include entries with this status instead of Watching",
					},
				}, jsonFlags()...),
				Action: r.ListUpcoming,
			},
			{
				Name:   "stats",
				Usage:  "Entries per status and average scores",
				Flags:  jsonFlags(),
				Action: r.ListStats,
			},
			{
				Name:  "export",
				Usage: "Export the watch list as json, csv, markdown or txt",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: watchlist_{user}.{ext})",
					},
					&cli.StringFlag{
						Name:    "status",
						Aliases: []string{"s"},
						Usage:   "Only entries with this status",
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Also download cover images next to the export",
					},
				},
				Action: r.ListExport,
			},
		},
	}
}

// cacheCommand inspects the response cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Response cache maintenance",
		Commands: []*cli.Command{
			{
				Name:   "purge",
				Usage:  "Delete expired cached responses",
				Action: r.CachePurge,
			},
			{
				Name:   "stats",
				Usage:  "Show the cache backend and hit counts",
				Action: r.CacheStats,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the live countdown board.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive countdown board",
		Action:  r.TUI,
	}
}
