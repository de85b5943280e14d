package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/cache"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/repositories"
	"github.com/desertthunder/anitrack/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.NewLogger(nil)

	configPath := os.Getenv("ANITRACK_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	clock := clockwork.NewRealClock()
	closers := []io.Closer{}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	var store *repositories.WatchlistRepository
	var db *sql.DB
	if opened, err := shared.OpenDatabase(config.Database); err == nil {
		db = opened
		closers = append(closers, db)
		store = repositories.NewWatchlistRepository(db)
	} else {
		logger.Warn("watch list unavailable", "path", config.Database.Path, "error", err)
	}

	var client *jikan.Client
	var responses cache.Cache
	if built, closer, err := NewCache(ctx, config.Cache, db, clock); err != nil {
		logger.Warn("response cache unavailable, anime lookups disabled", "backend", config.Cache.Backend, "error", err)
	} else {
		responses = built
		if closer != nil {
			closers = append(closers, closer)
		}
		if client, err = NewJikanClient(config.Jikan, responses, clock, logger); err != nil {
			logger.Warn("anime client unavailable", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Jikan:      client,
		Responses:  responses,
		Store:      store,
		Clock:      clock,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "anitrack",
		Usage:    "Track airing anime, countdowns and your watch list",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		exit(logger, err)
	}
}

func exit(logger *log.Logger, err error) {
	var fetchErr *jikan.FetchError
	switch {
	case errors.Is(err, context.Canceled):
		os.Exit(130)
	case errors.Is(err, shared.ErrEmptyResult):
		logger.Warn("No results")
		os.Exit(1)
	case errors.As(err, &fetchErr) && fetchErr.RateLimited():
		logger.Error("Jikan is rate limiting requests, try again shortly", "url", fetchErr.URL, "attempts", fetchErr.Attempts)
		os.Exit(1)
	default:
		logger.Fatalf("application error: %v", err)
	}
}
