package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/cache"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/repositories"
	"github.com/desertthunder/anitrack/internal/shared"
	"github.com/desertthunder/anitrack/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	jikan      *jikan.Client
	responses  cache.Cache
	store      *repositories.WatchlistRepository
	engine     *tasks.WatchEngine
	httpClient *http.Client
	clock      clockwork.Clock
	location   *time.Location
	logger     *log.Logger
	output     io.Writer
	fs         afero.Fs
	open       func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Jikan      *jikan.Client
	Responses  cache.Cache
	Store      *repositories.WatchlistRepository
	HTTPClient *http.Client
	Clock      clockwork.Clock
	Logger     *log.Logger
	Output     io.Writer
	Fs         afero.Fs
	Open       func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}

	location, err := opts.Config.Display.Location()
	if err != nil {
		opts.Logger.Warn("invalid display timezone, using local time", "error", err)
		location = time.Local
	}

	var source tasks.AnimeSource
	if opts.Jikan != nil {
		source = opts.Jikan
	}
	var store tasks.WatchlistStore
	if opts.Store != nil {
		store = opts.Store
	}
	engine := tasks.NewWatchEngine(source, store, opts.Clock, opts.Logger)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		jikan:      opts.Jikan,
		responses:  opts.Responses,
		store:      opts.Store,
		engine:     engine,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		location:   location,
		logger:     opts.Logger,
		output:     opts.Output,
		fs:         opts.Fs,
		open:       opts.Open,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, seasonCommand, scheduleCommand, topCommand, searchCommand, showCommand, randomCommand,
		recommendCommand, countdownCommand, openCommand, listCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// NewCache builds the response cache selected by cfg. The sqlite backend stores responses in db.
func NewCache(ctx context.Context, cfg shared.CacheConfig, db *sql.DB, clock clockwork.Clock) (cache.Cache, io.Closer, error) {
	ttl, err := cfg.TTLDuration()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemory(ttl, clock), nil, nil
	case "sqlite":
		if db == nil {
			return nil, nil, fmt.Errorf("%w: sqlite cache needs a database", shared.ErrServiceUnavailable)
		}
		return repositories.NewResponseCacheRepository(db, ttl, clock), nil, nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedis(client, ttl), client, nil
	case "none":
		return cache.Nop{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown cache backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

// NewJikanClient builds a Jikan client from the [jikan] config section.
func NewJikanClient(cfg shared.JikanConfig, c cache.Cache, clock clockwork.Clock, logger *log.Logger) (*jikan.Client, error) {
	base, err := cfg.BaseDelayDuration()
	if err != nil {
		return nil, err
	}
	maxDelay, err := cfg.MaxDelayDuration()
	if err != nil {
		return nil, err
	}

	return jikan.New(jikan.Options{
		BaseURL:           cfg.BaseURL,
		Retry:             jikan.RetryPolicy{Attempts: cfg.Attempts, BaseDelay: base, MaxDelay: maxDelay},
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Cache:             c,
		Logger:            shared.WithLogger(logger, "component", "jikan"),
		Clock:             clock,
	}), nil
}

func (r *Runner) requireJikan() error {
	if r.jikan == nil {
		return fmt.Errorf("%w: anime client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) requireStore() error {
	if r.store == nil {
		return fmt.Errorf("%w: watch list database not initialized (run 'anitrack setup database')", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) userID() string {
	if r.config.User.ID == "" {
		return "local"
	}
	return r.config.User.ID
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
