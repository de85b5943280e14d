package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/cache"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/repositories"
	"github.com/desertthunder/anitrack/internal/shared"
	tu "github.com/desertthunder/anitrack/internal/testing"
)

const (
	seasonBody = `{"pagination":{"has_next_page":true,"current_page":1},"data":[
		{"mal_id":52991,"title":"Sousou no Frieren","title_english":"Frieren: Beyond Journey's End","score":9.3,"episodes":28,
		 "broadcast":{"day":"Fridays","time":"23:00","timezone":"Asia/Tokyo"}},
		{"mal_id":7,"title":"Mystery Special"}
	]}`
	frierenBody = `{"data":{"mal_id":52991,"title":"Sousou no Frieren","score":9.3,"episodes":28,"year":2023,
		"synopsis":"An elf mage outlives her party.",
		"genres":[{"mal_id":2,"name":"Adventure"},{"mal_id":8,"name":"Drama"}],
		"broadcast":{"day":"Fridays","time":"23:00","timezone":"Asia/Tokyo"}}}`
	searchBody = `{"data":[{"mal_id":21,"title":"One Piece","score":8.7,
		"broadcast":{"day":"Sundays","time":"09:30","timezone":"Asia/Tokyo"}}]}`
	emptyBody = `{"pagination":{"has_next_page":false},"data":[]}`
	recsBody  = `{"data":[
		{"mal_id":"52991-21","entry":[{"mal_id":52991,"title":"Sousou no Frieren"},{"mal_id":21,"title":"One Piece"}]},
		{"mal_id":"21-52991","entry":[{"mal_id":21,"title":"One Piece"},{"mal_id":52991,"title":"Sousou no Frieren"}]}
	]}`
)

// Saturday 2024-01-06 20:00 JST
var saturday = time.Date(2024, time.January, 6, 11, 0, 0, 0, time.UTC)

func jikanServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/seasons/now":
			w.Write([]byte(seasonBody))
		case r.URL.Path == "/anime/52991/full":
			w.Write([]byte(frierenBody))
		case r.URL.Path == "/anime" && r.URL.Query().Get("q") == "one piece":
			w.Write([]byte(searchBody))
		case r.URL.Path == "/anime":
			w.Write([]byte(emptyBody))
		case r.URL.Path == "/recommendations/anime":
			w.Write([]byte(recsBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	runner *Runner
	output *bytes.Buffer
	fs     afero.Fs
	opened []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := jikanServer(t)
	clock := clockwork.NewFakeClockAt(saturday)

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.Display.Timezone = "UTC"
	config.User.ID = "tester"

	env := &testEnv{output: &bytes.Buffer{}, fs: afero.NewMemMapFs()}
	env.runner = NewRunner(RunnerOpts{
		Config: config,
		Jikan:  jikan.New(jikan.Options{BaseURL: srv.URL, Retry: jikan.RetryPolicy{Attempts: 1}, Clock: clock}),
		Store:  repositories.NewWatchlistRepository(db),
		Clock:  clock,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: env.output,
		Fs:     env.fs,
		Open: func(url string) error {
			env.opened = append(env.opened, url)
			return nil
		},
	})
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	e.output.Reset()
	app := &cli.Command{Name: "anitrack", Commands: e.runner.register()}
	return app.Run(context.Background(), append([]string{"anitrack"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			client := jikan.New(jikan.Options{})

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Jikan:      client,
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
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.jikan != client {
				t.Error("expected jikan client to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.clock == nil || runner.fs == nil || runner.open == nil {
				t.Error("expected clock, filesystem and opener defaults")
			}
		})

		t.Run("with invalid display timezone falls back to local", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Display.Timezone = "Mars/Olympus_Mons"

			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(&bytes.Buffer{})})
			if runner.location != time.Local {
				t.Errorf("expected local time, got %v", runner.location)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
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

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
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
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}
		for _, name := range []string{"setup", "season", "schedule", "top", "search", "show", "random", "recommend", "countdown", "open", "list", "cache", "tui"} {
			if !names[name] {
				t.Errorf("expected %q to be registered", name)
			}
		}
	})
}

func TestNewCache(t *testing.T) {
	clock := clockwork.NewFakeClock()

	t.Run("memory", func(t *testing.T) {
		c, closer, err := NewCache(context.Background(), shared.CacheConfig{Backend: "memory", TTL: "5m"}, nil, clock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.(*cache.Memory); !ok {
			t.Errorf("expected memory cache, got %T", c)
		}
		if closer != nil {
			t.Error("memory cache has nothing to close")
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		c, _, err := NewCache(context.Background(), shared.CacheConfig{Backend: "sqlite", TTL: "5m"}, db, clock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.(*repositories.ResponseCacheRepository); !ok {
			t.Errorf("expected sqlite cache, got %T", c)
		}
	})

	t.Run("sqlite without database", func(t *testing.T) {
		_, _, err := NewCache(context.Background(), shared.CacheConfig{Backend: "sqlite", TTL: "5m"}, nil, clock)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)

		c, closer, err := NewCache(context.Background(), shared.CacheConfig{Backend: "redis", TTL: "5m", RedisURL: "redis://" + mr.Addr()}, nil, clock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closer.Close()

		if err := c.Set(context.Background(), "season:now:1:25", []byte(`{}`)); err != nil {
			t.Fatalf("set: %v", err)
		}
		if !mr.Exists(cache.KeyPrefix + "season:now:1:25") {
			t.Error("expected key in redis")
		}
	})

	t.Run("none", func(t *testing.T) {
		c, _, err := NewCache(context.Background(), shared.CacheConfig{Backend: "none", TTL: "5m"}, nil, clock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.(cache.Nop); !ok {
			t.Errorf("expected nop cache, got %T", c)
		}
	})

	t.Run("unknown backend and bad ttl", func(t *testing.T) {
		if _, _, err := NewCache(context.Background(), shared.CacheConfig{Backend: "memcached", TTL: "5m"}, nil, clock); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for backend, got %v", err)
		}
		if _, _, err := NewCache(context.Background(), shared.CacheConfig{Backend: "memory", TTL: "soon"}, nil, clock); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for ttl, got %v", err)
		}
	})
}

func TestNewJikanClient(t *testing.T) {
	cfg := shared.DefaultConfig().Jikan
	if _, err := NewJikanClient(cfg, cache.Nop{}, nil, shared.NewLogger(&bytes.Buffer{})); err != nil {
		t.Fatalf("expected default jikan config to build, got %v", err)
	}

	cfg.BaseDelay = "fast"
	if _, err := NewJikanClient(cfg, cache.Nop{}, nil, shared.NewLogger(&bytes.Buffer{})); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAnimeCommands(t *testing.T) {
	t.Run("season prints countdowns", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "season"); err != nil {
			t.Fatalf("season: %v", err)
		}

		out := env.output.String()
		for _, want := range []string{
			"1. Sousou no Frieren",
			"English: Frieren: Beyond Journey's End",
			"Next episode in: 6d 03h 00m 00s (Fri Jan 12 14:00 UTC)",
			"2. Mystery Special",
			"No airing schedule available",
			"More results: --page 2",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("season as JSON", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "season", "--json", "--pretty=false"); err != nil {
			t.Fatalf("season: %v", err)
		}
		if out := env.output.String(); !strings.Contains(out, `"has_next_page":true`) {
			t.Errorf("unexpected JSON %s", out)
		}
	})

	t.Run("show", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "show", "52991"); err != nil {
			t.Fatalf("show: %v", err)
		}

		out := env.output.String()
		for _, want := range []string{"Sousou no Frieren", "Genres: Adventure, Drama", "Year: 2023", "An elf mage", "https://myanimelist.net/anime/52991"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("show rejects bad ids", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "show", "frieren"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := env.run(t, "show"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("search with no results", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "search", "zzz"); !errors.Is(err, shared.ErrEmptyResult) {
			t.Errorf("expected ErrEmptyResult, got %v", err)
		}
	})

	t.Run("countdown once from the provider", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "countdown", "--once", "one piece"); err != nil {
			t.Fatalf("countdown: %v", err)
		}

		out := env.output.String()
		if !strings.Contains(out, "One Piece • Sundays 09:30 (Asia/Tokyo)") {
			t.Errorf("unexpected header:\n%s", out)
		}
		if !strings.Contains(out, "Next episode in: 13h 30m 00s") {
			t.Errorf("unexpected countdown:\n%s", out)
		}
	})

	t.Run("countdown stops with the context", func(t *testing.T) {
		env := newTestEnv(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		app := &cli.Command{Name: "anitrack", Commands: env.runner.register()}
		done := make(chan error, 1)
		go func() { done <- app.Run(ctx, []string{"anitrack", "countdown", "52991"}) }()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("countdown did not stop after cancel")
		}
	})

	t.Run("open", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run(t, "open", "52991"); err != nil {
			t.Fatalf("open: %v", err)
		}
		if len(env.opened) != 1 || env.opened[0] != "https://myanimelist.net/anime/52991" {
			t.Errorf("unexpected opened urls %v", env.opened)
		}
	})

	t.Run("commands without a client", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		app := &cli.Command{Name: "anitrack", Commands: runner.register()}

		err := app.Run(context.Background(), []string{"anitrack", "season"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestRecommendCommand(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run(t, "recommend"); err != nil {
		t.Fatalf("recommend: %v", err)
	}

	out := env.output.String()
	for _, want := range []string{"Recommended", "1. Sousou no Frieren", "2. One Piece"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "3. ") {
		t.Errorf("expected duplicates to be dropped:\n%s", out)
	}
}

func TestCacheCommands(t *testing.T) {
	srv := jikanServer(t)
	clock := clockwork.NewFakeClockAt(saturday)
	responses := cache.NewMemory(time.Minute, clock)
	output := &bytes.Buffer{}

	config := shared.DefaultConfig()
	config.Cache.TTL = "1m"
	runner := NewRunner(RunnerOpts{
		Config:    config,
		Jikan:     jikan.New(jikan.Options{BaseURL: srv.URL, Retry: jikan.RetryPolicy{Attempts: 1}, Cache: responses, Clock: clock}),
		Responses: responses,
		Clock:     clock,
		Logger:    shared.NewLogger(&bytes.Buffer{}),
		Output:    output,
	})
	run := func(args ...string) error {
		output.Reset()
		app := &cli.Command{Name: "anitrack", Commands: runner.register()}
		return app.Run(context.Background(), append([]string{"anitrack"}, args...))
	}

	t.Run("stats count hits", func(t *testing.T) {
		for range 2 {
			if err := run("season"); err != nil {
				t.Fatalf("season: %v", err)
			}
		}
		if err := run("cache", "stats"); err != nil {
			t.Fatalf("cache stats: %v", err)
		}
		out := output.String()
		for _, want := range []string{"Backend: memory", "Entries: 1", "Hits:    1", "Misses:  1"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("purge drops expired responses", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		if err := run("cache", "purge"); err != nil {
			t.Fatalf("cache purge: %v", err)
		}
		if !strings.Contains(output.String(), "Removed 1 expired responses") {
			t.Errorf("unexpected output %q", output.String())
		}
		if responses.Len() != 0 {
			t.Errorf("expected an empty cache, got %d entries", responses.Len())
		}
	})

	t.Run("redis expires on its own", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := cache.NewRedisClient(context.Background(), "redis://"+mr.Addr(), "")
		if err != nil {
			t.Fatalf("redis client: %v", err)
		}
		defer client.Close()

		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Responses: cache.NewRedis(client, time.Minute), Output: out, Logger: shared.NewLogger(&bytes.Buffer{})})
		app := &cli.Command{Name: "anitrack", Commands: r.register()}
		if err := app.Run(context.Background(), []string{"anitrack", "cache", "purge"}); err != nil {
			t.Fatalf("cache purge: %v", err)
		}
		if !strings.Contains(out.String(), "redis backend expires entries on its own") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("without a cache", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		app := &cli.Command{Name: "anitrack", Commands: r.register()}
		err := app.Run(context.Background(), []string{"anitrack", "cache", "stats"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestListCommands(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "list", "add", "52991"); err != nil {
		t.Fatalf("add by id: %v", err)
	}
	if out := env.output.String(); !strings.Contains(out, "Added Sousou no Frieren as Watching") {
		t.Errorf("unexpected add output:\n%s", out)
	}

	if err := env.run(t, "list", "add", "--status", "plan to watch", "one piece"); err != nil {
		t.Fatalf("add by title: %v", err)
	}

	if err := env.run(t, "list", "add", "zzz"); !errors.Is(err, shared.ErrAnimeNotFound) {
		t.Errorf("expected ErrAnimeNotFound, got %v", err)
	}

	t.Run("ls", func(t *testing.T) {
		if err := env.run(t, "list", "ls"); err != nil {
			t.Fatalf("ls: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "2 entries") || !strings.Contains(out, "One Piece [Plan to Watch]") {
			t.Errorf("unexpected ls output:\n%s", out)
		}

		if err := env.run(t, "list", "ls", "--status", "watching"); err != nil {
			t.Fatalf("ls: %v", err)
		}
		if out := env.output.String(); !strings.Contains(out, "1 entries") || strings.Contains(out, "One Piece") {
			t.Errorf("expected status filter to apply:\n%s", out)
		}
	})

	t.Run("edit", func(t *testing.T) {
		if err := env.run(t, "list", "edit", "--episodes", "12", "--score", "10", "sousou no frieren"); err != nil {
			t.Fatalf("edit: %v", err)
		}
		entry, err := env.runner.store.FindByTitle("tester", "Sousou no Frieren")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if entry.EpisodesWatched() != 12 || entry.Score() != 10 {
			t.Errorf("expected episodes 12 and score 10, got %d and %d", entry.EpisodesWatched(), entry.Score())
		}

		if err := env.run(t, "list", "edit", "sousou no frieren"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := env.run(t, "list", "edit", "--score", "11", "sousou no frieren"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("countdown once from the watch list", func(t *testing.T) {
		if err := env.run(t, "countdown", "--once", "Sousou no Frieren"); err != nil {
			t.Fatalf("countdown: %v", err)
		}
		if out := env.output.String(); !strings.Contains(out, "Next episode in: 6d 03h 00m 00s") {
			t.Errorf("unexpected countdown:\n%s", out)
		}
	})

	t.Run("upcoming", func(t *testing.T) {
		if err := env.run(t, "list", "upcoming"); err != nil {
			t.Fatalf("upcoming: %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "1. Sousou no Frieren") || strings.Contains(out, "One Piece") {
			t.Errorf("expected only watching entries:\n%s", out)
		}
		if !strings.Contains(out, "1 scheduled, 0 without a schedule, 0 lookups failed") {
			t.Errorf("unexpected summary:\n%s", out)
		}
	})

	t.Run("stats", func(t *testing.T) {
		if err := env.run(t, "list", "stats"); err != nil {
			t.Fatalf("stats: %v", err)
		}
		out := env.output.String()
		for _, want := range []string{"Watching:", "Total:         2", "10.00  Sousou no Frieren (1)"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("export", func(t *testing.T) {
		if err := env.run(t, "list", "export", "--format", "csv", "--output", "out/list.csv"); err != nil {
			t.Fatalf("export: %v", err)
		}
		data, err := afero.ReadFile(env.fs, "out/list.csv")
		if err != nil {
			t.Fatalf("expected export file: %v", err)
		}
		if !strings.Contains(string(data), "Sousou no Frieren") || !strings.Contains(string(data), "One Piece") {
			t.Errorf("unexpected export:\n%s", data)
		}
	})

	t.Run("rm", func(t *testing.T) {
		if err := env.run(t, "list", "rm", "One Piece"); err != nil {
			t.Fatalf("rm: %v", err)
		}
		if _, err := env.runner.store.FindByTitle("tester", "One Piece"); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected entry to be gone, got %v", err)
		}
		if err := env.run(t, "list", "rm", "One Piece"); !errors.Is(err, shared.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := t.TempDir() + "/config.toml"
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
		app := &cli.Command{Name: "anitrack", Commands: runner.register()}

		if err := app.Run(context.Background(), []string{"anitrack", "setup", "config", "--output", path}); err != nil {
			t.Fatalf("setup config: %v", err)
		}
		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		for _, section := range []string{"[jikan]", "[cache]", "[display]", "[user]"} {
			if !strings.Contains(content, section) {
				t.Errorf("expected %s in written config", section)
			}
		}

		if err := app.Run(context.Background(), []string{"anitrack", "setup", "config", "--output", path}); err == nil {
			t.Error("expected an error when the file already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		t.Cleanup(func() { os.Chdir(wd) })

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})
		app := &cli.Command{Name: "anitrack", Commands: runner.register()}

		if err := app.Run(context.Background(), []string{"anitrack", "setup", "database"}); err != nil {
			t.Fatalf("setup database: %v", err)
		}
		tu.AssertFileExists(t, "config.toml")
		tu.AssertFileExists(t, "anitrack.db")
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}

		output.Reset()
		if err := app.Run(context.Background(), []string{"anitrack", "setup", "rollback"}); err != nil {
			t.Fatalf("setup rollback: %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back one migration") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}
