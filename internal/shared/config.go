package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Jikan    JikanConfig    `toml:"jikan"`
	Cache    CacheConfig    `toml:"cache"`
	Display  DisplayConfig  `toml:"display"`
	User     UserConfig     `toml:"user"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// JikanConfig contains settings for the Jikan metadata API client.
//
// Durations are Go duration strings ("700ms", "5s").
type JikanConfig struct {
	BaseURL           string  `toml:"base_url"`
	Attempts          int     `toml:"attempts"`
	BaseDelay         string  `toml:"base_delay"`
	MaxDelay          string  `toml:"max_delay"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// CacheConfig selects the response cache backend.
//
// Backend is one of "memory", "sqlite" or "redis".
type CacheConfig struct {
	Backend       string `toml:"backend"`
	TTL           string `toml:"ttl"`
	RedisURL      string `toml:"redis_url"`
	RedisPassword string `toml:"redis_password"`
}

// DisplayConfig controls how airing instants are rendered.
type DisplayConfig struct {
	Timezone string `toml:"timezone"`
}

// UserConfig identifies the owner of the local watch list.
type UserConfig struct {
	ID string `toml:"id"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from ANITRACK_* environment variables.
//
// A .env file in the working directory is loaded first when present; variables already set in the environment win.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	c.Database.Path = getEnv("ANITRACK_DB_PATH", c.Database.Path)
	c.Jikan.BaseURL = getEnv("ANITRACK_JIKAN_BASE_URL", c.Jikan.BaseURL)
	c.Cache.Backend = getEnv("ANITRACK_CACHE_BACKEND", c.Cache.Backend)
	c.Cache.RedisURL = getEnv("ANITRACK_REDIS_URL", c.Cache.RedisURL)
	c.Cache.RedisPassword = getEnv("ANITRACK_REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Display.Timezone = getEnv("ANITRACK_TIMEZONE", c.Display.Timezone)
	c.User.ID = getEnv("ANITRACK_USER_ID", c.User.ID)
	c.Log.Level = getEnv("ANITRACK_LOG_LEVEL", c.Log.Level)
}

// Validate checks that durations parse and numeric settings are in range.
func (c *Config) Validate() error {
	if c.Jikan.BaseURL == "" {
		return fmt.Errorf("%w: jikan.base_url is required", ErrInvalidConfig)
	}
	if c.Jikan.Attempts < 1 {
		return fmt.Errorf("%w: jikan.attempts must be at least 1, got %d", ErrInvalidConfig, c.Jikan.Attempts)
	}
	if _, err := c.Jikan.BaseDelayDuration(); err != nil {
		return err
	}
	if _, err := c.Jikan.MaxDelayDuration(); err != nil {
		return err
	}
	if _, err := c.Cache.TTLDuration(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "memory", "sqlite", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("%w: cache.redis_url is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if _, err := c.Display.Location(); err != nil {
		return err
	}
	return nil
}

// BaseDelayDuration parses the initial retry delay.
func (j JikanConfig) BaseDelayDuration() (time.Duration, error) {
	return parseDuration("jikan.base_delay", j.BaseDelay)
}

// MaxDelayDuration parses the retry delay cap. Empty means uncapped.
func (j JikanConfig) MaxDelayDuration() (time.Duration, error) {
	if j.MaxDelay == "" {
		return 0, nil
	}
	return parseDuration("jikan.max_delay", j.MaxDelay)
}

// TTLDuration parses the response cache time-to-live.
func (c CacheConfig) TTLDuration() (time.Duration, error) {
	return parseDuration("cache.ttl", c.TTL)
}

// Location resolves the display timezone. Empty or "Local" selects the system zone.
func (d DisplayConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || d.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: display.timezone %q: %v", ErrInvalidConfig, d.Timezone, err)
	}
	return loc, nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, field)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
