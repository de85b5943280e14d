package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/anitrack/internal/cache"
)

// ResponseCacheRepository persists provider responses in SQLite so they survive restarts.
//
// It implements [cache.Cache]. Entries older than the TTL are misses and are removed on read.
type ResponseCacheRepository struct {
	db    *sql.DB
	ttl   time.Duration
	clock clockwork.Clock
}

// NewResponseCacheRepository creates a new [ResponseCacheRepository]. A nil clock uses the real clock.
func NewResponseCacheRepository(db *sql.DB, ttl time.Duration, clock clockwork.Clock) *ResponseCacheRepository {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResponseCacheRepository{db: db, ttl: ttl, clock: clock}
}

// Get returns the payload stored under key while it is fresh
func (r *ResponseCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		payload  []byte
		storedAt int64
	)

	err := r.db.QueryRowContext(ctx, "SELECT payload, stored_at FROM response_cache WHERE key = ?", key).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}

	if r.clock.Since(time.Unix(0, storedAt)) >= r.ttl {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM response_cache WHERE key = ? AND stored_at = ?", key, storedAt); err != nil {
			return nil, false, fmt.Errorf("failed to evict cached response: %w", err)
		}
		return nil, false, nil
	}

	return payload, true, nil
}

// Set upserts the payload for key. The latest write wins.
func (r *ResponseCacheRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO response_cache (key, payload, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value, r.clock.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// Purge deletes every expired entry and returns how many were removed
func (r *ResponseCacheRepository) Purge(ctx context.Context) (int64, error) {
	cutoff := r.clock.Now().Add(-r.ttl).UnixNano()

	result, err := r.db.ExecContext(ctx, "DELETE FROM response_cache WHERE stored_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cached responses: %w", err)
	}
	return result.RowsAffected()
}

var _ cache.Cache = (*ResponseCacheRepository)(nil)
