package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/cache"
	"github.com/desertthunder/anitrack/internal/repositories"
	"github.com/desertthunder/anitrack/internal/shared"
)

// CachePurge deletes expired responses from the configured cache.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	if r.responses == nil {
		return fmt.Errorf("%w: response cache not initialized", shared.ErrServiceUnavailable)
	}

	var removed int64
	switch c := r.responses.(type) {
	case *repositories.ResponseCacheRepository:
		n, err := c.Purge(ctx)
		if err != nil {
			return err
		}
		removed = n
	case *cache.Memory:
		removed = int64(c.Purge())
	default:
		r.writePlain("The %s backend expires entries on its own, nothing to purge.\n", r.cacheBackend())
		return nil
	}

	r.logger.Info("purged response cache", "backend", r.cacheBackend(), "removed", removed)
	r.writePlain("✓ Removed %d expired responses\n", removed)
	return nil
}

// CacheStats prints the cache backend and, for the in-process cache, its hit counts.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if r.responses == nil {
		return fmt.Errorf("%w: response cache not initialized", shared.ErrServiceUnavailable)
	}

	r.writePlain("Backend: %s\n", r.cacheBackend())
	r.writePlain("TTL:     %s\n", r.config.Cache.TTL)
	if m, ok := r.responses.(*cache.Memory); ok {
		stats := m.Stats()
		r.writePlain("Entries: %d\n", m.Len())
		r.writePlain("Hits:    %d\n", stats.Hits)
		r.writePlain("Misses:  %d\n", stats.Misses)
	}
	return nil
}

func (r *Runner) cacheBackend() string {
	switch r.responses.(type) {
	case *cache.Memory:
		return "memory"
	case *repositories.ResponseCacheRepository:
		return "sqlite"
	case *cache.Redis:
		return "redis"
	default:
		return "none"
	}
}
