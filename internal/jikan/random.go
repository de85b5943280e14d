package jikan

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/desertthunder/anitrack/internal/shared"
)

// MaxRandomDraws bounds [Client.RandomN].
const MaxRandomDraws = 10

type draw struct {
	slot  int
	anime *Anime
	err   error
}

// RandomN draws up to n distinct random anime concurrently. Duplicate draws are dropped, so fewer than n may be
// returned. It fails only when every draw fails.
func (c *Client) RandomN(ctx context.Context, n int) ([]Anime, error) {
	if n < 1 || n > MaxRandomDraws {
		return nil, fmt.Errorf("%w: count must be between 1 and %d, got %d", shared.ErrInvalidArgument, MaxRandomDraws, n)
	}

	p := pool.NewWithResults[draw]().WithMaxGoroutines(n)
	for i := range n {
		p.Go(func() draw {
			a, err := c.Random(ctx)
			return draw{slot: i, anime: a, err: err}
		})
	}
	draws := p.Wait()
	sort.Slice(draws, func(i, j int) bool { return draws[i].slot < draws[j].slot })

	seen := make(map[int]bool, n)
	var (
		out  []Anime
		errs []error
	)
	for _, d := range draws {
		if d.err != nil {
			errs = append(errs, d.err)
			continue
		}
		if seen[d.anime.MalID] {
			continue
		}
		seen[d.anime.MalID] = true
		out = append(out, *d.anime)
	}

	if len(out) == 0 {
		return nil, errors.Join(errs...)
	}
	if len(errs) > 0 {
		c.logger.Warn("some random draws failed", "failed", len(errs), "returned", len(out))
	}
	return out, nil
}

// rankByScore orders anime by score, unscored last, keeping API order for ties, and truncates to limit.
func rankByScore(items []Anime, limit int) []Anime {
	ranked := make([]Anime, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Score, ranked[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
