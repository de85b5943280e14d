package jikan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/shared"
)

// SeasonNow lists anime airing in the current season.
func (c *Client) SeasonNow(ctx context.Context, page, limit int) (Page[Anime], error) {
	key := fmt.Sprintf("season:now:%d:%d", page, limit)
	return fetchList[Anime](ctx, c, key, "/seasons/now", pageQuery(page, limit))
}

// Schedules lists anime broadcasting on day. An empty day lists the whole week.
func (c *Client) Schedules(ctx context.Context, day string, page int) (Page[Anime], error) {
	query := pageQuery(page, 0)
	filter := ""
	if strings.TrimSpace(day) != "" {
		wd, ok := broadcast.ParseWeekday(day)
		if !ok {
			return Page[Anime]{}, fmt.Errorf("%w: unknown weekday %q", shared.ErrInvalidArgument, day)
		}
		filter = strings.ToLower(wd.String())
		query.Set("filter", filter)
	}
	key := fmt.Sprintf("schedules:%s:%d", filter, page)
	return fetchList[Anime](ctx, c, key, "/schedules", query)
}

// Top lists the all-time top ranked anime.
func (c *Client) Top(ctx context.Context, page, limit int) (Page[Anime], error) {
	key := fmt.Sprintf("top:%d:%d", page, limit)
	return fetchList[Anime](ctx, c, key, "/top/anime", pageQuery(page, limit))
}

// TopOfYear lists the best scored anime that started airing in year.
func (c *Client) TopOfYear(ctx context.Context, year, limit int) (Page[Anime], error) {
	query := pageQuery(0, limit)
	query.Set("start_date", fmt.Sprintf("%04d-01-01", year))
	query.Set("end_date", fmt.Sprintf("%04d-12-31", year))
	query.Set("order_by", "score")
	query.Set("sort", "desc")
	key := fmt.Sprintf("top:year:%d:%d", year, limit)
	return fetchList[Anime](ctx, c, key, "/anime", query)
}

// Search finds anime by title, best scored first.
func (c *Client) Search(ctx context.Context, q string, page, limit int) (Page[Anime], error) {
	normalized := shared.NormalizeTitleKey(q)
	if normalized == "" {
		return Page[Anime]{}, fmt.Errorf("%w: empty search query", shared.ErrMissingArgument)
	}

	query := pageQuery(page, limit)
	query.Set("q", strings.TrimSpace(q))
	query.Set("order_by", "score")
	query.Set("sort", "desc")
	key := fmt.Sprintf("search:%s:%d:%d", normalized, page, limit)
	return fetchList[Anime](ctx, c, key, "/anime", query)
}

// Anime fetches the full record for one MyAnimeList id.
func (c *Client) Anime(ctx context.Context, malID int) (*Anime, error) {
	if malID <= 0 {
		return nil, fmt.Errorf("%w: mal id must be positive, got %d", shared.ErrInvalidArgument, malID)
	}
	path := fmt.Sprintf("/anime/%d/full", malID)
	return fetchItem[Anime](ctx, c, fmt.Sprintf("anime:%d", malID), path)
}

// Random draws one random anime. Random picks are never cached.
func (c *Client) Random(ctx context.Context) (*Anime, error) {
	return fetchItem[Anime](ctx, c, "", "/random/anime")
}

// Recommendations lists recently recommended anime, flattened from recommendation pairs and deduplicated.
func (c *Client) Recommendations(ctx context.Context, page int) ([]Anime, error) {
	key := fmt.Sprintf("recommendations:%d", page)
	recs, err := fetchList[Recommendation](ctx, c, key, "/recommendations/anime", pageQuery(page, 0))
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var out []Anime
	for _, rec := range recs.Items {
		for _, a := range rec.Entry {
			if a.MalID == 0 || seen[a.MalID] {
				continue
			}
			seen[a.MalID] = true
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: /recommendations/anime", shared.ErrEmptyResult)
	}
	return out, nil
}

// Ranking source names reported by [Client.TopThisSeason].
const (
	SourceSeason  = "season"
	SourceYear    = "year"
	SourceAllTime = "all-time"
)

// Ranking is a ranked list of anime and the listing that produced it.
type Ranking struct {
	Source string  `json:"source"`
	Anime  []Anime `json:"anime"`
}

// TopThisSeason ranks the current season by score. When the seasonal listing fails or is empty it falls back to
// the best of the current year and then to the all-time top list.
func (c *Client) TopThisSeason(ctx context.Context, limit int) (Ranking, error) {
	page, err := c.SeasonNow(ctx, 1, limit)
	if err == nil {
		return Ranking{Source: SourceSeason, Anime: rankByScore(page.Items, limit)}, nil
	}
	if ctx.Err() != nil {
		return Ranking{}, err
	}
	c.logger.Warn("seasonal ranking unavailable, trying this year", "error", err)

	year := c.clock.Now().Year()
	page, err = c.TopOfYear(ctx, year, limit)
	if err == nil {
		return Ranking{Source: SourceYear, Anime: rankByScore(page.Items, limit)}, nil
	}
	if ctx.Err() != nil {
		return Ranking{}, err
	}
	c.logger.Warn("yearly ranking unavailable, trying all-time top", "year", year, "error", err)

	page, err = c.Top(ctx, 1, limit)
	if err != nil {
		return Ranking{}, err
	}
	return Ranking{Source: SourceAllTime, Anime: page.Items}, nil
}

// BroadcastFor finds the broadcast slot of the best search match for title. A match with no slot is
// [shared.ErrNoSchedule].
func (c *Client) BroadcastFor(ctx context.Context, title string) (broadcast.Spec, *Anime, error) {
	page, err := c.Search(ctx, title, 1, 1)
	if err != nil {
		if errors.Is(err, shared.ErrEmptyResult) {
			return broadcast.Spec{}, nil, fmt.Errorf("%w: %q", shared.ErrAnimeNotFound, title)
		}
		return broadcast.Spec{}, nil, err
	}
	match := page.Items[0]
	spec := match.Spec()
	if !spec.Known() {
		return spec, &match, fmt.Errorf("%w: %s", shared.ErrNoSchedule, match.DisplayTitle())
	}
	return spec, &match, nil
}

// BroadcastByID is [Client.BroadcastFor] for a known MyAnimeList id.
func (c *Client) BroadcastByID(ctx context.Context, malID int) (broadcast.Spec, *Anime, error) {
	a, err := c.Anime(ctx, malID)
	if err != nil {
		if errors.Is(err, shared.ErrEmptyResult) {
			return broadcast.Spec{}, nil, fmt.Errorf("%w: mal id %d", shared.ErrAnimeNotFound, malID)
		}
		return broadcast.Spec{}, nil, err
	}
	spec := a.Spec()
	if !spec.Known() {
		return spec, a, fmt.Errorf("%w: %s", shared.ErrNoSchedule, a.DisplayTitle())
	}
	return spec, a, nil
}

// AnimeURL is the MyAnimeList page for an id.
func AnimeURL(malID int) string {
	return fmt.Sprintf("https://myanimelist.net/anime/%d", malID)
}
