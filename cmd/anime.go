package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/countdown"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/shared"
)

const timeLayout = "Mon Jan 2 15:04 MST"

// Season lists this season's anime with a countdown for each.
func (r *Runner) Season(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	page, err := r.jikan.SeasonNow(ctx, int(cmd.Int("page")), int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to fetch season: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Airing this season (page %d)", page.CurrentPage))
	r.writeAnimeList(page.Items)
	if page.HasNextPage {
		r.writePlain("More results: --page %d\n", page.CurrentPage+1)
	}
	return nil
}

// Schedule lists anime broadcast on a weekday. Without an argument today's weekday in Japan is used.
func (r *Runner) Schedule(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	day := strings.TrimSpace(cmd.StringArg("day"))
	if day == "" {
		jst := time.FixedZone("JST", broadcast.JSTOffsetMinutes*60)
		day = r.clock.Now().In(jst).Weekday().String()
	}

	page, err := r.jikan.Schedules(ctx, day, int(cmd.Int("page")))
	if err != nil {
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Broadcast on %s", day))
	r.writeAnimeList(page.Items)
	return nil
}

// Top ranks this season's anime by score.
func (r *Runner) Top(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	ranking, err := r.jikan.TopThisSeason(ctx, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to rank anime: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(ranking, cmd.Bool("pretty"))
	}

	switch ranking.Source {
	case jikan.SourceSeason:
		r.writePlainHeader("Top rated this season")
	case jikan.SourceYear:
		r.writePlainHeader(fmt.Sprintf("Top rated of %d", r.clock.Now().Year()))
	default:
		r.writePlainHeader("Top rated of all time")
	}
	r.writeAnimeList(ranking.Anime)
	return nil
}

// Search finds anime by title.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	r.logger.Info("searching anime", "query", query)

	page, err := r.jikan.Search(ctx, query, int(cmd.Int("page")), int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d results for %q:\n\n", len(page.Items), query)
	r.writeAnimeList(page.Items)
	return nil
}

// Show prints the details of one anime.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	id, err := parseMalID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	anime, err := r.jikan.Anime(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch anime %d: %w", id, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(anime, cmd.Bool("pretty"))
	}

	r.writePlainHeader(anime.DisplayTitle())
	if anime.TitleEnglish != "" && anime.TitleEnglish != anime.Title {
		r.writePlain("English: %s\n", anime.TitleEnglish)
	}
	if anime.TitleJapanese != "" {
		r.writePlain("Japanese: %s\n", anime.TitleJapanese)
	}
	r.writePlain("Type: %s  Status: %s\n", anime.Type, anime.Status)
	r.writePlain("Episodes: %s  Score: %s\n", anime.EpisodesText(), anime.ScoreText())
	if year := anime.ReleaseYear(); year > 0 {
		r.writePlain("Year: %d\n", year)
	}
	if genres := anime.GenreNames(); len(genres) > 0 {
		r.writePlain("Genres: %s\n", strings.Join(genres, ", "))
	}
	r.writePlain("Broadcast: %s\n", anime.Spec().String())
	r.writePlain("%s\n", r.countdownLine(anime.Spec(), r.clock.Now()))
	r.writePlain("URL: %s\n", jikan.AnimeURL(anime.MalID))
	r.writePlainln("%s", anime.SynopsisText())
	return nil
}

// Random suggests distinct random anime.
func (r *Runner) Random(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	picks, err := r.jikan.RandomN(ctx, int(cmd.Int("count")))
	if err != nil {
		return fmt.Errorf("failed to draw random anime: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(picks, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Random picks")
	r.writeAnimeList(picks)
	return nil
}

// Recommend lists anime other users recommended recently.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireJikan(); err != nil {
		return err
	}

	items, err := r.jikan.Recommendations(ctx, int(cmd.Int("page")))
	if err != nil {
		return fmt.Errorf("failed to fetch recommendations: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Recommended")
	r.writeAnimeList(items)
	return nil
}

// Countdown shows the time until the next episode. It refreshes every second until interrupted unless
// --once is set.
func (r *Runner) Countdown(ctx context.Context, cmd *cli.Command) error {
	title, spec, err := r.lookupSpec(ctx, cmd.StringArg("anime"))
	if err != nil {
		return err
	}

	r.writePlain("%s • %s\n", title, spec.String())
	if cmd.Bool("once") {
		r.writePlain("%s\n", r.countdownLine(spec, r.clock.Now()))
		return nil
	}

	p := countdown.NewPresenter(spec, r.clock, func(s countdown.State) {
		r.writePlain("\r\033[K%s", r.stateLine(s))
	})
	handle := p.Start(ctx)
	<-handle.Done()
	handle.Stop()
	r.writePlain("\n")
	return nil
}

// Open opens an anime's MyAnimeList page.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	id, err := parseMalID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	url := jikan.AnimeURL(id)
	r.logger.Info("opening anime page", "url", url)
	if err := r.open(url); err != nil {
		r.writePlain("Could not open a browser, visit %s\n", url)
		return err
	}
	return nil
}

// lookupSpec resolves arg to a broadcast slot. A number is a MyAnimeList id, otherwise a watch list entry
// with that title is used before searching the provider.
func (r *Runner) lookupSpec(ctx context.Context, arg string) (string, broadcast.Spec, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", broadcast.Spec{}, fmt.Errorf("%w: anime id or title", shared.ErrMissingArgument)
	}

	if r.store != nil {
		if entry, err := r.store.FindByTitle(r.userID(), arg); err == nil && entry.Broadcast().Known() {
			return entry.Title(), entry.Broadcast(), nil
		}
	}

	if err := r.requireJikan(); err != nil {
		return "", broadcast.Spec{}, err
	}

	var (
		spec  broadcast.Spec
		anime *jikan.Anime
		err   error
	)
	if id, convErr := strconv.Atoi(arg); convErr == nil {
		spec, anime, err = r.jikan.BroadcastByID(ctx, id)
	} else {
		spec, anime, err = r.jikan.BroadcastFor(ctx, arg)
	}
	if err != nil && !errors.Is(err, shared.ErrNoSchedule) {
		return "", broadcast.Spec{}, err
	}
	return anime.DisplayTitle(), spec, nil
}

func (r *Runner) writeAnimeList(items []jikan.Anime) {
	now := r.clock.Now()
	for i, a := range items {
		r.writePlain("%d. %s\n", i+1, a.DisplayTitle())
		if a.TitleEnglish != "" && a.TitleEnglish != a.Title {
			r.writePlain("   English: %s\n", a.TitleEnglish)
		}
		r.writePlain("   MAL ID: %d\n", a.MalID)
		r.writePlain("   Score: %s  Episodes: %s\n", a.ScoreText(), a.EpisodesText())
		if spec := a.Spec(); spec.Known() {
			r.writePlain("   Airs: %s\n", spec.String())
		}
		r.writePlain("   %s\n\n", r.countdownLine(a.Spec(), now))
	}
}

// countdownLine renders the countdown with the next airing in the display timezone.
func (r *Runner) countdownLine(spec broadcast.Spec, now time.Time) string {
	return r.stateLine(countdown.Evaluate(spec, now))
}

func (r *Runner) stateLine(s countdown.State) string {
	if !s.Available {
		return s.String()
	}
	return fmt.Sprintf("%s (%s)", s.String(), s.Next.In(r.location).Format(timeLayout))
}

func parseMalID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: MyAnimeList id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: MyAnimeList id must be a positive number, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}
