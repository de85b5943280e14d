package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/sourcegraph/conc/pool"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/models"
	"github.com/desertthunder/anitrack/internal/shared"
)

// AnimeSource is the metadata provider used by the engine. [*jikan.Client] implements it.
type AnimeSource interface {
	Anime(ctx context.Context, malID int) (*jikan.Anime, error)
	Search(ctx context.Context, q string, page, limit int) (jikan.Page[jikan.Anime], error)
	BroadcastFor(ctx context.Context, title string) (broadcast.Spec, *jikan.Anime, error)
	BroadcastByID(ctx context.Context, malID int) (broadcast.Spec, *jikan.Anime, error)
}

// WatchlistStore persists watch list entries. [*repositories.WatchlistRepository] implements it.
type WatchlistStore interface {
	Create(entry *models.WatchEntry) error
	List(criteria map[string]any) ([]*models.WatchEntry, error)
	UpdateBroadcast(id string, spec broadcast.Spec) error
}

// Tracker defines the watch list operations.
type Tracker interface {
	// Upcoming resolves the next airing of every matching entry, refreshing stored broadcast slots.
	Upcoming(ctx context.Context, progress chan<- ProgressUpdate, userID string, statuses ...models.Status) (*UpcomingResult, error)

	// Add looks up an anime by MyAnimeList id or title and stores it on the watch list.
	Add(ctx context.Context, progress chan<- ProgressUpdate, userID, query string, status models.Status) (*models.WatchEntry, error)

	// Export writes the watch list in the requested format, optionally with cover images.
	Export(ctx context.Context, progress chan<- ProgressUpdate, userID string, opts ExportOpts) (*ExportResult, error)
}

// UpcomingItem is one entry's resolved schedule.
type UpcomingItem struct {
	Entry     *models.WatchEntry
	Spec      broadcast.Spec      // slot used for the countdown
	Available bool                // false when the slot cannot be resolved
	Next      time.Time           // next airing, zero when unavailable
	Remaining broadcast.Remaining // time until Next
	Refreshed bool                // stored slot was replaced by the provider's
	Err       error               // lookup failure; the stored slot is used instead
}

// UpcomingResult contains the outcome of an [Tracker.Upcoming] run.
type UpcomingResult struct {
	Items       []UpcomingItem // soonest first, unscheduled entries last
	Scheduled   int
	Unscheduled int
	Failed      int
	ResolvedAt  time.Time
}

// WatchEngine implements Tracker.
type WatchEngine struct {
	source  AnimeSource
	store   WatchlistStore
	clock   clockwork.Clock
	logger  *log.Logger
	workers int
}

// DefaultWorkers bounds concurrent provider lookups.
const DefaultWorkers = 3

// NewWatchEngine creates a new WatchEngine with the provided dependencies.
func NewWatchEngine(source AnimeSource, store WatchlistStore, clock clockwork.Clock, logger *log.Logger) *WatchEngine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WatchEngine{source: source, store: store, clock: clock, logger: logger, workers: DefaultWorkers}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *WatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Upcoming resolves the next airing for a user's entries. With no statuses given only Watching entries are used.
//
// Lookups run concurrently. A failed lookup falls back to the slot stored on the entry.
func (e *WatchEngine) Upcoming(ctx context.Context, progress chan<- ProgressUpdate, userID string, statuses ...models.Status) (*UpcomingResult, error) {
	if e.source == nil || e.store == nil {
		return nil, fmt.Errorf("%w: tracker not initialized", shared.ErrServiceUnavailable)
	}
	if len(statuses) == 0 {
		statuses = []models.Status{models.StatusWatching}
	}

	all, err := e.store.List(map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list watch entries: %w", err)
	}
	var entries []*models.WatchEntry
	for _, entry := range all {
		for _, s := range statuses {
			if entry.Status() == s {
				entries = append(entries, entry)
				break
			}
		}
	}
	e.sendProgress(progress, fetchWatchlistUpdate(len(entries)))

	now := e.clock.Now()
	total := len(entries)
	var done atomic.Int32

	p := pool.NewWithResults[UpcomingItem]().WithContext(ctx).WithMaxGoroutines(e.workers)
	for _, entry := range entries {
		p.Go(func(ctx context.Context) (UpcomingItem, error) {
			item := e.resolve(ctx, entry, now)
			e.sendProgress(progress, resolvedUpdate(int(done.Add(1)), total, item))
			return item, nil
		})
	}
	items, err := p.Wait()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]UpcomingItem, len(items))
	for _, item := range items {
		byID[item.Entry.ID()] = item
	}

	result := &UpcomingResult{ResolvedAt: now, Items: make([]UpcomingItem, 0, len(entries))}
	for _, entry := range entries {
		item := byID[entry.ID()]
		result.Items = append(result.Items, item)
		if item.Available {
			result.Scheduled++
		} else {
			result.Unscheduled++
		}
		if item.Err != nil {
			result.Failed++
		}
	}
	sortUpcoming(result.Items)
	return result, nil
}

func (e *WatchEngine) resolve(ctx context.Context, entry *models.WatchEntry, now time.Time) UpcomingItem {
	item := UpcomingItem{Entry: entry, Spec: entry.Broadcast()}

	var (
		spec broadcast.Spec
		err  error
	)
	if entry.MalID() > 0 {
		spec, _, err = e.source.BroadcastByID(ctx, entry.MalID())
	} else {
		spec, _, err = e.source.BroadcastFor(ctx, entry.Title())
	}

	switch {
	case err == nil, errors.Is(err, shared.ErrNoSchedule):
		item.Spec = spec
		if spec != entry.Broadcast() {
			if uerr := e.store.UpdateBroadcast(entry.ID(), spec); uerr != nil {
				e.logger.Warn("failed to store broadcast", "entry", entry.ID(), "error", uerr)
			} else {
				entry.SetBroadcast(spec)
				item.Refreshed = true
			}
		}
	default:
		item.Err = err
		e.logger.Warn("broadcast lookup failed, using stored slot", "title", entry.Title(), "error", err)
	}

	remaining, next, ok := broadcast.Until(item.Spec, now)
	item.Available = ok
	item.Next = next
	item.Remaining = remaining
	return item
}

func sortUpcoming(items []UpcomingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Available != b.Available {
			return a.Available
		}
		if a.Available && !a.Next.Equal(b.Next) {
			return a.Next.Before(b.Next)
		}
		return a.Entry.Sequence() < b.Entry.Sequence()
	})
}

// Add resolves query to an anime and stores a new entry. A numeric query is a MyAnimeList id, anything else
// is searched by title and the best match is used.
func (e *WatchEngine) Add(ctx context.Context, progress chan<- ProgressUpdate, userID, query string, status models.Status) (*models.WatchEntry, error) {
	if e.source == nil || e.store == nil {
		return nil, fmt.Errorf("%w: tracker not initialized", shared.ErrServiceUnavailable)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: anime id or title", shared.ErrMissingArgument)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", shared.ErrInvalidInput, status)
	}

	e.sendProgress(progress, lookupUpdate(query))

	var anime *jikan.Anime
	if id, err := strconv.Atoi(query); err == nil {
		if anime, err = e.source.Anime(ctx, id); err != nil {
			return nil, notFound(err, query)
		}
	} else {
		page, err := e.source.Search(ctx, query, 1, 1)
		if err != nil {
			return nil, notFound(err, query)
		}
		anime = &page.Items[0]
	}

	entry := models.NewWatchEntry(userID, anime.MalID, anime.DisplayTitle(), status)
	entry.SetImage(anime.ImageURL())
	entry.SetBroadcast(anime.Spec())
	if status == models.StatusCompleted && anime.Episodes != nil {
		entry.SetEpisodesWatched(*anime.Episodes)
	}

	if err := e.store.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func notFound(err error, query string) error {
	if errors.Is(err, shared.ErrEmptyResult) {
		return fmt.Errorf("%w: %q", shared.ErrAnimeNotFound, query)
	}
	return err
}
