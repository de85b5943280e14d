package tasks

import (
	"fmt"

	"github.com/desertthunder/anitrack/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchWatchlist Phase = iota
	ResolveBroadcast
	LookupAnime
	DownloadCover
	ExportList
)

func (p Phase) String() string {
	switch p {
	case FetchWatchlist:
		return "fetch_watchlist"
	case ResolveBroadcast:
		return "resolve_broadcast"
	case LookupAnime:
		return "lookup_anime"
	case DownloadCover:
		return "download_cover"
	case ExportList:
		return "export_list"
	default:
		return ""
	}
}

func fetchWatchlistUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchWatchlist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d watch list entries", count),
	}
}

func resolvedUpdate(step, total int, item UpcomingItem) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s: %s", step, total, item.Entry.Title(), item.Remaining)
	if !item.Available {
		msg = fmt.Sprintf("[%d/%d] %s: no schedule", step, total, item.Entry.Title())
	}
	return ProgressUpdate{
		Phase:   ResolveBroadcast,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func lookupUpdate(query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupAnime,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Looking up %q...", query),
	}
}

func coverSavedUpdate(step, total int, entry *models.WatchEntry, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s -> %s", step, total, entry.Title(), path),
	}
}

func coverFailedUpdate(step, total int, entry *models.WatchEntry, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadCover,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, entry.Title(), err),
	}
}

func exportWrittenUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %s", path),
	}
}
