package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/anitrack/internal/models"
	"github.com/desertthunder/anitrack/internal/shared"
	"github.com/desertthunder/anitrack/internal/tasks"
)

// ListAdd looks up an anime and adds it to the watch list.
func (r *Runner) ListAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}
	if err := r.requireJikan(); err != nil {
		return err
	}

	status, err := models.ParseStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	entry, err := r.engine.Add(ctx, nil, r.userID(), cmd.StringArg("anime"), status)
	if err != nil {
		return fmt.Errorf("failed to add anime: %w", err)
	}

	r.logger.Info("added to watch list", "title", entry.Title(), "status", entry.Status())
	r.writePlain("✓ Added %s as %s\n", entry.Title(), entry.Status())
	r.writePlain("  Entry: %s\n", entry.ID())
	r.writePlain("  %s\n", r.countdownLine(entry.Broadcast(), r.clock.Now()))
	return nil
}

// ListEntries prints the watch list.
func (r *Runner) ListEntries(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	entries, err := r.store.List(map[string]any{
		"user_id": r.userID(),
		"status":  cmd.String("status"),
		"query":   cmd.String("query"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if entries == nil {
			entries = []*models.WatchEntry{}
		}
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		r.writePlain("Your watch list is empty. Add something with 'anitrack list add <title>'.\n")
		return nil
	}

	r.writePlain("%d entries:\n\n", len(entries))
	for _, e := range entries {
		r.writePlain("%d. %s [%s]\n", e.Sequence(), e.Title(), e.Status())
		r.writePlain("   ID: %s\n", e.ID())
		r.writePlain("   Episodes watched: %d", e.EpisodesWatched())
		if e.Score() > 0 {
			r.writePlain("  Score: %d/10", e.Score())
		}
		r.writePlain("\n")
		if spec := e.Broadcast(); spec.Known() {
			r.writePlain("   Airs: %s\n", spec.String())
		}
		r.writePlain("\n")
	}
	return nil
}

// ListEdit updates the fields given as flags on one entry.
func (r *Runner) ListEdit(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	entry, err := r.findEntry(cmd.StringArg("entry"))
	if err != nil {
		return err
	}

	changed := false
	if raw := cmd.String("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return err
		}
		entry.SetStatus(status)
		changed = true
	}
	if n := int(cmd.Int("episodes")); n >= 0 {
		entry.SetEpisodesWatched(n)
		changed = true
	}
	if score := int(cmd.Int("score")); score >= 0 {
		entry.SetScore(score)
		changed = true
	}
	if cmd.IsSet("start") {
		entry.SetStart(cmd.String("start"))
		changed = true
	}
	if cmd.IsSet("finish") {
		entry.SetFinish(cmd.String("finish"))
		changed = true
	}
	if !changed {
		return fmt.Errorf("%w: nothing to update, pass --status, --episodes, --score, --start or --finish", shared.ErrMissingArgument)
	}

	if err := r.store.Update(entry); err != nil {
		return fmt.Errorf("failed to update %s: %w", entry.Title(), err)
	}

	r.writePlain("✓ Updated %s [%s]\n", entry.Title(), entry.Status())
	return nil
}

// ListRemove soft-deletes one entry.
func (r *Runner) ListRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	entry, err := r.findEntry(cmd.StringArg("entry"))
	if err != nil {
		return err
	}
	if err := r.store.Delete(entry.ID()); err != nil {
		return fmt.Errorf("failed to remove %s: %w", entry.Title(), err)
	}

	r.writePlain("✓ Removed %s\n", entry.Title())
	return nil
}

// ListUpcoming resolves the next airing of every Watching entry, soonest first.
func (r *Runner) ListUpcoming(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}
	if err := r.requireJikan(); err != nil {
		return err
	}

	var statuses []models.Status
	if raw := cmd.String("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return err
		}
		statuses = append(statuses, status)
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.Upcoming(ctx, progress, r.userID(), statuses...)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("failed to resolve upcoming episodes: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(upcomingJSON(result), cmd.Bool("pretty"))
	}

	if len(result.Items) == 0 {
		r.writePlain("Nothing on your watch list matches.\n")
		return nil
	}

	r.writePlainHeader("Upcoming episodes")
	for i, item := range result.Items {
		r.writePlain("%d. %s\n", i+1, item.Entry.Title())
		if item.Available {
			r.writePlain("   Next episode in: %s (%s)\n", item.Remaining.String(), item.Next.In(r.location).Format(timeLayout))
		} else {
			r.writePlain("   No airing schedule available\n")
		}
		if item.Err != nil {
			r.writePlain("   Using stored slot, lookup failed: %v\n", item.Err)
		}
	}
	r.writePlainln("%d scheduled, %d without a schedule, %d lookups failed", result.Scheduled, result.Unscheduled, result.Failed)
	return nil
}

type upcomingRow struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	MalID     int    `json:"mal_id"`
	Broadcast string `json:"broadcast"`
	Available bool   `json:"available"`
	Next      string `json:"next,omitempty"`
	Remaining string `json:"remaining,omitempty"`
	Error     string `json:"error,omitempty"`
}

func upcomingJSON(result *tasks.UpcomingResult) []upcomingRow {
	rows := make([]upcomingRow, 0, len(result.Items))
	for _, item := range result.Items {
		row := upcomingRow{
			ID:        item.Entry.ID(),
			Title:     item.Entry.Title(),
			MalID:     item.Entry.MalID(),
			Broadcast: item.Spec.String(),
			Available: item.Available,
		}
		if item.Available {
			row.Next = item.Next.UTC().Format("2006-01-02T15:04:05Z07:00")
			row.Remaining = item.Remaining.String()
		}
		if item.Err != nil {
			row.Error = item.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// ListStats summarizes the watch list.
func (r *Runner) ListStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	counts, err := r.store.CountByStatus(r.userID())
	if err != nil {
		return err
	}
	scores, err := r.store.AverageScores()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		byStatus := make(map[string]int, len(counts))
		for s, n := range counts {
			byStatus[string(s)] = n
		}
		return r.writeJSON(map[string]any{"statuses": byStatus, "scores": scores}, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Watch list")
	total := 0
	for _, s := range models.Statuses {
		r.writePlain("%-14s %d\n", string(s)+":", counts[s])
		total += counts[s]
	}
	r.writePlain("%-14s %d\n", "Total:", total)

	if len(scores) > 0 {
		r.writePlainln("Average scores")
		for _, s := range scores {
			r.writePlain("%5.2f  %s (%d)\n", s.Average, s.Title, s.Count)
		}
	}
	return nil
}

// ListExport writes the watch list to a file.
func (r *Runner) ListExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	result, err := r.engine.Export(ctx, nil, r.userID(), tasks.ExportOpts{
		Format:     cmd.String("format"),
		Path:       cmd.String("output"),
		Covers:     cmd.Bool("covers"),
		Status:     cmd.String("status"),
		Fs:         r.fs,
		HTTPClient: r.httpClient,
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlain("✓ Exported %d entries to %s\n", result.Entries, result.Path)
	if c := result.Covers; c != nil {
		r.writePlain("  Covers: %d saved, %d failed in %s\n", c.Saved, c.Failed, c.Directory)
	}
	return nil
}

// findEntry resolves an entry id or, failing that, a title on the user's list.
func (r *Runner) findEntry(ref string) (*models.WatchEntry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: entry id or title", shared.ErrMissingArgument)
	}

	entry, err := r.store.Get(ref)
	if err == nil && entry.UserID() == r.userID() {
		return entry, nil
	}
	if err != nil && !errors.Is(err, shared.ErrEntryNotFound) {
		return nil, err
	}
	return r.store.FindByTitle(r.userID(), ref)
}
