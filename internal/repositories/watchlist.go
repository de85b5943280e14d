package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/models"
	"github.com/desertthunder/anitrack/internal/shared"
)

const watchEntryColumns = `id, sequence, user_id, mal_id, title, image_url, status, episodes_watched, score,
	start_date, finish_date, broadcast_day, broadcast_time, broadcast_timezone, created_at, updated_at, deleted_at`

// WatchlistRepository implements [models.Watchlist] with SQLite for [models.WatchEntry] persistence.
//
// Each user owns an independent list. An anime (by MyAnimeList id) appears at most once per user among live entries.
type WatchlistRepository struct {
	db *sql.DB
}

// NewWatchlistRepository creates a new [WatchlistRepository] with the given database connection
func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Create inserts a new entry with generated ID and sequence
func (r *WatchlistRepository) Create(entry *models.WatchEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "watch_entries")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO watch_entries (` + watchEntryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	spec := entry.Broadcast()
	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.UserID(),
		entry.MalID(),
		entry.Title(),
		entry.Image(),
		string(entry.Status()),
		entry.EpisodesWatched(),
		entry.Score(),
		entry.Start(),
		entry.Finish(),
		spec.Day,
		spec.Time,
		spec.Timezone,
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: %s", shared.ErrDuplicate, entry.Title())
		}
		return fmt.Errorf("failed to insert watch entry: %w", err)
	}

	entry.SetID(id)
	entry.SetSequence(sequence)
	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *WatchlistRepository) Get(id string) (*models.WatchEntry, error) {
	query := `SELECT ` + watchEntryColumns + ` FROM watch_entries WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id), id)
}

// FindByMalID retrieves a user's live entry for an anime
func (r *WatchlistRepository) FindByMalID(userID string, malID int) (*models.WatchEntry, error) {
	query := `
		SELECT ` + watchEntryColumns + `
		FROM watch_entries
		WHERE user_id = ? AND mal_id = ? AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRow(query, userID, malID), fmt.Sprintf("mal id %d", malID))
}

// FindByTitle retrieves a user's earliest live entry whose title matches case-insensitively
func (r *WatchlistRepository) FindByTitle(userID, title string) (*models.WatchEntry, error) {
	query := `
		SELECT ` + watchEntryColumns + `
		FROM watch_entries
		WHERE user_id = ? AND LOWER(title) = LOWER(?) AND deleted_at IS NULL
		ORDER BY sequence ASC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query, userID, strings.TrimSpace(title)), fmt.Sprintf("title %q", title))
}

// Update writes every mutable field of an existing entry
func (r *WatchlistRepository) Update(entry *models.WatchEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	spec := entry.Broadcast()

	query := `
		UPDATE watch_entries
		SET title = ?, image_url = ?, status = ?, episodes_watched = ?, score = ?, start_date = ?, finish_date = ?,
			broadcast_day = ?, broadcast_time = ?, broadcast_timezone = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		entry.Title(),
		entry.Image(),
		string(entry.Status()),
		entry.EpisodesWatched(),
		entry.Score(),
		entry.Start(),
		entry.Finish(),
		spec.Day,
		spec.Time,
		spec.Timezone,
		now,
		entry.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update watch entry: %w", err)
	}
	if err := expectOneRow(result, entry.ID()); err != nil {
		return err
	}

	entry.SetUpdatedAt(now)
	return nil
}

// UpdateBroadcast stores a refreshed broadcast slot without touching list progress
func (r *WatchlistRepository) UpdateBroadcast(id string, spec broadcast.Spec) error {
	query := `
		UPDATE watch_entries
		SET broadcast_day = ?, broadcast_time = ?, broadcast_timezone = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, spec.Day, spec.Time, spec.Timezone, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update broadcast: %w", err)
	}
	return expectOneRow(result, id)
}

// Delete soft-deletes an entry by ID
func (r *WatchlistRepository) Delete(id string) error {
	query := `
		UPDATE watch_entries
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete watch entry: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves live entries matching criteria, ordered by sequence.
//
// Supported criteria: "user_id" (exact), "status" (any spelling [models.ParseStatus] accepts) and
// "query" (case-insensitive title substring).
func (r *WatchlistRepository) List(criteria map[string]any) ([]*models.WatchEntry, error) {
	query := `SELECT ` + watchEntryColumns + ` FROM watch_entries WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if raw, ok := criteria["status"].(string); ok && strings.TrimSpace(raw) != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		query += " AND status = ?"
		args = append(args, string(status))
	}

	if q, ok := criteria["query"].(string); ok && strings.TrimSpace(q) != "" {
		query += " AND LOWER(title) LIKE ? ESCAPE '\\'"
		args = append(args, "%"+escapeLike(strings.ToLower(strings.TrimSpace(q)))+"%")
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// CountByStatus tallies a user's live entries per status
func (r *WatchlistRepository) CountByStatus(userID string) (map[models.Status]int, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*) FROM watch_entries
		WHERE user_id = ? AND deleted_at IS NULL
		GROUP BY status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count watch entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int, len(models.Statuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

// AverageScores averages the scores every user gave each title, highest first. Unscored entries are ignored.
func (r *WatchlistRepository) AverageScores() ([]models.ScoreSummary, error) {
	rows, err := r.db.Query(`
		SELECT MIN(title), AVG(score), COUNT(*)
		FROM watch_entries
		WHERE deleted_at IS NULL AND score > 0
		GROUP BY LOWER(title)
		ORDER BY AVG(score) DESC, MIN(title) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}
	defer rows.Close()

	var summaries []models.ScoreSummary
	for rows.Next() {
		var s models.ScoreSummary
		if err := rows.Scan(&s.Title, &s.Average, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan score summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanOne scans a single [sql.Row], mapping no rows to [shared.ErrEntryNotFound]
func (r *WatchlistRepository) scanOne(row *sql.Row, ref string) (*models.WatchEntry, error) {
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan watch entry: %w", err)
	}
	return entry, nil
}

func scanEntry(s scanner) (*models.WatchEntry, error) {
	var (
		id              string
		sequence        int
		userID          string
		malID           int
		title           string
		image           string
		status          string
		episodesWatched int
		score           int
		start           string
		finish          string
		spec            broadcast.Spec
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	err := s.Scan(&id, &sequence, &userID, &malID, &title, &image, &status, &episodesWatched, &score,
		&start, &finish, &spec.Day, &spec.Time, &spec.Timezone, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	entry := models.NewWatchEntry(userID, malID, title, models.Status(status))
	entry.SetID(id)
	entry.SetSequence(sequence)
	entry.SetImage(image)
	entry.SetEpisodesWatched(episodesWatched)
	entry.SetScore(score)
	entry.SetStart(start)
	entry.SetFinish(finish)
	entry.SetBroadcast(spec)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}
	return entry, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ models.Watchlist = (*WatchlistRepository)(nil)
