package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/shared"
)

// DateLayout is the format of start and finish dates.
const DateLayout = "2006-01-02"

// WatchEntry is one anime on a user's watch list.
type WatchEntry struct {
	id              string
	sequence        int
	userID          string
	malID           int
	title           string
	image           string
	status          Status
	episodesWatched int
	score           int
	start           string
	finish          string
	broadcast       broadcast.Spec
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewWatchEntry creates an unsaved entry. The repository assigns the ID and sequence on Create.
func NewWatchEntry(userID string, malID int, title string, status Status) *WatchEntry {
	now := time.Now()
	return &WatchEntry{
		userID:    userID,
		malID:     malID,
		title:     strings.TrimSpace(title),
		status:    status,
		createdAt: now,
		updatedAt: now,
	}
}

func (e *WatchEntry) ID() string                { return e.id }
func (e *WatchEntry) Sequence() int             { return e.sequence }
func (e *WatchEntry) UserID() string            { return e.userID }
func (e *WatchEntry) MalID() int                { return e.malID }
func (e *WatchEntry) Title() string             { return e.title }
func (e *WatchEntry) Image() string             { return e.image }
func (e *WatchEntry) Status() Status            { return e.status }
func (e *WatchEntry) EpisodesWatched() int      { return e.episodesWatched }
func (e *WatchEntry) Score() int                { return e.score }
func (e *WatchEntry) Start() string             { return e.start }
func (e *WatchEntry) Finish() string            { return e.finish }
func (e *WatchEntry) Broadcast() broadcast.Spec { return e.broadcast }
func (e *WatchEntry) CreatedAt() time.Time      { return e.createdAt }
func (e *WatchEntry) UpdatedAt() time.Time      { return e.updatedAt }
func (e *WatchEntry) DeletedAt() *time.Time     { return e.deletedAt }

func (e *WatchEntry) SetID(id string)                  { e.id = id }
func (e *WatchEntry) SetSequence(seq int)              { e.sequence = seq }
func (e *WatchEntry) SetTitle(title string)            { e.title = strings.TrimSpace(title) }
func (e *WatchEntry) SetImage(url string)              { e.image = url }
func (e *WatchEntry) SetStatus(s Status)               { e.status = s }
func (e *WatchEntry) SetEpisodesWatched(n int)         { e.episodesWatched = n }
func (e *WatchEntry) SetScore(score int)               { e.score = score }
func (e *WatchEntry) SetStart(date string)             { e.start = strings.TrimSpace(date) }
func (e *WatchEntry) SetFinish(date string)            { e.finish = strings.TrimSpace(date) }
func (e *WatchEntry) SetBroadcast(spec broadcast.Spec) { e.broadcast = spec }
func (e *WatchEntry) SetCreatedAt(t time.Time)         { e.createdAt = t }
func (e *WatchEntry) SetUpdatedAt(t time.Time)         { e.updatedAt = t }
func (e *WatchEntry) SetDeletedAt(t *time.Time)        { e.deletedAt = t }

// IsDeleted reports whether the entry has been soft-deleted.
func (e *WatchEntry) IsDeleted() bool { return e.deletedAt != nil }

// Validate checks required fields and value ranges.
func (e *WatchEntry) Validate() error {
	if e.userID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if e.title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if e.malID < 0 {
		return fmt.Errorf("%w: mal id must not be negative", shared.ErrInvalidInput)
	}
	if !e.status.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, e.status)
	}
	if e.episodesWatched < 0 {
		return fmt.Errorf("%w: episodes watched must not be negative", shared.ErrInvalidInput)
	}
	if e.score != 0 && (e.score < 1 || e.score > 10) {
		return fmt.Errorf("%w: score must be between 1 and 10, got %d", shared.ErrInvalidInput, e.score)
	}

	start, err := parseDate("start", e.start)
	if err != nil {
		return err
	}
	finish, err := parseDate("finish", e.finish)
	if err != nil {
		return err
	}
	if !start.IsZero() && !finish.IsZero() && finish.Before(start) {
		return fmt.Errorf("%w: finish date %s is before start date %s", shared.ErrInvalidInput, e.finish, e.start)
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s date %q must be YYYY-MM-DD", shared.ErrInvalidInput, field, value)
	}
	return t, nil
}

type watchEntryJSON struct {
	ID              string          `json:"id"`
	MalID           int             `json:"mal_id,omitempty"`
	Title           string          `json:"title"`
	Image           string          `json:"image,omitempty"`
	Status          Status          `json:"status"`
	EpisodesWatched int             `json:"episodes_watched"`
	Score           int             `json:"score,omitempty"`
	Start           string          `json:"start,omitempty"`
	Finish          string          `json:"finish,omitempty"`
	Broadcast       *broadcast.Spec `json:"broadcast,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (e *WatchEntry) MarshalJSON() ([]byte, error) {
	out := watchEntryJSON{
		ID:              e.id,
		MalID:           e.malID,
		Title:           e.title,
		Image:           e.image,
		Status:          e.status,
		EpisodesWatched: e.episodesWatched,
		Score:           e.score,
		Start:           e.start,
		Finish:          e.finish,
		CreatedAt:       e.createdAt,
		UpdatedAt:       e.updatedAt,
	}
	if e.broadcast != (broadcast.Spec{}) {
		spec := e.broadcast
		out.Broadcast = &spec
	}
	return json.Marshal(out)
}

// ScoreSummary is the average score given to one title across every user who scored it.
type ScoreSummary struct {
	Title   string  `json:"title"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
