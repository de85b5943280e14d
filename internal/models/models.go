// package models defines the watch list data model of the anime tracker
package models

import (
	"time"

	"github.com/desertthunder/anitrack/internal/broadcast"
)

// Model is a persisted record with a string id and audit timestamps.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the CRUD contract shared by stores. List criteria are store specific keys such as "user_id".
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

// Watchlist stores [WatchEntry] records per user.
type Watchlist interface {
	Repository[*WatchEntry]

	FindByMalID(userID string, malID int) (*WatchEntry, error)
	FindByTitle(userID, title string) (*WatchEntry, error)
	// UpdateBroadcast replaces the stored slot and leaves list progress alone.
	UpdateBroadcast(id string, spec broadcast.Spec) error
	CountByStatus(userID string) (map[Status]int, error)
	AverageScores() ([]ScoreSummary, error)
}
