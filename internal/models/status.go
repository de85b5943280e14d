package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/anitrack/internal/shared"
)

// Status is the list state of a [WatchEntry].
type Status string

const (
	StatusWatching    Status = "Watching"
	StatusCompleted   Status = "Completed"
	StatusOnHold      Status = "On-Hold"
	StatusDropped     Status = "Dropped"
	StatusPlanToWatch Status = "Plan to Watch"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusWatching, StatusCompleted, StatusOnHold, StatusDropped, StatusPlanToWatch}

// statusKey folds case and treats '-', '_' and spaces alike, so "on_hold" and "plan-to-watch" parse.
func statusKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// ParseStatus matches a status name leniently.
func ParseStatus(s string) (Status, error) {
	key := statusKey(s)
	for _, st := range Statuses {
		if statusKey(string(st)) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, s)
}

// Valid reports whether s is one of [Statuses].
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Matches reports whether s equals filter ignoring case and separators. An empty filter matches everything.
func (s Status) Matches(filter string) bool {
	if strings.TrimSpace(filter) == "" {
		return true
	}
	return statusKey(string(s)) == statusKey(filter)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
