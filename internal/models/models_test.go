package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/shared"
)

func TestParseStatus(t *testing.T) {
	tc := []struct {
		in   string
		want Status
	}{
		{in: "Watching", want: StatusWatching},
		{in: "watching", want: StatusWatching},
		{in: "COMPLETED", want: StatusCompleted},
		{in: "On-Hold", want: StatusOnHold},
		{in: "on_hold", want: StatusOnHold},
		{in: "onhold", want: StatusOnHold},
		{in: " dropped ", want: StatusDropped},
		{in: "Plan to Watch", want: StatusPlanToWatch},
		{in: "plan-to-watch", want: StatusPlanToWatch},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseStatus("binging"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestStatusMatches(t *testing.T) {
	if !StatusOnHold.Matches("on-hold") {
		t.Error("expected case-insensitive match")
	}
	if !StatusOnHold.Matches("") {
		t.Error("empty filter should match everything")
	}
	if StatusOnHold.Matches("dropped") {
		t.Error("unexpected match")
	}
}

func TestStatusUnmarshalJSON(t *testing.T) {
	var s Status
	if err := json.Unmarshal([]byte(`"plan to watch"`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != StatusPlanToWatch {
		t.Errorf("got %q", s)
	}

	if err := json.Unmarshal([]byte(`"later"`), &s); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestWatchEntryValidate(t *testing.T) {
	valid := func() *WatchEntry {
		e := NewWatchEntry("user-1", 52991, "  Sousou no Frieren ", StatusWatching)
		e.SetEpisodesWatched(12)
		e.SetScore(10)
		e.SetStart("2023-09-29")
		e.SetFinish("2024-03-22")
		return e
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}
	if got := valid().Title(); got != "Sousou no Frieren" {
		t.Errorf("expected trimmed title, got %q", got)
	}

	tests := []struct {
		name   string
		mutate func(*WatchEntry)
	}{
		{name: "missing title", mutate: func(e *WatchEntry) { e.SetTitle("  ") }},
		{name: "missing user", mutate: func(e *WatchEntry) { e.userID = "" }},
		{name: "negative mal id", mutate: func(e *WatchEntry) { e.malID = -1 }},
		{name: "unknown status", mutate: func(e *WatchEntry) { e.SetStatus("Binging") }},
		{name: "negative episodes", mutate: func(e *WatchEntry) { e.SetEpisodesWatched(-1) }},
		{name: "score too high", mutate: func(e *WatchEntry) { e.SetScore(11) }},
		{name: "score negative", mutate: func(e *WatchEntry) { e.SetScore(-3) }},
		{name: "bad start date", mutate: func(e *WatchEntry) { e.SetStart("29/09/2023") }},
		{name: "finish before start", mutate: func(e *WatchEntry) { e.SetFinish("2023-01-01") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			if err := e.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	t.Run("unset score and dates are valid", func(t *testing.T) {
		e := NewWatchEntry("user-1", 0, "Untitled", StatusPlanToWatch)
		if err := e.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestWatchEntryMarshalJSON(t *testing.T) {
	e := NewWatchEntry("user-1", 52991, "Sousou no Frieren", StatusWatching)
	e.SetID("abc")

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"status":"Watching"`) || !strings.Contains(out, `"mal_id":52991`) {
		t.Errorf("unexpected JSON %s", out)
	}
	if strings.Contains(out, "broadcast") || strings.Contains(out, "user") {
		t.Errorf("empty broadcast and user id should be omitted: %s", out)
	}

	e.SetBroadcast(broadcast.Spec{Day: "Fridays", Time: "23:00", Timezone: "Asia/Tokyo"})
	data, _ = json.Marshal(e)
	if !strings.Contains(string(data), `"broadcast":{"day":"Fridays","time":"23:00","timezone":"Asia/Tokyo"}`) {
		t.Errorf("expected broadcast in JSON: %s", data)
	}
}
