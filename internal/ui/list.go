package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/anitrack/internal/broadcast"
	"github.com/desertthunder/anitrack/internal/countdown"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/tasks"
)

var (
	_ list.Item = animeItem{}
)

// animeItem is one countdown row. key identifies its presenter on the board.
type animeItem struct {
	key    string
	title  string
	detail string
	url    string
	spec   broadcast.Spec
	state  countdown.State
}

func (i animeItem) FilterValue() string { return i.title }
func (i animeItem) Title() string       { return i.title }
func (i animeItem) Description() string {
	if i.detail == "" {
		return i.state.String()
	}
	return fmt.Sprintf("%s • %s", i.state.String(), i.detail)
}

func seasonKey(malID int) string     { return fmt.Sprintf("season:%d", malID) }
func entryKey(entryID string) string { return "list:" + entryID }

// seasonItem wraps a seasonal [jikan.Anime].
func seasonItem(a jikan.Anime, state countdown.State) animeItem {
	parts := []string{}
	if s := a.Spec(); s.Known() {
		parts = append(parts, s.String())
	}
	parts = append(parts, "score "+a.ScoreText())
	if genres := a.GenreNames(); len(genres) > 0 {
		parts = append(parts, strings.Join(genres, ", "))
	}

	url := a.URL
	if url == "" {
		url = jikan.AnimeURL(a.MalID)
	}
	return animeItem{
		key:    seasonKey(a.MalID),
		title:  a.DisplayTitle(),
		detail: strings.Join(parts, " • "),
		url:    url,
		spec:   a.Spec(),
		state:  state,
	}
}

// upcomingItem wraps a resolved watch list entry.
func upcomingItem(item tasks.UpcomingItem, state countdown.State) animeItem {
	e := item.Entry
	detail := fmt.Sprintf("%s • %d eps watched", e.Status(), e.EpisodesWatched())
	if item.Err != nil {
		detail += " • offline"
	}

	var url string
	if e.MalID() > 0 {
		url = jikan.AnimeURL(e.MalID())
	}
	return animeItem{
		key:    entryKey(e.ID()),
		title:  e.Title(),
		detail: detail,
		url:    url,
		spec:   item.Spec,
		state:  state,
	}
}
