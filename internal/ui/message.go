package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/anitrack/internal/countdown"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSeasonFetched MsgKind = iota
	MsgUpcomingFetched
	MsgCountdown
	MsgCountdownsClosed
	MsgOpened
)

type seasonFetched struct {
	anime []jikan.Anime
	err   error
}

type upcomingFetched struct {
	result *tasks.UpcomingResult
	err    error
}

// seasonFetchedMsg is the constructor for [MsgSeasonFetched]
func seasonFetchedMsg(anime []jikan.Anime, err error) Msg {
	return Msg{kind: MsgSeasonFetched, data: seasonFetched{anime, err}}
}

// upcomingFetchedMsg is the constructor for [MsgUpcomingFetched]
func upcomingFetchedMsg(result *tasks.UpcomingResult, err error) Msg {
	return Msg{kind: MsgUpcomingFetched, data: upcomingFetched{result, err}}
}

// countdownMsg is the constructor for [MsgCountdown]
func countdownMsg(u countdown.Update) Msg {
	return Msg{kind: MsgCountdown, data: u}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}
