package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/desertthunder/anitrack/internal/countdown"
	"github.com/desertthunder/anitrack/internal/jikan"
	"github.com/desertthunder/anitrack/internal/models"
	"github.com/desertthunder/anitrack/internal/shared"
	"github.com/desertthunder/anitrack/internal/tasks"
)

// Tab is one of the board's views.
type Tab int

const (
	AiringTab Tab = iota
	MyListTab
)

func (t Tab) String() string {
	if t == MyListTab {
		return "My List"
	}
	return "Airing"
}

// SeasonSource lists the current season. [*jikan.Client] implements it.
type SeasonSource interface {
	SeasonNow(ctx context.Context, page, limit int) (jikan.Page[jikan.Anime], error)
}

// UpcomingSource resolves the watch list. [*tasks.WatchEngine] implements it.
type UpcomingSource interface {
	Upcoming(ctx context.Context, progress chan<- tasks.ProgressUpdate, userID string, statuses ...models.Status) (*tasks.UpcomingResult, error)
}

// Options configures a [Model].
type Options struct {
	Season   SeasonSource
	Tracker  UpcomingSource
	Board    *countdown.Board
	Clock    clockwork.Clock
	UserID   string
	PageSize int
	Open     func(url string) error // defaults to [shared.OpenBrowser]
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	tab      Tab
	season   SeasonSource
	tracker  UpcomingSource
	board    *countdown.Board
	clock    clockwork.Clock
	userID   string
	pageSize int
	open     func(string) error
	lists    [2]list.Model
	index    [2]map[string]int
	loaded   [2]bool
	loading  [2]bool
	err      error
	status   string
	width    int
	height   int
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The caller owns the board and closes it after the program exits.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}

	m := &Model{
		ctx:      ctx,
		tab:      AiringTab,
		season:   opts.Season,
		tracker:  opts.Tracker,
		board:    opts.Board,
		clock:    opts.Clock,
		userID:   opts.UserID,
		pageSize: opts.PageSize,
		open:     opts.Open,
		width:    80,
		height:   24,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	for _, tab := range []Tab{AiringTab, MyListTab} {
		l := list.New(nil, list.NewDefaultDelegate(), m.width-4, m.height-6)
		l.Title = tab.String()
		l.SetShowHelp(false)
		m.lists[tab] = l
		m.index[tab] = map[string]int{}
	}
	return m
}

// Init starts loading the seasonal listing and listening for countdown updates.
func (m *Model) Init() tea.Cmd {
	m.loading[AiringTab] = true
	return tea.Batch(m.fetchSeason(), m.waitForCountdown())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSeasonFetched:
		data := msg.data.(seasonFetched)
		m.loading[AiringTab] = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		now := m.clock.Now()
		items := make([]animeItem, 0, len(data.anime))
		for _, a := range data.anime {
			items = append(items, seasonItem(a, countdown.Evaluate(a.Spec(), now)))
		}
		return m, m.setItems(AiringTab, items)

	case MsgUpcomingFetched:
		data := msg.data.(upcomingFetched)
		m.loading[MyListTab] = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		now := m.clock.Now()
		items := make([]animeItem, 0, len(data.result.Items))
		for _, it := range data.result.Items {
			items = append(items, upcomingItem(it, countdown.Evaluate(it.Spec, now)))
		}
		return m, m.setItems(MyListTab, items)

	case MsgCountdown:
		u := msg.data.(countdown.Update)
		if m.board.Live(u) {
			m.applyCountdown(u)
		}
		return m, m.waitForCountdown()

	case MsgCountdownsClosed:
		return m, nil

	case MsgOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("Could not open browser: %v", err)
		} else {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.lists[m.tab].SettingFilter() {
		var cmd tea.Cmd
		m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		return m, m.switchTab()
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh(m.tab)
	case key.Matches(msg, m.keys.open):
		item, ok := m.lists[m.tab].SelectedItem().(animeItem)
		if !ok || item.url == "" {
			return m, nil
		}
		return m, m.openURL(item.url)
	}

	var cmd tea.Cmd
	m.lists[m.tab], cmd = m.lists[m.tab].Update(msg)
	return m, cmd
}

// switchTab moves to the other tab. Countdowns for the hidden tab are stopped.
func (m *Model) switchTab() tea.Cmd {
	if m.tab == AiringTab {
		m.tab = MyListTab
	} else {
		m.tab = AiringTab
	}
	m.status = ""
	m.showTab(m.tab)

	if !m.loaded[m.tab] && !m.loading[m.tab] {
		return m.refresh(m.tab)
	}
	return nil
}

func (m *Model) refresh(tab Tab) tea.Cmd {
	m.loading[tab] = true
	if tab == MyListTab {
		return m.fetchUpcoming()
	}
	return m.fetchSeason()
}

// setItems replaces a tab's rows and, when the tab is visible, points the board at them.
func (m *Model) setItems(tab Tab, items []animeItem) tea.Cmd {
	listItems := make([]list.Item, len(items))
	index := make(map[string]int, len(items))
	for i, it := range items {
		listItems[i] = it
		index[it.key] = i
	}
	m.index[tab] = index
	m.loaded[tab] = true
	cmd := m.lists[tab].SetItems(listItems)

	if tab == m.tab {
		m.showTab(tab)
	}
	return cmd
}

// showTab keeps exactly the visible tab's countdowns running.
func (m *Model) showTab(tab Tab) {
	if m.board == nil {
		return
	}
	keys := make([]string, 0, len(m.index[tab]))
	for k := range m.index[tab] {
		keys = append(keys, k)
	}
	m.board.Retain(keys)

	for _, li := range m.lists[tab].Items() {
		it := li.(animeItem)
		m.board.Show(it.key, it.spec)
	}
}

func (m *Model) applyCountdown(u countdown.Update) {
	tab := AiringTab
	if strings.HasPrefix(u.Key, "list:") {
		tab = MyListTab
	}
	i, ok := m.index[tab][u.Key]
	if !ok {
		return
	}
	item := m.lists[tab].Items()[i].(animeItem)
	item.state = u.State
	m.lists[tab].SetItem(i, item)
}

func (m *Model) fetchSeason() tea.Cmd {
	return func() tea.Msg {
		if m.season == nil {
			return seasonFetchedMsg(nil, fmt.Errorf("%w: no anime source", shared.ErrServiceUnavailable))
		}
		page, err := m.season.SeasonNow(m.ctx, 1, m.pageSize)
		return seasonFetchedMsg(page.Items, err)
	}
}

func (m *Model) fetchUpcoming() tea.Cmd {
	return func() tea.Msg {
		if m.tracker == nil {
			return upcomingFetchedMsg(nil, fmt.Errorf("%w: watch list unavailable", shared.ErrServiceUnavailable))
		}
		result, err := m.tracker.Upcoming(m.ctx, nil, m.userID)
		return upcomingFetchedMsg(result, err)
	}
}

func (m *Model) waitForCountdown() tea.Cmd {
	if m.board == nil {
		return nil
	}
	updates := m.board.Updates()
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return Msg{kind: MsgCountdownsClosed}
		}
		return countdownMsg(u)
	}
}

func (m *Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg(m.open(url))
	}
}

// View renders the tab bar, the active list and contextual help.
func (m *Model) View() string {
	var b strings.Builder

	for _, tab := range []Tab{AiringTab, MyListTab} {
		if tab == m.tab {
			b.WriteString(styles.activeTab.Render(tab.String()))
		} else {
			b.WriteString(styles.tab.Render(tab.String()))
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(styles.help.Render("Press r to retry, q to quit"))
	case m.loading[m.tab] && !m.loaded[m.tab]:
		b.WriteString(styles.warn.Render("Loading..."))
	case m.loaded[m.tab] && len(m.lists[m.tab].Items()) == 0:
		b.WriteString(styles.warn.Render("Nothing to show"))
	default:
		b.WriteString(m.lists[m.tab].View())
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}
