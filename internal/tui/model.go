package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stitchworks/internal/feed"
)

// StoreChangedMsg is sent (via program.Send) whenever the Store mutates.
type StoreChangedMsg struct{}

// NewNotificationMsg is sent when a push arrives, for the transient toast.
type NewNotificationMsg struct {
	Notification feed.Notification
}

type notificationsLoadedMsg struct {
	err error
}

type countLoadedMsg struct{}

type tickMsg time.Time

// Model renders the bell badge, connectivity indicator and notification
// feed, and translates selections into store operations plus navigation.
type Model struct {
	store *feed.Store
	conn  *feed.Manager

	items  []feed.Notification
	unread int
	state  feed.State

	cursor      int
	route       string
	returnPaths []string

	loading bool
	spinner spinner.Model
	errMsg  string
	toasts  *ToastController

	now    time.Time
	width  int
	height int
}

func New(store *feed.Store, conn *feed.Manager) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		store:   store,
		conn:    conn,
		route:   RouteDashboard,
		toasts:  NewToastController(),
		now:     time.Now(),
		loading: true,
		spinner: sp,
	}
}

// Init fetches the count immediately (safety net while the handshake is in
// flight) and loads the feed, since opening this UI is opening the panel.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCount(), m.fetchList(), m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchCount() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.FetchUnreadCount(ctx) // failures already logged; count stays stale
		return countLoadedMsg{}
	}
}

func (m Model) fetchList() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return notificationsLoadedMsg{err: store.FetchNotifications(ctx)}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.MarkAsRead(ctx, id)
		return StoreChangedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StoreChangedMsg:
		return m.refresh(), nil

	case countLoadedMsg:
		return m.refresh(), nil

	case notificationsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			// Surfaced because the admin explicitly opened the feed.
			m.errMsg = "Failed to load notifications, data may be stale"
		} else {
			m.errMsg = ""
		}
		return m.refresh(), nil

	case NewNotificationMsg:
		m.toasts.Push(msg.Notification.Title + ": " + msg.Notification.Message)
		return m.refresh(), nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.now = time.Time(msg)
		m.toasts.Tick(time.Second)
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.conn.Close()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case "r":
		m.loading = true
		return m, tea.Batch(m.fetchList(), m.fetchCount(), m.spinner.Tick)

	case "backspace":
		if n := len(m.returnPaths); n > 0 {
			m.route = m.returnPaths[n-1]
			m.returnPaths = m.returnPaths[:n-1]
		}
		return m, nil

	case "enter":
		if m.cursor >= len(m.items) {
			return m, nil
		}
		n := m.items[m.cursor]
		var cmd tea.Cmd
		if !n.Read {
			cmd = m.markRead(n.ID)
		}
		// Remember where the admin was so backspace returns them there.
		m.returnPaths = append(m.returnPaths, m.route)
		m.route = RouteFor(n)
		return m, cmd
	}

	return m, nil
}

// refresh copies the store snapshot into the model.
func (m Model) refresh() Model {
	m.items = m.store.Notifications()
	m.unread = m.store.UnreadCount()
	m.state = m.conn.State()
	if m.cursor >= len(m.items) && len(m.items) > 0 {
		m.cursor = len(m.items) - 1
	}
	return m
}
