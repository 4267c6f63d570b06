package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stitchworks/internal/feed"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("196")).
			Padding(0, 1).
			Bold(true)

	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	routeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	unreadTitleStyle = lipgloss.NewStyle().Bold(true)
	readTitleStyle   = lipgloss.NewStyle().Faint(true)
	messageStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	timeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	unreadDotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(routeStyle.Render("viewing: "+m.route) + "\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + messageStyle.Render("Loading...") + "\n")
	case len(m.items) == 0:
		b.WriteString(messageStyle.Render("No notifications yet") + "\n")
	default:
		for i, n := range m.items {
			b.WriteString(m.itemView(i, n))
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errStyle.Render(m.errMsg) + "\n")
	}

	for _, line := range m.toasts.Lines() {
		b.WriteString("\n" + toastStyle.Render(line))
	}
	if m.toasts.HasToasts() {
		b.WriteString("\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/↓ move · enter open · backspace back · r refresh · q quit"))
	return b.String()
}

func (m Model) headerView() string {
	header := headerStyle.Render("🔔 Notifications")

	badge := ""
	if m.unread > 0 {
		label := fmt.Sprintf("%d", m.unread)
		if m.unread > 9 {
			label = "9+"
		}
		badge = " " + badgeStyle.Render(label)
	}

	conn := offlineStyle.Render("○ offline")
	if m.state == feed.StateOpen {
		conn = onlineStyle.Render("● online")
	}

	return header + badge + "  " + conn
}

func (m Model) itemView(i int, n feed.Notification) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("→ ")
	}

	title := readTitleStyle.Render(n.Title)
	dot := " "
	if !n.Read {
		title = unreadTitleStyle.Render(n.Title)
		dot = unreadDotStyle.Render("●")
	}

	return fmt.Sprintf("%s%s %s %s\n    %s · %s\n",
		cursor,
		iconFor(n.Type),
		title,
		dot,
		messageStyle.Render(n.Message),
		timeStyle.Render(formatRelative(n.CreatedAt, m.now)),
	)
}
