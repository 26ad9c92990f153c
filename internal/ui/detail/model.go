package detail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/magicseth/donewithemail-sub001/internal/keys"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	"github.com/magicseth/donewithemail-sub001/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded message, its notes, and its triage
// history.
type DetailLoadedMsg struct {
	Email  *model.Email
	Notes  []model.Note
	Events []model.TriageEvent
}

// ActionMsg signals the parent to run a triage action on the current
// message.
type ActionMsg struct {
	Action  string
	EmailID string
}

// Model is the message detail view component.
type Model struct {
	email    *model.Email
	notes    []model.Note
	events   []model.TriageEvent
	viewport viewport.Model
	store    store.Store
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(s store.Store, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		store:    s,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches the message and its related
// records.
func (m Model) Load(emailID string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		email, err := s.GetEmailByID(ctx, emailID)
		if err != nil || email == nil {
			return DetailLoadedMsg{}
		}
		notes, _ := s.GetNotesByEmail(ctx, emailID)
		events, _ := s.GetTriageEvents(ctx, emailID)
		return DetailLoadedMsg{Email: email, Notes: notes, Events: events}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.email = msg.Email
		m.notes = msg.Notes
		m.events = msg.Events
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Archive):
			return m, m.actionCmd("done")

		case key.Matches(msg, m.keys.Reply):
			return m, m.actionCmd("reply")

		case key.Matches(msg, m.keys.Note):
			return m, m.actionCmd("note")

		case key.Matches(msg, m.keys.Unsubscribe):
			return m, m.actionCmd("unsubscribe")
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// actionCmd emits an ActionMsg for the current message, if any.
func (m Model) actionCmd(action string) tea.Cmd {
	if m.email == nil {
		return nil
	}
	id := m.email.ID
	return func() tea.Msg {
		return ActionMsg{Action: action, EmailID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading message...")
	}

	if m.email == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	email := m.email
	var sections []string

	// Subject
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(email.Subject))

	// Badges line: status + category + flags
	statusBadge := theme.StatusStyle(email.Status).Render(string(email.Status))
	badgeLine := statusBadge
	if email.Category != "" {
		badgeLine = lipgloss.JoinHorizontal(
			lipgloss.Top, badgeLine, "  ",
			theme.CategoryStyle(email.Category).Render(string(email.Category)),
		)
	}
	if email.IsSubscription {
		badgeLine = lipgloss.JoinHorizontal(
			lipgloss.Top, badgeLine, "  ",
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render("subscription"),
		)
	}
	if email.HasCalendarEvent {
		badgeLine = lipgloss.JoinHorizontal(
			lipgloss.Top, badgeLine, "  ",
			lipgloss.NewStyle().Foreground(theme.ColorMagenta).Render("calendar invite"),
		)
	}
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	// Metadata table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s      %s",
		metaStyle.Render("From:"),
		valStyle.Render(email.Sender()),
	))
	if !email.Date.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s      %s",
			metaStyle.Render("Date:"),
			valStyle.Render(email.Date.Format("2006-01-02 15:04")),
		))
	}
	sections = append(sections, fmt.Sprintf(
		"%s   %s",
		metaStyle.Render("Account:"),
		valStyle.Render(email.AccountID),
	))
	if email.TriagedAt != nil {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Triaged:"),
			valStyle.Render(email.TriagedAt.Format("2006-01-02 15:04")),
		))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Summary / body
	if email.Summary != "" {
		summaryHeader := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)
		sections = append(sections, summaryHeader.Render("Summary"))
		sections = append(sections, email.Summary)
		sections = append(sections, "")
	}

	body := email.Snippet
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No preview available")
	}
	sections = append(sections, body)

	// Notes
	if len(m.notes) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		noteHeader := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, noteHeader.Render(
			fmt.Sprintf("Notes (%d)", len(m.notes)),
		))
		sections = append(sections, "")

		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for _, n := range m.notes {
			sections = append(sections, timeStyle.Render(
				n.CreatedAt.Format("2006-01-02 15:04"),
			))
			sections = append(sections, n.Body)
			sections = append(sections, "")
		}
	}

	// Triage history
	if len(m.events) > 0 {
		sections = append(sections, separator)
		sections = append(sections, "")

		historyHeader := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, historyHeader.Render("History"))

		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for _, ev := range m.events {
			sections = append(sections, fmt.Sprintf(
				"%s  %s",
				timeStyle.Render(ev.CreatedAt.Format("2006-01-02 15:04")),
				ev.Target,
			))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
