package inbox

import (
	"context"
	"math"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/magicseth/donewithemail-sub001/internal/keys"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	"github.com/magicseth/donewithemail-sub001/internal/theme"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
)

// EmailsLoadedMsg is sent when messages have been loaded from the store.
// Err is set when the query failed; Emails is nil in that case.
type EmailsLoadedMsg struct {
	Emails []model.Email
	Err    error
}

// SelectedEmailMsg is sent when a user opens a message's detail view.
type SelectedEmailMsg struct {
	EmailID string
}

// DragCommitMsg is sent when a drag release landed on a target. The app
// dispatches the commit through the triage handler.
type DragCommitMsg struct {
	EmailID string
	Commit  triage.Commit
}

// sortModes defines the available sort modes cycled by Tab.
var sortModes = []string{
	"date",
	"from_addr",
	"subject",
	"fetched_at",
}

// Model is the inbox list view. Rows are two lines tall; the active row
// carries the drag indicator and the target bar sits just under the
// header. Scrolling is kept in cells rather than rows so the indicator
// position is a pure function of the scroll offset.
type Model struct {
	store       store.Store
	keys        *keys.KeyMap
	coordinator *triage.Coordinator
	emails      []model.Email
	filter      store.EmailFilter
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates the inbox view over the given store and gesture
// coordinator.
func New(s store.Store, k *keys.KeyMap, coord *triage.Coordinator, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search mail..."
	si.Prompt = "/ "
	si.Width = width - 4

	status := model.StatusInbox
	return Model{
		store:       s,
		keys:        k,
		coordinator: coord,
		filter: store.EmailFilter{
			Status:   &status,
			SortBy:   "date",
			SortDesc: true,
		},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of messages.
func (m Model) Init() tea.Cmd {
	return m.LoadEmails()
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		if msg.Err != nil {
			// Keep the current rows rather than rendering an empty
			// inbox over a query failure.
			return m, nil
		}
		// A rebuild invalidates any in-flight drag; the indicator's row
		// may no longer exist.
		m.coordinator.Cancel()
		m.emails = msg.Emails

		index := m.state().ActiveIndex()
		if index >= len(m.emails) {
			index = len(m.emails) - 1
		}
		if index < 0 {
			index = 0
		}
		m.setActiveRow(index)
		m.clampScroll()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, cmd
	}

	return m, nil
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Query = &query
		} else {
			m.filter.Query = nil
		}
		return m, m.LoadEmails()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.LoadEmails()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveActive(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveActive(-1)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		email := m.ActiveEmail()
		if email == nil {
			return m, nil
		}
		id := email.ID
		return m, func() tea.Msg {
			return SelectedEmailMsg{EmailID: id}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.FilterInbox):
		status := model.StatusInbox
		m.filter.Status = &status
		m.filter.Subscription = nil
		return m, m.LoadEmails()

	case key.Matches(msg, m.keys.FilterDone):
		status := model.StatusDone
		m.filter.Status = &status
		m.filter.Subscription = nil
		return m, m.LoadEmails()

	case key.Matches(msg, m.keys.FilterSubs):
		if m.filter.Subscription == nil {
			subs := true
			m.filter.Subscription = &subs
		} else {
			m.filter.Subscription = nil
		}
		return m, m.LoadEmails()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortModes)
		m.filter.SortBy = sortModes[m.sortIndex]
		return m, m.LoadEmails()
	}

	return m, nil
}

// handleMouse translates the raw mouse stream into pointer events for
// the gesture coordinator. The wheel stays with the list: scrolling
// never restarts or claims the drag, it just repositions the indicator
// through the shared scroll offset.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-1)
		return nil

	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(1)
		return nil

	case msg.Action == tea.MouseActionRelease:
		return m.observe(triage.PointerUp, msg)

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if row, ok := m.rowAt(msg.Y); ok {
			m.setActiveRow(row)
		}
		return m.observe(triage.PointerDown, msg)

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionMotion:
		return m.observe(triage.PointerMove, msg)
	}

	return nil
}

// observe feeds one pointer event to the coordinator and converts a
// committed release into a DragCommitMsg for the app.
func (m *Model) observe(kind triage.PointerKind, msg tea.MouseMsg) tea.Cmd {
	commit, ok := m.coordinator.Observe(triage.PointerEvent{
		Kind: kind,
		X:    float64(msg.X),
		Y:    float64(msg.Y),
	})
	if !ok {
		return nil
	}

	// A commit implies the active index is in range.
	email := m.emails[commit.RowIndex]
	return func() tea.Msg {
		return DragCommitMsg{EmailID: email.ID, Commit: commit}
	}
}

// rowAt maps an absolute screen Y to a row index.
func (m Model) rowAt(screenY int) (int, bool) {
	geo := m.state().Geometry()
	top := geo.HeaderOffset + geo.ListTopPadding - m.state().ScrollY()

	offset := float64(screenY) - top
	if offset < 0 {
		return 0, false
	}

	row := int(math.Floor(offset / geo.RowHeight))
	if row < 0 || row >= len(m.emails) {
		return 0, false
	}
	return row, true
}

// moveActive shifts the active row by delta and keeps it visible.
func (m *Model) moveActive(delta int) {
	if len(m.emails) == 0 {
		return
	}

	index := m.state().ActiveIndex() + delta
	if index < 0 {
		index = 0
	}
	if index >= len(m.emails) {
		index = len(m.emails) - 1
	}

	m.setActiveRow(index)
	m.ensureVisible(index)
}

// setActiveRow commits the row and its message's context flags to the
// gesture store.
func (m *Model) setActiveRow(index int) {
	scroll := m.state().Scroll()
	scroll.SetActiveRow(index, len(m.emails))

	var flags triage.Flags
	if index >= 0 && index < len(m.emails) {
		e := m.emails[index]
		flags = triage.Flags{
			Subscription:     e.IsSubscription,
			HasCalendarEvent: e.HasCalendarEvent,
			AcceptCalendar:   e.AcceptCalendar,
		}
	}
	scroll.SetFlags(flags)
}

// ensureVisible scrolls the minimum amount to bring a row fully
// on-screen.
func (m *Model) ensureVisible(index int) {
	geo := m.state().Geometry()
	scrollY := m.state().ScrollY()

	rowTop := geo.ListTopPadding + float64(index)*geo.RowHeight
	rowBottom := rowTop + geo.RowHeight
	visible := float64(m.height)

	if rowTop-scrollY < 0 {
		scrollY = rowTop
	} else if rowBottom-scrollY > visible {
		scrollY = rowBottom - visible
	}

	m.state().Scroll().SetScrollY(scrollY)
	m.clampScroll()
}

// scrollBy shifts the scroll offset by the given number of cells.
func (m *Model) scrollBy(cells int) {
	m.state().Scroll().SetScrollY(m.state().ScrollY() + float64(cells))
	m.clampScroll()
}

// clampScroll keeps the scroll offset within the list's extent.
func (m *Model) clampScroll() {
	geo := m.state().Geometry()
	scrollY := m.state().ScrollY()

	maxScroll := geo.ListTopPadding + float64(len(m.emails))*geo.RowHeight - float64(m.height)
	if maxScroll < 0 {
		maxScroll = 0
	}
	if scrollY > maxScroll {
		scrollY = maxScroll
	}
	if scrollY < 0 {
		scrollY = 0
	}
	m.state().Scroll().SetScrollY(scrollY)
}

// View renders the target bar and the visible rows.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.renderList(m.height-1))
	}

	if len(m.emails) == 0 {
		return m.renderEmptyState()
	}

	return m.renderList(m.height)
}

// renderList composes the content area line by line. Line positions
// come from the same geometry the hit-testing uses, so what the user
// sees is exactly what a release will be judged against.
func (m Model) renderList(contentHeight int) string {
	if contentHeight < 1 {
		return ""
	}

	geo := m.state().Geometry()
	frame := m.state().Frame()
	scrollY := m.state().ScrollY()

	lines := make([]string, contentHeight)

	barLine := int(geo.TargetYCenter - geo.HeaderOffset)
	if barLine >= 0 && barLine < contentHeight {
		lines[barLine] = m.renderTargetBar(frame)
	}

	for i, email := range m.emails {
		rowTop := geo.ListTopPadding + float64(i)*geo.RowHeight - scrollY
		titleLine := int(rowTop)
		secondLine := titleLine + 1
		active := i == frame.ActiveIndex

		if titleLine >= 0 && titleLine < contentHeight {
			lines[titleLine] = m.renderRowTitle(email, active)
		}
		if secondLine >= 0 && secondLine < contentHeight {
			lines[secondLine] = m.renderRowSecond(email, active, frame)
		}
	}

	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

// renderEmptyState shows guidance text when no messages are available.
func (m Model) renderEmptyState() string {
	hasFilters := m.filter.Subscription != nil || m.filter.Query != nil

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if hasFilters {
		return style.Render("No matching mail.\nTry adjusting your filters.")
	}

	return style.Render(
		"Inbox zero.\n\n" +
			"Press 'c' to add an account, or 'r' to refresh.",
	)
}

// LoadEmails returns a tea.Cmd that queries the store with the current
// filter.
func (m Model) LoadEmails() tea.Cmd {
	filter := m.filter
	s := m.store
	return func() tea.Msg {
		emails, err := s.GetEmails(context.Background(), filter)
		if err != nil {
			return EmailsLoadedMsg{Err: err}
		}
		return EmailsLoadedMsg{Emails: emails}
	}
}

// ActiveEmail returns the message owning the indicator, or nil.
func (m Model) ActiveEmail() *model.Email {
	index := m.state().ActiveIndex()
	if index < 0 || index >= len(m.emails) {
		return nil
	}
	e := m.emails[index]
	return &e
}

// Searching reports whether the search input has focus, so the app can
// keep global shortcuts out of typed queries.
func (m Model) Searching() bool {
	return m.searchMode
}

// ActiveIndex returns the row currently owning the indicator.
func (m Model) ActiveIndex() int {
	return m.state().ActiveIndex()
}

// SetSize updates the view dimensions and re-centers the target bar.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4

	geo := m.state().Geometry()
	geo.CenterX = float64(width) / 2
	_ = m.state().SetGeometry(geo)
	m.clampScroll()
}

func (m Model) state() *triage.State {
	return m.coordinator.State()
}
