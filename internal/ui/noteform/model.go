package noteform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/theme"
)

// NoteSubmittedMsg is dispatched when the user saves a note.
type NoteSubmittedMsg struct {
	EmailID string
	Body    string
}

// NoteCancelMsg is dispatched when the user cancels the form.
type NoteCancelMsg struct{}

// formBindings keeps the note text on the heap so huh's Value() pointer
// survives Bubble Tea model copies.
type formBindings struct {
	body string
}

// Model is the Bubble Tea model for the note capture form, opened by
// the dictation target without leaving the inbox row.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	emailID string
	subject string
	width   int
	height  int
}

// New creates a new note form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for the given message.
func (m *Model) Start(email model.Email) tea.Cmd {
	m.emailID = email.ID
	m.subject = email.Subject
	m.fb.body = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the note form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		msg := NoteSubmittedMsg{EmailID: m.emailID, Body: m.fb.body}
		return m, func() tea.Msg { return msg }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return NoteCancelMsg{} }
	}

	return m, cmd
}

// View renders the note form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Note: " + m.subject)
	content := title + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Note").
				Placeholder("Jot down a thought about this message...").
				Value(&m.fb.body).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("note is empty")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 8 {
		h = 8
	}
	return h
}
