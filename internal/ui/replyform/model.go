package replyform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/theme"
)

// ReplySubmittedMsg is dispatched when the user submits the reply.
type ReplySubmittedMsg struct {
	EmailID string
	To      string
	Body    string
}

// ReplyCancelMsg is dispatched when the user cancels the form.
type ReplyCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to   string
	body string
}

// Model is the Bubble Tea model for the reply compose form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	emailID string
	subject string
	width   int
	height  int
}

// New creates a new reply form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for replying to the given message.
func (m *Model) Start(email model.Email) tea.Cmd {
	m.emailID = email.ID
	m.subject = email.Subject
	m.fb.to = email.FromAddr
	m.fb.body = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the reply form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ReplyCancelMsg{} }
	}

	return m, cmd
}

// View renders the reply form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Reply: " + m.subject)
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
			huh.NewInput().
				Title("To").
				Value(&m.fb.to).
				Validate(validateRequired("To")),
			huh.NewText().
				Title("Message").
				Placeholder("Write your reply...").
				Value(&m.fb.body).
				Validate(validateRequired("Message")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	msg := ReplySubmittedMsg{
		EmailID: m.emailID,
		To:      m.fb.to,
		Body:    m.fb.body,
	}
	return func() tea.Msg { return msg }
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
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
