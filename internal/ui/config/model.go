package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/magicseth/donewithemail-sub001/internal/credential"
	"github.com/magicseth/donewithemail-sub001/internal/keys"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	imapsource "github.com/magicseth/donewithemail-sub001/internal/source/imap"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	"github.com/magicseth/donewithemail-sub001/internal/theme"
)

// ConfigMode represents the current state of the configuration view.
type ConfigMode int

const (
	ModeList           ConfigMode = iota // List configured accounts
	ModeForm                             // Account add/edit form
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
	ModeConfirmDelete                    // Confirm account deletion
)

// ConfigDoneMsg signals the config view should close and return to the main app.
type ConfigDoneMsg struct{}

// AccountSavedMsg signals an account was saved successfully.
type AccountSavedMsg struct {
	Account model.AccountConfig
}

// AccountDeletedMsg signals an account was deleted.
type AccountDeletedMsg struct {
	ID string
}

// ValidateResultMsg carries the result of a connection validation attempt.
type ValidateResultMsg struct {
	Name string
	Err  error
}

// accountsLoadedMsg is sent when accounts have been loaded from the store.
type accountsLoadedMsg struct {
	accounts []model.AccountConfig
	err      error
}

// accountSavedInternalMsg is sent after an account is persisted.
type accountSavedInternalMsg struct {
	account model.AccountConfig
	err     error
}

// accountDeletedInternalMsg is sent after an account is removed.
type accountDeletedInternalMsg struct {
	id  string
	err error
}

// formBindings holds form field values on the heap so huh's Value()
// pointers stay valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	imapHost string
	imapPort string
	smtpHost string
	smtpPort string
	username string
	password string
	archive  string
	tls      bool
	confirm  bool
}

// Model is the Bubble Tea model for the account configuration UI.
type Model struct {
	mode           ConfigMode
	store          store.Store
	accounts       []model.AccountConfig
	selectedIdx    int
	editingAccount *model.AccountConfig

	form     *huh.Form
	bindings *formBindings

	// Validation
	validating  bool
	validResult string
	validError  error
	spinner     spinner.Model

	// Delete confirmation
	confirmDelete *huh.Form

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new configuration view model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		store:   s,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads accounts from the store on first render.
func (m Model) Init() tea.Cmd {
	return m.loadAccounts()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case accountsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading accounts: %v", msg.err)
			return m, nil
		}
		m.accounts = msg.accounts
		return m, nil

	case accountSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving account: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Account %q saved", msg.account.Name)
		m.mode = ModeList
		return m, tea.Batch(
			m.loadAccounts(),
			func() tea.Msg { return AccountSavedMsg{Account: msg.account} },
		)

	case accountDeletedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error deleting account: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = "Account deleted"
		m.mode = ModeList
		if m.selectedIdx >= len(m.accounts)-1 && m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, tea.Batch(
			m.loadAccounts(),
			func() tea.Msg { return AccountDeletedMsg{ID: msg.id} },
		)

	case ValidateResultMsg:
		m.validating = false
		m.validResult = msg.Name
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to active form
	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeForm:
		return m.updateForm(msg)
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	case ModeValidating:
		// Only allow escape during validation
		if msg.String() == "esc" {
			m.mode = ModeList
			m.validating = false
			return m, nil
		}
		return m, nil
	}
	return m, nil
}

// handleListKeys processes key events in the account list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case msg.String() == "a":
		m.editingAccount = nil
		m.resetFormFields()
		m.mode = ModeForm
		m.form = m.buildAccountForm()
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.accounts) == 0 {
			return m, nil
		}
		acct := m.accounts[m.selectedIdx]
		m.editingAccount = &acct
		cmd := m.startEditForm(acct)
		return m, cmd

	case msg.String() == "x":
		if len(m.accounts) == 0 {
			return m, nil
		}
		if m.bindings == nil {
			m.bindings = &formBindings{}
		}
		m.bindings.confirm = false
		m.confirmDelete = m.buildDeleteConfirmForm()
		m.mode = ModeConfirmDelete
		return m, m.confirmDelete.Init()

	case msg.String() == "enter":
		if len(m.accounts) == 0 {
			return m, nil
		}
		acct := m.accounts[m.selectedIdx]
		m.mode = ModeValidating
		m.validating = true
		return m, tea.Batch(
			m.spinner.Tick,
			m.validateAccount(acct),
		)

	case key.Matches(msg, m.keys.Down):
		if len(m.accounts) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.accounts)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.accounts) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.accounts) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

// handleValidateResultKeys processes key events on the validation result screen.
func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = ModeList
		m.validResult = ""
		m.validError = nil
		return m, nil
	case "r":
		if m.validError != nil && len(m.accounts) > 0 {
			acct := m.accounts[m.selectedIdx]
			m.mode = ModeValidating
			m.validating = true
			return m, tea.Batch(
				m.spinner.Tick,
				m.validateAccount(acct),
			)
		}
		return m, nil
	}
	return m, nil
}

// updateActiveForm dispatches non-key messages to the currently active form.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

// --- Account Form ---

func (m *Model) buildAccountForm() *huh.Form {
	b := m.bindings
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this account").
				Placeholder("Work").
				Value(&b.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("IMAP Host").
				Description("IMAP server hostname").
				Placeholder("imap.example.com").
				Value(&b.imapHost).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Description("IMAP server port (e.g., 993)").
				Placeholder("993").
				Value(&b.imapPort).
				Validate(validatePort),
			huh.NewInput().
				Title("SMTP Host").
				Description("SMTP server hostname").
				Placeholder("smtp.example.com").
				Value(&b.smtpHost).
				Validate(validateRequired("SMTP Host")),
			huh.NewInput().
				Title("SMTP Port").
				Description("SMTP server port (e.g., 587)").
				Placeholder("587").
				Value(&b.smtpPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Description("Mail account username").
				Placeholder("user@example.com").
				Value(&b.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&b.password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Archive Mailbox").
				Description("Mailbox that archived messages move to").
				Placeholder("Archive").
				Value(&b.archive),
			huh.NewConfirm().
				Title("Use TLS").
				Description("Enable TLS encryption for connections").
				Affirmative("Yes").
				Negative("No").
				Value(&b.tls),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.saveAccount()
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) saveAccount() (Model, tea.Cmd) {
	acct := m.buildAccountConfig()

	if err := credential.Set(
		credential.AccountPasswordKey(acct.ID), m.bindings.password,
	); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
		m.mode = ModeList
		return m, nil
	}

	return m, m.persistAccount(acct)
}

// --- Delete Confirmation ---

func (m *Model) buildDeleteConfirmForm() *huh.Form {
	accountName := ""
	if m.selectedIdx < len(m.accounts) {
		accountName = m.accounts[m.selectedIdx].Name
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete account %q?", accountName)).
				Description(
					"This will remove the account configuration and " +
						"clear cached messages.",
				).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.bindings.confirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDelete == nil {
		return m, nil
	}

	mdl, cmd := m.confirmDelete.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDelete = f
	}

	if m.confirmDelete.State == huh.StateCompleted {
		if m.bindings.confirm {
			acct := m.accounts[m.selectedIdx]
			return m, m.deleteAccount(acct)
		}
		m.mode = ModeList
		return m, nil
	}
	if m.confirmDelete.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the configuration UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeForm:
		return m.viewForm(m.form)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	case ModeConfirmDelete:
		return m.viewForm(m.confirmDelete)
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Account Configuration"))
	b.WriteString("\n\n")

	if len(m.accounts) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		b.WriteString(emptyStyle.Render(
			"No accounts configured.\nPress 'a' to add a new account.",
		))
	} else {
		for i, acct := range m.accounts {
			b.WriteString(m.renderAccountItem(i, acct))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		"a add | e edit | x delete | enter test | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderAccountItem(idx int, acct model.AccountConfig) string {
	enabledLabel := "enabled"
	enabledColor := theme.ColorGreen
	if !acct.Enabled {
		enabledLabel = "disabled"
		enabledColor = theme.ColorGray
	}

	name := acct.Name
	if name == "" {
		name = "(unnamed)"
	}

	statusLabel := lipgloss.NewStyle().
		Foreground(enabledColor).
		Render(enabledLabel)

	line := fmt.Sprintf("%s  %s@%s  %s",
		name, acct.Username, acct.IMAPHost, statusLabel,
	)

	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	content := f.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		displayName := m.validResult
		if displayName == "" {
			displayName = "OK"
		}
		content = okStyle.Render("Connection successful") + "\n\n" +
			fmt.Sprintf("Authenticated as: %s", displayName) + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("enter/esc back")
	}

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m *Model) resetFormFields() {
	m.bindings = &formBindings{
		imapPort: "993",
		smtpPort: "587",
		archive:  "Archive",
		tls:      true,
	}
}

func (m *Model) startEditForm(acct model.AccountConfig) tea.Cmd {
	m.bindings = &formBindings{
		name:     acct.Name,
		imapHost: acct.IMAPHost,
		imapPort: acct.IMAPPort,
		smtpHost: acct.SMTPHost,
		smtpPort: acct.SMTPPort,
		username: acct.Username,
		// Never pre-fill credentials
		archive: acct.ArchiveMailbox,
		tls:     acct.UseTLS,
	}

	m.mode = ModeForm
	m.form = m.buildAccountForm()
	return m.form.Init()
}

func (m Model) buildAccountConfig() model.AccountConfig {
	b := m.bindings
	acct := model.AccountConfig{
		Name:            b.name,
		IMAPHost:        b.imapHost,
		IMAPPort:        b.imapPort,
		SMTPHost:        b.smtpHost,
		SMTPPort:        b.smtpPort,
		Username:        b.username,
		UseTLS:          b.tls,
		ArchiveMailbox:  b.archive,
		Enabled:         true,
		PollIntervalSec: 120,
	}
	if acct.ArchiveMailbox == "" {
		acct.ArchiveMailbox = "Archive"
	}

	if m.editingAccount != nil {
		acct.ID = m.editingAccount.ID
		acct.Enabled = m.editingAccount.Enabled
		acct.PollIntervalSec = m.editingAccount.PollIntervalSec
	} else {
		acct.ID = uuid.New().String()
	}

	return acct
}

// loadAccounts returns a command that loads all accounts from the store.
func (m Model) loadAccounts() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		accounts, err := s.GetAccounts(ctx)
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

// persistAccount returns a command that persists an account to the store.
func (m Model) persistAccount(acct model.AccountConfig) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		err := s.SaveAccount(ctx, acct)
		return accountSavedInternalMsg{account: acct, err: err}
	}
}

// deleteAccount returns a command that removes an account and its credential.
func (m Model) deleteAccount(acct model.AccountConfig) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		// Best-effort keyring cleanup
		_ = credential.Delete(credential.AccountPasswordKey(acct.ID))

		err := s.DeleteAccount(ctx, acct.ID)
		return accountDeletedInternalMsg{id: acct.ID, err: err}
	}
}

// validateAccount tests the connection for an existing account.
func (m Model) validateAccount(acct model.AccountConfig) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		password, err := credential.Get(credential.AccountPasswordKey(acct.ID))
		if err != nil {
			return ValidateResultMsg{
				Err: fmt.Errorf("credential not found: %w", err),
			}
		}

		adapter := imapsource.NewAdapter(acct, password)
		name, err := adapter.ValidateConnection(ctx)
		return ValidateResultMsg{Name: name, Err: err}
	}
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
