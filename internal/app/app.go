package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	aiservice "github.com/magicseth/donewithemail-sub001/internal/ai"
	"github.com/magicseth/donewithemail-sub001/internal/credential"
	"github.com/magicseth/donewithemail-sub001/internal/keys"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	imapsource "github.com/magicseth/donewithemail-sub001/internal/source/imap"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	appsync "github.com/magicseth/donewithemail-sub001/internal/sync"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
	"github.com/magicseth/donewithemail-sub001/internal/ui"
	"github.com/magicseth/donewithemail-sub001/internal/ui/aipanel"
	"github.com/magicseth/donewithemail-sub001/internal/ui/command"
	configview "github.com/magicseth/donewithemail-sub001/internal/ui/config"
	"github.com/magicseth/donewithemail-sub001/internal/ui/detail"
	helpview "github.com/magicseth/donewithemail-sub001/internal/ui/help"
	"github.com/magicseth/donewithemail-sub001/internal/ui/inbox"
	"github.com/magicseth/donewithemail-sub001/internal/ui/noteform"
	"github.com/magicseth/donewithemail-sub001/internal/ui/replyform"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// formEmailMsg carries a loaded message into a form view.
type formEmailMsg struct {
	email  *model.Email
	target triage.TargetID
	err    error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewConfig
	ViewAI
	ViewHelp
	ViewCommand
	ViewReply
	ViewNote
)

// Model is the root Bubble Tea model that manages view routing, layout,
// the gesture coordinator, and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        *store.SQLiteStore
	keys         *keys.KeyMap

	state       *triage.State
	coordinator *triage.Coordinator
	runner      *triageRunner

	inboxView   inbox.Model
	detailView  detail.Model
	helpView    helpview.Model
	commandView command.Model
	configView  configview.Model
	aiView      aipanel.Model
	replyView   replyform.Model
	noteView    noteform.Model

	poller *appsync.Poller

	// pendingCommit is set while a reply or note form gathers input for
	// an in-flight gesture. Nil for keyboard-initiated actions.
	pendingCommit *triage.Commit
	pendingEmail  *model.Email

	ready            bool
	unreadCount      int
	authErrorMessage string
	statusMsg        string
}

// New creates the root application model over the given store and
// configuration.
func New(s *store.SQLiteStore, cfg *model.AppConfig) (Model, error) {
	k := keys.DefaultKeyMap()

	geo := triage.DefaultGeometry(80)
	if cfg.Gesture.ActivationRadius > 0 {
		geo.ActivationRadius = cfg.Gesture.ActivationRadius
	}
	if cfg.Gesture.ProximityRadius > 0 {
		geo.ProximityRadius = cfg.Gesture.ProximityRadius
	}
	if err := triage.ValidateTargets(geo, triage.Targets()); err != nil {
		return Model{}, fmt.Errorf("gesture geometry: %w", err)
	}

	state, err := triage.NewState(geo)
	if err != nil {
		return Model{}, err
	}

	runner := newTriageRunner(s)
	coordinator := triage.NewCoordinator(state, runner.Handle)

	apiKey := loadAPIKey()
	var assistant *aiservice.Assistant
	var enricher *aiservice.Enricher
	if apiKey != "" {
		assistant = aiservice.New(apiKey, s, cfg.AI.Model, cfg.AI.MaxTokens)
		enricher = aiservice.NewEnricher(apiKey, cfg.AI.Model)
	}

	return Model{
		currentView: ViewInbox,
		store:       s,
		keys:        k,
		state:       state,
		coordinator: coordinator,
		runner:      runner,
		inboxView:   inbox.New(s, k, coordinator, 80, 24),
		detailView:  detail.New(s, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		configView:  configview.New(s, k, 80, 24),
		aiView:      aipanel.New(assistant, k, 80, 24),
		replyView:   replyform.New(80, 24),
		noteView:    noteform.New(80, 24),
		poller:      appsync.New(s, enricher),
	}, nil
}

// loadAPIKey finds the assistant API key in the environment or the
// system keyring. Empty means AI features stay off.
func loadAPIKey() string {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	key, err := credential.Get(credential.AIKeyName)
	if err != nil {
		return ""
	}
	return key
}

// Init loads the inbox and registers configured accounts before starting
// the poller, so all adapters are available for the first sync.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.inboxView.Init(),
		m.registerAccounts(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		m.aiView.SetSize(contentWidth, contentHeight)
		m.replyView.SetSize(contentWidth, contentHeight)
		m.noteView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case accountsRegisteredMsg:
		// First run with nothing configured goes straight to setup.
		if msg.count == 0 {
			m.previousView = m.currentView
			m.currentView = ViewConfig
			return m, m.configView.Init()
		}
		return m, m.poller.Start()

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.poller.WaitForNextResult(),
			m.fetchUnreadCount(),
		)

	case appsync.EnrichedMsg:
		// Summaries and categories arrived; refresh the list.
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.poller.WaitForNextResult(),
		)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case inbox.EmailsLoadedMsg:
		if msg.Err != nil {
			m.statusMsg = fmt.Sprintf("Inbox load failed: %v", msg.Err)
		}
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, cmd

	case inbox.SelectedEmailMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetLoading(true)
		return m, m.detailView.Load(msg.EmailID)

	case inbox.DragCommitMsg:
		return m.handleDragCommit(msg)

	case triageDoneMsg:
		return m.handleTriageDone(msg)

	case formEmailMsg:
		return m.handleFormEmail(msg)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case detail.ActionMsg:
		return m.handleDetailAction(msg)

	case replyform.ReplySubmittedMsg:
		return m.handleReplySubmitted(msg)

	case replyform.ReplyCancelMsg:
		m.abortPendingCommit()
		m.currentView = ViewInbox
		return m, nil

	case noteform.NoteSubmittedMsg:
		return m.handleNoteSubmitted(msg)

	case noteform.NoteCancelMsg:
		m.abortPendingCommit()
		m.currentView = ViewInbox
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case configview.ConfigDoneMsg:
		m.currentView = ViewInbox
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.registerAccounts(),
		)

	case configview.AccountSavedMsg:
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.registerAccounts(),
		)

	case configview.AccountDeletedMsg:
		return m, tea.Batch(
			m.inboxView.LoadEmails(),
			m.registerAccounts(),
		)

	case aipanel.AIPanelCloseMsg:
		m.aiView.Reset()
		m.currentView = ViewInbox
		return m, nil

	case aipanel.AIResponseChunkMsg:
		if m.currentView == ViewAI {
			var cmd tea.Cmd
			m.aiView, cmd = m.aiView.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across views. Returns handled
// false when the active view should see the key instead.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.poller.Stop()
		return m, tea.Quit, true

	case "q":
		if m.currentView == ViewInbox && !m.inboxView.Searching() {
			m.poller.Stop()
			return m, tea.Quit, true
		}

	case "?":
		if m.typingView() {
			break
		}
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		if m.typingView() {
			break
		}
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case "c":
		if m.currentView == ViewInbox && !m.inboxView.Searching() {
			m.previousView = m.currentView
			m.currentView = ViewConfig
			return m, m.configView.Init(), true
		}

	case "a":
		if m.currentView == ViewInbox && !m.inboxView.Searching() {
			m.previousView = m.currentView
			m.currentView = ViewAI
			cmd := m.aiView.Focus()
			return m, cmd, true
		}

	case "r":
		if m.currentView == ViewInbox && !m.inboxView.Searching() {
			return m, tea.Batch(
				m.poller.RefreshAll(),
				m.inboxView.LoadEmails(),
			), true
		}

	case "d":
		if mdl, cmd, ok := m.keyboardTriage(triage.TargetDone); ok {
			return mdl, cmd, true
		}

	case "R":
		if mdl, cmd, ok := m.keyboardTriage(triage.TargetReply); ok {
			return mdl, cmd, true
		}

	case "n":
		if mdl, cmd, ok := m.keyboardTriage(triage.TargetMic); ok {
			return mdl, cmd, true
		}

	case "u":
		if mdl, cmd, ok := m.keyboardTriage(triage.TargetUnsubscribe); ok {
			return mdl, cmd, true
		}
	}

	return m, nil, false
}

// typingView reports whether the current view owns the keyboard for text
// entry, so global shortcuts must stand down.
func (m Model) typingView() bool {
	switch m.currentView {
	case ViewAI, ViewCommand, ViewConfig, ViewReply, ViewNote:
		return true
	case ViewInbox:
		return m.inboxView.Searching()
	}
	return false
}

// keyboardTriage runs a triage action on the inbox's active row from a
// keyboard shortcut. Actions are gated while a gesture is processing.
func (m Model) keyboardTriage(target triage.TargetID) (tea.Model, tea.Cmd, bool) {
	if m.currentView != ViewInbox || m.inboxView.Searching() {
		return m, nil, false
	}
	if m.state.Phase() != triage.PhaseIdle {
		return m, nil, true
	}

	email := m.inboxView.ActiveEmail()
	if email == nil {
		return m, nil, true
	}

	switch target {
	case triage.TargetReply:
		m.pendingCommit = nil
		m.pendingEmail = email
		m.previousView = m.currentView
		m.currentView = ViewReply
		cmd := m.replyView.Start(*email)
		return m, cmd, true

	case triage.TargetMic:
		m.pendingCommit = nil
		m.pendingEmail = email
		m.previousView = m.currentView
		m.currentView = ViewNote
		cmd := m.noteView.Start(*email)
		return m, cmd, true
	}

	return m, m.runDirect(*email, target), true
}

// handleDragCommit resolves a committed gesture. Done and unsubscribe
// dispatch immediately; reply and note detour through their forms while
// the gesture stays in the processing phase.
func (m Model) handleDragCommit(msg inbox.DragCommitMsg) (tea.Model, tea.Cmd) {
	switch msg.Commit.Target {
	case triage.TargetReply, triage.TargetMic:
		commit := msg.Commit
		m.pendingCommit = &commit
		return m, m.loadFormEmail(msg.EmailID, msg.Commit.Target)

	default:
		return m, m.dispatchCommit(msg.EmailID, msg.Commit)
	}
}

// loadFormEmail fetches the message a form needs before opening it.
func (m Model) loadFormEmail(emailID string, target triage.TargetID) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		email, err := s.GetEmailByID(context.Background(), emailID)
		return formEmailMsg{email: email, target: target, err: err}
	}
}

// handleFormEmail opens the reply or note form once its message loaded.
func (m Model) handleFormEmail(msg formEmailMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil || msg.email == nil {
		m.statusMsg = fmt.Sprintf("Error loading message: %v", msg.err)
		m.abortPendingCommit()
		return m, nil
	}

	m.pendingEmail = msg.email
	m.previousView = m.currentView

	switch msg.target {
	case triage.TargetReply:
		m.currentView = ViewReply
		cmd := m.replyView.Start(*msg.email)
		return m, cmd
	case triage.TargetMic:
		m.currentView = ViewNote
		cmd := m.noteView.Start(*msg.email)
		return m, cmd
	}

	return m, nil
}

// handleDetailAction maps a detail-view action onto the triage paths.
func (m Model) handleDetailAction(msg detail.ActionMsg) (tea.Model, tea.Cmd) {
	var target triage.TargetID
	switch msg.Action {
	case "done":
		target = triage.TargetDone
	case "reply":
		target = triage.TargetReply
	case "note":
		target = triage.TargetMic
	case "unsubscribe":
		target = triage.TargetUnsubscribe
	default:
		return m, nil
	}

	if target == triage.TargetReply || target == triage.TargetMic {
		m.pendingCommit = nil
		return m, m.loadFormEmail(msg.EmailID, target)
	}

	s := m.store
	emailID := msg.EmailID
	runner := m.runner
	return m, func() tea.Msg {
		ctx := context.Background()
		email, err := s.GetEmailByID(ctx, emailID)
		if err != nil {
			return triageDoneMsg{EmailID: emailID, Target: target, Err: err}
		}
		if email == nil {
			return triageDoneMsg{
				EmailID: emailID,
				Target:  target,
				Err:     fmt.Errorf("message %s no longer exists", emailID),
			}
		}
		var runErr error
		switch target {
		case triage.TargetDone:
			runErr = runner.Archive(ctx, *email)
		case triage.TargetUnsubscribe:
			runErr = runner.Unsubscribe(ctx, *email)
		}
		if runErr == nil {
			runner.recordEvent(ctx, emailID, target, -1)
		}
		return triageDoneMsg{EmailID: emailID, Target: target, Err: runErr}
	}
}

// dispatchCommit resolves a gesture commit through the coordinator,
// which resets the phase whatever the handler returns.
func (m Model) dispatchCommit(emailID string, commit triage.Commit) tea.Cmd {
	coord := m.coordinator
	return func() tea.Msg {
		outcome, err := coord.Dispatch(context.Background(), emailID, commit)
		return triageDoneMsg{
			EmailID: emailID,
			Target:  commit.Target,
			Outcome: outcome,
			Err:     err,
		}
	}
}

// runDirect executes a triage action outside any gesture.
func (m Model) runDirect(email model.Email, target triage.TargetID) tea.Cmd {
	runner := m.runner
	rowIndex := m.inboxView.ActiveIndex()
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch target {
		case triage.TargetDone:
			err = runner.Archive(ctx, email)
		case triage.TargetUnsubscribe:
			err = runner.Unsubscribe(ctx, email)
		}
		if err == nil {
			runner.recordEvent(ctx, email.ID, target, rowIndex)
		}
		return triageDoneMsg{EmailID: email.ID, Target: target, Err: err}
	}
}

// handleReplySubmitted routes a composed reply either through the
// in-flight gesture commit or directly to the runner.
func (m Model) handleReplySubmitted(msg replyform.ReplySubmittedMsg) (tea.Model, tea.Cmd) {
	m.currentView = ViewInbox

	if m.pendingCommit != nil {
		commit := *m.pendingCommit
		m.pendingCommit = nil
		m.runner.SetPendingReply(msg.To, msg.Body)
		return m, m.dispatchCommit(msg.EmailID, commit)
	}

	email := m.pendingEmail
	m.pendingEmail = nil
	if email == nil {
		return m, nil
	}

	runner := m.runner
	rowIndex := m.inboxView.ActiveIndex()
	to, body := msg.To, msg.Body
	return m, func() tea.Msg {
		ctx := context.Background()
		err := runner.Reply(ctx, *email, to, body)
		if err == nil {
			runner.recordEvent(ctx, email.ID, triage.TargetReply, rowIndex)
		}
		return triageDoneMsg{EmailID: email.ID, Target: triage.TargetReply, Err: err}
	}
}

// handleNoteSubmitted routes a dictated note the same two ways.
func (m Model) handleNoteSubmitted(msg noteform.NoteSubmittedMsg) (tea.Model, tea.Cmd) {
	m.currentView = ViewInbox

	if m.pendingCommit != nil {
		commit := *m.pendingCommit
		m.pendingCommit = nil
		m.runner.SetPendingNote(msg.Body)
		return m, m.dispatchCommit(msg.EmailID, commit)
	}

	m.pendingEmail = nil
	runner := m.runner
	rowIndex := m.inboxView.ActiveIndex()
	emailID, body := msg.EmailID, msg.Body
	return m, func() tea.Msg {
		ctx := context.Background()
		err := runner.SaveNote(ctx, emailID, body)
		if err == nil {
			runner.recordEvent(ctx, emailID, triage.TargetMic, rowIndex)
		}
		return triageDoneMsg{EmailID: emailID, Target: triage.TargetMic, Err: err}
	}
}

// handleTriageDone reports the action's resolution and refreshes the
// views that show it.
func (m Model) handleTriageDone(msg triageDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		var manual *imapsource.ManualUnsubscribeError
		if errors.As(msg.Err, &manual) {
			m.statusMsg = fmt.Sprintf("Unsubscribe by hand: %s", manual.URL)
		} else {
			m.statusMsg = fmt.Sprintf("%s failed: %v", msg.Target, msg.Err)
		}
	} else {
		m.statusMsg = ""
	}

	cmds := []tea.Cmd{m.inboxView.LoadEmails(), m.fetchUnreadCount()}
	if m.currentView == ViewDetail {
		m.detailView.SetLoading(true)
		cmds = append(cmds, m.detailView.Load(msg.EmailID))
	}
	return m, tea.Batch(cmds...)
}

// abortPendingCommit releases a gesture held by a canceled form. The
// row stays un-triaged so the user can retry.
func (m *Model) abortPendingCommit() {
	if m.pendingCommit != nil {
		m.pendingCommit = nil
		m.state.Touch().SetPhase(triage.PhaseIdle)
	}
	m.pendingEmail = nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewAI:
		m.aiView, cmd = m.aiView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewReply:
		m.replyView, cmd = m.replyView.Update(msg)
	case ViewNote:
		m.noteView, cmd = m.noteView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Done With Email"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("Done With Email [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewConfig:
		return m.configView.View()
	case ViewAI:
		return m.aiView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewReply:
		return m.replyView.View()
	case ViewNote:
		return m.noteView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	statuses := m.poller.GetStatuses()
	if len(statuses) == 0 {
		return "no accounts"
	}

	running := 0
	errCount := 0
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			errCount++
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if errCount > 0 {
		return fmt.Sprintf("⚠ %d account(s) unreachable", errCount)
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar. Error
// feedback takes the slot when present.
func (m Model) keyHints() string {
	if m.statusMsg != "" && m.currentView == ViewInbox {
		return m.statusMsg
	}
	if m.authErrorMessage != "" && m.currentView == ViewInbox {
		return m.authErrorMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | d archive | R reply | n note | u unsub | j/k scroll"
	case ViewConfig:
		return "a add | e edit | x delete | enter test | esc back"
	case ViewAI:
		return "enter send | esc close"
	case ViewReply, ViewNote:
		return "enter submit | esc cancel"
	default:
		if m.state.Phase() == triage.PhaseProcessing {
			return "working..."
		}
		return "q quit | ? help | drag dot to triage | / search | 1 inbox 2 done 3 subs"
	}
}

// fetchUnreadCount queries the store for unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		notifications, err := s.GetUnreadNotifications(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		return tea.Batch(
			m.poller.RefreshAll(),
			m.inboxView.LoadEmails(),
		)
	case "quit", "q":
		m.poller.Stop()
		return tea.Quit
	case "configure", "config", "accounts":
		m.previousView = m.currentView
		m.currentView = ViewConfig
		return m.configView.Init()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "mark read":
		s := m.store
		return func() tea.Msg {
			_ = s.MarkNotificationsRead(context.Background())
			return unreadCountMsg{count: 0}
		}
	default:
		return nil
	}
}
