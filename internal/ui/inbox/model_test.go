package inbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magicseth/donewithemail-sub001/internal/keys"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
)

// testStore serves a fixed slice of emails.
type testStore struct {
	store.Store
	emails []model.Email
}

func (s *testStore) GetEmails(context.Context, store.EmailFilter) ([]model.Email, error) {
	return s.emails, nil
}

func testEmails(n int) []model.Email {
	emails := make([]model.Email, n)
	for i := range emails {
		emails[i] = model.Email{
			ID:       string(rune('a' + i)),
			Subject:  "subject",
			FromName: "Sender",
			Status:   model.StatusInbox,
		}
	}
	return emails
}

// newTestModel builds an inbox over n messages in a 200x20 content area.
func newTestModel(t *testing.T, n int) Model {
	t.Helper()

	state, err := triage.NewState(triage.DefaultGeometry(200))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	coord := triage.NewCoordinator(state, nil)

	emails := testEmails(n)
	m := New(&testStore{emails: emails}, keys.DefaultKeyMap(), coord, 200, 20)
	m, _ = m.Update(EmailsLoadedMsg{Emails: emails})
	return m
}

func mouse(x, y int, button tea.MouseButton, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: button, Action: action}
}

// drainCmd runs a command and returns its message, or nil.
func drainCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestDragToReplyCommits(t *testing.T) {
	m := newTestModel(t, 3)

	// Row 0's indicator line sits at screen Y 3. The reply target's
	// center is at (108, 1.5), within activation range of a release on
	// that line.
	m, _ = m.Update(mouse(100, 3, tea.MouseButtonLeft, tea.MouseActionPress))
	if m.state().Phase() != triage.PhaseDragging {
		t.Fatalf("phase after press = %v, want dragging", m.state().Phase())
	}

	m, _ = m.Update(mouse(104, 3, tea.MouseButtonLeft, tea.MouseActionMotion))
	m, cmd := m.Update(mouse(108, 3, tea.MouseButtonLeft, tea.MouseActionRelease))

	msg := drainCmd(cmd)
	commit, ok := msg.(DragCommitMsg)
	if !ok {
		t.Fatalf("release message = %T, want DragCommitMsg", msg)
	}
	if commit.Commit.Target != triage.TargetReply {
		t.Errorf("Target = %v, want reply", commit.Commit.Target)
	}
	if commit.EmailID != "a" {
		t.Errorf("EmailID = %q, want the first row's", commit.EmailID)
	}
	if m.state().Phase() != triage.PhaseProcessing {
		t.Errorf("phase after commit = %v, want processing", m.state().Phase())
	}
}

func TestReleaseOverNothingCancels(t *testing.T) {
	m := newTestModel(t, 3)

	m, _ = m.Update(mouse(100, 3, tea.MouseButtonLeft, tea.MouseActionPress))
	m, cmd := m.Update(mouse(40, 3, tea.MouseButtonLeft, tea.MouseActionRelease))

	if msg := drainCmd(cmd); msg != nil {
		t.Fatalf("unexpected message on miss: %#v", msg)
	}
	if m.state().Phase() != triage.PhaseIdle {
		t.Errorf("phase = %v, want idle", m.state().Phase())
	}
}

func TestPressSelectsClickedRow(t *testing.T) {
	m := newTestModel(t, 3)

	// Row 1 spans screen Y 4-5.
	m, _ = m.Update(mouse(100, 5, tea.MouseButtonLeft, tea.MouseActionPress))
	if got := m.ActiveIndex(); got != 1 {
		t.Errorf("ActiveIndex = %d, want 1", got)
	}
	if email := m.ActiveEmail(); email == nil || email.ID != "b" {
		t.Errorf("ActiveEmail = %+v, want id b", email)
	}
}

func TestWheelScrollsWithoutClaimingDrag(t *testing.T) {
	m := newTestModel(t, 20)

	m, _ = m.Update(mouse(100, 3, tea.MouseButtonLeft, tea.MouseActionPress))
	m, _ = m.Update(mouse(100, 3, tea.MouseButtonWheelDown, tea.MouseActionPress))

	if m.state().ScrollY() != 1 {
		t.Errorf("ScrollY = %v, want 1", m.state().ScrollY())
	}
	if m.state().Phase() != triage.PhaseDragging {
		t.Errorf("phase = %v, scroll must not cancel the drag", m.state().Phase())
	}
}

func TestVerticalDragHandsOffToScroll(t *testing.T) {
	m := newTestModel(t, 20)

	m, _ = m.Update(mouse(100, 3, tea.MouseButtonLeft, tea.MouseActionPress))
	m, _ = m.Update(mouse(100, 9, tea.MouseButtonLeft, tea.MouseActionMotion))

	if m.state().Phase() != triage.PhaseIdle {
		t.Errorf("phase = %v, want idle after vertical-dominant motion", m.state().Phase())
	}
}

func TestSubscriptionTargetHiddenOnPlainMail(t *testing.T) {
	m := newTestModel(t, 1)

	view := m.View()
	if strings.Contains(view, "✕") {
		t.Error("unsubscribe glyph rendered for a non-subscription message")
	}
	for _, glyph := range []string{"✓", "↩"} {
		if !strings.Contains(view, glyph) {
			t.Errorf("target bar missing %q", glyph)
		}
	}
}

func TestSubscriptionTargetShownOnListMail(t *testing.T) {
	state, err := triage.NewState(triage.DefaultGeometry(200))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	coord := triage.NewCoordinator(state, nil)

	emails := testEmails(1)
	emails[0].IsSubscription = true
	m := New(&testStore{emails: emails}, keys.DefaultKeyMap(), coord, 200, 20)
	m, _ = m.Update(EmailsLoadedMsg{Emails: emails})

	if !strings.Contains(m.View(), "✕") {
		t.Error("unsubscribe glyph missing for a subscription message")
	}
}

func TestReloadCancelsDragAndClampsIndex(t *testing.T) {
	m := newTestModel(t, 3)

	m.moveActive(1)
	m.moveActive(1)
	m, _ = m.Update(mouse(100, 7, tea.MouseButtonLeft, tea.MouseActionPress))

	m, _ = m.Update(EmailsLoadedMsg{Emails: testEmails(1)})

	if m.state().Phase() != triage.PhaseIdle {
		t.Errorf("phase = %v, want idle after reload", m.state().Phase())
	}
	if got := m.ActiveIndex(); got != 0 {
		t.Errorf("ActiveIndex = %d, want clamped to 0", got)
	}
}

func TestLoadErrorKeepsCurrentRows(t *testing.T) {
	m := newTestModel(t, 3)

	m, _ = m.Update(EmailsLoadedMsg{Err: errors.New("db locked")})

	if got := len(m.emails); got != 3 {
		t.Fatalf("emails = %d, want 3 kept after load error", got)
	}
	if strings.Contains(m.View(), "Inbox zero") {
		t.Error("empty state rendered over a load failure")
	}
}

func TestKeyboardNavigationMovesIndicator(t *testing.T) {
	m := newTestModel(t, 3)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if got := m.ActiveIndex(); got != 1 {
		t.Errorf("ActiveIndex after j = %d, want 1", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if got := m.ActiveIndex(); got != 0 {
		t.Errorf("ActiveIndex after k = %d, want 0", got)
	}
}
