package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/source"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
)

type fakeTriageStore struct {
	store.Store

	mu       sync.Mutex
	emails   map[string]model.Email
	statuses map[string]model.EmailStatus
	notes    []model.Note
	events   []model.TriageEvent
}

func newFakeTriageStore(emails ...model.Email) *fakeTriageStore {
	s := &fakeTriageStore{
		emails:   make(map[string]model.Email),
		statuses: make(map[string]model.EmailStatus),
	}
	for _, e := range emails {
		s.emails[e.ID] = e
	}
	return s
}

func (s *fakeTriageStore) GetEmailByID(_ context.Context, id string) (*model.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emails[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *fakeTriageStore) SetEmailStatus(_ context.Context, id string, status model.EmailStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = status
	return nil
}

func (s *fakeTriageStore) CreateNote(_ context.Context, note model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

func (s *fakeTriageStore) RecordTriageEvent(_ context.Context, event model.TriageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type fakeDispatchSource struct {
	accountID  string
	archived   []uint32
	replies    []source.Reply
	unsubbed   []string
	archiveErr error
	unsubErr   error
}

func (f *fakeDispatchSource) AccountID() string { return f.accountID }

func (f *fakeDispatchSource) ValidateConnection(context.Context) (string, error) {
	return "user@example.com", nil
}

func (f *fakeDispatchSource) FetchEmails(context.Context, source.FetchOptions) (*source.FetchResult, error) {
	return &source.FetchResult{}, nil
}

func (f *fakeDispatchSource) Archive(_ context.Context, uid uint32) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, uid)
	return nil
}

func (f *fakeDispatchSource) SendReply(_ context.Context, _ model.Email, reply source.Reply) error {
	f.replies = append(f.replies, reply)
	return nil
}

func (f *fakeDispatchSource) Unsubscribe(_ context.Context, email model.Email) error {
	if f.unsubErr != nil {
		return f.unsubErr
	}
	f.unsubbed = append(f.unsubbed, email.ID)
	return nil
}

func testEmail() model.Email {
	return model.Email{
		ID:        "e1",
		AccountID: "acct",
		UID:       42,
		Subject:   "hello",
		FromAddr:  "sender@example.com",
		Status:    model.StatusInbox,
	}
}

func newRunnerFixture(t *testing.T) (*triageRunner, *fakeTriageStore, *fakeDispatchSource) {
	t.Helper()
	s := newFakeTriageStore(testEmail())
	src := &fakeDispatchSource{accountID: "acct"}
	r := newTriageRunner(s)
	r.SetSource("acct", src)
	return r, s, src
}

func TestHandleDoneArchivesAndAdvances(t *testing.T) {
	r, s, src := newRunnerFixture(t)

	outcome, err := r.Handle(context.Background(), "e1", triage.TargetDone, 0)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != triage.OutcomeAdvance {
		t.Errorf("outcome = %v, want advance", outcome)
	}
	if len(src.archived) != 1 || src.archived[0] != 42 {
		t.Errorf("archived = %v, want [42]", src.archived)
	}
	if s.statuses["e1"] != model.StatusDone {
		t.Errorf("status = %q, want done", s.statuses["e1"])
	}
	if len(s.events) != 1 || s.events[0].Target != "done" {
		t.Errorf("events = %+v, want one done event", s.events)
	}
}

func TestHandleReplyUsesPendingInput(t *testing.T) {
	r, s, src := newRunnerFixture(t)

	r.SetPendingReply("", "thanks!")
	outcome, err := r.Handle(context.Background(), "e1", triage.TargetReply, 0)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != triage.OutcomeAdvance {
		t.Errorf("outcome = %v, want advance", outcome)
	}
	if len(src.replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(src.replies))
	}
	// An empty To falls back to the sender.
	if src.replies[0].To != "sender@example.com" {
		t.Errorf("reply to = %q, want sender@example.com", src.replies[0].To)
	}
	if s.statuses["e1"] != model.StatusReplied {
		t.Errorf("status = %q, want replied", s.statuses["e1"])
	}
}

func TestHandleReplyWithoutComposedBodyFails(t *testing.T) {
	r, _, src := newRunnerFixture(t)

	_, err := r.Handle(context.Background(), "e1", triage.TargetReply, 0)
	if err == nil {
		t.Fatal("expected error for missing reply body")
	}
	if len(src.replies) != 0 {
		t.Errorf("replies = %d, want 0", len(src.replies))
	}
}

func TestHandleNoteStaysOnRow(t *testing.T) {
	r, s, _ := newRunnerFixture(t)

	r.SetPendingNote("follow up monday")
	outcome, err := r.Handle(context.Background(), "e1", triage.TargetMic, 2)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != triage.OutcomeStay {
		t.Errorf("outcome = %v, want stay", outcome)
	}
	if len(s.notes) != 1 || s.notes[0].Body != "follow up monday" {
		t.Errorf("notes = %+v, want one note", s.notes)
	}
	// The message keeps its inbox status.
	if _, changed := s.statuses["e1"]; changed {
		t.Errorf("status changed to %q, want untouched", s.statuses["e1"])
	}
	if len(s.events) != 1 || s.events[0].RowIndex != 2 {
		t.Errorf("events = %+v, want one event on row 2", s.events)
	}
}

func TestHandleUnsubscribeMarksStatus(t *testing.T) {
	r, s, src := newRunnerFixture(t)

	outcome, err := r.Handle(context.Background(), "e1", triage.TargetUnsubscribe, 0)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != triage.OutcomeAdvance {
		t.Errorf("outcome = %v, want advance", outcome)
	}
	if len(src.unsubbed) != 1 {
		t.Errorf("unsubbed = %v, want one entry", src.unsubbed)
	}
	if s.statuses["e1"] != model.StatusUnsubscribed {
		t.Errorf("status = %q, want unsubscribed", s.statuses["e1"])
	}
}

func TestHandleUnsubscribeErrorLeavesStatus(t *testing.T) {
	r, s, src := newRunnerFixture(t)
	src.unsubErr = errors.New("boom")

	_, err := r.Handle(context.Background(), "e1", triage.TargetUnsubscribe, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, changed := s.statuses["e1"]; changed {
		t.Errorf("status changed to %q, want untouched", s.statuses["e1"])
	}
	if len(s.events) != 0 {
		t.Errorf("events = %+v, want none", s.events)
	}
}

func TestHandleArchiveErrorKeepsInbox(t *testing.T) {
	r, s, src := newRunnerFixture(t)
	src.archiveErr = errors.New("imap down")

	_, err := r.Handle(context.Background(), "e1", triage.TargetDone, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, changed := s.statuses["e1"]; changed {
		t.Errorf("status changed to %q, want untouched", s.statuses["e1"])
	}
}

func TestHandleMissingEmailFails(t *testing.T) {
	r, s, _ := newRunnerFixture(t)

	_, err := r.Handle(context.Background(), "no-such-id", triage.TargetDone, 0)
	if err == nil {
		t.Fatal("expected error for missing message")
	}
	if len(s.statuses) != 0 {
		t.Errorf("statuses = %v, want none", s.statuses)
	}
	if len(s.events) != 0 {
		t.Errorf("recorded %d events, want none", len(s.events))
	}
}

func TestHandleUnknownAccountFails(t *testing.T) {
	s := newFakeTriageStore(testEmail())
	r := newTriageRunner(s)

	_, err := r.Handle(context.Background(), "e1", triage.TargetDone, 0)
	if err == nil {
		t.Fatal("expected error for unregistered account")
	}
}

func TestDispatchResetsPhase(t *testing.T) {
	s := newFakeTriageStore(testEmail())
	src := &fakeDispatchSource{accountID: "acct"}
	r := newTriageRunner(s)
	r.SetSource("acct", src)

	state, err := triage.NewState(triage.DefaultGeometry(200))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	coord := triage.NewCoordinator(state, r.Handle)

	state.Scroll().SetActiveRow(0, 1)
	state.Touch().BeginDrag(100)
	state.Touch().SetPhase(triage.PhaseProcessing)

	commit := triage.Commit{Target: triage.TargetDone, RowIndex: 0}
	outcome, err := coord.Dispatch(context.Background(), "e1", commit)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if outcome != triage.OutcomeAdvance {
		t.Errorf("outcome = %v, want advance", outcome)
	}
	if state.Phase() != triage.PhaseIdle {
		t.Errorf("phase = %v, want idle after dispatch", state.Phase())
	}
}
