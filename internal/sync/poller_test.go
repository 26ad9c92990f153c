package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/source"
	"github.com/magicseth/donewithemail-sub001/internal/store"
)

// fakeSource returns a scripted fetch result or error.
type fakeSource struct {
	accountID string
	result    *source.FetchResult
	err       error
}

func (f *fakeSource) AccountID() string { return f.accountID }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) {
	return f.accountID, nil
}

func (f *fakeSource) FetchEmails(context.Context, source.FetchOptions) (*source.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeSource) Archive(context.Context, uint32) error { return nil }

func (f *fakeSource) SendReply(context.Context, model.Email, source.Reply) error {
	return nil
}

func (f *fakeSource) Unsubscribe(context.Context, model.Email) error { return nil }

// fakeStore records upserts and notifications in memory.
type fakeStore struct {
	store.Store

	mu            gosync.Mutex
	emails        []model.Email
	upserted      []model.Email
	notifications []model.Notification
}

func (s *fakeStore) UpsertEmails(_ context.Context, emails []model.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, emails...)
	return nil
}

func (s *fakeStore) GetEmails(_ context.Context, _ store.EmailFilter) ([]model.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Email, len(s.emails))
	copy(out, s.emails)
	return out, nil
}

func (s *fakeStore) CreateNotification(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func testAccount(id string) model.AccountConfig {
	return model.AccountConfig{ID: id, Name: id, PollIntervalSec: 3600}
}

func TestFetchAndUpsertReportsNewMail(t *testing.T) {
	st := &fakeStore{
		emails: []model.Email{{ID: "e1", AccountID: "acct", UID: 1}},
	}
	src := &fakeSource{
		accountID: "acct",
		result: &source.FetchResult{
			Emails: []model.Email{
				{AccountID: "acct", UID: 1, Subject: "old"},
				{AccountID: "acct", UID: 2, Subject: "fresh", FromName: "Bo"},
			},
			Total: 2,
		},
	}

	p := New(st, nil)
	p.RegisterAccount(src, testAccount("acct"))
	p.fetchAndUpsert(p.accounts[0])

	select {
	case msg := <-p.resultCh:
		result, ok := msg.(SyncResultMsg)
		if !ok {
			t.Fatalf("message type = %T, want SyncResultMsg", msg)
		}
		if result.Error != nil {
			t.Fatalf("unexpected sync error: %v", result.Error)
		}
		if result.NewEmailCount != 1 {
			t.Errorf("NewEmailCount = %d, want 1", result.NewEmailCount)
		}
	default:
		t.Fatal("no result message sent")
	}

	if len(st.upserted) != 2 {
		t.Errorf("upserted %d emails, want 2", len(st.upserted))
	}
	if len(st.notifications) != 1 {
		t.Fatalf("created %d notifications, want 1", len(st.notifications))
	}
	if st.notifications[0].AccountID != "acct" {
		t.Errorf("notification account = %q", st.notifications[0].AccountID)
	}
}

func TestFetchAndUpsertAuthError(t *testing.T) {
	st := &fakeStore{}
	src := &fakeSource{
		accountID: "acct",
		err:       &source.AuthError{AccountID: "acct", Message: "login rejected"},
	}

	p := New(st, nil)
	p.RegisterAccount(src, testAccount("acct"))
	p.fetchAndUpsert(p.accounts[0])

	select {
	case msg := <-p.resultCh:
		result, ok := msg.(SyncResultMsg)
		if !ok {
			t.Fatalf("message type = %T, want SyncResultMsg", msg)
		}
		if result.AuthError == nil {
			t.Fatal("expected AuthError to be set")
		}
		if result.AuthError.AccountID != "acct" {
			t.Errorf("AuthError.AccountID = %q", result.AuthError.AccountID)
		}
	default:
		t.Fatal("no result message sent")
	}

	statuses := p.GetStatuses()
	if len(statuses) != 1 || statuses[0].State != SyncError {
		t.Errorf("statuses = %+v, want single SyncError entry", statuses)
	}
}

func TestFetchAndUpsertPlainError(t *testing.T) {
	st := &fakeStore{}
	src := &fakeSource{accountID: "acct", err: errors.New("connection reset")}

	p := New(st, nil)
	p.RegisterAccount(src, testAccount("acct"))
	p.fetchAndUpsert(p.accounts[0])

	select {
	case msg := <-p.resultCh:
		result := msg.(SyncResultMsg)
		if result.Error == nil {
			t.Fatal("expected Error to be set")
		}
		if result.AuthError != nil {
			t.Error("plain errors must not be reported as auth errors")
		}
	default:
		t.Fatal("no result message sent")
	}
}

func TestStatusTracksLastSync(t *testing.T) {
	st := &fakeStore{}
	src := &fakeSource{accountID: "acct", result: &source.FetchResult{}}

	p := New(st, nil)
	p.RegisterAccount(src, testAccount("acct"))

	before := time.Now()
	p.fetchAndUpsert(p.accounts[0])

	statuses := p.GetStatuses()
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	if statuses[0].State != SyncIdle {
		t.Errorf("State = %v, want SyncIdle", statuses[0].State)
	}
	if statuses[0].LastSync.Before(before) {
		t.Error("LastSync not updated after successful fetch")
	}
}

func TestRefreshAccountTargetsOnlyThatAccount(t *testing.T) {
	p := New(&fakeStore{}, nil)
	p.RegisterAccount(&fakeSource{accountID: "a"}, testAccount("a"))
	p.RegisterAccount(&fakeSource{accountID: "b"}, testAccount("b"))

	p.RefreshAccount("b")

	select {
	case <-p.accounts[0].triggerCh:
		t.Error("refresh for b landed on a's trigger channel")
	default:
	}

	select {
	case <-p.accounts[1].triggerCh:
	default:
		t.Error("no trigger queued for b")
	}
}

func TestRefreshAllTriggersEveryAccount(t *testing.T) {
	p := New(&fakeStore{}, nil)
	p.RegisterAccount(&fakeSource{accountID: "a"}, testAccount("a"))
	p.RegisterAccount(&fakeSource{accountID: "b"}, testAccount("b"))

	p.RefreshAll()

	for i, entry := range p.accounts {
		select {
		case <-entry.triggerCh:
		default:
			t.Errorf("account %d got no trigger", i)
		}
	}
}

func TestReregisterKeepsTriggerChannel(t *testing.T) {
	p := New(&fakeStore{}, nil)
	p.RegisterAccount(&fakeSource{accountID: "a"}, testAccount("a"))
	ch := p.accounts[0].triggerCh

	p.RegisterAccount(&fakeSource{accountID: "a"}, testAccount("a"))

	if p.accounts[0].triggerCh != ch {
		t.Error("re-registering replaced the trigger channel a running loop listens on")
	}
}

func TestSendResultNeverBlocks(t *testing.T) {
	p := New(&fakeStore{}, nil)
	for i := 0; i < 100; i++ {
		p.sendResult(SyncResultMsg{AccountID: "acct"})
	}
}
