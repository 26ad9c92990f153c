package store

import (
	"context"
	"testing"
	"time"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEmail(uid uint32, subject string) model.Email {
	return model.Email{
		AccountID: "acct-1",
		UID:       uid,
		MessageID: "<msg@example.com>",
		Subject:   subject,
		FromName:  "Ada",
		FromAddr:  "ada@example.com",
		Snippet:   "hello",
		Status:    model.StatusInbox,
		Date:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		FetchedAt: time.Now(),
	}
}

func TestUpsertAndGetEmails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	emails := []model.Email{
		sampleEmail(1, "first"),
		sampleEmail(2, "second"),
	}
	if err := s.UpsertEmails(ctx, emails); err != nil {
		t.Fatalf("UpsertEmails: %v", err)
	}

	got, err := s.GetEmails(ctx, EmailFilter{SortBy: "date"})
	if err != nil {
		t.Fatalf("GetEmails: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d emails, want 2", len(got))
	}
	if got[0].ID == "" {
		t.Fatalf("upsert did not assign an id")
	}
}

// A re-sync must not clobber local triage status or AI enrichment.
func TestResyncPreservesTriageState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	email := sampleEmail(7, "invoice")
	if err := s.UpsertEmails(ctx, []model.Email{email}); err != nil {
		t.Fatalf("UpsertEmails: %v", err)
	}

	stored, err := s.GetEmails(ctx, EmailFilter{})
	if err != nil || len(stored) != 1 {
		t.Fatalf("GetEmails: %v (%d rows)", err, len(stored))
	}
	id := stored[0].ID

	if err := s.SetEmailStatus(ctx, id, model.StatusDone); err != nil {
		t.Fatalf("SetEmailStatus: %v", err)
	}
	enriched := stored[0]
	enriched.Summary = "an invoice"
	enriched.Category = model.CategoryWork
	if err := s.UpdateEnrichment(ctx, enriched); err != nil {
		t.Fatalf("UpdateEnrichment: %v", err)
	}

	// Same account/uid arrives again with a fresher snippet.
	again := sampleEmail(7, "invoice")
	again.Snippet = "updated"
	if err := s.UpsertEmails(ctx, []model.Email{again}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	after, err := s.GetEmailByID(ctx, id)
	if err != nil || after == nil {
		t.Fatalf("GetEmailByID: %v", err)
	}
	if after.Status != model.StatusDone {
		t.Fatalf("status = %s, want done preserved across re-sync", after.Status)
	}
	if after.Summary != "an invoice" || after.Category != model.CategoryWork {
		t.Fatalf("enrichment lost across re-sync: %+v", after)
	}
	if after.Snippet != "updated" {
		t.Fatalf("snippet = %q, want refreshed value", after.Snippet)
	}
}

func TestSetEmailStatusMissing(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetEmailStatus(context.Background(), "nope", model.StatusDone); err == nil {
		t.Fatalf("expected error for unknown email")
	}
}

func TestGetEmailsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := sampleEmail(1, "weekly digest")
	sub.IsSubscription = true
	plain := sampleEmail(2, "lunch?")
	if err := s.UpsertEmails(ctx, []model.Email{sub, plain}); err != nil {
		t.Fatalf("UpsertEmails: %v", err)
	}

	yes := true
	got, err := s.GetEmails(ctx, EmailFilter{Subscription: &yes})
	if err != nil {
		t.Fatalf("GetEmails: %v", err)
	}
	if len(got) != 1 || got[0].Subject != "weekly digest" {
		t.Fatalf("subscription filter returned %+v", got)
	}

	q := "lunch"
	got, err = s.GetEmails(ctx, EmailFilter{Query: &q})
	if err != nil {
		t.Fatalf("GetEmails: %v", err)
	}
	if len(got) != 1 || got[0].Subject != "lunch?" {
		t.Fatalf("query filter returned %+v", got)
	}
}

func TestNotesAndTriageEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	email := sampleEmail(3, "note me")
	if err := s.UpsertEmails(ctx, []model.Email{email}); err != nil {
		t.Fatalf("UpsertEmails: %v", err)
	}
	stored, _ := s.GetEmails(ctx, EmailFilter{})
	id := stored[0].ID

	if err := s.CreateNote(ctx, model.Note{EmailID: id, Body: "call back monday"}); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	notes, err := s.GetNotesByEmail(ctx, id)
	if err != nil || len(notes) != 1 || notes[0].Body != "call back monday" {
		t.Fatalf("GetNotesByEmail: %v %+v", err, notes)
	}

	if err := s.RecordTriageEvent(ctx, model.TriageEvent{EmailID: id, Target: "done", RowIndex: 4}); err != nil {
		t.Fatalf("RecordTriageEvent: %v", err)
	}
	events, err := s.GetTriageEvents(ctx, id)
	if err != nil || len(events) != 1 || events[0].Target != "done" || events[0].RowIndex != 4 {
		t.Fatalf("GetTriageEvents: %v %+v", err, events)
	}
}

func TestAccountsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account := model.AccountConfig{
		Name:            "personal",
		IMAPHost:        "imap.example.com",
		IMAPPort:        "993",
		SMTPHost:        "smtp.example.com",
		SMTPPort:        "587",
		Username:        "ada@example.com",
		UseTLS:          true,
		ArchiveMailbox:  "Archive",
		Enabled:         true,
		PollIntervalSec: 60,
	}
	if err := s.SaveAccount(ctx, account); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	accounts, err := s.GetAccounts(ctx)
	if err != nil {
		t.Fatalf("GetAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].IMAPHost != "imap.example.com" || !accounts[0].UseTLS {
		t.Fatalf("GetAccounts returned %+v", accounts)
	}

	if err := s.DeleteAccount(ctx, accounts[0].ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	accounts, _ = s.GetAccounts(ctx)
	if len(accounts) != 0 {
		t.Fatalf("account not deleted: %+v", accounts)
	}
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateNotification(ctx, model.Notification{EmailID: "e1", Message: "new mail"}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	unread, err := s.GetUnreadNotifications(ctx)
	if err != nil || len(unread) != 1 {
		t.Fatalf("GetUnreadNotifications: %v %+v", err, unread)
	}

	if err := s.MarkNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkNotificationsRead: %v", err)
	}
	unread, _ = s.GetUnreadNotifications(ctx)
	if len(unread) != 0 {
		t.Fatalf("notifications still unread: %+v", unread)
	}
}
