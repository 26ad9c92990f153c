package store

import (
	"context"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

// EmailFilter controls filtering, sorting, and pagination for email
// queries.
type EmailFilter struct {
	AccountID    *string
	Status       *model.EmailStatus
	Category     *model.Category
	Subscription *bool
	Query        *string // search subject + sender + summary
	SortBy       string  // "date", "subject", "from_addr", "fetched_at"
	SortDesc     bool
	Limit        int
	Offset       int
}

// Store defines the persistence interface for emails, notes, triage
// events, accounts, and notifications.
type Store interface {
	// === Emails ===

	UpsertEmails(ctx context.Context, emails []model.Email) error
	GetEmails(ctx context.Context, opts EmailFilter) ([]model.Email, error)
	GetEmailByID(ctx context.Context, id string) (*model.Email, error)

	// SetEmailStatus commits a triage transition and stamps TriagedAt.
	SetEmailStatus(ctx context.Context, id string, status model.EmailStatus) error

	// UpdateEnrichment stores the AI triage metadata for one email.
	UpdateEnrichment(ctx context.Context, email model.Email) error

	// === Notes ===

	CreateNote(ctx context.Context, note model.Note) error
	GetNotesByEmail(ctx context.Context, emailID string) ([]model.Note, error)

	// === Triage audit trail ===

	RecordTriageEvent(ctx context.Context, event model.TriageEvent) error
	GetTriageEvents(ctx context.Context, emailID string) ([]model.TriageEvent, error)

	// === Accounts ===

	SaveAccount(ctx context.Context, account model.AccountConfig) error
	GetAccounts(ctx context.Context) ([]model.AccountConfig, error)
	DeleteAccount(ctx context.Context, id string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context) error

	Close() error
}
