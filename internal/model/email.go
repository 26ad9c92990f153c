package model

import "time"

// EmailStatus is the triage disposition of a message.
type EmailStatus string

const (
	// StatusInbox means the message is untriaged.
	StatusInbox EmailStatus = "inbox"

	// StatusDone means the message was archived via the done target.
	StatusDone EmailStatus = "done"

	// StatusReplied means a reply was sent.
	StatusReplied EmailStatus = "replied"

	// StatusUnsubscribed means the unsubscribe action was dispatched.
	StatusUnsubscribed EmailStatus = "unsubscribed"
)

// Category is the AI classification of a message.
type Category string

const (
	CategoryPersonal     Category = "personal"
	CategoryWork         Category = "work"
	CategoryNewsletter   Category = "newsletter"
	CategoryNotification Category = "notification"
	CategoryCalendar     Category = "calendar"
	CategoryOther        Category = "other"
)

// Email is the unified representation of a synced message. The gesture
// engine reads only the triage-relevant flags; everything else feeds the
// list and detail views.
type Email struct {
	// ID is the internal unique identifier.
	ID string `json:"id" db:"id"`

	// AccountID identifies the configured mail account this came from.
	AccountID string `json:"account_id" db:"account_id"`

	// UID is the message's IMAP UID within its mailbox.
	UID uint32 `json:"uid" db:"uid"`

	// MessageID is the RFC 5322 Message-ID header.
	MessageID string `json:"message_id" db:"message_id"`

	Subject    string `json:"subject" db:"subject"`
	FromName   string `json:"from_name" db:"from_name"`
	FromAddr   string `json:"from_addr" db:"from_addr"`
	Snippet    string `json:"snippet" db:"snippet"`

	// Summary is the AI one-line summary, empty until enrichment runs.
	Summary string `json:"summary" db:"summary"`

	// Category is the AI classification, empty until enrichment runs.
	Category Category `json:"category" db:"category"`

	// IsSubscription is true for mailing-list traffic, detected from
	// List-Unsubscribe/List-Id headers or the AI classifier.
	IsSubscription bool `json:"is_subscription" db:"is_subscription"`

	// UnsubscribeTarget is the List-Unsubscribe value, when present.
	UnsubscribeTarget string `json:"unsubscribe_target" db:"unsubscribe_target"`

	// HasCalendarEvent is true when the message carries a text/calendar
	// part.
	HasCalendarEvent bool `json:"has_calendar_event" db:"has_calendar_event"`

	// AcceptCalendar is the AI prediction that the user will accept
	// the invite. Meaningless unless HasCalendarEvent.
	AcceptCalendar bool `json:"accept_calendar" db:"accept_calendar"`

	Status EmailStatus `json:"status" db:"status"`

	// Date is the message date from the envelope.
	Date time.Time `json:"date" db:"date"`

	// FetchedAt is when the message was last synced.
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`

	// TriagedAt is when a triage action was committed, if any.
	TriagedAt *time.Time `json:"triaged_at,omitempty" db:"triaged_at"`
}

// Sender returns the display form of the sender.
func (e Email) Sender() string {
	if e.FromName != "" {
		return e.FromName
	}
	return e.FromAddr
}

// Triaged reports whether the message has left the inbox.
func (e Email) Triaged() bool {
	return e.Status != StatusInbox
}

// Note is a dictated note attached to an email via the mic target.
type Note struct {
	ID        string    `json:"id" db:"id"`
	EmailID   string    `json:"email_id" db:"email_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TriageEvent is one committed gesture, kept as an audit trail.
type TriageEvent struct {
	ID        string    `json:"id" db:"id"`
	EmailID   string    `json:"email_id" db:"email_id"`
	Target    string    `json:"target" db:"target"`
	RowIndex  int       `json:"row_index" db:"row_index"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
