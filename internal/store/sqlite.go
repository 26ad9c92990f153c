package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertEmails inserts or updates a batch of synced messages. Triage
// status and AI enrichment already stored locally survive a re-sync:
// only the envelope fields are refreshed for existing rows.
func (s *SQLiteStore) UpsertEmails(ctx context.Context, emails []model.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO emails (
			id, account_id, uid, message_id,
			subject, from_name, from_addr, snippet,
			summary, category, is_subscription, unsubscribe_target,
			has_calendar_event, accept_calendar, status,
			date, fetched_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?
		)
		ON CONFLICT(account_id, uid) DO UPDATE SET
			subject = excluded.subject,
			from_name = excluded.from_name,
			from_addr = excluded.from_addr,
			snippet = excluded.snippet,
			is_subscription = excluded.is_subscription,
			unsubscribe_target = excluded.unsubscribe_target,
			has_calendar_event = excluded.has_calendar_event,
			fetched_at = excluded.fetched_at`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range emails {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Status == "" {
			e.Status = model.StatusInbox
		}

		_, err = stmt.ExecContext(ctx,
			e.ID, e.AccountID, e.UID, e.MessageID,
			e.Subject, e.FromName, e.FromAddr, e.Snippet,
			e.Summary, string(e.Category), e.IsSubscription, e.UnsubscribeTarget,
			e.HasCalendarEvent, e.AcceptCalendar, string(e.Status),
			e.Date.UTC(), e.FetchedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting email %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// GetEmails retrieves emails matching the provided filter options.
func (s *SQLiteStore) GetEmails(ctx context.Context, opts EmailFilter) ([]model.Email, error) {
	var conditions []string
	var args []interface{}

	if opts.AccountID != nil {
		conditions = append(conditions, "account_id = ?")
		args = append(args, *opts.AccountID)
	}
	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, string(*opts.Category))
	}
	if opts.Subscription != nil {
		conditions = append(conditions, "is_subscription = ?")
		args = append(args, *opts.Subscription)
	}
	if opts.Query != nil {
		conditions = append(conditions, "(subject LIKE ? OR from_name LIKE ? OR from_addr LIKE ? OR summary LIKE ?)")
		pattern := "%" + *opts.Query + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := "SELECT * FROM emails"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Whitelist sort columns to keep the filter injection-safe.
	sortBy := "date"
	switch opts.SortBy {
	case "subject", "from_addr", "fetched_at", "date":
		sortBy = opts.SortBy
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	var emails []model.Email
	if err := s.db.SelectContext(ctx, &emails, query, args...); err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	return emails, nil
}

// GetEmailByID retrieves a single email, or nil when not found.
func (s *SQLiteStore) GetEmailByID(ctx context.Context, id string) (*model.Email, error) {
	var email model.Email
	err := s.db.GetContext(ctx, &email, "SELECT * FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying email %s: %w", id, err)
	}
	return &email, nil
}

// SetEmailStatus commits a triage transition and stamps TriagedAt.
func (s *SQLiteStore) SetEmailStatus(ctx context.Context, id string, status model.EmailStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE emails SET status = ?, triaged_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating status of email %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update of email %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("email %s not found", id)
	}
	return nil
}

// UpdateEnrichment stores the AI triage metadata for one email.
func (s *SQLiteStore) UpdateEnrichment(ctx context.Context, email model.Email) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE emails SET
			summary = ?,
			category = ?,
			is_subscription = ?,
			accept_calendar = ?
		WHERE id = ?`,
		email.Summary, string(email.Category),
		email.IsSubscription, email.AcceptCalendar,
		email.ID,
	)
	if err != nil {
		return fmt.Errorf("updating enrichment of email %s: %w", email.ID, err)
	}
	return nil
}

// CreateNote stores a dictated note attached to an email.
func (s *SQLiteStore) CreateNote(ctx context.Context, note model.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notes (id, email_id, body, created_at) VALUES (?, ?, ?, ?)",
		note.ID, note.EmailID, note.Body, note.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating note for email %s: %w", note.EmailID, err)
	}
	return nil
}

// GetNotesByEmail returns the notes attached to an email, oldest first.
func (s *SQLiteStore) GetNotesByEmail(ctx context.Context, emailID string) ([]model.Note, error) {
	var notes []model.Note
	err := s.db.SelectContext(ctx, &notes,
		"SELECT * FROM notes WHERE email_id = ? ORDER BY created_at ASC", emailID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notes for email %s: %w", emailID, err)
	}
	return notes, nil
}

// RecordTriageEvent appends one committed gesture to the audit trail.
func (s *SQLiteStore) RecordTriageEvent(ctx context.Context, event model.TriageEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO triage_events (id, email_id, target, row_index, created_at) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.EmailID, event.Target, event.RowIndex, event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording triage event for email %s: %w", event.EmailID, err)
	}
	return nil
}

// GetTriageEvents returns the audit trail for an email, oldest first.
func (s *SQLiteStore) GetTriageEvents(ctx context.Context, emailID string) ([]model.TriageEvent, error) {
	var events []model.TriageEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM triage_events WHERE email_id = ? ORDER BY created_at ASC", emailID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying triage events for email %s: %w", emailID, err)
	}
	return events, nil
}

// accountRow is the database shape of an account configuration.
type accountRow struct {
	ID              string `db:"id"`
	Name            string `db:"name"`
	IMAPHost        string `db:"imap_host"`
	IMAPPort        string `db:"imap_port"`
	SMTPHost        string `db:"smtp_host"`
	SMTPPort        string `db:"smtp_port"`
	Username        string `db:"username"`
	UseTLS          bool   `db:"use_tls"`
	ArchiveMailbox  string `db:"archive_mailbox"`
	Enabled         bool   `db:"enabled"`
	PollIntervalSec int    `db:"poll_interval_sec"`
}

// SaveAccount inserts or replaces an account configuration.
func (s *SQLiteStore) SaveAccount(ctx context.Context, account model.AccountConfig) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO accounts (
			id, name, imap_host, imap_port, smtp_host, smtp_port,
			username, use_tls, archive_mailbox, enabled, poll_interval_sec,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.IMAPHost, account.IMAPPort,
		account.SMTPHost, account.SMTPPort, account.Username,
		account.UseTLS, account.ArchiveMailbox, account.Enabled,
		account.PollIntervalSec, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving account %s: %w", account.Name, err)
	}
	return nil
}

// GetAccounts returns all configured accounts.
func (s *SQLiteStore) GetAccounts(ctx context.Context) ([]model.AccountConfig, error) {
	var rows []accountRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, name, imap_host, imap_port, smtp_host, smtp_port, username, use_tls, archive_mailbox, enabled, poll_interval_sec FROM accounts ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}

	accounts := make([]model.AccountConfig, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, model.AccountConfig{
			ID:              r.ID,
			Name:            r.Name,
			IMAPHost:        r.IMAPHost,
			IMAPPort:        r.IMAPPort,
			SMTPHost:        r.SMTPHost,
			SMTPPort:        r.SMTPPort,
			Username:        r.Username,
			UseTLS:          r.UseTLS,
			ArchiveMailbox:  r.ArchiveMailbox,
			Enabled:         r.Enabled,
			PollIntervalSec: r.PollIntervalSec,
		})
	}
	return accounts, nil
}

// DeleteAccount removes an account configuration.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	return nil
}

// CreateNotification stores an unread notification.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notifications (id, email_id, account_id, message, read, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		n.ID, n.EmailID, n.AccountID, n.Message, n.Read, n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// GetUnreadNotifications returns unread notifications, newest first.
func (s *SQLiteStore) GetUnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.SelectContext(ctx, &notifications,
		"SELECT * FROM notifications WHERE read = 0 ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationsRead marks every notification as read.
func (s *SQLiteStore) MarkNotificationsRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0")
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
