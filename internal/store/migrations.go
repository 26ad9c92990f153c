package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	imap_host         TEXT NOT NULL,
	imap_port         TEXT NOT NULL DEFAULT '993',
	smtp_host         TEXT NOT NULL DEFAULT '',
	smtp_port         TEXT NOT NULL DEFAULT '587',
	username          TEXT NOT NULL,
	use_tls           INTEGER NOT NULL DEFAULT 1,
	archive_mailbox   TEXT NOT NULL DEFAULT 'Archive',
	enabled           INTEGER NOT NULL DEFAULT 1,
	poll_interval_sec INTEGER NOT NULL DEFAULT 120,
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS emails (
	id                 TEXT PRIMARY KEY,
	account_id         TEXT NOT NULL,
	uid                INTEGER NOT NULL,
	message_id         TEXT NOT NULL DEFAULT '',
	subject            TEXT NOT NULL DEFAULT '',
	from_name          TEXT NOT NULL DEFAULT '',
	from_addr          TEXT NOT NULL DEFAULT '',
	snippet            TEXT NOT NULL DEFAULT '',
	summary            TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	is_subscription    INTEGER NOT NULL DEFAULT 0,
	unsubscribe_target TEXT NOT NULL DEFAULT '',
	has_calendar_event INTEGER NOT NULL DEFAULT 0,
	accept_calendar    INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'inbox',
	date               DATETIME NOT NULL,
	fetched_at         DATETIME NOT NULL,
	triaged_at         DATETIME,
	UNIQUE(account_id, uid)
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	email_id   TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS triage_events (
	id         TEXT PRIMARY KEY,
	email_id   TEXT NOT NULL,
	target     TEXT NOT NULL,
	row_index  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	email_id   TEXT NOT NULL,
	account_id TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_account ON emails(account_id);
CREATE INDEX IF NOT EXISTS idx_emails_status ON emails(status);
CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category);
CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(date);
CREATE INDEX IF NOT EXISTS idx_notes_email ON notes(email_id);
CREATE INDEX IF NOT EXISTS idx_triage_events_email ON triage_events(email_id);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_emails_status_date ON emails(status, date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
