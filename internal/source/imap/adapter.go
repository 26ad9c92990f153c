package imapsource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/source"
)

// Adapter implements source.Source over IMAP and SMTP.
type Adapter struct {
	client         *Client
	smtpConfig     SMTPConfig
	accountID      string
	username       string
	archiveMailbox string
}

// NewAdapter creates a mail source from an account configuration and
// its keyring password.
func NewAdapter(cfg model.AccountConfig, password string) *Adapter {
	return &Adapter{
		client: NewClient(
			cfg.ID, cfg.IMAPHost, cfg.IMAPPort,
			cfg.Username, password, cfg.UseTLS,
		),
		smtpConfig: SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.Username,
			Password: password,
			TLS:      cfg.UseTLS,
		},
		accountID:      cfg.ID,
		username:       cfg.Username,
		archiveMailbox: cfg.ArchiveMailbox,
	}
}

// AccountID returns the configured account this source serves.
func (a *Adapter) AccountID() string {
	return a.accountID
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting INBOX. Returns the username on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	client, err := a.client.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting INBOX: %w", err)
	}

	return a.username, nil
}

// FetchEmails retrieves recent inbox messages and maps them to
// model.Email records with the subscription and calendar signals set.
func (a *Adapter) FetchEmails(ctx context.Context, opts source.FetchOptions) (*source.FetchResult, error) {
	limit := opts.Limit
	if limit < 1 {
		limit = 100
	}

	envelopes, err := a.client.FetchRecent(ctx, opts.SinceDays, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching inbox: %w", err)
	}

	emails := make([]model.Email, 0, len(envelopes))
	for _, env := range envelopes {
		emails = append(emails, a.envelopeToEmail(env))
	}

	return &source.FetchResult{Emails: emails, Total: len(emails)}, nil
}

// Archive moves the message into the configured archive mailbox.
func (a *Adapter) Archive(ctx context.Context, uid uint32) error {
	return a.client.Archive(ctx, uid, a.archiveMailbox)
}

// SendReply sends a plain-text reply via SMTP and marks the original
// message answered.
func (a *Adapter) SendReply(ctx context.Context, email model.Email, reply source.Reply) error {
	to := reply.To
	if to == "" {
		to = email.FromAddr
	}

	subject := email.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	headers := []string{fmt.Sprintf("Subject: %s", subject)}
	if email.MessageID != "" {
		headers = append(headers,
			fmt.Sprintf("In-Reply-To: %s", email.MessageID),
			fmt.Sprintf("References: %s", email.MessageID),
		)
	}

	err := a.smtpConfig.send(outgoing{
		from:    a.username,
		to:      to,
		headers: headers,
		body:    reply.Body,
	})
	if err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}

	return a.client.SetFlags(ctx, email.UID, []imap.Flag{imap.FlagAnswered}, true)
}

// Unsubscribe honors the message's List-Unsubscribe target. Only the
// mailto form is acted on; an http-only target is reported back so the
// UI can show the link instead.
func (a *Adapter) Unsubscribe(_ context.Context, email model.Email) error {
	target := ParseUnsubscribeTarget(email.UnsubscribeTarget)

	switch {
	case target.Mailto != "":
		err := a.smtpConfig.send(outgoing{
			from:    a.username,
			to:      target.Mailto,
			headers: []string{fmt.Sprintf("Subject: %s", target.Subject)},
			body:    "This message was sent automatically to unsubscribe.",
		})
		if err != nil {
			return fmt.Errorf("sending unsubscribe for %q: %w", email.Subject, err)
		}
		return nil

	case target.URL != "":
		return &ManualUnsubscribeError{URL: target.URL}

	default:
		return fmt.Errorf("no unsubscribe target for %q", email.Subject)
	}
}

// envelopeToEmail converts an IMAP envelope into the unified model.
func (a *Adapter) envelopeToEmail(env Envelope) model.Email {
	return model.Email{
		AccountID:         a.accountID,
		UID:               env.UID,
		MessageID:         env.MessageID,
		Subject:           env.Subject,
		FromName:          env.FromName,
		FromAddr:          env.FromAddr,
		Snippet:           env.Snippet,
		IsSubscription:    env.ListUnsubscribe != "" || env.ListID != "",
		UnsubscribeTarget: env.ListUnsubscribe,
		HasCalendarEvent:  env.HasCalendarEvent,
		Status:            model.StatusInbox,
		Date:              env.Date,
		FetchedAt:         time.Now(),
	}
}
