package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/magicseth/donewithemail-sub001/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// mail account.
type AuthError struct {
	AccountID string
	Message   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.AccountID, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FetchOptions controls how much mail a sync fetches.
type FetchOptions struct {
	// Limit caps the number of messages fetched per sync.
	Limit int

	// SinceDays restricts the search window. Zero means the default.
	SinceDays int
}

// FetchResult holds one page of synced messages.
type FetchResult struct {
	Emails []model.Email
	Total  int
}

// Reply describes an outgoing reply to a synced message.
type Reply struct {
	// To is the recipient address, normally the original sender.
	To string

	// Body is the plain-text reply body.
	Body string
}

// Source is the contract a mail account integration implements. The
// triage handler drives Archive, SendReply, and Unsubscribe; the sync
// poller drives FetchEmails.
type Source interface {
	// AccountID returns the configured account this source serves.
	AccountID() string

	// ValidateConnection verifies credentials and connectivity,
	// returning the authenticated username on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchEmails retrieves recent messages from the inbox.
	FetchEmails(ctx context.Context, opts FetchOptions) (*FetchResult, error)

	// Archive moves a message out of the inbox.
	Archive(ctx context.Context, uid uint32) error

	// SendReply sends a reply to a message and marks it answered.
	SendReply(ctx context.Context, email model.Email, reply Reply) error

	// Unsubscribe honors the message's List-Unsubscribe target.
	Unsubscribe(ctx context.Context, email model.Email) error
}
