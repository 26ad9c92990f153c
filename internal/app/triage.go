package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/source"
	"github.com/magicseth/donewithemail-sub001/internal/store"
	"github.com/magicseth/donewithemail-sub001/internal/triage"
)

// triageDoneMsg reports the resolution of a triage action, whether it
// came from a drag commit or a keyboard shortcut.
type triageDoneMsg struct {
	EmailID string
	Target  triage.TargetID
	Outcome triage.Outcome
	Err     error
}

// triageRunner executes committed triage decisions against the store and
// the account's mail source. It doubles as the gesture engine's handler:
// reply and note commits read their user input from the pending slots,
// filled by the forms before dispatch.
type triageRunner struct {
	store store.Store

	mu      sync.Mutex
	sources map[string]source.Source

	pendingMu        sync.Mutex
	pendingReplyTo   string
	pendingReplyBody string
	pendingNoteBody  string
}

func newTriageRunner(s store.Store) *triageRunner {
	return &triageRunner{
		store:   s,
		sources: make(map[string]source.Source),
	}
}

// SetSource registers (or replaces) the mail source for an account.
func (r *triageRunner) SetSource(accountID string, src source.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[accountID] = src
}

func (r *triageRunner) sourceFor(accountID string) (source.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[accountID]
	if !ok {
		return nil, fmt.Errorf("no mail source registered for account %s", accountID)
	}
	return src, nil
}

// SetPendingReply stores the composed reply for the next reply commit.
func (r *triageRunner) SetPendingReply(to, body string) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	r.pendingReplyTo = to
	r.pendingReplyBody = body
}

// SetPendingNote stores the note text for the next note commit.
func (r *triageRunner) SetPendingNote(body string) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	r.pendingNoteBody = body
}

func (r *triageRunner) takePendingReply() (string, string) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	to, body := r.pendingReplyTo, r.pendingReplyBody
	r.pendingReplyTo, r.pendingReplyBody = "", ""
	return to, body
}

func (r *triageRunner) takePendingNote() string {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	body := r.pendingNoteBody
	r.pendingNoteBody = ""
	return body
}

// Handle is the gesture engine's triage handler. It resolves one
// committed target against the message on the given row.
func (r *triageRunner) Handle(
	ctx context.Context,
	emailID string,
	target triage.TargetID,
	rowIndex int,
) (triage.Outcome, error) {
	email, err := r.store.GetEmailByID(ctx, emailID)
	if err != nil {
		return triage.OutcomeAdvance, fmt.Errorf("loading message: %w", err)
	}
	if email == nil {
		return triage.OutcomeAdvance, fmt.Errorf("message %s no longer exists", emailID)
	}

	switch target {
	case triage.TargetDone:
		if err := r.Archive(ctx, *email); err != nil {
			return triage.OutcomeAdvance, err
		}
		r.recordEvent(ctx, emailID, target, rowIndex)
		return triage.OutcomeAdvance, nil

	case triage.TargetReply:
		to, body := r.takePendingReply()
		if body == "" {
			return triage.OutcomeAdvance, fmt.Errorf("no reply composed")
		}
		if err := r.Reply(ctx, *email, to, body); err != nil {
			return triage.OutcomeAdvance, err
		}
		r.recordEvent(ctx, emailID, target, rowIndex)
		return triage.OutcomeAdvance, nil

	case triage.TargetMic:
		body := r.takePendingNote()
		if body == "" {
			return triage.OutcomeStay, fmt.Errorf("empty note")
		}
		if err := r.SaveNote(ctx, emailID, body); err != nil {
			return triage.OutcomeStay, err
		}
		r.recordEvent(ctx, emailID, target, rowIndex)
		return triage.OutcomeStay, nil

	case triage.TargetUnsubscribe:
		if err := r.Unsubscribe(ctx, *email); err != nil {
			return triage.OutcomeAdvance, err
		}
		r.recordEvent(ctx, emailID, target, rowIndex)
		return triage.OutcomeAdvance, nil
	}

	return triage.OutcomeAdvance, fmt.Errorf("unknown target %v", target)
}

// Archive moves the message to the account's archive mailbox and marks
// it done.
func (r *triageRunner) Archive(ctx context.Context, email model.Email) error {
	src, err := r.sourceFor(email.AccountID)
	if err != nil {
		return err
	}

	if err := src.Archive(ctx, email.UID); err != nil {
		return fmt.Errorf("archiving %q: %w", email.Subject, err)
	}
	if err := r.store.SetEmailStatus(ctx, email.ID, model.StatusDone); err != nil {
		return fmt.Errorf("marking %q done: %w", email.Subject, err)
	}
	return nil
}

// Reply sends a composed reply and marks the message replied.
func (r *triageRunner) Reply(ctx context.Context, email model.Email, to, body string) error {
	src, err := r.sourceFor(email.AccountID)
	if err != nil {
		return err
	}

	if to == "" {
		to = email.FromAddr
	}

	reply := source.Reply{To: to, Body: body}
	if err := src.SendReply(ctx, email, reply); err != nil {
		return fmt.Errorf("sending reply to %q: %w", to, err)
	}
	if err := r.store.SetEmailStatus(ctx, email.ID, model.StatusReplied); err != nil {
		return fmt.Errorf("marking %q replied: %w", email.Subject, err)
	}
	return nil
}

// SaveNote attaches a note to the message. The message stays in the
// inbox.
func (r *triageRunner) SaveNote(ctx context.Context, emailID, body string) error {
	note := model.Note{
		ID:        uuid.New().String(),
		EmailID:   emailID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := r.store.CreateNote(ctx, note); err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	return nil
}

// Unsubscribe honors the message's List-Unsubscribe target and marks the
// message unsubscribed on success.
func (r *triageRunner) Unsubscribe(ctx context.Context, email model.Email) error {
	src, err := r.sourceFor(email.AccountID)
	if err != nil {
		return err
	}

	if err := src.Unsubscribe(ctx, email); err != nil {
		return err
	}
	if err := r.store.SetEmailStatus(ctx, email.ID, model.StatusUnsubscribed); err != nil {
		return fmt.Errorf("marking %q unsubscribed: %w", email.Subject, err)
	}
	return nil
}

// recordEvent appends to the triage audit trail. Failures here do not
// undo the action itself.
func (r *triageRunner) recordEvent(
	ctx context.Context,
	emailID string,
	target triage.TargetID,
	rowIndex int,
) {
	_ = r.store.RecordTriageEvent(ctx, model.TriageEvent{
		ID:        uuid.New().String(),
		EmailID:   emailID,
		Target:    target.String(),
		RowIndex:  rowIndex,
		CreatedAt: time.Now(),
	})
}
