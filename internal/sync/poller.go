package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/magicseth/donewithemail-sub001/internal/ai"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/source"
	"github.com/magicseth/donewithemail-sub001/internal/store"
)

// SyncState represents the current state of an account sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state for a single account.
type SyncStatus struct {
	AccountID string
	State     SyncState
	LastSync  time.Time
	Error     error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	AccountID     string
	Error         error
	AuthError     *AuthErrorMsg
	NewEmailCount int
}

// SyncStatusMsg is a tea.Msg with the current statuses of all accounts.
type SyncStatusMsg struct {
	Statuses []SyncStatus
}

// AuthErrorMsg is a tea.Msg sent when an account returns an
// authentication error.
type AuthErrorMsg struct {
	AccountID string
	Message   string
}

// EnrichedMsg is a tea.Msg sent after a batch of messages gained AI
// summaries and categories.
type EnrichedMsg struct {
	AccountID string
	Count     int
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// enrichTimeout bounds one enrichment batch.
const enrichTimeout = 60 * time.Second

// enrichConcurrency caps parallel classification calls per batch.
const enrichConcurrency = 4

// accountEntry holds a registered mail source, its configuration, and
// the account's own refresh trigger. Per-account channels keep one
// account's manual refresh from being consumed by another's loop.
type accountEntry struct {
	src       source.Source
	cfg       model.AccountConfig
	triggerCh chan struct{}
}

// Poller orchestrates background polling of registered mail accounts.
type Poller struct {
	store    store.Store
	enricher *ai.Enricher
	accounts []accountEntry
	statuses map[string]*SyncStatus
	resultCh chan tea.Msg
	stopCh   chan struct{}
	mu       gosync.Mutex
	running  bool
}

// New creates a new Poller. The enricher may be nil when no API key is
// configured; messages then stay unclassified.
func New(s store.Store, enricher *ai.Enricher) *Poller {
	return &Poller{
		store:    s,
		enricher: enricher,
		statuses: make(map[string]*SyncStatus),
		resultCh: make(chan tea.Msg, 16),
		stopCh:   make(chan struct{}),
	}
}

// RegisterAccount adds a mail source and its configuration to the
// poller. Re-registering an account ID replaces its entry; a new account
// registered while the poller is running gets its own polling loop
// immediately.
func (p *Poller) RegisterAccount(src source.Source, cfg model.AccountConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := accountEntry{src: src, cfg: cfg, triggerCh: make(chan struct{}, 1)}

	for i := range p.accounts {
		if p.accounts[i].cfg.ID == cfg.ID {
			// Keep the trigger channel the running loop listens on.
			entry.triggerCh = p.accounts[i].triggerCh
			p.accounts[i] = entry
			return
		}
	}

	p.accounts = append(p.accounts, entry)
	p.statuses[cfg.ID] = &SyncStatus{
		AccountID: cfg.ID,
		State:     SyncIdle,
	}

	if p.running {
		go p.pollAccount(entry)
	}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns sync messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	for _, entry := range p.accounts {
		go p.pollAccount(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of all registered accounts.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	accounts := make([]accountEntry, len(p.accounts))
	copy(accounts, p.accounts)
	p.mu.Unlock()

	for _, entry := range accounts {
		select {
		case entry.triggerCh <- struct{}{}:
		default:
			// A refresh is already queued for this account
		}
	}

	return nil
}

// RefreshAccount triggers an immediate poll of a single account.
func (p *Poller) RefreshAccount(accountID string) tea.Cmd {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.accounts {
		if entry.cfg.ID == accountID {
			select {
			case entry.triggerCh <- struct{}{}:
			default:
			}
			return nil
		}
	}
	return nil
}

// GetStatuses returns the current sync status of all registered accounts.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollAccount runs the polling loop for a single account.
func (p *Poller) pollAccount(entry accountEntry) {
	interval := time.Duration(entry.cfg.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = 120 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetchAndUpsert(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchAndUpsert(entry)
		case <-entry.triggerCh:
			p.fetchAndUpsert(entry)
		}
	}
}

// fetchAndUpsert performs a single fetch, upserts results to the store,
// enriches new messages, and sends result messages on the channel.
func (p *Poller) fetchAndUpsert(entry accountEntry) {
	accountID := entry.cfg.ID
	p.setStatus(accountID, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	result, err := entry.src.FetchEmails(ctx, source.FetchOptions{
		Limit: 50,
	})

	if err != nil {
		p.setStatus(accountID, SyncError, err)

		// Detect auth errors and emit a specific message.
		if source.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				AccountID: accountID,
				Error:     err,
				AuthError: &AuthErrorMsg{
					AccountID: accountID,
					Message: fmt.Sprintf(
						"%s: authentication failed. Press 'c' to reconfigure.",
						entry.cfg.Name,
					),
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{AccountID: accountID, Error: err})
		return
	}

	emails := result.Emails

	// Detect new messages by UID before the upsert.
	var newUIDs map[uint32]bool
	if len(emails) > 0 {
		existing, _ := p.store.GetEmails(ctx, store.EmailFilter{
			AccountID: &accountID,
			Limit:     1000,
		})
		existingUIDs := make(map[uint32]bool, len(existing))
		for _, e := range existing {
			existingUIDs[e.UID] = true
		}
		newUIDs = make(map[uint32]bool)
		for _, e := range emails {
			if !existingUIDs[e.UID] {
				newUIDs[e.UID] = true
			}
		}
	}

	if len(emails) > 0 {
		if upsertErr := p.store.UpsertEmails(ctx, emails); upsertErr != nil {
			p.setStatus(accountID, SyncError, upsertErr)
			p.sendResult(SyncResultMsg{AccountID: accountID, Error: upsertErr})
			return
		}
	}

	// Create notifications for new messages only.
	newEmailCount := len(newUIDs)
	if newEmailCount > 0 {
		for _, e := range emails {
			if !newUIDs[e.UID] {
				continue
			}
			notification := model.Notification{
				AccountID: accountID,
				Message:   fmt.Sprintf("New mail from %s: %s", e.Sender(), e.Subject),
				CreatedAt: time.Now(),
			}
			_ = p.store.CreateNotification(ctx, notification)
		}
	}

	p.setStatus(accountID, SyncIdle, nil)
	p.sendResult(SyncResultMsg{
		AccountID:     accountID,
		NewEmailCount: newEmailCount,
	})

	if p.enricher != nil && p.enricher.Enabled() {
		p.enrichPending(accountID)
	}
}

// enrichPending classifies stored messages that have no summary yet,
// running a bounded number of API calls in parallel.
func (p *Poller) enrichPending(accountID string) {
	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	status := model.StatusInbox
	emails, err := p.store.GetEmails(ctx, store.EmailFilter{
		AccountID: &accountID,
		Status:    &status,
		Limit:     100,
	})
	if err != nil {
		return
	}

	pending := emails[:0]
	for _, e := range emails {
		if e.Summary == "" {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return
	}

	var enriched gosync.Map
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for _, email := range pending {
		email := email
		g.Go(func() error {
			result, err := p.enricher.Enrich(gctx, email)
			if err != nil {
				// One failed classification should not abort the batch.
				return nil
			}

			email.Summary = result.Summary
			email.Category = result.Category
			if email.HasCalendarEvent {
				email.AcceptCalendar = result.AcceptCalendar
			}

			if err := p.store.UpdateEnrichment(gctx, email); err != nil {
				return nil
			}
			enriched.Store(email.ID, true)
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	enriched.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 0 {
		p.sendResult(EnrichedMsg{AccountID: accountID, Count: count})
	}
}

// setStatus updates the sync status for an account.
func (p *Poller) setStatus(accountID string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[accountID]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a message on the result channel without blocking.
func (p *Poller) sendResult(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync
// message. This should be called after processing a sync message to
// continue listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
