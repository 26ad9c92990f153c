package app

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magicseth/donewithemail-sub001/internal/credential"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	imapsource "github.com/magicseth/donewithemail-sub001/internal/source/imap"
)

// accountsRegisteredMsg is sent when all configured accounts have been
// registered with the poller.
type accountsRegisteredMsg struct {
	count int
}

// registerAccounts queries the store for configured accounts and
// registers each enabled one with the poller and the triage runner.
// Passwords are loaded from the system keyring.
func (m *Model) registerAccounts() tea.Cmd {
	s := m.store
	p := m.poller
	r := m.runner

	return func() tea.Msg {
		ctx := context.Background()

		accounts, err := s.GetAccounts(ctx)
		if err != nil {
			log.Printf("failed to load accounts: %v", err)
			return accountsRegisteredMsg{count: 0}
		}

		registered := 0
		for _, acct := range accounts {
			if !acct.Enabled {
				continue
			}

			adapter := createAccountAdapter(acct)
			if adapter == nil {
				continue
			}
			p.RegisterAccount(adapter, acct)
			r.SetSource(acct.ID, adapter)
			registered++
		}

		return accountsRegisteredMsg{count: registered}
	}
}

// createAccountAdapter builds an IMAP adapter from an account
// configuration, loading the password from the system keyring.
func createAccountAdapter(acct model.AccountConfig) *imapsource.Adapter {
	password, err := credential.Get(credential.AccountPasswordKey(acct.ID))
	if err != nil {
		log.Printf(
			"skipping account %q (%s): credential not found: %v",
			acct.Name, acct.ID, err,
		)
		return nil
	}

	return imapsource.NewAdapter(acct, password)
}
