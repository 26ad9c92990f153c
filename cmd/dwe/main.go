package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/magicseth/donewithemail-sub001/internal/app"
	"github.com/magicseth/donewithemail-sub001/internal/model"
	"github.com/magicseth/donewithemail-sub001/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	dbPath := flag.String("db", defaultDBPath(), "path to the message database")
	flag.Parse()

	if os.Getenv("DWE_DEBUG") != "" {
		f, err := tea.LogToFile("dwe-debug.log", "dwe")
		if err == nil {
			defer f.Close()
		}
	} else if f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0); err == nil {
		// Keep stray log output off the alternate screen.
		log.SetOutput(f)
	}

	if err := run(*configPath, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "dwe: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if err := seedAccounts(s, cfg); err != nil {
		return err
	}

	m, err := app.New(s, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// seedAccounts upserts accounts declared in the config file into the
// store, which is the registration source of truth. Accounts added
// through the in-app config view are already there.
func seedAccounts(s store.Store, cfg *model.AppConfig) error {
	ctx := context.Background()
	for _, acct := range cfg.Accounts {
		if acct.ID == "" {
			continue
		}
		if err := s.SaveAccount(ctx, acct); err != nil {
			return fmt.Errorf("seeding account %q: %w", acct.Name, err)
		}
	}
	return nil
}

// defaultDBPath places the database next to the rest of the user's
// application data.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dwe.db"
	}
	return filepath.Join(home, ".local", "share", "dwe", "dwe.db")
}
