package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AccountConfig holds the configuration for one mail account.
type AccountConfig struct {
	// ID is the unique identifier for this account.
	ID string `mapstructure:"id" yaml:"id"`

	// Name is the user-defined label for the account.
	Name string `mapstructure:"name" yaml:"name"`

	// IMAPHost and IMAPPort locate the IMAP endpoint.
	IMAPHost string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort string `mapstructure:"imap_port" yaml:"imap_port"`

	// SMTPHost and SMTPPort locate the submission endpoint used for
	// replies and mailto unsubscribes.
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort string `mapstructure:"smtp_port" yaml:"smtp_port"`

	// Username is the login; the password lives in the system keyring
	// under the account ID, never in this file.
	Username string `mapstructure:"username" yaml:"username"`

	// UseTLS selects implicit TLS over STARTTLS.
	UseTLS bool `mapstructure:"use_tls" yaml:"use_tls"`

	// ArchiveMailbox is where done messages are moved.
	ArchiveMailbox string `mapstructure:"archive_mailbox" yaml:"archive_mailbox"`

	// Enabled controls whether this account is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PollIntervalSec is how often (in seconds) to fetch new mail.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// AIConfig holds settings for the AI triage integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// GestureConfig overrides the gesture engine's geometry constants. Zero
// values mean "use the built-in default".
type GestureConfig struct {
	ActivationRadius float64 `mapstructure:"activation_radius" yaml:"activation_radius"`
	ProximityRadius  float64 `mapstructure:"proximity_radius" yaml:"proximity_radius"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Accounts []AccountConfig `mapstructure:"accounts" yaml:"accounts"`
	AI       AIConfig        `mapstructure:"ai" yaml:"ai"`
	Gesture  GestureConfig   `mapstructure:"gesture" yaml:"gesture"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/dwe/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "dwe", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Accounts: []AccountConfig{},
		AI: AIConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. A missing file yields the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("ai.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.max_tokens", 1024)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for i := range cfg.Accounts {
		if cfg.Accounts[i].PollIntervalSec == 0 {
			cfg.Accounts[i].PollIntervalSec = 120
		}
		if cfg.Accounts[i].ArchiveMailbox == "" {
			cfg.Accounts[i].ArchiveMailbox = "Archive"
		}
		if !cfg.Accounts[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset
			// as true.
			key := fmt.Sprintf("accounts.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Accounts[i].Enabled = true
			}
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("accounts", cfg.Accounts)
	v.Set("ai", cfg.AI)
	v.Set("gesture", cfg.Gesture)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
