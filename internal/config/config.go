// Package config manages SafeRunner configuration
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

// Config represents the SafeRunner configuration. Values come from the
// JSON config file, with environment variables taking precedence.
type Config struct {
	// Token authenticates the bot against the chat platform.
	Token string `json:"token,omitempty" env:"BOT_TOKEN"`

	// DefaultTimezone is the IANA zone used to interpret HH:MM input
	// for users who never ran /tz.
	DefaultTimezone string `json:"default_timezone,omitempty" env:"DEFAULT_TZ"`

	// StateFile is where the durable snapshot lives.
	StateFile string `json:"state_file,omitempty" env:"STATE_FILE"`

	// Webhook settings (serve mode only)
	WebhookURL    string `json:"webhook_url,omitempty" env:"WEBHOOK_URL"`
	WebhookPath   string `json:"webhook_path,omitempty" env:"WEBHOOK_PATH"`
	WebhookSecret string `json:"webhook_secret,omitempty" env:"WEBHOOK_SECRET"`
	ListenAddr    string `json:"listen_addr,omitempty" env:"LISTEN_ADDR"`

	// Logging
	LogLevel string `json:"log_level,omitempty" env:"LOG_LEVEL"`
	LogJSON  bool   `json:"log_json,omitempty" env:"LOG_JSON"`

	// ConfigDir is where the config file lives (not serialized).
	ConfigDir string `json:"-"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".saferunner")
}

// Load reads configuration from the config directory and applies
// environment overrides. A missing config file is fine as long as the
// environment supplies what is needed.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{ConfigDir: configDir}

	configPath := filepath.Join(configDir, "config.json")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", configPath, err)
		}
		cfg.ConfigDir = configDir
	case os.IsNotExist(err):
		// Env-only deployments never write a config file.
	default:
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "Asia/Singapore"
	}
	if c.StateFile == "" {
		c.StateFile = filepath.Join(c.ConfigDir, "saferunner_state.json")
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/telegram"
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		c.WebhookPath = "/" + c.WebhookPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Exists checks if a config file exists
func Exists(configDir string) bool {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	_, err := os.Stat(filepath.Join(configDir, "config.json"))
	return err == nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir()
	}

	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(c.ConfigDir, "config.json"), data, 0600)
}

// Validate checks that the config can run a bot at all.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("%w: set BOT_TOKEN or add \"token\" to %s",
			apperrors.ErrMissingToken, filepath.Join(c.ConfigDir, "config.json"))
	}
	return nil
}

// WebhookEndpoint joins the public base URL and the webhook path.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.WebhookURL, "/") + c.WebhookPath
}
