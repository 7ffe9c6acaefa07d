package runner

import (
	"sync"

	"github.com/saferunner/saferunner/internal/config"
	"github.com/saferunner/saferunner/internal/store"
)

// CommandContext provides shared dependencies to command handlers.
// Dependencies are lazily initialized on first access to avoid unnecessary work.
type CommandContext struct {
	// Config is the loaded configuration (may be nil if not initialized)
	Config *config.Config

	// ConfigErr is the error from loading config, if any
	ConfigErr error

	stateStore *store.Store
	storeOnce  sync.Once
}

// NewContext creates a new CommandContext with the given config.
func NewContext(cfg *config.Config, cfgErr error) *CommandContext {
	return &CommandContext{
		Config:    cfg,
		ConfigErr: cfgErr,
	}
}

// Store returns a lazily-initialized handle on the persisted state file.
// Returns nil if config is not loaded.
func (c *CommandContext) Store() *store.Store {
	c.storeOnce.Do(func() {
		if c.Config != nil && c.Config.StateFile != "" {
			c.stateStore = store.New(c.Config.StateFile)
		}
	})
	return c.stateStore
}

// HasConfig returns true if config is loaded successfully.
func (c *CommandContext) HasConfig() bool {
	return c.Config != nil && c.ConfigErr == nil
}

// HasToken returns true if a bot token is available.
func (c *CommandContext) HasToken() bool {
	return c.Config != nil && c.Config.Token != ""
}
