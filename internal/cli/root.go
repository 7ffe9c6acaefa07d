package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/saferunner/saferunner/internal/cli/runner"
	"github.com/saferunner/saferunner/internal/config"
	"github.com/saferunner/saferunner/internal/logging"
)

var (
	// Version is set at build time
	Version = "0.2.0"

	// App state
	cfg    *config.Config
	cfgErr error

	runners = runner.NewBuilder(func() (*config.Config, error) {
		return cfg, cfgErr
	})
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "saferunner",
	Short: "Personal-safety check-in bot",
	Long: `Saferunner watches timed activity sessions over Telegram. A user arms
a session with a location and a planned end time; if they do not check
in as complete by the deadline, their authorized contacts are alerted
with the last known location.`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func initLogging() {
	if cfgErr == nil && cfg != nil {
		_ = logging.Init(logging.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
		return
	}
	logging.InitDefault()
}

func initConfig() {
	cfg, cfgErr = config.Load("")
}

// Config returns the loaded config (may be nil)
func Config() *config.Config {
	return cfg
}
