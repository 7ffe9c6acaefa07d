package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferunner/saferunner/internal/cli/runner"
	"github.com/saferunner/saferunner/internal/config"
	"github.com/saferunner/saferunner/internal/timeutil"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the bot configuration",
	Long: `Initialize saferunner with a Telegram bot token.

The token comes from @BotFather. Everything else has sensible defaults
and can be changed later by editing the config file or via environment
variables.`,
	Example: `  # Minimal setup
  saferunner init --token 123456:ABC-DEF

  # With a different default timezone
  saferunner init --token 123456:ABC-DEF --tz Europe/Berlin`,
	RunE: runners.Uninitialized().Wrap(runInit),
}

func init() {
	f := initCmd.Flags()
	f.StringP("token", "t", "", "Telegram bot token from @BotFather")
	f.String("tz", "", "Default IANA timezone for users who never set one")
	f.String("state-file", "", "Path of the persisted state file")
	_ = initCmd.MarkFlagRequired("token")

	rootCmd.AddCommand(initCmd)
}

func runInit(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	token := flags.String("token")
	tz := flags.String("tz")
	stateFile := flags.String("state-file")
	if err := flags.Err(); err != nil {
		return err
	}

	if config.Exists("") {
		return fmt.Errorf("already initialized. Edit %s/config.json or remove it to reinitialize",
			config.DefaultConfigDir())
	}
	if tz != "" && !timeutil.IsValidZone(tz) {
		return fmt.Errorf("unrecognized timezone %q", tz)
	}

	newCfg := &config.Config{
		Token:           token,
		DefaultTimezone: tz,
		StateFile:       stateFile,
	}
	if err := newCfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	PrintSuccess("Configuration saved to %s", newCfg.ConfigDir)
	PrintInfo("Next steps:")
	PrintInfo("  1. Run the bot: saferunner run")
	PrintInfo("  2. Or serve webhooks: saferunner serve --webhook-url https://example.com")
	return nil
}
