package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferunner/saferunner/internal/cli/runner"
	"github.com/saferunner/saferunner/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show status",
	Long:  `Display the current saferunner configuration and persisted state.`,
	RunE:  runners.Base().Wrap(runStatus),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	if !ctx.HasConfig() {
		return showUninitialized()
	}
	return showStatus(ctx)
}

func showUninitialized() error {
	PrintInfo("Saferunner Status: Not initialized")
	fmt.Println()
	PrintInfo("To get started: saferunner init --token <bot-token>")
	return nil
}

func showStatus(ctx *runner.CommandContext) error {
	cfg := ctx.Config

	PrintHeader("Saferunner Status")
	PrintInfo("Config dir:  %s", cfg.ConfigDir)
	PrintInfo("State file:  %s", cfg.StateFile)
	PrintInfo("Timezone:    %s (default)", cfg.DefaultTimezone)
	if cfg.Token != "" {
		PrintInfo("Bot token:   configured")
	} else {
		PrintWarning("Bot token:   missing (set BOT_TOKEN or run saferunner init)")
	}
	if cfg.WebhookURL != "" {
		PrintInfo("Webhook:     %s", cfg.WebhookEndpoint())
	} else {
		PrintInfo("Webhook:     not configured (long polling)")
	}

	snap, err := ctx.Store().Load()
	if err != nil {
		PrintWarning("State file unreadable: %v", err)
		return nil
	}

	fmt.Println()
	PrintHeader("Persisted State")
	PrintInfo("Owners with contacts: %d", len(snap.Contacts))
	PrintInfo("Blacklist entries:    %d", len(snap.Blacklist))
	PrintInfo("User timezones:       %d", len(snap.Timezones))

	armed := 0
	for _, rec := range snap.Sessions {
		if rec.State == session.StateArmed {
			armed++
		}
	}
	PrintInfo("Sessions:             %d (%d armed)", len(snap.Sessions), armed)
	return nil
}
