package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saferunner/saferunner/internal/cli/runner"
	"github.com/saferunner/saferunner/internal/filelock"
	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/telegram"
)

// lockState takes the state-file lock so two bot processes cannot
// clobber each other's snapshots.
func lockState(stateFile string) (*filelock.FileLock, error) {
	fl := filelock.New(stateFile)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("state file %s is in use by another saferunner process", stateFile)
	}
	return fl, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot with long polling",
	Long: `Start the bot and receive updates over long polling.

This is the simplest deployment: no public endpoint is needed.
Sessions, contacts, and blacklists are restored from the state file,
and armed deadlines are re-scheduled on startup.`,
	RunE: runners.Bot().Wrap(runRun),
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	lock, err := lockState(ctx.Config.StateFile)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	gw, err := telegram.New(ctx.Config)
	if err != nil {
		return err
	}
	defer gw.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("Press Ctrl+C to stop")
	if err := gw.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info("Shutting down...")
	return nil
}
