// Package runner provides an interceptor-based execution framework for CLI
// commands, giving consistent middleware semantics to command handlers.
package runner

import (
	"fmt"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

// Standard errors returned by interceptors
var (
	// ErrNotInitialized is returned when saferunner is not initialized
	ErrNotInitialized = fmt.Errorf("%w - run 'saferunner init' first", apperrors.ErrNotInitialized)

	// ErrNoToken is returned when a bot token is required but not configured
	ErrNoToken = fmt.Errorf("%w - set it with 'saferunner init --token <token>' or the BOT_TOKEN env var", apperrors.ErrMissingToken)
)
