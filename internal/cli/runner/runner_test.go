package runner

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/saferunner/saferunner/internal/config"
)

func TestInterceptorChainOrder(t *testing.T) {
	var order []string

	provider := func() (*config.Config, error) {
		return &config.Config{Token: "tok"}, nil
	}

	makeInterceptor := func(name string) Interceptor {
		return func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
			order = append(order, name+"-before")
			err := next()
			order = append(order, name+"-after")
			return err
		}
	}

	runner := NewRunner(provider).Use(
		makeInterceptor("first"),
		makeInterceptor("second"),
		makeInterceptor("third"),
	)

	handler := func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
		order = append(order, "handler")
		return nil
	}

	cmd := &cobra.Command{}
	if err := runner.Wrap(handler)(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"first-before",
		"second-before",
		"third-before",
		"handler",
		"third-after",
		"second-after",
		"first-after",
	}

	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, exp := range expected {
		if order[i] != exp {
			t.Errorf("order[%d] = %q, want %q", i, order[i], exp)
		}
	}
}

func TestInterceptorChainStopsOnError(t *testing.T) {
	var order []string
	expectedErr := errors.New("interceptor error")

	provider := func() (*config.Config, error) {
		return &config.Config{Token: "tok"}, nil
	}

	runner := NewRunner(provider).Use(
		func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
			order = append(order, "first")
			return next()
		},
		func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
			order = append(order, "second-fails")
			return expectedErr
		},
		func(ctx *CommandContext, cmd *cobra.Command, args []string, next func() error) error {
			order = append(order, "third-should-not-run")
			return next()
		},
	)

	handler := func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
		order = append(order, "handler-should-not-run")
		return nil
	}

	cmd := &cobra.Command{}
	err := runner.Wrap(handler)(cmd, nil)
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}
	if len(order) != 2 {
		t.Fatalf("chain should stop after failing interceptor, ran: %v", order)
	}
}

func TestRequireConfigRejectsNil(t *testing.T) {
	provider := func() (*config.Config, error) { return nil, nil }

	runner := NewRunner(provider).Use(RequireConfig())
	handler := func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
		t.Fatal("handler should not run")
		return nil
	}

	err := runner.Wrap(handler)(&cobra.Command{}, nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRequireTokenRejectsEmpty(t *testing.T) {
	provider := func() (*config.Config, error) {
		return &config.Config{}, nil
	}

	runner := NewRunner(provider).Use(RequireToken())
	handler := func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
		t.Fatal("handler should not run")
		return nil
	}

	err := runner.Wrap(handler)(&cobra.Command{}, nil)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}
