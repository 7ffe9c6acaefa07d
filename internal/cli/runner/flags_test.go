package runner

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestFlagSetString(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("name", "default", "test flag")
	cmd.Flags().Set("name", "alice")

	flags := Flags(cmd)
	val := flags.String("name")

	if val != "alice" {
		t.Errorf("expected 'alice', got %q", val)
	}
	if flags.Err() != nil {
		t.Errorf("unexpected error: %v", flags.Err())
	}
}

func TestFlagSetInt(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Int("count", 0, "test flag")
	cmd.Flags().Set("count", "42")

	flags := Flags(cmd)
	val := flags.Int("count")

	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
	if flags.Err() != nil {
		t.Errorf("unexpected error: %v", flags.Err())
	}
}

func TestFlagSetBool(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("verbose", false, "test flag")
	cmd.Flags().Set("verbose", "true")

	flags := Flags(cmd)
	if !flags.Bool("verbose") {
		t.Error("expected true, got false")
	}
	if flags.Err() != nil {
		t.Errorf("unexpected error: %v", flags.Err())
	}
}

func TestFlagSetMissingFlagAccumulatesError(t *testing.T) {
	cmd := &cobra.Command{}

	flags := Flags(cmd)
	_ = flags.String("nope")

	if flags.Err() == nil {
		t.Error("expected error for missing flag")
	}
}

func TestFlagSetChanged(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("changed", "default", "test flag")
	cmd.Flags().String("unchanged", "default", "test flag")
	cmd.Flags().Set("changed", "new")

	flags := Flags(cmd)
	if !flags.Changed("changed") {
		t.Error("expected changed flag to report Changed")
	}
	if flags.Changed("unchanged") {
		t.Error("unchanged flag should not report Changed")
	}
}
