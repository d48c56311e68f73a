// HomeStar hub - home-automation web dashboard.
//
// This is the main entry point for the hub. The binary has three commands:
//
//	homestar run [--config file] [path=value ...]   start the hub
//	homestar set <path> [value] [--uuid]            persist a setting
//	homestar get <path>                             print a persisted setting
//
// Settings written by set live in the keystore database named by
// HOMESTAR_KEYSTORE and are overlaid on the built-in defaults at start.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/homestar-hub/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Cancel on Ctrl+C and SIGTERM so the hub shuts down gracefully.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1) //nolint:gocritic // cancel is only a signal.Stop
	}
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag
// state out of package variables.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "homestar",
		Short: "HomeStar home-automation hub",
		Long: `HomeStar serves a home-automation dashboard built from template folders,
cookbooks of recipes and the things announced on the message bus.

Quick Start:
  homestar set secrets/session --uuid   Create the session signing secret
  homestar run                          Start the hub
  homestar run webserver/port=8080      Start on another port`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newSetCmd(), newGetCmd())
	return root
}
