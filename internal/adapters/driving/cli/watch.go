package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nethopper2/datasync/internal/adapters/driving/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch all sources in an interactive dashboard",
	Long: `Launches an interactive dashboard showing every source's status and
live sync progress. Push events from the backend update the display in
real time.

Controls:
  ↑/k, ↓/j - Select source
  s        - Sync selected source
  q        - Quit`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in dashboard: %v\n%s\n", r, debug.Stack())
		}
	}()

	// The dashboard is long-running; the event pump and supervision
	// loops run alongside it and stop when it exits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := orchestrator.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "event pump stopped: %v\n", err)
		}
	}()

	return tui.Run(orchestrator)
}
