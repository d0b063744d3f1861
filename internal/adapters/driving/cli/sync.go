package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nethopper2/datasync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync <provider> <layer>",
	Short: "Synchronise a data source",
	Long: `Triggers synchronisation of one data source.

The backend runs the sync; this command reports progress until ingestion
finishes. If the provider's credentials have expired, a re-authorisation
window is opened instead and the sync can be retried afterwards.`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

var syncFollow bool

func init() {
	syncCmd.Flags().BoolVar(
		&syncFollow, "follow", true, "Follow progress until ingestion completes")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	ctx := context.Background()
	key := domain.ActionKey{Action: args[0], Layer: args[1]}

	if err := orchestrator.Refresh(ctx); err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}

	cmd.Printf("Synchronising %s...\n", key)
	err := orchestrator.TriggerSync(ctx, key)
	switch {
	case errors.Is(err, domain.ErrReauthRequired):
		cmd.Println("Provider needs re-authorisation. Complete the sign-in, then run sync again.")
		return nil
	case errors.Is(err, domain.ErrActionInFlight):
		cmd.Printf("A sync for %s is already running.\n", key)
		return nil
	case err != nil:
		return fmt.Errorf("sync failed: %w", err)
	}

	if !syncFollow {
		cmd.Println("Sync started.")
		return nil
	}
	return followProgress(ctx, cmd, key)
}

// followProgress polls the progress view every 500ms until the source
// leaves the syncing state. Embedding continues in the background; it
// is reported but not waited for.
func followProgress(ctx context.Context, cmd *cobra.Command, key domain.ActionKey) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		view, err := orchestrator.Progress(ctx, key)
		if err != nil {
			return fmt.Errorf("progress for %s: %w", key, err)
		}

		switch view.Status {
		case domain.StatusSyncing:
			cmd.Printf("\r%-12s %d/%d files  elapsed %s  eta %s   ",
				renderPhase(view.Snapshot.Phase),
				view.Snapshot.FilesProcessed, view.Snapshot.FilesTotal,
				view.Elapsed, view.ETA)
		case domain.StatusEmbedding:
			cmd.Printf("\rIngestion finished after %s; embedding continues in the background.\n", view.Elapsed)
			return nil
		case domain.StatusSynced:
			cmd.Printf("\r%s synchronised.\n", key)
			return nil
		case domain.StatusError:
			cmd.Println()
			return fmt.Errorf("sync %s: %s", key, lastSyncError(ctx, key))
		case domain.StatusIncomplete:
			cmd.Printf("\rSync of %s stalled and was marked incomplete. Run sync again to resume.\n", key)
			return nil
		default:
			cmd.Printf("\rSync of %s ended in state %s.\n", key, view.Status)
			return nil
		}
	}
	return nil
}

// renderPhase maps a backend phase to a short label for the one-line
// progress readout.
func renderPhase(phase string) string {
	switch phase {
	case domain.PhaseDiscovery:
		return "Discovering"
	case domain.PhaseProcessing:
		return "Processing"
	case domain.PhaseEmbedding:
		return "Embedding"
	default:
		return "Working"
	}
}

// lastSyncError looks up the stored ingestion error for a failed source.
func lastSyncError(ctx context.Context, key domain.ActionKey) string {
	src, err := orchestrator.Source(ctx, key)
	if err == nil && src.SyncResults.ErrorIngesting != nil {
		return src.SyncResults.ErrorIngesting.Message
	}
	return "sync failed"
}
