package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nethopper2/datasync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [provider layer]",
	Short: "Show sync status and last sync results",
	Long: `Shows the sync status of all sources, or one source in detail.

The detail view includes the last sync's file counts, skip reasons,
delete results and embedding queue state.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}
	if len(args) == 1 {
		return errors.New("status takes a provider and a layer, or no arguments")
	}

	ctx := context.Background()
	if err := orchestrator.Refresh(ctx); err != nil {
		cmd.PrintErrf("Warning: backend unreachable, showing cached state (%v)\n", err)
	}

	if len(args) == 2 {
		key := domain.ActionKey{Action: args[0], Layer: args[1]}
		src, err := orchestrator.Source(ctx, key)
		if err != nil {
			return fmt.Errorf("source %s: %w", key, err)
		}
		printSourceStatus(cmd, src)
		return nil
	}

	sources, err := orchestrator.Sources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}
	for i := range sources {
		printSourceStatus(cmd, &sources[i])
	}
	return nil
}

func printSourceStatus(cmd *cobra.Command, src *domain.DataSource) {
	cmd.Printf("%s: %s", src.Key(), src.SyncStatus)
	if src.SyncStatus == domain.StatusIncomplete && !src.TimeoutAcknowledged {
		cmd.Printf(" (stalled, run sync again to resume)")
	}
	cmd.Println()
	printSyncResults(cmd, src)
}

// printSyncResults renders the structured results of past sync phases.
func printSyncResults(cmd *cobra.Command, src *domain.DataSource) {
	results := &src.SyncResults

	if latest := results.LatestSync; latest != nil {
		cmd.Printf("  Last sync: %d added, %d updated, %d removed, %d skipped (%.0fs)\n",
			latest.FilesAdded, latest.FilesUpdated, latest.FilesRemoved,
			latest.FilesSkipped, latest.RuntimeSeconds)
		for reason, count := range latest.SkipReasons {
			cmd.Printf("    skipped %d: %s\n", count, reason)
		}
	}

	if profile := results.OverallProfile; profile != nil {
		cmd.Printf("  Provider holds %d files in %d folders (%s)\n",
			profile.TotalFiles, profile.TotalFolders,
			domain.FormatMB(float64(profile.TotalBytes)/(1024*1024)))
	}

	if embedding := results.EmbeddingStatus; embedding != nil && !embedding.Done() {
		cmd.Printf("  Embedding queue: %d active, %d waiting, %d completed, %d failed\n",
			embedding.Active, embedding.Waiting, embedding.Completed, embedding.Failed)
	}

	if deleted := results.DeleteResults; deleted != nil {
		cmd.Printf("  Last disconnect: deleted %d of %d files (%d failed)\n",
			deleted.FilesDeleted, deleted.FilesAttempted, deleted.FilesFailed)
		if deleted.ErrorMessage != "" {
			cmd.Printf("    %s\n", deleted.ErrorMessage)
		}
	}

	if errIngest := results.ErrorIngesting; errIngest != nil {
		cmd.Printf("  Ingestion error: %s\n", errIngest.Message)
	}
	if errEmbed := results.ErrorEmbedding; errEmbed != nil {
		cmd.Printf("  Embedding error: %s\n", errEmbed.Message)
	}
}
