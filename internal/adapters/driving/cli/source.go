package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nethopper2/datasync/internal/core/domain"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage configured data sources",
	Long: `List, add and inspect data sources.

A source is one provider layer, e.g. Google Drive or Atlassian Jira.
Use 'datasync providers' to see what can be added.`,
	RunE: runSourceList,
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourceList,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <provider> <layer>",
	Short: "Add a new data source",
	Long: `Register a new data source with the backend.

Examples:
  datasync source add google drive
  datasync source add atlassian jira --name "Engineering Jira"`,
	Args: cobra.ExactArgs(2),
	RunE: runSourceAdd,
}

var sourceShowCmd = &cobra.Command{
	Use:   "show <provider> <layer>",
	Short: "Show one source in detail",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourceShow,
}

// Flags for source add.
var (
	sourceAddName    string
	sourceAddContext string
)

func init() {
	sourceAddCmd.Flags().StringVar(
		&sourceAddName, "name", "", "Display name for the source")
	sourceAddCmd.Flags().StringVar(
		&sourceAddContext, "context", "", "Description of what the source contributes")

	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceShowCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	ctx := context.Background()
	if err := orchestrator.Refresh(ctx); err != nil {
		cmd.PrintErrf("Warning: backend unreachable, showing cached state (%v)\n", err)
	}

	sources, err := orchestrator.Sources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		cmd.Println("No sources configured. Add one with 'datasync source add'.")
		return nil
	}

	cmd.Printf("%-28s %-12s %s\n", "SOURCE", "STATUS", "LAST SYNC")
	for i := range sources {
		src := &sources[i]
		cmd.Printf("%-28s %-12s %s\n",
			src.Key(), src.SyncStatus, formatLastSync(src.LastSync))
	}
	return nil
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	source := domain.DataSource{
		Action:  args[0],
		Layer:   args[1],
		Name:    sourceAddName,
		Context: sourceAddContext,
	}

	created, err := orchestrator.AddSource(context.Background(), source)
	if err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Added source %s (%s).\n", created.DisplayName(), created.ID)
	cmd.Printf("Authorise it with 'datasync auth %s %s'.\n", created.Action, created.Layer)
	return nil
}

func runSourceShow(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	key := domain.ActionKey{Action: args[0], Layer: args[1]}
	src, err := orchestrator.Source(context.Background(), key)
	if err != nil {
		return fmt.Errorf("source %s: %w", key, err)
	}

	cmd.Printf("Source: %s\n", src.DisplayName())
	cmd.Printf("  ID:        %s\n", src.ID)
	cmd.Printf("  Key:       %s\n", src.Key())
	cmd.Printf("  Status:    %s\n", src.SyncStatus)
	cmd.Printf("  Last sync: %s\n", formatLastSync(src.LastSync))
	if src.Context != "" {
		cmd.Printf("  Context:   %s\n", src.Context)
	}
	printSyncResults(cmd, src)
	return nil
}

// formatLastSync renders an epoch-seconds timestamp, or "never".
func formatLastSync(epoch int64) string {
	if epoch == 0 {
		return "never"
	}
	return time.Unix(epoch, 0).Local().Format("2006-01-02 15:04")
}
