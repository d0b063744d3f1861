package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nethopper2/datasync/internal/core/domain"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <provider> <layer>",
	Short: "Disconnect a source and delete its synced data",
	Long: `Disconnects a data source from the backend.

All documents previously ingested from the source are removed from the
retrieval index. The source itself stays configured and can be
re-authorised later.`,
	Args: cobra.ExactArgs(2),
	RunE: runDisconnect,
}

var disconnectYes bool

func init() {
	disconnectCmd.Flags().BoolVarP(
		&disconnectYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(disconnectCmd)
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	key := domain.ActionKey{Action: args[0], Layer: args[1]}

	if !disconnectYes {
		cmd.Printf("Disconnect %s and delete its synced data? [y/N]: ", key)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	ctx := context.Background()
	if err := orchestrator.Refresh(ctx); err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}

	err := orchestrator.Disconnect(ctx, key)
	switch {
	case errors.Is(err, domain.ErrActionInFlight):
		cmd.Printf("An action for %s is already running; try again when it finishes.\n", key)
		return nil
	case err != nil:
		return fmt.Errorf("disconnect %s: %w", key, err)
	}

	cmd.Printf("Disconnecting %s. Deletion runs on the backend; check 'datasync status' for the result.\n", key)
	return nil
}
