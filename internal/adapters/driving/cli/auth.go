package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nethopper2/datasync/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth <provider> <layer>",
	Short: "Authorise a data source",
	Long: `Runs the OAuth authorisation flow for a data source.

A sign-in window is opened in the default browser. Once the provider
confirms the authorisation, the source becomes ready to sync. If the
window cannot be opened, the authorisation URL is printed instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("orchestrator not configured")
	}

	key := domain.ActionKey{Action: args[0], Layer: args[1]}

	err := orchestrator.Authorize(context.Background(), key)
	switch {
	case errors.Is(err, domain.ErrActionInFlight):
		cmd.Printf("An authorisation for %s is already open; check your browser.\n", key)
		return nil
	case err != nil:
		return fmt.Errorf("authorise %s: %w", key, err)
	}

	cmd.Printf("Opened the sign-in window for %s. Complete the flow in your browser.\n", key)
	return nil
}

// PrintAuthURL is the blocked-window fallback wired into the auth flow
// manager: when no browser window can be opened, the URL is shown for
// the user to open by hand. Outside a terminal the bare URL is printed
// so scripts can capture it.
func PrintAuthURL(key domain.ActionKey, url string) {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintf(os.Stderr, "\nCould not open a browser window for %s.\nOpen this URL to authorise:\n\n  %s\n\n", key, url)
		return
	}
	fmt.Fprintln(os.Stderr, url)
}
