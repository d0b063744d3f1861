// Package cli provides the command-line interface for datasync.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/nethopper2/datasync/internal/core/ports/driving"
	"github.com/nethopper2/datasync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by main before Execute. Commands check for nil so
// the CLI degrades with a clear message instead of a panic when a
// service failed to wire.
var (
	orchestrator     driving.Orchestrator
	providerRegistry driving.ProviderRegistry
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "datasync",
	Short: "Synchronise external data sources for retrieval",
	Long: `datasync connects external data sources (Google Drive, Gmail, OneDrive,
Outlook, Slack, Jira, Confluence, Mineral) to the retrieval backend and
supervises their synchronisation: triggering syncs, tracking progress,
running authorisation flows and inferring embedding completion.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&verboseFlag, "verbose", "v", false, "Enable verbose logging")
}

// SetServices injects the core services the commands run against.
func SetServices(orch driving.Orchestrator, providers driving.ProviderRegistry) {
	orchestrator = orch
	providerRegistry = providers
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
