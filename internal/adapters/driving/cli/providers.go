package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers and their layers",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	if providerRegistry == nil {
		return errors.New("provider registry not configured")
	}

	for _, provider := range providerRegistry.Providers() {
		cmd.Printf("%s (%s)\n", provider.Name, provider.Type)
		for _, layer := range provider.Layers {
			cmd.Printf("  %-20s %s\n", layer.ID, layer.Name)
		}
	}
	return nil
}
