// Package main is the entry point for the datasync CLI.
package main

import (
	"fmt"
	"os"

	"github.com/nethopper2/datasync/internal/adapters/driven/api"
	"github.com/nethopper2/datasync/internal/adapters/driven/browser"
	"github.com/nethopper2/datasync/internal/adapters/driven/clock"
	"github.com/nethopper2/datasync/internal/adapters/driven/config/file"
	"github.com/nethopper2/datasync/internal/adapters/driven/storage/sqlite"
	"github.com/nethopper2/datasync/internal/adapters/driven/stream"
	"github.com/nethopper2/datasync/internal/adapters/driving/cli"
	"github.com/nethopper2/datasync/internal/core/services"
	"github.com/nethopper2/datasync/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer configStore.Close()
	settings := configStore.Settings()

	snapshots, err := sqlite.NewSnapshotStore("")
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer snapshots.Close()

	backend, err := api.NewClient(api.Config{
		BaseURL: settings.ServerURL,
		Token:   settings.Token,
	})
	if err != nil {
		return fmt.Errorf("configure backend client: %w", err)
	}

	events, err := stream.New(stream.Config{
		URL:   settings.ServerURL,
		Token: settings.Token,
	})
	if err != nil {
		return fmt.Errorf("configure event stream: %w", err)
	}

	orchestrator := services.NewSyncOrchestrator(
		backend, events, browser.NewOpener(), snapshots,
		clock.NewSystem(), settings, cli.PrintAuthURL)

	// Config edits apply to the running loops without a restart.
	if err := configStore.Watch(orchestrator.ApplySettings); err != nil {
		logger.Warn("config watch unavailable: %v", err)
	}

	cli.SetServices(orchestrator, orchestrator.Providers())
	return cli.Execute()
}
