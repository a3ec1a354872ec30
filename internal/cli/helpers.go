// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared construction helpers for ragline CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/ragline/internal/backend"
	"github.com/jeranaias/ragline/internal/config"
	"github.com/jeranaias/ragline/internal/storage"
)

// loadConfig loads the configuration and applies CLI overrides.
// A broken config file never blocks a command: Load falls back to
// defaults and the problem is surfaced on stderr in verbose mode.
func loadConfig(args Args) *config.Config {
	cfg, err := config.Load()
	if err != nil && args.Verbose {
		fmt.Fprintf(os.Stderr, "%s using defaults: %v\n", WarningStyle.Render("[config]"), err)
	}

	if args.Server != "" {
		cfg.Server.BaseURL = args.Server
	}

	return cfg
}

// newBackendClient builds the backend client from configuration.
func newBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:        cfg.Server.BaseURL,
		Timeout:        cfg.Server.Timeout(),
		StreamTimeout:  cfg.Server.StreamTimeout(),
		TurnsPerMinute: cfg.Server.TurnsPerMinute,
	})
}

// openStore opens the thread store at the configured path.
func openStore(cfg *config.Config) (*storage.InteractionStore, error) {
	dbPath := cfg.Storage.DatabasePath
	if dbPath == "" {
		var err error
		dbPath, err = storage.DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
	}
	return storage.Open(dbPath)
}

// openStoreBestEffort opens the thread store, downgrading failure to a
// warning. Turns still run without persistence when the store is
// unavailable.
func openStoreBestEffort(cfg *config.Config, args Args) *storage.InteractionStore {
	store, err := openStore(cfg)
	if err != nil {
		if !args.Quiet && !args.JSON {
			fmt.Fprintf(os.Stderr, "%s thread history unavailable: %v\n",
				WarningStyle.Render("[storage]"), err)
		}
		return nil
	}
	return store
}
