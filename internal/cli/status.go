// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command handler for the ragline CLI.
//
// Handles "ragline status": backend reachability, thread store health,
// and the active configuration summary.
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/ragline/internal/config"
	"github.com/jeranaias/ragline/internal/storage"
)

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	cfg := loadConfig(args)

	data := collectStatus(cfg)

	if args.JSON {
		return NewJSONResponse("status", data).Print()
	}

	fmt.Println(TitleStyle.Render("ragline status"))

	// Backend
	fmt.Println(SectionStyle.Render("Backend"))
	fmt.Printf("  %s %s\n", RenderLabel("URL:"), ValueStyle.Render(data.Backend.BaseURL))
	if data.Backend.Reachable {
		fmt.Printf("  %s %s\n", RenderLabel("Health:"), RenderStatus("ok"))
	} else {
		fmt.Printf("  %s %s %s\n", RenderLabel("Health:"), RenderStatus("error"),
			DimStyle.Render(data.Backend.Error))
	}

	// Storage
	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Printf("  %s %s\n", RenderLabel("Database:"), ValueStyle.Render(data.Storage.DatabasePath))
	if data.Storage.Available {
		fmt.Printf("  %s %d\n", RenderLabel("Threads:"), data.Storage.Threads)
	} else {
		fmt.Printf("  %s %s\n", RenderLabel("Threads:"), RenderStatus("error"))
	}

	// Config
	fmt.Println(SectionStyle.Render("Config"))
	fmt.Printf("  %s %s\n", RenderLabel("Path:"), ValueStyle.Render(data.Config.Path))
	fmt.Printf("  %s %s\n", RenderLabel("Theme:"), ValueStyle.Render(data.Config.Theme))
	fmt.Printf("  %s %d\n", RenderLabel("Turns/min:"), data.Config.TurnsPerMinute)

	return nil
}

// collectStatus gathers status information from the backend, the
// thread store, and the configuration.
func collectStatus(cfg *config.Config) StatusData {
	var data StatusData

	// Backend reachability
	client := newBackendClient(cfg)
	data.Backend.BaseURL = cfg.Server.BaseURL
	if err := client.CheckHealth(context.Background()); err != nil {
		data.Backend.Reachable = false
		data.Backend.Error = err.Error()
	} else {
		data.Backend.Reachable = true
	}

	// Thread store
	dbPath := cfg.Storage.DatabasePath
	if dbPath == "" {
		dbPath, _ = storage.DefaultDatabasePath()
	}
	data.Storage.DatabasePath = dbPath
	if store, err := storage.Open(dbPath); err == nil {
		if threads, err := store.ListThreads(context.Background()); err == nil {
			data.Storage.Available = true
			data.Storage.Threads = len(threads)
		}
		store.Close()
	}

	// Config summary
	if path, err := config.ConfigPathTOML(); err == nil {
		data.Config.Path = path
	}
	data.Config.Theme = cfg.UI.Theme
	data.Config.TurnsPerMinute = cfg.Server.TurnsPerMinute

	return data
}
