// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command handler for the ragline CLI.
//
// Handles "ragline config [show|get|set|path]". Keys use dot notation
// matching the config file sections, e.g. server.base_url, ui.theme,
// storage.database_path.
package cli

import (
	"fmt"

	"github.com/jeranaias/ragline/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(args Args) error {
	cfg := loadConfig(args)

	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(cfg, args)
	case "get":
		return handleConfigGet(cfg, args)
	case "set":
		return handleConfigSet(cfg, args)
	case "path":
		return handleConfigPath(args)
	default:
		return ErrMissingArgument("subcommand", "ragline config [show|get|set|path]")
	}
}

func handleConfigShow(cfg *config.Config, args Args) error {
	if args.JSON {
		return NewJSONResponse("config", cfg).Print()
	}

	fmt.Println(TitleStyle.Render("ragline configuration"))

	fmt.Println(SectionStyle.Render("Server"))
	fmt.Printf("  %s %s\n", RenderLabel("base_url:"), ValueStyle.Render(cfg.Server.BaseURL))
	fmt.Printf("  %s %d\n", RenderLabel("timeout_secs:"), cfg.Server.TimeoutSecs)
	fmt.Printf("  %s %d\n", RenderLabel("stream_timeout_secs:"), cfg.Server.StreamTimeoutSecs)
	fmt.Printf("  %s %d\n", RenderLabel("turns_per_minute:"), cfg.Server.TurnsPerMinute)

	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Printf("  %s %s\n", RenderLabel("database_path:"), displayOrDefault(cfg.Storage.DatabasePath))
	fmt.Printf("  %s %s\n", RenderLabel("export_dir:"), displayOrDefault(cfg.Storage.ExportDir))

	fmt.Println(SectionStyle.Render("UI"))
	fmt.Printf("  %s %s\n", RenderLabel("theme:"), ValueStyle.Render(cfg.UI.Theme))
	fmt.Printf("  %s %t\n", RenderLabel("compact_mode:"), cfg.UI.CompactMode)
	fmt.Printf("  %s %t\n", RenderLabel("show_sources:"), cfg.UI.ShowSources)
	fmt.Printf("  %s %t\n", RenderLabel("show_timeline:"), cfg.UI.ShowTimeline)
	fmt.Printf("  %s %t\n", RenderLabel("live_view:"), cfg.UI.LiveView)

	if path, err := config.ConfigPathTOML(); err == nil {
		fmt.Println()
		fmt.Printf("  %s %s\n", RenderLabel("config file:"), DimStyle.Render(path))
	}

	return nil
}

func displayOrDefault(value string) string {
	if value == "" {
		return DimStyle.Render("(default)")
	}
	return ValueStyle.Render(value)
}

func handleConfigGet(cfg *config.Config, args Args) error {
	key := args.Options["key"]
	if key == "" {
		return ErrMissingArgument("key", "ragline config get server.base_url")
	}

	value, err := cfg.Get(key)
	if err != nil {
		return NewCommandError("config", "get", "unknown key "+key, err)
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]interface{}{key: value}).Print()
	}
	fmt.Printf("%v\n", value)
	return nil
}

func handleConfigSet(cfg *config.Config, args Args) error {
	key := args.Options["key"]
	value := args.Options["value"]
	if key == "" || value == "" {
		return ErrMissingArgument("key and value", "ragline config set ui.theme light")
	}

	if err := cfg.Set(key, value); err != nil {
		return NewCommandError("config", "set", "cannot set "+key, err)
	}

	// Validate the whole config before persisting, so a bad value never
	// lands in the file.
	if err := cfg.Validate(); err != nil {
		return NewCommandError("config", "set", "invalid value for "+key, err)
	}

	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "set", "cannot save config", err)
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{key: value}).Print()
	}
	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func handleConfigPath(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", "path", "cannot resolve config path", err)
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Print()
	}
	fmt.Println(path)
	return nil
}
