// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for ragline.
//
// # Key Types
//
//   - Config: the complete ragline configuration (server, storage, UI).
//   - Watcher: fsnotify-based hot reload of the config file.
//
// # Usage
//
// Load configuration with defaults, file values and env overrides:
//
//	cfg, err := config.Load()
//
// Read and write values by dot-notation key:
//
//	v, err := cfg.Get("server.base_url")
//	err = cfg.Set("ui.theme", "light")
//	err = config.Save(cfg)
//
// # File Locations
//
// Configuration lives in ~/.ragline/config.toml (or config.json as a
// fallback). Files are created with 0600 permissions.
package config
