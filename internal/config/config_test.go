// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TurnsPerMinute != 20 {
		t.Errorf("TurnsPerMinute = %d", cfg.Server.TurnsPerMinute)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[server]
base_url = "http://10.0.0.5:9000"
timeout_secs = 30

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Server.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d", cfg.Server.TimeoutSecs)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	// Unset fields take defaults.
	if cfg.Server.TurnsPerMinute != 20 {
		t.Errorf("TurnsPerMinute = %d, want default 20", cfg.Server.TurnsPerMinute)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"server":{"base_url":"http://localhost:8001","timeout_secs":5,"stream_timeout_secs":5,"turns_per_minute":3},"ui":{"theme":"auto"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8001" || cfg.Server.TurnsPerMinute != 3 {
		t.Errorf("server config = %+v", cfg.Server)
	}
}

func TestLoadFromPath_InvalidTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("invalid theme accepted")
	}

	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Errorf("error = %v, want ValidateErrors", err)
	}
}

func TestValidate_BadURL(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "not a url"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("bad URL accepted")
	}
	if !strings.Contains(err.Error(), "server.base_url") {
		t.Errorf("error = %v, want server.base_url flagged", err)
	}
}

func TestValidate_TimeoutBounds(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutSecs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero timeout accepted")
	}

	cfg = Default()
	cfg.Server.TimeoutSecs = 601
	if err := cfg.Validate(); err == nil {
		t.Error("oversized timeout accepted")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RAGLINE_SERVER_URL", "http://10.1.1.1:8000")
	t.Setenv("RAGLINE_THEME", "light")
	t.Setenv("RAGLINE_TURNS_PER_MINUTE", "5")
	t.Setenv("RAGLINE_LIVE", "false")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Server.BaseURL != "http://10.1.1.1:8000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if cfg.Server.TurnsPerMinute != 5 {
		t.Errorf("TurnsPerMinute = %d", cfg.Server.TurnsPerMinute)
	}
	if cfg.UI.LiveView {
		t.Error("LiveView override ignored")
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.BaseURL = "http://127.0.0.1:8123"
	cfg.UI.CompactMode = true

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if loaded.Server.BaseURL != cfg.Server.BaseURL || !loaded.UI.CompactMode {
		t.Errorf("round-trip = %+v", loaded)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.base_url")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v.(string) != "http://127.0.0.1:8000" {
		t.Errorf("Get(server.base_url) = %v", v)
	}

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q after Set", cfg.UI.Theme)
	}

	if err := cfg.Set("server.turns_per_minute", "7"); err != nil {
		t.Fatalf("Set() int error = %v", err)
	}
	if cfg.Server.TurnsPerMinute != 7 {
		t.Errorf("TurnsPerMinute = %d after Set", cfg.Server.TurnsPerMinute)
	}

	if err := cfg.Set("ui.compact_mode", "true"); err != nil {
		t.Fatalf("Set() bool error = %v", err)
	}
	if !cfg.UI.CompactMode {
		t.Error("CompactMode = false after Set")
	}

	if _, err := cfg.Get("no.such.key"); err == nil {
		t.Error("unknown key accepted by Get")
	}
	if err := cfg.Set("ui.theme.bogus", "x"); err == nil {
		t.Error("non-struct traversal accepted by Set")
	}
}

func TestLoadTOMLFixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		t.Fatalf("LoadTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions after load = %o, want 0600", perm)
	}
}
