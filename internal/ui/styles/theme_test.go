// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeForName(t *testing.T) {
	if th := NewThemeForName("dark"); !th.IsDark {
		t.Error("dark theme should be dark")
	}
	if th := NewThemeForName("light"); th.IsDark {
		t.Error("light theme should not be dark")
	}
	// auto must not panic regardless of terminal detection
	_ = NewThemeForName("auto")
}

func TestThemeSetSize(t *testing.T) {
	th := NewTheme(true)
	th.SetSize(120, 40)
	if th.Width != 120 || th.Height != 40 {
		t.Errorf("SetSize() = %dx%d", th.Width, th.Height)
	}
}

func TestStatusIndicatorsASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{RenderSuccess("saved"), "[OK]"},
		{RenderError("failed"), "[X]"},
		{RenderWarning("careful"), "[!]"},
		{RenderInfo("note"), "[i]"},
	}
	for _, tt := range tests {
		if !contains(tt.got, tt.want) {
			t.Errorf("%q missing %q", tt.got, tt.want)
		}
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
