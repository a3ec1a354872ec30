// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for ragline.
//
// The package defines the shared adaptive color palette and the Theme
// used by the live streaming view. Colors adapt to light and dark
// terminal backgrounds automatically via lipgloss.AdaptiveColor.
//
// # Key Types
//
//   - Theme: All styled components for the live view, built from a
//     config theme name ("dark", "light", "auto")
//   - StatusIndicatorSet: ASCII status indicators used alongside color
//
// # Usage
//
//	theme := styles.NewThemeForName(cfg.UI.Theme)
//	header := theme.HeaderBrand.Render("ragline")
package styles
