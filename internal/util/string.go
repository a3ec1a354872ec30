// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// string.go - Rune-safe truncation for stored titles and previews.
package util

// TruncateRunes caps s at maxRunes characters, appending "..." when it
// had to cut. Counting runes rather than bytes keeps multi-byte UTF-8
// text intact; thread titles and previews derived from user queries go
// through here before hitting the database.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	// No room for an ellipsis at tiny widths; hard cut instead.
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
