// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides the cross-cutting helpers ragline's config and
// storage layers share.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe replacement writes for config saves
//     and thread exports
//   - TruncateRunes: UTF-8 safe truncation for thread titles and
//     previews
//
// # Usage
//
//	// Persist without risking a torn file on crash
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Derive a display title from the first user query
//	title := util.TruncateRunes(query, 50)
package util
