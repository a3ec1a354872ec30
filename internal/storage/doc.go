// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides thread persistence for ragline.
//
// Completed turns are stored in a local SQLite database, grouped into
// threads so follow-up questions share conversational context with the
// backend.
//
// # Key Types
//
//   - InteractionStore: SQLite-backed store; implements
//     session.Persister.
//   - Thread: lightweight metadata for listing threads.
//
// # Usage
//
// Open the store and save a completed turn:
//
//	store, err := storage.Open(path)
//	err = store.SaveInteraction(ctx, interaction)
//
// List and load threads:
//
//	threads, err := store.ListThreads(ctx)
//	turns, err := store.LoadThread(ctx, threads[0].ID)
//
// # Storage Location
//
// The database lives at ~/.ragline/threads.db by default.
package storage
