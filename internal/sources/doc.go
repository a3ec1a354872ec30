// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sources maintains the citation source registry for one turn.
//
// The backend periodically emits a "sources" event carrying the complete
// current source set (knowledge-base documents and web pages). Each event
// replaces the registry contents wholesale; reference numbers are
// reassigned from 1 with local sources first, then web sources.
//
// # Key Types
//
//   - Source: one citable document or web page with its reference number
//   - Registry: per-turn registry with Ingest/Lookup/Snapshot
//
// An empty sources payload is a legitimate "no sources" signal and clears
// the registry rather than being ignored.
package sources
