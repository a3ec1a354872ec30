// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited JSON turn stream emitted
// by the ragline search backend.
//
// The backend answers one POST per turn with a chunked response body in
// which every line is a single JSON event object tagged by a "type"
// field. This package turns raw body chunks back into typed events.
//
// # Key Types
//
//   - Framer: buffers arbitrary byte chunks and yields complete lines
//   - Event: one decoded stream event (known or pass-through unknown)
//   - DecodeError: per-record failure; callers log it and keep reading
//
// # Usage
//
// Feed chunks as they arrive and decode each complete record:
//
//	framer := stream.NewFramer()
//	for _, record := range framer.Feed(chunk) {
//	    ev, err := stream.Decode(record)
//	    if err != nil {
//	        continue // malformed record, never fatal
//	    }
//	    handle(ev)
//	}
//	for _, record := range framer.Flush() {
//	    ...
//	}
package stream
