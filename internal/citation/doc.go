// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation turns inline [n] markers in answer text into
// renderable parts linked to the turn's sources.
//
// # Key Types
//
//   - Part: one run of the answer, either literal text or a resolved
//     citation carrying its source.
//   - PartKind: discriminator for Part.
//
// # Usage
//
//	parts := citation.Resolve(answer, registry.Snapshot())
//	for _, p := range parts {
//	    switch p.Kind {
//	    case citation.PartCitation:
//	        render link to p.Source
//	    default:
//	        render p.Text
//	    }
//	}
//
// Resolution is a pure function of its inputs, so callers may re-run it
// on every streamed token without tracking prior state. Markers that do
// not resolve stay in the text verbatim.
package citation
