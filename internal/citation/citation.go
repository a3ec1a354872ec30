// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package citation resolves inline [n] markers in streamed answer text
// against the turn's source registry.
package citation

import (
	"regexp"
	"strconv"

	"github.com/jeranaias/ragline/internal/sources"
)

// =============================================================================
// RENDERABLE PARTS
// =============================================================================

// PartKind discriminates resolved parts.
type PartKind int

const (
	// PartText is a literal text run, including unresolved [n] markers.
	PartText PartKind = iota

	// PartCitation is a resolved citation link.
	PartCitation
)

// Part is one renderable run of the answer text, in original order.
type Part struct {
	Kind PartKind

	// Text holds the literal run. For citations it is the matched
	// marker, e.g. "[3]".
	Text string

	// Ref and Source are set for PartCitation only.
	Ref    int
	Source sources.Source
}

// markerPattern matches inline citation markers like [1] or [12].
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve splits text into plain-text and citation parts against a
// source snapshot. It is pure and idempotent: the same (text, sources)
// pair always yields the same parts, so it is safe to re-run on every
// token append while the answer is still streaming. Markers whose
// reference is missing, or whose source has no resolvable address, pass
// through as literal text.
func Resolve(text string, srcs []sources.Source) []Part {
	if text == "" {
		return nil
	}

	byRef := make(map[int]sources.Source, len(srcs))
	for _, s := range srcs {
		byRef[s.Ref] = s
	}

	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Part{{Kind: PartText, Text: text}}
	}

	var parts []Part
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		ref, err := strconv.Atoi(text[m[2]:m[3]])

		src, found := byRef[ref]
		if err != nil || !found || !src.Citable() {
			// Graceful degradation: fold the marker into surrounding
			// literal text.
			continue
		}

		if start > last {
			parts = append(parts, Part{Kind: PartText, Text: text[last:start]})
		}
		parts = append(parts, Part{
			Kind:   PartCitation,
			Text:   text[start:end],
			Ref:    ref,
			Source: src,
		})
		last = end
	}
	if last < len(text) {
		parts = append(parts, Part{Kind: PartText, Text: text[last:]})
	}
	return parts
}

// Refs returns the distinct resolved reference numbers cited in text, in
// first-appearance order.
func Refs(text string, srcs []sources.Source) []int {
	var refs []int
	seen := make(map[int]bool)
	for _, p := range Resolve(text, srcs) {
		if p.Kind == PartCitation && !seen[p.Ref] {
			seen[p.Ref] = true
			refs = append(refs, p.Ref)
		}
	}
	return refs
}
