// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"reflect"
	"testing"

	"github.com/jeranaias/ragline/internal/sources"
)

func testSources() []sources.Source {
	return []sources.Source{
		{Type: sources.TypeLocal, Ref: 1, URL: "file:///docs/guide.md", Title: "Guide"},
		{Type: sources.TypeWeb, Ref: 2, URL: "https://example.com/post", Domain: "example.com"},
	}
}

func TestResolve_SplitsTextAroundMarkers(t *testing.T) {
	parts := Resolve(`See [1] for details.`, testSources())

	want := []Part{
		{Kind: PartText, Text: "See "},
		{Kind: PartCitation, Text: "[1]", Ref: 1, Source: testSources()[0]},
		{Kind: PartText, Text: " for details."},
	}
	if !reflect.DeepEqual(parts, want) {
		t.Fatalf("parts = %+v, want %+v", parts, want)
	}
}

func TestResolve_UnresolvedMarkerStaysLiteral(t *testing.T) {
	parts := Resolve(`Compare [1] with [3].`, testSources())

	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3: %+v", len(parts), parts)
	}
	if parts[0].Text != "Compare " {
		t.Errorf("leading text = %q", parts[0].Text)
	}
	if parts[1].Kind != PartCitation || parts[1].Ref != 1 {
		t.Errorf("middle part = %+v, want citation ref 1", parts[1])
	}
	// [3] has no source, so it dissolves into the trailing text run.
	if parts[2].Kind != PartText || parts[2].Text != " with [3]." {
		t.Errorf("trailing part = %+v, want literal ` with [3].`", parts[2])
	}
}

func TestResolve_NonCitableSourceStaysLiteral(t *testing.T) {
	srcs := []sources.Source{{Type: sources.TypeLocal, Ref: 1, Title: "No address"}}

	parts := Resolve("See [1].", srcs)
	if len(parts) != 1 || parts[0].Kind != PartText || parts[0].Text != "See [1]." {
		t.Fatalf("parts = %+v, want single literal run", parts)
	}
}

func TestResolve_NoMarkers(t *testing.T) {
	parts := Resolve("plain answer", testSources())
	if len(parts) != 1 || parts[0].Kind != PartText || parts[0].Text != "plain answer" {
		t.Fatalf("parts = %+v", parts)
	}
}

func TestResolve_EmptyText(t *testing.T) {
	if parts := Resolve("", testSources()); parts != nil {
		t.Fatalf("parts = %+v, want nil", parts)
	}
}

func TestResolve_EmptySources(t *testing.T) {
	parts := Resolve("See [1].", nil)
	if len(parts) != 1 || parts[0].Text != "See [1]." {
		t.Fatalf("parts = %+v, want marker preserved literally", parts)
	}
}

func TestResolve_AdjacentMarkers(t *testing.T) {
	parts := Resolve("facts[1][2]", testSources())

	want := []Part{
		{Kind: PartText, Text: "facts"},
		{Kind: PartCitation, Text: "[1]", Ref: 1, Source: testSources()[0]},
		{Kind: PartCitation, Text: "[2]", Ref: 2, Source: testSources()[1]},
	}
	if !reflect.DeepEqual(parts, want) {
		t.Fatalf("parts = %+v, want %+v", parts, want)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	srcs := testSources()
	text := "See [1] and [2], but not [9]."

	first := Resolve(text, srcs)
	for i := 0; i < 3; i++ {
		again := Resolve(text, srcs)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}

// Resolution over a growing prefix never depends on prior calls, which is
// what lets the renderer re-resolve on every appended token.
func TestResolve_StreamingPrefixes(t *testing.T) {
	srcs := testSources()
	full := "Answer cites [1] here."

	for i := 0; i <= len(full); i++ {
		prefix := full[:i]
		parts := Resolve(prefix, srcs)

		var joined string
		for _, p := range parts {
			joined += p.Text
		}
		if joined != prefix {
			t.Fatalf("prefix %q reassembled to %q", prefix, joined)
		}
	}
}

func TestRefs_DistinctFirstAppearance(t *testing.T) {
	refs := Refs("See [2], [1], [2] and [7].", testSources())
	if !reflect.DeepEqual(refs, []int{2, 1}) {
		t.Fatalf("refs = %v, want [2 1]", refs)
	}
}
