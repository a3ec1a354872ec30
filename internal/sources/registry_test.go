// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sources

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// INGEST TESTS
// =============================================================================

func TestRegistry_IngestObjectShape(t *testing.T) {
	r := NewRegistry()

	payload := json.RawMessage(`{
		"rag_sources": {
			"docs/sleep_study.pdf": {"title": "Sleep Study", "description": "CBT outcomes"},
			"docs/cbt_manual.pdf": {"title": "CBT Manual"}
		},
		"web_sources": {
			"https://www.sleepfoundation.org/insomnia": {"title": "Insomnia Basics"}
		}
	}`)

	list := r.Ingest(payload)
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}

	// Local sources first, sorted by path, refs from 1.
	if list[0].Type != TypeLocal || list[0].Ref != 1 || list[0].URL != "docs/cbt_manual.pdf" {
		t.Errorf("list[0] = %+v, want local cbt_manual ref 1", list[0])
	}
	if list[1].Ref != 2 || list[1].Title != "Sleep Study" {
		t.Errorf("list[1] = %+v, want sleep_study ref 2", list[1])
	}

	// Web sources after, with derived domain.
	web := list[2]
	if web.Type != TypeWeb || web.Ref != 3 {
		t.Errorf("list[2] = %+v, want web ref 3", web)
	}
	if web.Domain != "sleepfoundation.org" {
		t.Errorf("Domain = %q, want sleepfoundation.org", web.Domain)
	}
}

func TestRegistry_IngestArrayShape(t *testing.T) {
	r := NewRegistry()

	payload := json.RawMessage(`[
		{"notes.md": {"title": "Notes"}},
		["https://example.com/a", "https://example.com/b"]
	]`)

	list := r.Ingest(payload)
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	if list[0].URL != "notes.md" || list[0].Type != TypeLocal {
		t.Errorf("list[0] = %+v, want local notes.md", list[0])
	}
	// Web list order preserved.
	if list[1].URL != "https://example.com/a" || list[2].URL != "https://example.com/b" {
		t.Errorf("web order = %q, %q", list[1].URL, list[2].URL)
	}
}

func TestRegistry_IngestReplacesNotMerges(t *testing.T) {
	r := NewRegistry()

	r.Ingest(json.RawMessage(`{"rag_sources": {"a.pdf": {}, "b.pdf": {}}, "web_sources": {}}`))
	if r.Len() != 2 {
		t.Fatalf("Len = %d after first ingest, want 2", r.Len())
	}

	list := r.Ingest(json.RawMessage(`{"rag_sources": {"c.pdf": {}}, "web_sources": {}}`))
	if len(list) != 1 {
		t.Fatalf("len = %d after second ingest, want 1", len(list))
	}
	if list[0].Ref != 1 || list[0].URL != "c.pdf" {
		t.Errorf("refs must restart at 1: %+v", list[0])
	}
	if _, ok := r.Lookup(2); ok {
		t.Error("stale ref 2 still resolvable after replacement")
	}
}

func TestRegistry_EmptyPayloadClears(t *testing.T) {
	r := NewRegistry()
	r.Ingest(json.RawMessage(`{"rag_sources": {"a.pdf": {}}, "web_sources": {}}`))

	list := r.Ingest(json.RawMessage(`{"rag_sources": {}, "web_sources": {}}`))
	if len(list) != 0 {
		t.Errorf("empty sources event must clear, got %v", list)
	}
	if _, ok := r.Lookup(1); ok {
		t.Error("Lookup(1) resolvable after clear")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Ingest(json.RawMessage(`{"rag_sources": {"a.pdf": {"title": "A"}}, "web_sources": {}}`))

	s, ok := r.Lookup(1)
	if !ok {
		t.Fatal("Lookup(1) = none, want source")
	}
	if s.Title != "A" {
		t.Errorf("Title = %q, want A", s.Title)
	}
	if _, ok := r.Lookup(99); ok {
		t.Error("Lookup(99) resolved, want none")
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Ingest(json.RawMessage(`{"rag_sources": {"a.pdf": {}}, "web_sources": {}}`))

	snap := r.Snapshot()
	snap[0].Title = "mutated"

	if s, _ := r.Lookup(1); s.Title == "mutated" {
		t.Error("snapshot mutation leaked into registry")
	}
}

func TestRegistry_GarbagePayloadIsHarmless(t *testing.T) {
	r := NewRegistry()
	list := r.Ingest(json.RawMessage(`"not a source map"`))
	if len(list) != 0 {
		t.Errorf("garbage payload produced sources: %v", list)
	}
}

// =============================================================================
// DOMAIN DERIVATION TESTS
// =============================================================================

func TestDeriveDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.sleepfoundation.org/insomnia", "sleepfoundation.org"},
		{"https://example.com/path?q=1", "example.com"},
		{"http://sub.domain.co.uk", "sub.domain.co.uk"},
		{"not a url", "not a url"},
		{"relative/path.html", "relative/path.html"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := DeriveDomain(tc.in); got != tc.want {
			t.Errorf("DeriveDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// =============================================================================
// READING CARD TESTS
// =============================================================================

func TestReadingCards_LocalMap(t *testing.T) {
	cards := ReadingCards(json.RawMessage(`{"doc1.pdf": {"title": "Sleep Study"}}`), TypeLocal)
	if len(cards) != 1 {
		t.Fatalf("len(cards) = %d, want 1", len(cards))
	}
	if cards[0].Type != TypeLocal || cards[0].Title != "Sleep Study" || cards[0].Ref != 0 {
		t.Errorf("card = %+v", cards[0])
	}
}

func TestReadingCards_WebList(t *testing.T) {
	cards := ReadingCards(json.RawMessage(`["https://www.example.com/page"]`), TypeWeb)
	if len(cards) != 1 {
		t.Fatalf("len(cards) = %d, want 1", len(cards))
	}
	if cards[0].Domain != "example.com" {
		t.Errorf("Domain = %q, want example.com", cards[0].Domain)
	}
}

// =============================================================================
// DISPLAY NAME TESTS
// =============================================================================

func TestSource_DisplayName(t *testing.T) {
	local := Source{Type: TypeLocal, URL: "docs/guides/sleep_study.pdf"}
	if got := local.DisplayName(); got != "sleep_study.pdf" {
		t.Errorf("local DisplayName = %q, want final path segment", got)
	}

	web := Source{Type: TypeWeb, URL: "https://example.com/x", Domain: "example.com"}
	if got := web.DisplayName(); got != "example.com" {
		t.Errorf("web DisplayName = %q, want domain", got)
	}

	titled := Source{Type: TypeWeb, URL: "https://example.com", Title: "Example"}
	if got := titled.DisplayName(); got != "Example" {
		t.Errorf("titled DisplayName = %q, want title", got)
	}
}
