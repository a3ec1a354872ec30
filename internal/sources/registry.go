// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sources maintains the citation source registry for one turn.
package sources

import (
	"encoding/json"
	"net/url"
	"path"
	"sort"
	"strings"
)

// =============================================================================
// SOURCE TYPE
// =============================================================================

// SourceType distinguishes knowledge-base documents from web pages.
type SourceType string

const (
	// TypeLocal is a document from the retrieval corpus, addressed by a
	// filesystem-relative path mapped to the backend's file endpoint.
	TypeLocal SourceType = "local"

	// TypeWeb is a page addressed by an absolute URL.
	TypeWeb SourceType = "web"
)

// Source is one citable document or web page.
type Source struct {
	Type SourceType `json:"type"`

	// Ref is the citation index assigned within the turn. Assigned once
	// per ingest, strictly increasing, unique.
	Ref int `json:"ref"`

	// URL holds the web address, or the corpus-relative path for local
	// sources.
	URL string `json:"url"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Domain is the registrable display domain, derived from URL for web
	// sources when the backend does not supply one.
	Domain string `json:"domain,omitempty"`
}

// DisplayName returns a short human-readable name: the title when
// present, the final path segment for local sources, the domain for web
// sources.
func (s Source) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	switch s.Type {
	case TypeLocal:
		return path.Base(s.URL)
	case TypeWeb:
		if s.Domain != "" {
			return s.Domain
		}
	}
	return s.URL
}

// Citable reports whether the source carries a resolvable address.
func (s Source) Citable() bool {
	return s.URL != ""
}

// =============================================================================
// WIRE PAYLOAD
// =============================================================================

// sourceMeta is the per-entry metadata object on the wire.
type sourceMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// payload is the normalized form of the two wire shapes of a "sources"
// event: an object {rag_sources, web_sources}, or a two-element array
// [ragMap, webList].
type payload struct {
	rag map[string]sourceMeta
	web map[string]sourceMeta
	// webOrder preserves list order when web sources arrive as an array.
	webOrder []string
}

// parsePayload accepts either wire shape. Unknown shapes yield an empty
// payload rather than an error; a sources event never aborts the stream.
func parsePayload(data json.RawMessage) payload {
	var p payload
	if len(data) == 0 {
		return p
	}

	// Object shape.
	var obj struct {
		Rag map[string]sourceMeta `json:"rag_sources"`
		Web json.RawMessage       `json:"web_sources"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && (obj.Rag != nil || obj.Web != nil) {
		p.rag = obj.Rag
		p.web, p.webOrder = parseWebList(obj.Web)
		return p
	}

	// Array shape: [ragMap, webList].
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) >= 2 {
		var rag map[string]sourceMeta
		if err := json.Unmarshal(arr[0], &rag); err == nil {
			p.rag = rag
		}
		p.web, p.webOrder = parseWebList(arr[1])
	}
	return p
}

// parseWebList accepts web sources as a map keyed by URL, a list of URL
// strings, or a list of metadata objects carrying a url field.
func parseWebList(data json.RawMessage) (map[string]sourceMeta, []string) {
	if len(data) == 0 {
		return nil, nil
	}

	var m map[string]sourceMeta
	if err := json.Unmarshal(data, &m); err == nil {
		return m, nil
	}

	var urls []string
	if err := json.Unmarshal(data, &urls); err == nil {
		out := make(map[string]sourceMeta, len(urls))
		order := make([]string, 0, len(urls))
		for _, u := range urls {
			if u == "" {
				continue
			}
			if _, seen := out[u]; !seen {
				order = append(order, u)
			}
			out[u] = sourceMeta{}
		}
		return out, order
	}

	var objs []sourceMeta
	if err := json.Unmarshal(data, &objs); err == nil {
		out := make(map[string]sourceMeta, len(objs))
		order := make([]string, 0, len(objs))
		for _, o := range objs {
			if o.URL == "" {
				continue
			}
			if _, seen := out[o.URL]; !seen {
				order = append(order, o.URL)
			}
			out[o.URL] = o
		}
		return out, order
	}

	return nil, nil
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the turn's current source set. Each Ingest replaces the
// previous set; the backend always sends the full current list.
type Registry struct {
	list  []Source
	byRef map[int]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byRef: make(map[int]Source)}
}

// Ingest replaces the registry contents from a "sources" event payload
// and returns the fresh ordered source list. Reference numbers restart at
// 1, local sources first (sorted by path), then web sources (wire order
// when given as a list, sorted by URL otherwise). A payload with no
// sources clears the registry.
func (r *Registry) Ingest(data json.RawMessage) []Source {
	p := parsePayload(data)

	list := make([]Source, 0, len(p.rag)+len(p.web))
	ref := 1

	for _, key := range sortedKeys(p.rag) {
		meta := p.rag[key]
		list = append(list, Source{
			Type:        TypeLocal,
			Ref:         ref,
			URL:         key,
			Title:       meta.Title,
			Description: meta.Description,
		})
		ref++
	}

	webKeys := p.webOrder
	if webKeys == nil {
		webKeys = sortedKeys(p.web)
	}
	for _, key := range webKeys {
		meta := p.web[key]
		list = append(list, Source{
			Type:        TypeWeb,
			Ref:         ref,
			URL:         key,
			Title:       meta.Title,
			Description: meta.Description,
			Domain:      DeriveDomain(key),
		})
		ref++
	}

	r.list = list
	r.byRef = make(map[int]Source, len(list))
	for _, s := range list {
		r.byRef[s.Ref] = s
	}
	return r.Snapshot()
}

// Lookup returns the source with the given reference number.
func (r *Registry) Lookup(ref int) (Source, bool) {
	s, ok := r.byRef[ref]
	return s, ok
}

// Snapshot returns a copy of the current ordered source list.
func (r *Registry) Snapshot() []Source {
	out := make([]Source, len(r.list))
	copy(out, r.list)
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.list)
}

// sortedKeys returns map keys in lexicographic order. JSON object key
// order does not survive decoding, so sorting keeps reference assignment
// deterministic.
func sortedKeys(m map[string]sourceMeta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// READING CARDS
// =============================================================================

// ReadingCards normalizes a retrievalSources/webSearchSources payload
// into Source-shaped cards for the timeline's "reading" list. The
// retrieval shape is an object map (filename -> metadata) or a list; web
// entries gain a derived domain. Cards carry no reference numbers.
func ReadingCards(data json.RawMessage, typ SourceType) []Source {
	m, order := parseReadingPayload(data)
	if order == nil {
		order = sortedKeys(m)
	}

	cards := make([]Source, 0, len(order))
	for _, key := range order {
		meta := m[key]
		card := Source{
			Type:        typ,
			URL:         key,
			Title:       meta.Title,
			Description: meta.Description,
		}
		if typ == TypeWeb {
			card.Domain = DeriveDomain(key)
		}
		cards = append(cards, card)
	}
	return cards
}

// parseReadingPayload accepts an object map or an array of strings or
// metadata objects.
func parseReadingPayload(data json.RawMessage) (map[string]sourceMeta, []string) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]sourceMeta
	if err := json.Unmarshal(data, &m); err == nil {
		return m, nil
	}
	return parseWebList(data)
}

// =============================================================================
// DOMAIN DERIVATION
// =============================================================================

// DeriveDomain extracts the display domain from a web URL, stripping any
// leading "www.". When the URL does not parse as scheme://host, the raw
// string is returned so the caller always has something to show.
func DeriveDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	host := u.Hostname()
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return raw
	}
	return host
}
