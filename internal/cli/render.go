// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Shared terminal rendering for ask and chat output.
//
// Renders the research timeline, the resolved answer with inline
// citations, and the source list. Markdown rendering goes through
// glamour on a TTY and degrades to plain text when piped.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/ragline/internal/citation"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/timeline"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer for answer output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWrapWidth()),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

func renderWrapWidth() int {
	w := GetTerminalWidth()
	if w > 100 {
		w = 100
	}
	return w
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// ANSWER RENDERING
// =============================================================================

// RenderAnswer renders the final answer text with inline citations
// resolved against the turn's sources. On a TTY the text goes through
// markdown rendering and resolved markers are colored; piped output
// stays plain so it can be post-processed.
func RenderAnswer(text string, srcs []sources.Source) string {
	if !IsStdoutTTY() {
		return text
	}

	parts := citation.Resolve(text, srcs)
	var sb strings.Builder
	for _, p := range parts {
		if p.Kind == citation.PartCitation {
			sb.WriteString(CitationStyle.Render(p.Text))
		} else {
			sb.WriteString(p.Text)
		}
	}
	return renderMarkdown(sb.String())
}

// =============================================================================
// TIMELINE RENDERING
// =============================================================================

// parentLabel maps a parent task to its display line.
func parentLabel(p *timeline.ParentTask) string {
	label := p.Label
	if label == "" {
		label = string(p.Kind)
	}
	marker := "..."
	if p.Completed || p.Ended {
		marker = "done"
	}
	return fmt.Sprintf("%s (%s)", label, marker)
}

// renderNode renders one timeline node at the given indent depth.
func renderNode(sb *strings.Builder, n *timeline.Node, indent string) {
	switch {
	case n.Task != nil:
		sb.WriteString(indent)
		sb.WriteString(DimStyle.Render("- "))
		sb.WriteString(n.Task.Label)
		sb.WriteString("\n")

	case n.Parent != nil:
		p := n.Parent
		sb.WriteString(indent)
		sb.WriteString(InfoStyle.Render("* "))
		sb.WriteString(parentLabel(p))
		sb.WriteString("\n")

		for _, q := range p.Searching {
			sb.WriteString(indent)
			sb.WriteString(DimStyle.Render("    searching: " + q))
			sb.WriteString("\n")
		}
		for _, src := range p.Reading {
			sb.WriteString(indent)
			sb.WriteString(DimStyle.Render("    reading: " + truncateCard(src)))
			sb.WriteString("\n")
		}
	}
}

// truncateCard renders a compact one-line card for a source being read.
func truncateCard(src sources.Source) string {
	name := src.DisplayName()
	if w := runewidth.StringWidth(name); w > 60 {
		name = runewidth.Truncate(name, 60, "...")
	}
	if src.Domain != "" && src.Title != "" {
		return name + " (" + src.Domain + ")"
	}
	return name
}

// RenderTimeline renders the full task timeline: ungrouped tasks at the
// top level and one indented block per agent section. Marker entries
// are skipped.
func RenderTimeline(tl timeline.Timeline) string {
	var sb strings.Builder
	for _, e := range tl {
		switch {
		case e.Node != nil:
			renderNode(&sb, e.Node, "  ")
		case e.Section != nil:
			sb.WriteString("  ")
			sb.WriteString(AgentStyle.Render(e.Section.Agent))
			sb.WriteString("\n")
			for _, n := range e.Section.Tasks {
				renderNode(&sb, n, "    ")
			}
		}
	}
	return sb.String()
}

// =============================================================================
// SOURCE LIST RENDERING
// =============================================================================

// RenderSources renders the numbered source list for a finished turn.
// Only sources actually cited in the answer are marked; the full
// registry is listed so uncited references stay inspectable.
func RenderSources(srcs []sources.Source, answer string) string {
	if len(srcs) == 0 {
		return ""
	}

	cited := make(map[int]bool)
	for _, ref := range citation.Refs(answer, srcs) {
		cited[ref] = true
	}

	var sb strings.Builder
	sb.WriteString(SectionStyle.Render("Sources"))
	sb.WriteString("\n")
	for _, src := range srcs {
		marker := "   "
		if cited[src.Ref] {
			marker = " * "
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n",
			DimStyle.Render(marker),
			CitationStyle.Render(fmt.Sprintf("[%d]", src.Ref)),
			src.DisplayName()))
		if src.URL != "" && src.URL != src.DisplayName() {
			sb.WriteString(DimStyle.Render("       " + src.URL))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
