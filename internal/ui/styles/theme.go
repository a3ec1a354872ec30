// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the live streaming view.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	Question    lipgloss.Style

	// ==========================================================================
	// PHASE AND SPINNER
	// ==========================================================================

	Spinner      lipgloss.Style
	PhaseText    lipgloss.Style
	PhaseElapsed lipgloss.Style

	// ==========================================================================
	// TIMELINE
	// ==========================================================================

	TimelineFrame lipgloss.Style
	AgentHeader   lipgloss.Style
	TaskRow       lipgloss.Style
	TaskDetail    lipgloss.Style
	TaskDone      lipgloss.Style

	// ==========================================================================
	// ANSWER
	// ==========================================================================

	AnswerFrame lipgloss.Style
	Citation    lipgloss.Style

	// ==========================================================================
	// SOURCES AND FOOTER
	// ==========================================================================

	SourceRef   lipgloss.Style
	SourceTitle lipgloss.Style
	SourceURL   lipgloss.Style
	HelpBar     lipgloss.Style

	// ==========================================================================
	// STATUS
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
}

// NewTheme creates a new theme with all styles configured. dark forces
// the palette when the config theme is "dark" or "light"; pass true for
// "auto" terminals detected as dark.
func NewTheme(dark bool) *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       dark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
		Width:        80,
		Height:       24,
	}

	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		PaddingBottom(0)

	t.HeaderBrand = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Question = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Cyan)

	t.PhaseText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.PhaseElapsed = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.TimelineFrame = lipgloss.NewStyle().
		PaddingLeft(1)

	t.AgentHeader = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.TaskRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TaskDetail = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.TaskDone = lipgloss.NewStyle().
		Foreground(Emerald)

	t.AnswerFrame = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		PaddingTop(0)

	t.Citation = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.SourceRef = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.SourceTitle = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SourceURL = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.HelpBar = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(Amber)

	return t
}

// NewThemeForName builds a theme from a config theme name: "dark",
// "light", or "auto" (terminal background detection).
func NewThemeForName(name string) *Theme {
	switch name {
	case "dark":
		return NewTheme(true)
	case "light":
		return NewTheme(false)
	default:
		return NewTheme(termenv.HasDarkBackground())
	}
}

// SetSize updates the layout dimensions after a terminal resize.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
