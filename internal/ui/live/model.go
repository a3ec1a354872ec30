// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the live turn view.
package live

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragline/internal/session"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/timeline"
	"github.com/jeranaias/ragline/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// headerHeight counts the fixed rows above the answer viewport:
	// brand, question, phase line, and a blank separator.
	headerHeight = 4

	// footerHeight is the help bar at the bottom.
	footerHeight = 1

	// maxTimelineRows caps the timeline block so a long research run
	// cannot push the answer off screen. Older rows scroll away; the
	// scrollback re-print after the turn keeps the full record.
	maxTimelineRows = 12
)

// asciiSpinner matches the terminal-safe frame set used elsewhere in
// the app; no Unicode so the view degrades cleanly over SSH.
var asciiSpinner = spinner.Spinner{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    time.Second / 10,
}

// =============================================================================
// MODEL
// =============================================================================

type model struct {
	question string
	compact  bool
	cancel   context.CancelFunc

	theme   *styles.Theme
	spinner spinner.Model
	answer  viewport.Model

	phase     session.Phase
	timeline  timeline.Timeline
	sources   []sources.Source
	answerRaw string

	started time.Time
	done    bool
	err     error

	width  int
	height int
	ready  bool
}

func newModel(question string, compact bool, themeName string, cancel context.CancelFunc) model {
	theme := styles.NewThemeForName(themeName)

	sp := spinner.New()
	sp.Spinner = asciiSpinner
	sp.Style = theme.Spinner

	return model{
		question: question,
		compact:  compact,
		cancel:   cancel,
		theme:    theme,
		spinner:  sp,
		phase:    session.PhaseIdle,
		started:  time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// =============================================================================
// UPDATE
// =============================================================================

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			// Cancel the in-flight turn; the controller's error comes
			// back through doneMsg and then Run returns it.
			m.cancel()
			return m, nil
		case "up", "k":
			m.answer.LineUp(1)
		case "down", "j":
			m.answer.LineDown(1)
		case "pgup":
			m.answer.ViewUp()
		case "pgdown":
			m.answer.ViewDown()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.resizeViewport()
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case phaseMsg:
		m.phase = session.Phase(msg)
		return m, nil

	case timelineMsg:
		m.timeline = timeline.Timeline(msg)
		m.resizeViewport()
		return m, nil

	case sourcesMsg:
		m.sources = []sources.Source(msg)
		return m, nil

	case answerMsg:
		m.answerRaw = string(msg)
		if m.ready {
			m.answer.SetContent(m.renderAnswer())
			m.answer.GotoBottom()
		}
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// resizeViewport recomputes the answer viewport against the current
// window size and the rows consumed by the timeline block.
func (m *model) resizeViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	used := headerHeight + footerHeight + m.timelineRows()
	h := m.height - used
	if h < 3 {
		h = 3
	}
	if !m.ready {
		m.answer = viewport.New(m.width, h)
		m.ready = true
	} else {
		m.answer.Width = m.width
		m.answer.Height = h
	}
	m.answer.SetContent(m.renderAnswer())
	m.answer.GotoBottom()
}

func (m *model) timelineRows() int {
	if m.compact {
		return 0
	}
	n := len(strings.Split(m.renderTimeline(), "\n"))
	if n > maxTimelineRows {
		n = maxTimelineRows
	}
	return n
}

// =============================================================================
// VIEW
// =============================================================================

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	var sb strings.Builder

	sb.WriteString(m.theme.HeaderBrand.Render("ragline"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.Question.Render("> " + m.question))
	sb.WriteString("\n")
	sb.WriteString(m.phaseLine())
	sb.WriteString("\n\n")

	if !m.compact {
		if tl := m.clippedTimeline(); tl != "" {
			sb.WriteString(tl)
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.answer.View())
	sb.WriteString("\n")
	sb.WriteString(m.helpBar())

	return sb.String()
}

func (m model) phaseLine() string {
	elapsed := time.Since(m.started).Round(time.Second)
	label := phaseLabel(m.phase)

	var lead string
	if m.done {
		if m.err != nil {
			lead = m.theme.ErrorStyle.Render("[X]")
		} else {
			lead = m.theme.SuccessStyle.Render("[OK]")
		}
	} else {
		lead = m.spinner.View()
	}

	return fmt.Sprintf("%s %s %s",
		lead,
		m.theme.PhaseText.Render(label),
		m.theme.PhaseElapsed.Render(elapsed.String()))
}

func phaseLabel(p session.Phase) string {
	switch p {
	case session.PhaseIdle:
		return "connecting"
	case session.PhaseAwaitingTasks:
		return "thinking"
	case session.PhaseTasksRunning:
		return "researching"
	case session.PhaseAwaitingAnswer:
		return "composing answer"
	case session.PhaseAnswerStreaming:
		return "streaming answer"
	case session.PhaseCompleted:
		return "done"
	case session.PhaseFailed:
		return "failed"
	default:
		return string(p)
	}
}

// clippedTimeline returns the rendered timeline, keeping only the last
// maxTimelineRows rows when it overflows.
func (m model) clippedTimeline() string {
	rendered := m.renderTimeline()
	if rendered == "" {
		return ""
	}
	lines := strings.Split(rendered, "\n")
	if len(lines) > maxTimelineRows {
		lines = lines[len(lines)-maxTimelineRows:]
	}
	return strings.Join(lines, "\n")
}

func (m model) renderTimeline() string {
	if len(m.timeline) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, entry := range m.timeline {
		switch {
		case entry.Node != nil:
			m.renderNode(&sb, entry.Node, "  ")
		case entry.Section != nil:
			sb.WriteString(m.theme.AgentHeader.Render("  @" + entry.Section.Agent))
			sb.WriteString("\n")
			for _, node := range entry.Section.Tasks {
				m.renderNode(&sb, node, "    ")
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m model) renderNode(sb *strings.Builder, node *timeline.Node, indent string) {
	switch {
	case node.Task != nil:
		sb.WriteString(m.theme.TaskRow.Render(indent + "- " + node.Task.Label))
		sb.WriteString("\n")
	case node.Parent != nil:
		label := node.Parent.Label
		style := m.theme.TaskRow
		if node.Parent.Ended {
			label += " (done)"
			style = m.theme.TaskDone
		}
		sb.WriteString(style.Render(indent + "* " + label))
		sb.WriteString("\n")
		if len(node.Parent.Searching) > 0 {
			sb.WriteString(m.theme.TaskDetail.Render(
				indent + "  searching: " + strings.Join(node.Parent.Searching, ", ")))
			sb.WriteString("\n")
		}
		for _, src := range node.Parent.Reading {
			sb.WriteString(m.theme.TaskDetail.Render(
				indent + "  reading: " + src.DisplayName()))
			sb.WriteString("\n")
		}
	}
}

func (m model) renderAnswer() string {
	if m.answerRaw == "" {
		return ""
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return wrapPlain(m.answerRaw, width)
}

func (m model) helpBar() string {
	text := "up/down scroll | esc cancel"
	if m.done {
		text = "closing..."
	}
	if n := len(m.sources); n > 0 {
		text = fmt.Sprintf("%d sources | %s", n, text)
	}
	return m.theme.HelpBar.Render(text)
}

// wrapPlain wraps text at word boundaries, preserving blank lines. The
// answer streams as markdown; the live view shows it raw and the final
// scrollback print renders it properly.
func wrapPlain(text string, width int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(line) <= width {
			out = append(out, line)
			continue
		}
		var cur strings.Builder
		for _, word := range strings.Fields(line) {
			if cur.Len() > 0 && cur.Len()+1+len(word) > width {
				out = append(out, cur.String())
				cur.Reset()
			}
			if cur.Len() > 0 {
				cur.WriteString(" ")
			}
			cur.WriteString(word)
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
	}
	return strings.Join(out, "\n")
}
