// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package live

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragline/internal/session"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/timeline"
)

func testModel() model {
	m := newModel("why is the sky blue?", false, "dark", func() {})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(model)
}

func TestModel_PhaseUpdates(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(phaseMsg(session.PhaseTasksRunning))
	m = updated.(model)

	if m.phase != session.PhaseTasksRunning {
		t.Fatalf("phase = %s, want %s", m.phase, session.PhaseTasksRunning)
	}
	if !strings.Contains(m.View(), "researching") {
		t.Error("view missing phase label for tasksRunning")
	}
}

func TestModel_TimelineRendersTasksAndSections(t *testing.T) {
	m := testModel()

	tl := timeline.Timeline{
		{Node: &timeline.Node{Task: &timeline.Task{Type: "step", Label: "analyzing question"}}},
		{Section: &timeline.AgentSection{
			Agent: "researcher",
			Tasks: []*timeline.Node{
				{Parent: &timeline.ParentTask{
					Label:     "web search",
					Searching: []string{"rayleigh scattering"},
					Ended:     true,
				}},
			},
		}},
	}
	updated, _ := m.Update(timelineMsg(tl))
	m = updated.(model)

	view := m.View()
	for _, want := range []string{"analyzing question", "@researcher", "web search (done)", "searching: rayleigh scattering"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_CompactModeHidesTimeline(t *testing.T) {
	m := newModel("q", true, "dark", func() {})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(model)

	tl := timeline.Timeline{
		{Node: &timeline.Node{Task: &timeline.Task{Label: "hidden step"}}},
	}
	updated, _ = m.Update(timelineMsg(tl))
	m = updated.(model)

	if strings.Contains(m.View(), "hidden step") {
		t.Error("compact view should not render timeline rows")
	}
}

func TestModel_AnswerStreamsIntoViewport(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(answerMsg("The sky is blue because"))
	m = updated.(model)
	updated, _ = m.Update(answerMsg("The sky is blue because of Rayleigh scattering."))
	m = updated.(model)

	if !strings.Contains(m.View(), "Rayleigh scattering.") {
		t.Error("view missing streamed answer text")
	}
}

func TestModel_DoneQuits(t *testing.T) {
	m := testModel()

	updated, cmd := m.Update(doneMsg{})
	m = updated.(model)

	if !m.done {
		t.Error("done not set")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.Quit")
	}
}

func TestModel_EscapeCancelsTurn(t *testing.T) {
	cancelled := false
	m := newModel("q", false, "dark", func() { cancelled = true })
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(model)

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if !cancelled {
		t.Error("esc did not cancel the turn")
	}
}

func TestModel_SourcesCountInHelpBar(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(sourcesMsg([]sources.Source{
		{Ref: 1, URL: "https://example.com/a"},
		{Ref: 2, URL: "https://example.com/b"},
	}))
	m = updated.(model)

	if !strings.Contains(m.View(), "2 sources") {
		t.Error("help bar missing source count")
	}
}

func TestWrapPlain(t *testing.T) {
	got := wrapPlain("one two three four five", 9)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 9 {
			t.Errorf("line %q exceeds width", line)
		}
	}

	if got := wrapPlain("short\n\nlines", 40); got != "short\n\nlines" {
		t.Errorf("wrapPlain altered text that fits: %q", got)
	}
}

func TestView_HooksDropBeforeProgram(t *testing.T) {
	v := New("q", false, "dark")
	hooks := v.Hooks()

	// Hooks fired before Run installs the program must not panic.
	hooks.OnPhase(session.PhaseAwaitingTasks)
	hooks.OnAnswer("partial")
	hooks.OnTimeline(nil)
	hooks.OnSources(nil)
}

func TestPhaseLabel(t *testing.T) {
	cases := map[session.Phase]string{
		session.PhaseIdle:            "connecting",
		session.PhaseAwaitingTasks:   "thinking",
		session.PhaseTasksRunning:    "researching",
		session.PhaseAwaitingAnswer:  "composing answer",
		session.PhaseAnswerStreaming: "streaming answer",
		session.PhaseCompleted:       "done",
		session.PhaseFailed:          "failed",
	}
	for phase, want := range cases {
		if got := phaseLabel(phase); got != want {
			t.Errorf("phaseLabel(%s) = %q, want %q", phase, got, want)
		}
	}
}
