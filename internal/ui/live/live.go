// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package live implements the full-screen streaming view for ask.
//
// The view runs a Bubble Tea program on the alternate screen while a
// turn streams: a spinner with the current phase, the research timeline
// as it grows, and the answer text as it arrives. Session hooks feed
// the program; the program never touches the controller directly.
//
// # Usage
//
//	view := live.New(question, cfg.UI.CompactMode, cfg.UI.Theme)
//	controller := session.NewController(client, store, view.Hooks())
//	interaction, err := view.Run(ctx, controller, threadID, question)
package live

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragline/internal/session"
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/timeline"
)

// =============================================================================
// MESSAGES
// =============================================================================

type phaseMsg session.Phase

type timelineMsg timeline.Timeline

type sourcesMsg []sources.Source

type answerMsg string

type doneMsg struct {
	err error
}

// =============================================================================
// VIEW
// =============================================================================

// View owns one live-rendered turn. It bridges session hooks, which
// fire on the stream-reading goroutine, into Bubble Tea messages.
type View struct {
	question string
	compact  bool
	theme    string

	mu   sync.Mutex
	prog *tea.Program
}

// New creates a live view for one question. theme is the configured
// theme name ("dark", "light", or "auto"/empty for detection).
func New(question string, compact bool, theme string) *View {
	return &View{
		question: question,
		compact:  compact,
		theme:    theme,
	}
}

// send forwards a message to the running program. Messages arriving
// before Run installs the program are dropped; the model's first render
// pulls current state from the messages that follow.
func (v *View) send(msg tea.Msg) {
	v.mu.Lock()
	p := v.prog
	v.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (v *View) setProgram(p *tea.Program) {
	v.mu.Lock()
	v.prog = p
	v.mu.Unlock()
}

// Hooks returns the session hooks that feed this view.
func (v *View) Hooks() session.Hooks {
	return session.Hooks{
		OnPhase: func(p session.Phase) {
			v.send(phaseMsg(p))
		},
		OnTimeline: func(tl timeline.Timeline) {
			v.send(timelineMsg(tl))
		},
		OnSources: func(srcs []sources.Source) {
			v.send(sourcesMsg(srcs))
		},
		OnAnswer: func(full string) {
			v.send(answerMsg(full))
		},
	}
}

// Run executes one turn with the live view on screen. It returns the
// finished interaction from the controller, or the turn error. The view
// exits automatically when the turn ends; Ctrl+C or Esc cancels the
// turn and returns the cancellation error.
func (v *View) Run(ctx context.Context, controller *session.Controller, threadID, question string) (*session.Interaction, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newModel(v.question, v.compact, v.theme, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())
	v.setProgram(p)

	type result struct {
		interaction *session.Interaction
		err         error
	}
	done := make(chan result, 1)

	go func() {
		interaction, err := controller.Run(runCtx, threadID, question)
		done <- result{interaction, err}
		v.send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}

	res := <-done
	return res.interaction, res.err
}
