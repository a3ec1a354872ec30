// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// aggregator.go - Keyed state machine folding events into the timeline.
package timeline

import (
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/stream"
)

// =============================================================================
// OPEN-TASK KEY
// =============================================================================

// taskKey identifies the open parent task slot for a (kind, agent) pair.
// An absent agent keys as "default" so supervisor-level and agent-level
// tasks of the same kind never collide.
type taskKey struct {
	kind  stream.Kind
	agent string
}

func keyFor(kind stream.Kind, agent string) taskKey {
	if agent == "" {
		agent = "default"
	}
	return taskKey{kind: kind, agent: agent}
}

// =============================================================================
// DEFAULT LABELS
// =============================================================================

// kindLabels are the fallback labels shown when a *Start event carries no
// string payload.
var kindLabels = map[stream.Kind]string{
	stream.KindRetrieval:         "Searching knowledge base",
	stream.KindWebSearch:         "Searching the web",
	stream.KindEvaluation:        "Evaluating results",
	stream.KindContextExtraction: "Extracting context",
	stream.KindReflection:        "Reflecting on findings",
	stream.KindPlanning:          "Planning the research",
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator folds task-family events into a Timeline. It is a plain
// data structure driven by Apply; replaying the same event list always
// rebuilds the same state. It is not safe for concurrent use.
type Aggregator struct {
	timeline Timeline
	open     map[taskKey]*ParentTask
	sections map[string]*AgentSection
	agents   []string
	msgID    string
}

// NewAggregator creates an aggregator with empty state.
func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.Reset()
	return a
}

// Reset clears all state for a new turn. taskStart calls this
// unconditionally so nothing leaks between turns.
func (a *Aggregator) Reset() {
	a.timeline = nil
	a.open = make(map[taskKey]*ParentTask)
	a.sections = make(map[string]*AgentSection)
	a.agents = nil
	a.msgID = ""
}

// Timeline returns the current timeline. The slice is shared with the
// aggregator; callers that need isolation should copy it.
func (a *Aggregator) Timeline() Timeline {
	return a.timeline
}

// Agents returns the latest activeAgents roster.
func (a *Aggregator) Agents() []string {
	return a.agents
}

// MessageID returns the turn's message identifier, when the backend has
// sent one.
func (a *Aggregator) MessageID() string {
	return a.msgID
}

// OpenCount returns the number of currently open parent tasks.
func (a *Aggregator) OpenCount() int {
	return len(a.open)
}

// =============================================================================
// EVENT APPLICATION
// =============================================================================

// Apply folds one event into the timeline. It returns true when the
// event belonged to this aggregator (task-family, step, activeAgents or
// taskStart events); message/sources/error events return false and are
// handled by the session layer.
func (a *Aggregator) Apply(ev stream.Event) bool {
	switch ev.Type {
	case stream.EventTaskStart:
		a.Reset()
		a.msgID = ev.MessageID
		return true

	case stream.EventTaskEnd:
		// The turn-level task end carries no timeline state of its own.
		return true

	case stream.EventStep:
		a.appendTask(ev, "step")
		return true

	case stream.EventActiveAgents:
		roster := ev.StringList()
		a.agents = roster
		a.timeline = append(a.timeline, &Entry{AgentMarker: roster})
		return true
	}

	if kind, stage := ev.TaskKind(); stage != stream.StageNone {
		a.applyParent(ev, kind, stage)
		return true
	}

	if !ev.Known {
		// Forward-compatible pass-through: unknown event kinds surface
		// as opaque steps rather than being lost.
		a.appendTask(ev, string(ev.Type))
		return true
	}

	return false
}

// applyParent advances the open parent task for the event's key.
func (a *Aggregator) applyParent(ev stream.Event, kind stream.Kind, stage stream.Stage) {
	key := keyFor(kind, ev.Agent)

	switch stage {
	case stream.StageStart:
		label := ev.Text()
		if label == "" {
			label = kindLabels[kind]
		}
		p := &ParentTask{Kind: kind, Agent: ev.Agent, Label: label}
		// A repeated Start for the same key abandons the old open
		// pointer; the earlier instance stays in the timeline.
		a.open[key] = p
		a.appendNode(&Node{Parent: p}, ev)

	case stream.StageQueries:
		if p, ok := a.open[key]; ok {
			p.Searching = ev.StringList()
		}

	case stream.StageSources:
		if p, ok := a.open[key]; ok {
			typ := sources.TypeLocal
			if kind == stream.KindWebSearch {
				typ = sources.TypeWeb
			}
			p.Reading = sources.ReadingCards(ev.Data, typ)
		}

	case stream.StageEnd:
		if p, ok := a.open[key]; ok {
			p.Completed = true
			p.Ended = true
			delete(a.open, key)
		}
		// End without an open task is a defined no-op.
	}
}

// appendTask appends a terminal step for the event.
func (a *Aggregator) appendTask(ev stream.Event, typ string) {
	task := &Task{Type: typ, Agent: ev.Agent, Label: ev.Text()}
	a.appendNode(&Node{Task: task}, ev)
}

// appendNode places a node at the top level or inside the originating
// agent's section. Section membership is decided solely by the event's
// own agent tag; tasks are never re-parented later.
func (a *Aggregator) appendNode(n *Node, ev stream.Event) {
	if !ev.Grouped() {
		a.timeline = append(a.timeline, &Entry{Node: n})
		return
	}

	section, ok := a.sections[ev.Agent]
	if !ok {
		section = &AgentSection{Agent: ev.Agent}
		a.sections[ev.Agent] = section
		a.timeline = append(a.timeline, &Entry{Section: section})
	}
	section.Tasks = append(section.Tasks, n)
}
