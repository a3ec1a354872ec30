// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// timeline.go - Timeline data structures for one streamed turn.
package timeline

import (
	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/stream"
)

// =============================================================================
// TASK TYPES
// =============================================================================

// Task is a terminal timeline step. It is never mutated after creation.
type Task struct {
	// Type is the originating event type ("step", or the raw wire type
	// for pass-through events).
	Type string `json:"type"`

	// Agent is the attributed sub-process, empty when ungrouped.
	Agent string `json:"agent,omitempty"`

	// Label is the human-readable step description.
	Label string `json:"label"`
}

// ParentTask is a task that accumulates nested detail before closing.
// It stays mutable until its matching *End event arrives.
type ParentTask struct {
	Kind  stream.Kind `json:"kind"`
	Agent string      `json:"agent,omitempty"`
	Label string      `json:"label"`

	// Searching holds the latest complete query list. Each *Queries
	// update replaces the previous list; the backend sends full sets,
	// not deltas.
	Searching []string `json:"searching,omitempty"`

	// Reading holds the latest source cards, replaced the same way.
	Reading []sources.Source `json:"reading,omitempty"`

	Completed bool `json:"completed"`
	Ended     bool `json:"ended"`
}

// Node is one timeline row inside the top level or an agent section:
// exactly one of Task or Parent is set.
type Node struct {
	Task   *Task       `json:"task,omitempty"`
	Parent *ParentTask `json:"parent,omitempty"`
}

// AgentSection groups the tasks of one named agent in first-appearance
// order. A section is created lazily by the first task attributed to its
// agent and collects every later task for that agent regardless of
// interleaving.
type AgentSection struct {
	Agent string  `json:"agent"`
	Tasks []*Node `json:"tasks"`
}

// Entry is one top-level timeline element. Exactly one field is set.
// AgentMarker entries record activeAgents events for audit; renderers
// skip them.
type Entry struct {
	Node        *Node         `json:"node,omitempty"`
	Section     *AgentSection `json:"section,omitempty"`
	AgentMarker []string      `json:"agent_marker,omitempty"`
}

// Timeline is the ordered event-arrival view of a turn's tasks.
type Timeline []*Entry

// =============================================================================
// TIMELINE QUERIES
// =============================================================================

// Tasks returns every node in the timeline in order, flattening agent
// sections. Marker entries are skipped.
func (t Timeline) Tasks() []*Node {
	var nodes []*Node
	for _, e := range t {
		switch {
		case e.Node != nil:
			nodes = append(nodes, e.Node)
		case e.Section != nil:
			nodes = append(nodes, e.Section.Tasks...)
		}
	}
	return nodes
}

// Section returns the agent section for the given agent, if present.
func (t Timeline) Section(agent string) (*AgentSection, bool) {
	for _, e := range t {
		if e.Section != nil && e.Section.Agent == agent {
			return e.Section, true
		}
	}
	return nil, false
}

// Len returns the number of top-level entries, markers included.
func (t Timeline) Len() int {
	return len(t)
}
