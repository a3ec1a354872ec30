// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package timeline folds decoded stream events into the turn's task
// timeline.
//
// The timeline is an ordered mix of standalone tasks and per-agent
// sections. Parent tasks (retrieval, webSearch, evaluation,
// contextExtraction, reflection, planning) open on a *Start event,
// absorb query and source updates while open, and close on the matching
// *End event without ever leaving the timeline.
//
// # Key Types
//
//   - Task: terminal timeline step, never mutated after creation
//   - ParentTask: open task accumulating detail until its *End arrives
//   - AgentSection: ordered tasks attributed to one named agent
//   - Aggregator: the keyed state machine that applies events
//
// The aggregator keys open parent tasks by (kind, agent). At most one
// parent task per key is open at a time; a repeated *Start replaces the
// open pointer while the earlier instance stays in the timeline.
package timeline
