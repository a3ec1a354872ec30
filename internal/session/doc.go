// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates a single conversational turn: open the
// backend stream, fold its events into turn state, and freeze the
// result.
//
// # Key Types
//
//   - Controller: owns the turn lifecycle. One turn at a time; a second
//     Run while streaming returns ErrTurnInFlight.
//   - Phase: awaitingTasks -> tasksRunning -> awaitingAnswer ->
//     answerStreaming -> completed, with failed reachable from any
//     non-terminal phase.
//   - Interaction: the immutable record frozen at messageEnd, carrying
//     the answer, timeline, sources and agent roster.
//   - Hooks: optional callbacks for live rendering, invoked in stream
//     order from the read loop.
//
// # Usage
//
//	ctrl := session.NewController(client, store, session.Hooks{
//	    OnAnswer:   view.SetAnswer,
//	    OnTimeline: view.SetTimeline,
//	})
//	in, err := ctrl.Run(ctx, threadID, userInput)
//
// Malformed records are dropped (reported via OnDropped) without
// aborting the turn. A backend error event or a stream that ends before
// messageEnd fails the turn; the partial answer and timeline stay
// readable through the accessors.
package session
