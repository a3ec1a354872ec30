// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives a single conversational turn against the
// backend event stream.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/stream"
	"github.com/jeranaias/ragline/internal/timeline"
)

// =============================================================================
// PHASES
// =============================================================================

// Phase is the lifecycle state of a turn.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAwaitingTasks   Phase = "awaitingTasks"
	PhaseTasksRunning    Phase = "tasksRunning"
	PhaseAwaitingAnswer  Phase = "awaitingAnswer"
	PhaseAnswerStreaming Phase = "answerStreaming"
	PhaseCompleted       Phase = "completed"
	PhaseFailed          Phase = "failed"
)

// Terminal reports whether the phase ends the turn.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors for easy checking.
var (
	// ErrTurnInFlight is returned when Run is called while a turn is
	// already streaming on the same controller.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrStreamTruncated is returned when the stream ends before the
	// backend sent messageEnd.
	ErrStreamTruncated = errors.New("stream ended before messageEnd")
)

// TurnError carries a backend-reported turn failure.
type TurnError struct {
	Message string
}

func (e *TurnError) Error() string {
	if e.Message == "" {
		return "backend reported an error"
	}
	return "backend reported an error: " + e.Message
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// TurnOpener opens the event stream for one turn. *backend.Client
// satisfies this.
type TurnOpener interface {
	OpenTurn(ctx context.Context, threadID, userInput string) (io.ReadCloser, error)
}

// Persister stores the finished interaction record. Persistence is
// best-effort: a save failure is reported through Hooks.OnDropped-style
// logging by the caller, never by failing the turn.
type Persister interface {
	SaveInteraction(ctx context.Context, in *Interaction) error
}

// Hooks are optional observation callbacks, invoked synchronously from
// the turn's read loop in stream order. Nil hooks are skipped.
type Hooks struct {
	// OnPhase fires on every phase transition.
	OnPhase func(Phase)

	// OnTimeline fires after any event that changed the task timeline.
	OnTimeline func(timeline.Timeline)

	// OnSources fires when a sources event replaces the registry.
	OnSources func([]sources.Source)

	// OnAnswer fires after each message token with the full answer so far.
	OnAnswer func(string)

	// OnEvent fires for every decoded event, before it is applied.
	OnEvent func(stream.Event)

	// OnDropped fires for each malformed record that was skipped.
	OnDropped func(err error)
}

// =============================================================================
// INTERACTION RECORD
// =============================================================================

// Interaction is the immutable record of one completed turn.
type Interaction struct {
	ID                string            `json:"id"`
	ThreadID          string            `json:"thread_id"`
	UserQuery         string            `json:"user_query"`
	AssistantResponse string            `json:"assistant_response"`
	Tasks             timeline.Timeline `json:"tasks"`
	Sources           []sources.Source  `json:"sources"`
	Agents            []string          `json:"agents"`
	MessageID         string            `json:"message_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs one turn at a time: it opens the backend stream,
// frames and decodes records, folds them into the timeline and source
// registry, accumulates the answer, and freezes an Interaction when the
// turn completes.
//
// A Controller is reusable across sequential turns but refuses a second
// turn while one is streaming.
type Controller struct {
	mu       sync.Mutex
	inFlight bool
	phase    Phase

	opener    TurnOpener
	persister Persister
	hooks     Hooks

	agg      *timeline.Aggregator
	registry *sources.Registry
	answer   strings.Builder
}

// NewController creates a controller. persister may be nil to skip
// persistence.
func NewController(opener TurnOpener, persister Persister, hooks Hooks) *Controller {
	return &Controller{
		phase:     PhaseIdle,
		opener:    opener,
		persister: persister,
		hooks:     hooks,
		agg:       timeline.NewAggregator(),
		registry:  sources.NewRegistry(),
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Timeline returns the timeline built so far in the current turn.
func (c *Controller) Timeline() timeline.Timeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.Timeline()
}

// Sources returns the current source snapshot.
func (c *Controller) Sources() []sources.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Snapshot()
}

// Answer returns the answer text accumulated so far.
func (c *Controller) Answer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answer.String()
}

// setPhase transitions the phase and notifies the hook. Caller must not
// hold c.mu.
func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	changed := c.phase != p
	c.phase = p
	c.mu.Unlock()

	if changed && c.hooks.OnPhase != nil {
		c.hooks.OnPhase(p)
	}
}

// Run executes one full turn and returns the frozen interaction. It
// blocks until the turn reaches a terminal phase. On failure the partial
// answer and timeline remain readable through the accessors.
func (c *Controller) Run(ctx context.Context, threadID, userInput string) (*Interaction, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	c.inFlight = true
	c.agg.Reset()
	c.registry = sources.NewRegistry()
	c.answer.Reset()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	c.setPhase(PhaseAwaitingTasks)

	body, err := c.opener.OpenTurn(ctx, threadID, userInput)
	if err != nil {
		c.setPhase(PhaseFailed)
		return nil, err
	}
	defer body.Close()

	interaction, err := c.consume(ctx, body, threadID, userInput)
	if err != nil {
		c.setPhase(PhaseFailed)
		return nil, err
	}

	if c.persister != nil {
		if perr := c.persister.SaveInteraction(ctx, interaction); perr != nil && c.hooks.OnDropped != nil {
			c.hooks.OnDropped(perr)
		}
	}

	c.setPhase(PhaseCompleted)
	return interaction, nil
}

// consume reads the stream to completion, applying each event in order.
func (c *Controller) consume(ctx context.Context, body io.Reader, threadID, userInput string) (*Interaction, error) {
	framer := stream.NewFramer()
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			for _, record := range framer.Feed(buf[:n]) {
				done, err := c.apply(record, threadID, userInput)
				if err != nil {
					return nil, err
				}
				if done != nil {
					return done, nil
				}
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				return nil, readErr
			}
			break
		}
	}

	// The final record may lack a trailing newline.
	for _, record := range framer.Flush() {
		done, err := c.apply(record, threadID, userInput)
		if err != nil {
			return nil, err
		}
		if done != nil {
			return done, nil
		}
	}

	return nil, ErrStreamTruncated
}

// apply folds one record into the turn state. It returns a non-nil
// interaction when the record was messageEnd.
func (c *Controller) apply(record, threadID, userInput string) (*Interaction, error) {
	ev, err := stream.Decode(record)
	if err != nil {
		// One bad record never aborts the turn.
		if c.hooks.OnDropped != nil {
			c.hooks.OnDropped(err)
		}
		return nil, nil
	}

	if c.hooks.OnEvent != nil {
		c.hooks.OnEvent(ev)
	}

	switch ev.Type {
	case stream.EventSources:
		c.mu.Lock()
		snapshot := c.registry.Ingest(ev.Data)
		c.mu.Unlock()
		if c.hooks.OnSources != nil {
			c.hooks.OnSources(snapshot)
		}
		c.setPhase(PhaseAwaitingAnswer)
		return nil, nil

	case stream.EventMessageStart:
		// messageStart discards any answer accumulated so far; a second
		// messageStart within a turn means the backend is regenerating.
		c.mu.Lock()
		c.answer.Reset()
		c.mu.Unlock()
		c.setPhase(PhaseAnswerStreaming)
		return nil, nil

	case stream.EventMessage:
		c.mu.Lock()
		c.answer.WriteString(ev.Text())
		text := c.answer.String()
		c.mu.Unlock()
		if c.hooks.OnAnswer != nil {
			c.hooks.OnAnswer(text)
		}
		return nil, nil

	case stream.EventMessageEnd:
		return c.freeze(threadID, userInput), nil

	case stream.EventError:
		return nil, &TurnError{Message: ev.Text()}
	}

	// Everything else is a timeline event.
	c.mu.Lock()
	changed := c.agg.Apply(ev)
	tl := c.agg.Timeline()
	c.mu.Unlock()

	if ev.Type == stream.EventTaskStart {
		c.setPhase(PhaseTasksRunning)
	}
	if changed && c.hooks.OnTimeline != nil {
		c.hooks.OnTimeline(tl)
	}
	return nil, nil
}

// freeze builds the immutable interaction record for a completed turn.
func (c *Controller) freeze(threadID, userInput string) *Interaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &Interaction{
		ID:                uuid.NewString(),
		ThreadID:          threadID,
		UserQuery:         userInput,
		AssistantResponse: c.answer.String(),
		Tasks:             c.agg.Timeline(),
		Sources:           c.registry.Snapshot(),
		Agents:            c.agg.Agents(),
		MessageID:         c.agg.MessageID(),
		CreatedAt:         time.Now().UTC(),
	}
}
