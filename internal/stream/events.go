// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// events.go - Typed event union for the turn stream protocol.
//
// Every record on the wire is a JSON object with a discriminant "type"
// field, an optional "agent" attribution, and a type-dependent "data"
// payload (string, string array, object map, or nested source lists).
package stream

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType is the discriminant carried in each record's "type" field.
type EventType string

const (
	EventTaskStart              EventType = "taskStart"
	EventTaskEnd                EventType = "taskEnd"
	EventStep                   EventType = "step"
	EventRetrievalStart         EventType = "retrievalStart"
	EventRetrievalQueries       EventType = "retrievalQueries"
	EventRetrievalSources       EventType = "retrievalSources"
	EventRetrievalEnd           EventType = "retrievalEnd"
	EventWebSearchStart         EventType = "webSearchStart"
	EventWebSearchQueries       EventType = "webSearchQueries"
	EventWebSearchSources       EventType = "webSearchSources"
	EventWebSearchEnd           EventType = "webSearchEnd"
	EventEvaluationStart        EventType = "evaluationStart"
	EventEvaluationEnd          EventType = "evaluationEnd"
	EventContextExtractionStart EventType = "contextExtractionStart"
	EventContextExtractionEnd   EventType = "contextExtractionEnd"
	EventReflectionStart        EventType = "reflectionStart"
	EventReflectionEnd          EventType = "reflectionEnd"
	EventPlanningStart          EventType = "planningStart"
	EventPlanningEnd            EventType = "planningEnd"
	EventActiveAgents           EventType = "activeAgents"
	EventSources                EventType = "sources"
	EventMessageStart           EventType = "messageStart"
	EventMessage                EventType = "message"
	EventMessageEnd             EventType = "messageEnd"
	EventError                  EventType = "error"
)

// knownTypes is the closed set of event discriminants this client
// understands. Anything else is forwarded as an opaque step-like event
// so new backend event kinds never break older clients.
var knownTypes = map[EventType]bool{
	EventTaskStart: true, EventTaskEnd: true, EventStep: true,
	EventRetrievalStart: true, EventRetrievalQueries: true,
	EventRetrievalSources: true, EventRetrievalEnd: true,
	EventWebSearchStart: true, EventWebSearchQueries: true,
	EventWebSearchSources: true, EventWebSearchEnd: true,
	EventEvaluationStart: true, EventEvaluationEnd: true,
	EventContextExtractionStart: true, EventContextExtractionEnd: true,
	EventReflectionStart: true, EventReflectionEnd: true,
	EventPlanningStart: true, EventPlanningEnd: true,
	EventActiveAgents: true, EventSources: true,
	EventMessageStart: true, EventMessage: true, EventMessageEnd: true,
	EventError: true,
}

// =============================================================================
// TASK KINDS
// =============================================================================

// Kind identifies a parent-task family that opens with a *Start event and
// closes with the matching *End event.
type Kind string

const (
	KindRetrieval         Kind = "retrieval"
	KindWebSearch         Kind = "webSearch"
	KindEvaluation        Kind = "evaluation"
	KindContextExtraction Kind = "contextExtraction"
	KindReflection        Kind = "reflection"
	KindPlanning          Kind = "planning"
)

// Stage classifies how an event advances a parent task of its Kind.
type Stage int

const (
	StageNone Stage = iota
	StageStart
	StageQueries
	StageSources
	StageEnd
)

// kindStage maps parent-task events onto their (kind, stage) pair.
var kindStage = map[EventType]struct {
	Kind  Kind
	Stage Stage
}{
	EventRetrievalStart:         {KindRetrieval, StageStart},
	EventRetrievalQueries:       {KindRetrieval, StageQueries},
	EventRetrievalSources:       {KindRetrieval, StageSources},
	EventRetrievalEnd:           {KindRetrieval, StageEnd},
	EventWebSearchStart:         {KindWebSearch, StageStart},
	EventWebSearchQueries:       {KindWebSearch, StageQueries},
	EventWebSearchSources:       {KindWebSearch, StageSources},
	EventWebSearchEnd:           {KindWebSearch, StageEnd},
	EventEvaluationStart:        {KindEvaluation, StageStart},
	EventEvaluationEnd:          {KindEvaluation, StageEnd},
	EventContextExtractionStart: {KindContextExtraction, StageStart},
	EventContextExtractionEnd:   {KindContextExtraction, StageEnd},
	EventReflectionStart:        {KindReflection, StageStart},
	EventReflectionEnd:          {KindReflection, StageEnd},
	EventPlanningStart:          {KindPlanning, StageStart},
	EventPlanningEnd:            {KindPlanning, StageEnd},
}

// =============================================================================
// EVENT
// =============================================================================

// SupervisorAgent is the agent identifier that, like an absent agent,
// never participates in per-agent timeline grouping.
const SupervisorAgent = "supervisor"

// Event is one decoded record from the turn stream.
type Event struct {
	// Type is the discriminant. For unknown pass-through events it holds
	// the raw wire value and Known is false.
	Type EventType

	// Agent attributes the event to a named sub-process. Empty or
	// "supervisor" means ungrouped.
	Agent string

	// MessageID identifies the assistant message of this turn, when sent.
	MessageID string

	// Data is the raw type-dependent payload, decoded lazily.
	Data json.RawMessage

	// Known reports whether Type is in the closed known set.
	Known bool
}

// TaskKind returns the parent-task kind and stage for this event, or
// StageNone when the event is not part of a parent-task family.
func (e Event) TaskKind() (Kind, Stage) {
	ks, ok := kindStage[e.Type]
	if !ok {
		return "", StageNone
	}
	return ks.Kind, ks.Stage
}

// Grouped reports whether the event should be grouped into a per-agent
// timeline section.
func (e Event) Grouped() bool {
	return e.Agent != "" && e.Agent != SupervisorAgent
}

// Text decodes the payload as a JSON string. Non-string payloads fall
// back to their compact JSON rendering so a label is always available.
func (e Event) Text() string {
	if len(e.Data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// StringList decodes the payload as a JSON array of strings. A single
// string payload is returned as a one-element list; anything else yields
// nil.
func (e Event) StringList() []string {
	if len(e.Data) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(e.Data, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return []string{s}
	}
	return nil
}

// =============================================================================
// DECODING
// =============================================================================

// DecodeError reports a single undecodable record. The stream itself is
// never aborted for one bad record; callers log the error and continue.
type DecodeError struct {
	Record string
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return "decode record: " + e.Reason + ": " + e.Cause.Error()
	}
	return "decode record: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Decode parses one record into an Event. It fails when the record is not
// valid JSON, not an object, or carries no "type" field; unknown but
// well-formed type values succeed with Known=false.
func Decode(record string) (Event, error) {
	var raw struct {
		Type      *string         `json:"type"`
		Agent     string          `json:"agent"`
		MessageID string          `json:"messageId"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(record), &raw); err != nil {
		return Event{}, &DecodeError{
			Record: record,
			Reason: "not a JSON object",
			Cause:  err,
		}
	}
	if raw.Type == nil {
		return Event{}, &DecodeError{
			Record: record,
			Reason: "missing type field",
		}
	}
	if *raw.Type == "" {
		return Event{}, &DecodeError{
			Record: record,
			Reason: "empty type field",
		}
	}

	typ := EventType(*raw.Type)
	return Event{
		Type:      typ,
		Agent:     raw.Agent,
		MessageID: raw.MessageID,
		Data:      raw.Data,
		Known:     knownTypes[typ],
	}, nil
}

// String renders the event for diagnostics.
func (e Event) String() string {
	if e.Agent == "" {
		return fmt.Sprintf("%s(%d bytes)", e.Type, len(e.Data))
	}
	return fmt.Sprintf("%s[%s](%d bytes)", e.Type, e.Agent, len(e.Data))
}
