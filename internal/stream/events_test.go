// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"reflect"
	"testing"
)

// =============================================================================
// DECODE TESTS
// =============================================================================

func TestDecode_KnownEvent(t *testing.T) {
	ev, err := Decode(`{"type":"retrievalStart","agent":"rag","data":"Searching knowledge base"}`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if ev.Type != EventRetrievalStart {
		t.Errorf("Type = %q, want %q", ev.Type, EventRetrievalStart)
	}
	if ev.Agent != "rag" {
		t.Errorf("Agent = %q, want %q", ev.Agent, "rag")
	}
	if !ev.Known {
		t.Error("Known = false, want true")
	}
	if got := ev.Text(); got != "Searching knowledge base" {
		t.Errorf("Text() = %q", got)
	}
}

func TestDecode_MessageID(t *testing.T) {
	ev, err := Decode(`{"type":"taskStart","messageId":"msg-42"}`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ev.MessageID != "msg-42" {
		t.Errorf("MessageID = %q, want %q", ev.MessageID, "msg-42")
	}
}

func TestDecode_UnknownTypePassesThrough(t *testing.T) {
	ev, err := Decode(`{"type":"speculation","data":"considering options"}`)
	if err != nil {
		t.Fatalf("unknown type must not fail: %v", err)
	}
	if ev.Known {
		t.Error("Known = true for unrecognized type, want false")
	}
	if ev.Type != "speculation" {
		t.Errorf("Type = %q, want raw wire value", ev.Type)
	}
	if kind, stage := ev.TaskKind(); stage != StageNone {
		t.Errorf("TaskKind = (%q, %d), want StageNone", kind, stage)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		record string
	}{
		{"invalid json", `{"type": oops}`},
		{"not an object", `[1,2,3]`},
		{"scalar", `42`},
		{"bare string", `"sources"`},
		{"missing type", `{"data":"hello"}`},
		{"empty type", `{"type":""}`},
		{"null", `null`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.record)
			if err == nil {
				t.Fatalf("Decode(%q) succeeded, want DecodeError", tc.record)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("error type = %T, want *DecodeError", err)
			}
		})
	}
}

// =============================================================================
// PAYLOAD HELPER TESTS
// =============================================================================

func TestEvent_StringList(t *testing.T) {
	ev, err := Decode(`{"type":"retrievalQueries","data":["insomnia CBT","sleep hygiene"]}`)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	want := []string{"insomnia CBT", "sleep hygiene"}
	if got := ev.StringList(); !reflect.DeepEqual(got, want) {
		t.Errorf("StringList() = %v, want %v", got, want)
	}
}

func TestEvent_StringListFromSingleString(t *testing.T) {
	ev, _ := Decode(`{"type":"activeAgents","data":"rag"}`)
	if got := ev.StringList(); !reflect.DeepEqual(got, []string{"rag"}) {
		t.Errorf("StringList() = %v, want [rag]", got)
	}
}

func TestEvent_TextFallsBackToRawJSON(t *testing.T) {
	ev, _ := Decode(`{"type":"step","data":{"phase":"ranking"}}`)
	if got := ev.Text(); got != `{"phase":"ranking"}` {
		t.Errorf("Text() = %q, want raw JSON", got)
	}
}

// =============================================================================
// KIND/STAGE MAPPING TESTS
// =============================================================================

func TestEvent_TaskKind(t *testing.T) {
	cases := []struct {
		typ   EventType
		kind  Kind
		stage Stage
	}{
		{EventRetrievalStart, KindRetrieval, StageStart},
		{EventRetrievalQueries, KindRetrieval, StageQueries},
		{EventRetrievalSources, KindRetrieval, StageSources},
		{EventRetrievalEnd, KindRetrieval, StageEnd},
		{EventWebSearchQueries, KindWebSearch, StageQueries},
		{EventEvaluationStart, KindEvaluation, StageStart},
		{EventContextExtractionEnd, KindContextExtraction, StageEnd},
		{EventReflectionStart, KindReflection, StageStart},
		{EventPlanningEnd, KindPlanning, StageEnd},
		{EventMessage, "", StageNone},
		{EventSources, "", StageNone},
	}

	for _, tc := range cases {
		kind, stage := Event{Type: tc.typ}.TaskKind()
		if kind != tc.kind || stage != tc.stage {
			t.Errorf("TaskKind(%s) = (%q, %d), want (%q, %d)",
				tc.typ, kind, stage, tc.kind, tc.stage)
		}
	}
}

func TestEvent_Grouped(t *testing.T) {
	if (Event{Agent: ""}).Grouped() {
		t.Error("absent agent must not group")
	}
	if (Event{Agent: SupervisorAgent}).Grouped() {
		t.Error("supervisor must not group")
	}
	if !(Event{Agent: "web"}).Grouped() {
		t.Error("named agent must group")
	}
}
