// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package timeline

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/jeranaias/ragline/internal/sources"
	"github.com/jeranaias/ragline/internal/stream"
)

// mustDecode builds an event from a raw record, failing the test on error.
func mustDecode(t *testing.T, record string) stream.Event {
	t.Helper()
	ev, err := stream.Decode(record)
	if err != nil {
		t.Fatalf("decode %q: %v", record, err)
	}
	return ev
}

// apply replays a list of raw records through a fresh aggregator.
func apply(t *testing.T, records ...string) *Aggregator {
	t.Helper()
	a := NewAggregator()
	for _, r := range records {
		a.Apply(mustDecode(t, r))
	}
	return a
}

// =============================================================================
// PARENT TASK LIFECYCLE TESTS
// =============================================================================

func TestAggregator_FullParentLifecycle(t *testing.T) {
	a := apply(t,
		`{"type":"taskStart","messageId":"m1"}`,
		`{"type":"retrievalStart","agent":"rag"}`,
		`{"type":"retrievalQueries","agent":"rag","data":["first"]}`,
		`{"type":"retrievalQueries","agent":"rag","data":["insomnia CBT"]}`,
		`{"type":"retrievalSources","agent":"rag","data":{"old.pdf":{}}}`,
		`{"type":"retrievalSources","agent":"rag","data":{"doc1.pdf":{"title":"Sleep Study"}}}`,
		`{"type":"retrievalEnd","agent":"rag"}`,
	)

	if a.MessageID() != "m1" {
		t.Errorf("MessageID = %q, want m1", a.MessageID())
	}

	section, ok := a.Timeline().Section("rag")
	if !ok {
		t.Fatal("no section for agent rag")
	}
	if len(section.Tasks) != 1 {
		t.Fatalf("section tasks = %d, want 1", len(section.Tasks))
	}

	p := section.Tasks[0].Parent
	if p == nil {
		t.Fatal("node is not a parent task")
	}
	if !p.Completed || !p.Ended {
		t.Errorf("completed/ended = %v/%v, want true/true", p.Completed, p.Ended)
	}
	// Intermediate values are overwritten, not accumulated.
	if !reflect.DeepEqual(p.Searching, []string{"insomnia CBT"}) {
		t.Errorf("Searching = %v, want last queries payload", p.Searching)
	}
	if len(p.Reading) != 1 || p.Reading[0].Title != "Sleep Study" {
		t.Errorf("Reading = %+v, want last sources payload", p.Reading)
	}
	if a.OpenCount() != 0 {
		t.Errorf("OpenCount = %d after end, want 0", a.OpenCount())
	}
}

func TestAggregator_EndKeepsTaskInTimeline(t *testing.T) {
	a := apply(t,
		`{"type":"retrievalStart"}`,
		`{"type":"retrievalEnd"}`,
	)

	nodes := a.Timeline().Tasks()
	if len(nodes) != 1 {
		t.Fatalf("timeline nodes = %d, want 1 (ended task must stay visible)", len(nodes))
	}
	if !nodes[0].Parent.Ended {
		t.Error("task not marked ended")
	}
}

func TestAggregator_UpdateWithoutOpenStartIsNoOp(t *testing.T) {
	a := apply(t,
		`{"type":"retrievalQueries","agent":"x","data":["orphan"]}`,
		`{"type":"webSearchSources","data":["https://example.com"]}`,
		`{"type":"planningEnd"}`,
	)

	if got := a.Timeline().Len(); got != 0 {
		t.Errorf("timeline len = %d, want 0", got)
	}
	if a.OpenCount() != 0 {
		t.Errorf("OpenCount = %d, want 0", a.OpenCount())
	}
}

func TestAggregator_RepeatedStartReplacesOpenPointer(t *testing.T) {
	a := apply(t,
		`{"type":"retrievalStart","agent":"x"}`,
		`{"type":"retrievalStart","agent":"x"}`,
		`{"type":"retrievalQueries","agent":"x","data":["only the second"]}`,
	)

	section, ok := a.Timeline().Section("x")
	if !ok {
		t.Fatal("no section for agent x")
	}
	if len(section.Tasks) != 2 {
		t.Fatalf("section tasks = %d, want 2 distinct parent tasks", len(section.Tasks))
	}

	first, second := section.Tasks[0].Parent, section.Tasks[1].Parent
	if first.Searching != nil {
		t.Errorf("abandoned first task received queries: %v", first.Searching)
	}
	if !reflect.DeepEqual(second.Searching, []string{"only the second"}) {
		t.Errorf("second.Searching = %v", second.Searching)
	}
	if first.Ended || second.Ended {
		t.Error("neither task should be ended yet")
	}
}

func TestAggregator_SameKindDifferentAgentsAreIndependent(t *testing.T) {
	a := apply(t,
		`{"type":"retrievalStart","agent":"a"}`,
		`{"type":"retrievalStart","agent":"b"}`,
		`{"type":"retrievalQueries","agent":"a","data":["for a"]}`,
		`{"type":"retrievalEnd","agent":"b"}`,
	)

	secA, _ := a.Timeline().Section("a")
	secB, _ := a.Timeline().Section("b")

	if !reflect.DeepEqual(secA.Tasks[0].Parent.Searching, []string{"for a"}) {
		t.Errorf("agent a Searching = %v", secA.Tasks[0].Parent.Searching)
	}
	if secA.Tasks[0].Parent.Ended {
		t.Error("agent a task ended by agent b's end event")
	}
	if !secB.Tasks[0].Parent.Ended {
		t.Error("agent b task not ended")
	}
}

func TestAggregator_WebSearchReadingCardsGetDomains(t *testing.T) {
	a := apply(t,
		`{"type":"webSearchStart","agent":"web"}`,
		`{"type":"webSearchSources","agent":"web","data":["https://www.sleepfoundation.org/x"]}`,
	)

	section, _ := a.Timeline().Section("web")
	reading := section.Tasks[0].Parent.Reading
	if len(reading) != 1 {
		t.Fatalf("reading = %+v, want one card", reading)
	}
	if reading[0].Type != sources.TypeWeb || reading[0].Domain != "sleepfoundation.org" {
		t.Errorf("card = %+v", reading[0])
	}
}

// =============================================================================
// GROUPING TESTS
// =============================================================================

func TestAggregator_SupervisorAndAbsentAgentNeverGrouped(t *testing.T) {
	a := apply(t,
		`{"type":"step","data":"route query"}`,
		`{"type":"planningStart","agent":"supervisor"}`,
		`{"type":"retrievalStart","agent":"rag"}`,
	)

	tl := a.Timeline()
	if tl.Len() != 3 {
		t.Fatalf("timeline len = %d, want 3", tl.Len())
	}
	if tl[0].Node == nil || tl[1].Node == nil {
		t.Error("supervisor/ungrouped tasks must be top-level nodes")
	}
	if tl[2].Section == nil || tl[2].Section.Agent != "rag" {
		t.Error("agent task must open a section")
	}
	if _, ok := tl.Section("supervisor"); ok {
		t.Error("supervisor must never get a section")
	}
}

func TestAggregator_SectionCollectsInterleavedTasks(t *testing.T) {
	a := apply(t,
		`{"type":"retrievalStart","agent":"x"}`,
		`{"type":"webSearchStart","agent":"y"}`,
		`{"type":"step","agent":"x","data":"rerank"}`,
	)

	tl := a.Timeline()
	// Two sections in first-appearance order, x's later step appended to
	// x's existing section.
	if tl.Len() != 2 {
		t.Fatalf("timeline len = %d, want 2 sections", tl.Len())
	}
	if tl[0].Section.Agent != "x" || tl[1].Section.Agent != "y" {
		t.Errorf("section order = %q, %q", tl[0].Section.Agent, tl[1].Section.Agent)
	}
	if len(tl[0].Section.Tasks) != 2 {
		t.Errorf("agent x tasks = %d, want 2", len(tl[0].Section.Tasks))
	}
}

// =============================================================================
// RESET / ROSTER / PASS-THROUGH TESTS
// =============================================================================

func TestAggregator_TaskStartResetsEverything(t *testing.T) {
	a := apply(t,
		`{"type":"retrievalStart","agent":"x"}`,
		`{"type":"activeAgents","data":["x"]}`,
		`{"type":"taskStart","messageId":"m2"}`,
	)

	if a.Timeline().Len() != 0 {
		t.Errorf("timeline not cleared: len = %d", a.Timeline().Len())
	}
	if a.OpenCount() != 0 || a.Agents() != nil {
		t.Error("open tasks or agent roster leaked across taskStart")
	}
	if a.MessageID() != "m2" {
		t.Errorf("MessageID = %q, want m2", a.MessageID())
	}
}

func TestAggregator_ActiveAgentsRosterAndMarker(t *testing.T) {
	a := apply(t, `{"type":"activeAgents","data":["rag","web"]}`)

	if !reflect.DeepEqual(a.Agents(), []string{"rag", "web"}) {
		t.Errorf("Agents = %v", a.Agents())
	}
	tl := a.Timeline()
	if tl.Len() != 1 || tl[0].AgentMarker == nil {
		t.Fatalf("expected one marker entry, got %+v", tl)
	}
	// Markers are audit records, not renderable tasks.
	if got := len(tl.Tasks()); got != 0 {
		t.Errorf("Tasks() = %d nodes, want 0", got)
	}
}

func TestAggregator_UnknownEventBecomesOpaqueStep(t *testing.T) {
	a := apply(t, `{"type":"deliberation","agent":"rag","data":"weighing evidence"}`)

	section, ok := a.Timeline().Section("rag")
	if !ok {
		t.Fatal("unknown event not appended to agent section")
	}
	task := section.Tasks[0].Task
	if task == nil || task.Type != "deliberation" || task.Label != "weighing evidence" {
		t.Errorf("task = %+v", task)
	}
}

func TestAggregator_ApplyReturnsFalseForSessionEvents(t *testing.T) {
	a := NewAggregator()
	for _, record := range []string{
		`{"type":"sources","data":{}}`,
		`{"type":"messageStart"}`,
		`{"type":"message","data":"hi"}`,
		`{"type":"messageEnd"}`,
		`{"type":"error","data":"boom"}`,
	} {
		if a.Apply(mustDecode(t, record)) {
			t.Errorf("Apply(%s) = true, want false", record)
		}
	}
}

// =============================================================================
// REPLAY DETERMINISM
// =============================================================================

func TestAggregator_ReplayIsDeterministic(t *testing.T) {
	records := []string{
		`{"type":"taskStart"}`,
		`{"type":"planningStart"}`,
		`{"type":"planningEnd"}`,
		`{"type":"retrievalStart","agent":"rag"}`,
		`{"type":"retrievalQueries","agent":"rag","data":["q"]}`,
		`{"type":"retrievalEnd","agent":"rag"}`,
	}

	first := apply(t, records...)
	second := apply(t, records...)

	a, _ := json.Marshal(first.Timeline())
	b, _ := json.Marshal(second.Timeline())
	if string(a) != string(b) {
		t.Errorf("replay diverged:\n%s\n%s", a, b)
	}
}
