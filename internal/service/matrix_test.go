package service

import (
	"testing"

	"github.com/jfries/batchlens/internal/domain"
)

func docsFixture(ids ...string) []domain.Document {
	out := make([]domain.Document, len(ids))
	for i, id := range ids {
		out[i] = domain.Document{ID: id}
	}
	return out
}

func promptsFixture(ids ...string) []domain.Prompt {
	out := make([]domain.Prompt, len(ids))
	for i, id := range ids {
		out[i] = domain.Prompt{ID: id}
	}
	return out
}

func connsFixture(ids ...string) []domain.Connection {
	out := make([]domain.Connection, len(ids))
	for i, id := range ids {
		out[i] = domain.Connection{ID: id}
	}
	return out
}

func TestBuildMatrixCrossProduct(t *testing.T) {
	m := BuildMatrix(docsFixture("d1", "d2"), promptsFixture("p1", "p2"), connsFixture("c1", "c2"), nil)

	if m.EmptyConfig {
		t.Fatalf("unexpected EmptyConfig")
	}
	if len(m.Pending) != 8 {
		t.Fatalf("expected 8 triples, got %d", len(m.Pending))
	}
	// documents outer, connections middle, prompts inner
	want := WorkUnit{DocumentID: "d1", PromptID: "p1", ConnectionID: "c1"}
	if m.Pending[0] != want {
		t.Errorf("unexpected first unit: %+v", m.Pending[0])
	}
	want = WorkUnit{DocumentID: "d1", PromptID: "p2", ConnectionID: "c1"}
	if m.Pending[1] != want {
		t.Errorf("unexpected second unit: %+v", m.Pending[1])
	}
	want = WorkUnit{DocumentID: "d2", PromptID: "p2", ConnectionID: "c2"}
	if m.Pending[7] != want {
		t.Errorf("unexpected last unit: %+v", m.Pending[7])
	}
}

func TestBuildMatrixSkipsTerminalTriples(t *testing.T) {
	skip := func(docID, promptID, connID string) bool {
		return docID == "d1" && promptID == "p1" && connID == "c1"
	}
	m := BuildMatrix(docsFixture("d1", "d2"), promptsFixture("p1", "p2"), connsFixture("c1", "c2"), skip)

	if len(m.Pending) != 7 {
		t.Fatalf("expected 7 triples after skip, got %d", len(m.Pending))
	}
	if m.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", m.Skipped)
	}
	for _, u := range m.Pending {
		if u.DocumentID == "d1" && u.PromptID == "p1" && u.ConnectionID == "c1" {
			t.Fatalf("skipped triple still present")
		}
	}
}

func TestBuildMatrixEmptyConfigDistinctFromAllDone(t *testing.T) {
	empty := BuildMatrix(docsFixture("d1"), nil, connsFixture("c1"), nil)
	if !empty.EmptyConfig {
		t.Fatalf("expected EmptyConfig with no prompts")
	}
	if empty.AllDone() {
		t.Fatalf("EmptyConfig must not read as all done")
	}

	empty = BuildMatrix(docsFixture("d1"), promptsFixture("p1"), nil, nil)
	if !empty.EmptyConfig {
		t.Fatalf("expected EmptyConfig with no connections")
	}

	done := BuildMatrix(docsFixture("d1"), promptsFixture("p1"), connsFixture("c1"),
		func(string, string, string) bool { return true })
	if done.EmptyConfig {
		t.Fatalf("all-done matrix must not read as EmptyConfig")
	}
	if !done.AllDone() {
		t.Fatalf("expected AllDone with every triple skipped")
	}
}

func TestBuildMatrixDeterministicOrder(t *testing.T) {
	docs := docsFixture("d1", "d2", "d3")
	prompts := promptsFixture("p1", "p2")
	conns := connsFixture("c1", "c2")

	first := BuildMatrix(docs, prompts, conns, nil)
	second := BuildMatrix(docs, prompts, conns, nil)

	if len(first.Pending) != len(second.Pending) {
		t.Fatalf("length mismatch")
	}
	for i := range first.Pending {
		if first.Pending[i] != second.Pending[i] {
			t.Fatalf("order differs at %d", i)
		}
	}
}
