package task

import (
	"testing"
	"time"

	"github.com/jfries/batchlens/internal/domain"
)

func TestLifecycle(t *testing.T) {
	r := NewRegistry(0)

	id := r.Create(10)
	snap, ok := r.Get(id)
	if !ok {
		t.Fatalf("expected task to exist")
	}
	if snap.Status != domain.TaskStatusStarted || snap.Total != 10 {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	r.Advance(id, 3)
	r.Advance(id, 4)
	snap, _ = r.Get(id)
	if snap.Processed != 7 || snap.Status != domain.TaskStatusProcessing {
		t.Fatalf("unexpected snapshot after advance: %+v", snap)
	}

	r.Complete(id)
	snap, _ = r.Get(id)
	if snap.Status != domain.TaskStatusCompleted || snap.CompletedAt == nil {
		t.Fatalf("expected completed with timestamp, got %+v", snap)
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	r := NewRegistry(0)
	snap, ok := r.Get("no-such-task")
	if ok {
		t.Fatalf("expected not found, got %+v", snap)
	}
}

func TestFailRecordsError(t *testing.T) {
	r := NewRegistry(0)
	id := r.Create(5)
	r.Fail(id, "secondary store unreachable")

	snap, ok := r.Get(id)
	if !ok {
		t.Fatalf("failed task must stay visible to pollers")
	}
	if snap.Status != domain.TaskStatusFailed || snap.Error != "secondary store unreachable" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAdvanceAfterTerminalIsIgnored(t *testing.T) {
	r := NewRegistry(0)
	id := r.Create(5)
	r.Complete(id)
	r.Advance(id, 2)

	snap, _ := r.Get(id)
	if snap.Processed != 0 || snap.Status != domain.TaskStatusCompleted {
		t.Fatalf("terminal entry mutated: %+v", snap)
	}
}

func TestSweepPurgesOnlyOldTerminalEntries(t *testing.T) {
	r := NewRegistry(time.Hour)
	base := time.Now()
	r.now = func() time.Time { return base }

	oldDone := r.Create(1)
	r.Complete(oldDone)
	oldFailed := r.Create(1)
	r.Fail(oldFailed, "boom")
	oldLive := r.Create(1)
	r.Advance(oldLive, 1)

	// Jump past the retention window, then add a fresh terminal entry
	r.now = func() time.Time { return base.Add(2 * time.Hour) }
	freshDone := r.Create(1)
	r.Complete(freshDone)

	if removed := r.Sweep(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if _, ok := r.Get(oldDone); ok {
		t.Errorf("old completed task should be purged")
	}
	if _, ok := r.Get(oldFailed); ok {
		t.Errorf("old failed task should be purged")
	}
	if _, ok := r.Get(oldLive); !ok {
		t.Errorf("processing task must never be purged regardless of age")
	}
	if _, ok := r.Get(freshDone); !ok {
		t.Errorf("fresh terminal task inside the window must survive")
	}
}
