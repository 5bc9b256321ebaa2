// Package task provides the in-memory registry of long-running background
// operations. Entries are transient: they live for the process lifetime
// only and are never persisted, unlike the batch rows they usually track.
package task

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jfries/batchlens/internal/domain"
)

// DefaultRetention is how long terminal tasks stay visible to pollers.
const DefaultRetention = 24 * time.Hour

// Registry maps task identifiers to mutable task state. Each entry has
// exactly one writer (the job that created it); the registry lock only
// protects the map itself and snapshot reads. Registries are injected, not
// global, so tests can instantiate isolated ones.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[string]*domain.Task
	retention time.Duration
	now       func() time.Time
}

// NewRegistry creates a Registry with the given retention window for
// terminal entries. Non-positive retention uses DefaultRetention.
func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		tasks:     make(map[string]*domain.Task),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a new task with the given total unit count and returns
// its opaque identifier.
func (r *Registry) Create(total int) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &domain.Task{
		ID:        id,
		Status:    domain.TaskStatusStarted,
		Total:     total,
		CreatedAt: r.now(),
	}
	return id
}

// SetTotal adjusts the task's total once the real unit count is known.
func (r *Registry) SetTotal(id string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok && !t.Status.IsTerminal() {
		t.Total = total
		t.Status = domain.TaskStatusProcessing
	}
}

// Advance adds delta to the task's processed count and marks it processing.
// Unknown identifiers are ignored: the owning job may outlive a swept entry.
func (r *Registry) Advance(id string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok && !t.Status.IsTerminal() {
		t.Processed += delta
		t.Status = domain.TaskStatusProcessing
	}
}

// Fail marks the task failed, recording the error text on the entry.
// Failures are reported to pollers through the snapshot, never raised.
func (r *Registry) Fail(id string, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		now := r.now()
		t.Status = domain.TaskStatusFailed
		t.Error = errText
		t.CompletedAt = &now
	}
}

// Complete marks the task completed.
func (r *Registry) Complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		now := r.now()
		t.Status = domain.TaskStatusCompleted
		t.CompletedAt = &now
	}
}

// Get returns a snapshot of the task. The second return value is false when
// the identifier never existed or the entry expired, which pollers must be
// able to distinguish from a zero-valued task.
func (r *Registry) Get(id string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return *t, true
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Sweep purges terminal entries older than the retention window and returns
// how many were removed. Entries still started or processing are never
// purged regardless of age: removing them would silently orphan a poller.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, t := range r.tasks {
		if !t.Status.IsTerminal() {
			continue
		}
		finished := t.CreatedAt
		if t.CompletedAt != nil {
			finished = *t.CompletedAt
		}
		if finished.Before(cutoff) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}
