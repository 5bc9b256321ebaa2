package domain

import "time"

// TaskStatus represents the state of an in-memory background task.
type TaskStatus string

const (
	TaskStatusStarted    TaskStatus = "started"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the task has finished, successfully or not.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task is a transient handle to a long-running background operation.
// Tasks live only in the process-lifetime registry: they are not persisted
// and do not survive restarts, unlike the Batch rows they often describe.
type Task struct {
	ID          string     `json:"id"`
	Status      TaskStatus `json:"status"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
