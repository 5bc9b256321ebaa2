package job

import (
	"context"

	"github.com/jfries/batchlens/internal/task"
)

// TaskSweepJob purges terminal tasks that have aged past the registry's
// retention window.
type TaskSweepJob struct {
	registry *task.Registry
}

func NewTaskSweepJob(registry *task.Registry) *TaskSweepJob {
	return &TaskSweepJob{registry: registry}
}

func (j *TaskSweepJob) Name() string {
	return "task_sweep"
}

func (j *TaskSweepJob) Run(ctx context.Context) error {
	if j.registry == nil {
		return nil
	}
	j.registry.Sweep()
	return nil
}
