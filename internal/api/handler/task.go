package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jfries/batchlens/internal/service"
	"github.com/jfries/batchlens/internal/task"
)

// TaskHandler exposes the in-memory task registry and global progress.
type TaskHandler struct {
	registry *task.Registry
	progress *service.ProgressService
}

func NewTaskHandler(registry *task.Registry, progress *service.ProgressService) *TaskHandler {
	return &TaskHandler{registry: registry, progress: progress}
}

// GetTask handles GET /api/v1/tasks/:id. Unknown IDs are a 404, distinct
// from a known task whose counters are still zero. Tasks vanish after the
// retention sweep, so clients must treat 404 on a previously seen ID as
// "expired", not "never existed".
func (h *TaskHandler) GetTask(c *gin.Context) {
	t, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// GlobalProgress handles GET /api/v1/progress.
func (h *TaskHandler) GlobalProgress(c *gin.Context) {
	progress, err := h.progress.Global(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
