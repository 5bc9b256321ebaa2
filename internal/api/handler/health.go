package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports liveness of the service and both stores.
type HealthHandler struct {
	primary   *gorm.DB
	secondary *gorm.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(primary, secondary *gorm.DB) *HealthHandler {
	return &HealthHandler{primary: primary, secondary: secondary}
}

// Health handles GET /health. A store that fails its ping is reported as
// degraded; the endpoint still returns 200 so pollers can read the detail.
func (h *HealthHandler) Health(c *gin.Context) {
	stores := gin.H{
		"primary":   h.ping(h.primary),
		"secondary": h.ping(h.secondary),
	}
	status := "ok"
	for _, s := range stores {
		if s != "ok" {
			status = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"stores": stores,
	})
}

func (h *HealthHandler) ping(db *gorm.DB) string {
	if db == nil {
		return "disabled"
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err.Error()
	}
	if err := sqlDB.PingContext(context.Background()); err != nil {
		return err.Error()
	}
	return "ok"
}
