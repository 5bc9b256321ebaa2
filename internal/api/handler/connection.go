package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jfries/batchlens/internal/domain"
	"github.com/jfries/batchlens/internal/repository"
	"github.com/jfries/batchlens/internal/service"
)

// ConnectionHandler handles LLM connection CRUD and probing endpoints.
type ConnectionHandler struct {
	connections *repository.ConnectionRepository
	probe       *service.ProbeService
}

func NewConnectionHandler(connections *repository.ConnectionRepository, probe *service.ProbeService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, probe: probe}
}

type connectionRequest struct {
	Name         string `json:"name" binding:"required"`
	BaseURL      string `json:"base_url" binding:"required"`
	ModelName    string `json:"model_name" binding:"required"`
	APIKey       string `json:"api_key"`
	ProviderType string `json:"provider_type"`
	Port         int    `json:"port"`
}

// CreateConnection handles POST /api/v1/connections.
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	provider := domain.ProviderType(req.ProviderType)
	if provider == "" {
		provider = domain.ProviderTypeCustom
	}
	conn := &domain.Connection{
		ID:           uuid.New().String(),
		Name:         req.Name,
		BaseURL:      req.BaseURL,
		ModelName:    req.ModelName,
		APIKey:       req.APIKey,
		ProviderType: provider,
		Port:         req.Port,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := h.connections.Create(c.Request.Context(), conn); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

// ListConnections handles GET /api/v1/connections.
func (h *ConnectionHandler) ListConnections(c *gin.Context) {
	conns, err := h.connections.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns, "total": len(conns)})
}

// GetConnection handles GET /api/v1/connections/:id.
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	conn, err := h.connections.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// UpdateConnection handles PUT /api/v1/connections/:id.
func (h *ConnectionHandler) UpdateConnection(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	conn, err := h.connections.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	conn.Name = req.Name
	conn.BaseURL = req.BaseURL
	conn.ModelName = req.ModelName
	conn.Port = req.Port
	if req.APIKey != "" {
		conn.APIKey = req.APIKey
	}
	if req.ProviderType != "" {
		conn.ProviderType = domain.ProviderType(req.ProviderType)
	}
	conn.UpdatedAt = time.Now()
	if err := h.connections.Update(c.Request.Context(), conn); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// DeleteConnection handles DELETE /api/v1/connections/:id.
func (h *ConnectionHandler) DeleteConnection(c *gin.Context) {
	if err := h.connections.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// TestConnection handles POST /api/v1/connections/:id/test. The probe
// result is always 200; reachability is carried in the body.
func (h *ConnectionHandler) TestConnection(c *gin.Context) {
	conn, err := h.connections.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	result := h.probe.Probe(c.Request.Context(), conn)
	c.JSON(http.StatusOK, result)
}
