package handler

import (
	"net/http"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/infrastructure/logger"
	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the catalog is reachable
type Pinger interface {
	Ping() error
}

// SystemHandler serves the health endpoint
type SystemHandler struct {
	BaseHandler
	catalog Pinger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(catalog Pinger) *SystemHandler {
	return &SystemHandler{catalog: catalog}
}

// Health reports catalog reachability
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.catalog.Ping(); err != nil {
		logger.L(c.Request.Context()).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.Response{Data: dto.HealthResponse{Status: "unhealthy", Catalog: "error"}})
		return
	}
	h.Success(c, dto.HealthResponse{Status: "healthy", Catalog: "ok"})
}
