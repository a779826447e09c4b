package handler

import (
	"net/http"

	"github.com/crecheapp/creche-backend/internal/middleware"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// DashboardHandler handles dashboard API requests.
type DashboardHandler struct {
	service *service.DashboardService
	log     zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(s *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: s,
		log:     log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// GetDashboard godoc
// GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	data, err := h.service.GetDashboardData(c.Request.Context(), middleware.GetViewer(c))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}
