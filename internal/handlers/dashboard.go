package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/litmer/backend/internal/middleware"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db),
	}
}

// Personal returns the current user's cross-team dashboard
// GET /api/dashboard
func (h *DashboardHandler) Personal(c *gin.Context) {
	userID := middleware.GetUserID(c)
	dashboard, err := h.dashboardService.Personal(userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dashboard)
}

// Project returns a project's dashboard
// GET /api/projects/:id/dashboard
func (h *DashboardHandler) Project(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	dashboard, err := h.dashboardService.Project(userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dashboard)
}
