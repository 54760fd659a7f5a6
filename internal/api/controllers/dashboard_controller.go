package controllers

import (
	"feedbackportal/internal/services"
	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	svc services.DashboardService
}

func NewDashboardController(svc services.DashboardService) *DashboardController {
	return &DashboardController{svc: svc}
}

// GetOverview godoc
// @Summary Dashboard overview
// @Description KPI counts, response rate, average rating and the latest feedback
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse{data=response_models.DashboardOverview}
// @Failure 401 {object} utils.APIResponse
// @Router /api/dashboard/overview [get]
func (h *DashboardController) GetOverview(c *gin.Context) {
	overview, err := h.svc.BuildOverview(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, overview, "Dashboard fetched successfully")
}
