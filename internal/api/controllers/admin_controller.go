package controllers

import (
	"net/http"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/services"
	"feedbackportal/pkg/middleware"
	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	adminService services.AdminServiceInterface
	secureCookie bool
}

func NewAdminController(adminService services.AdminServiceInterface, secureCookie bool) *AdminController {
	return &AdminController{adminService: adminService, secureCookie: secureCookie}
}

// Login godoc
// @Summary Admin login
// @Description Exchanges the admin password for a JWT, also set as an HTTP-only cookie
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.AdminLoginRequest true "Admin password"
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /api/admin/login [post]
func (a *AdminController) Login(c *gin.Context) {
	var req request_models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Password is required")
		return
	}

	token, err := a.adminService.Login(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	ttl := a.adminService.TokenTTL()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookieName, token, int(ttl.Seconds()), "/", "", a.secureCookie, true)

	utils.RespondSuccess(c, gin.H{
		"token":     token,
		"expiresIn": int(ttl.Seconds()),
	}, "Login successful")
}

// Logout godoc
// @Summary Admin logout
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/admin/logout [post]
func (a *AdminController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookieName, "", -1, "/", "", a.secureCookie, true)
	utils.RespondSuccess(c, nil, "Logged out")
}
