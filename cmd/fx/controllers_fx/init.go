package controllers_fx

import (
	"feedbackportal/internal/api/controllers"
	"feedbackportal/internal/config"
	"feedbackportal/internal/services"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(controllers.NewOtpController),
	fx.Provide(controllers.NewSessionController),
	fx.Provide(controllers.NewDashboardController),
	fx.Provide(provideAdminController))

func provideAdminController(cfg *config.Config, adminService services.AdminServiceInterface) *controllers.AdminController {
	return controllers.NewAdminController(adminService, cfg.Auth.CookieSecure)
}
