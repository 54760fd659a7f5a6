package admin_fx

import (
	"feedbackportal/internal/config"
	"feedbackportal/internal/services"
	"feedbackportal/pkg/utils"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(
	provideAdminService)

func provideAdminService(cfg *config.Config, tokens *utils.JWTIssuer, logger *zap.Logger) (services.AdminServiceInterface, error) {
	return services.NewAdminService(cfg.Auth.AdminPasswordHash, cfg.Auth.AdminPassword, tokens, logger)
}
