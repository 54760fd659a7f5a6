package core_fx

import (
	"feedbackportal/internal/config"
	"feedbackportal/internal/metrics"
	"feedbackportal/pkg/utils"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	metrics.New,
	provideJWTIssuer,
)

func provideJWTIssuer(cfg *config.Config) *utils.JWTIssuer {
	return utils.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL, cfg.Auth.SubmissionTTL)
}
