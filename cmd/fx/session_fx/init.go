package session_fx

import (
	"feedbackportal/internal/config"
	"feedbackportal/internal/metrics"
	"feedbackportal/internal/repositories"
	"feedbackportal/internal/services"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideSessionRepo, provideSessionService,
)

func provideSessionRepo(db *gorm.DB) repositories.SessionRepository {
	return repositories.NewSessionRepository(db)
}

func provideSessionService(
	cfg *config.Config,
	sessionRepo repositories.SessionRepository,
	codeRepo repositories.OneTimeCodeRepository,
	mail services.IMailService,
	m *metrics.Metrics,
	logger *zap.Logger,
) services.SessionServiceInterface {
	return services.NewSessionService(sessionRepo, codeRepo, mail, m, logger, services.NotifyConfig{
		FeedbackURL:   cfg.Portal.FeedbackURL,
		Concurrency:   cfg.Mail.Concurrency,
		RatePerSecond: cfg.Mail.RatePerSecond,
	})
}
