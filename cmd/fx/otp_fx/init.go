package otp_fx

import (
	"context"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/infra"
	"feedbackportal/internal/metrics"
	"feedbackportal/internal/repositories"
	"feedbackportal/internal/services"
	"feedbackportal/pkg/utils"
	mem "feedbackportal/pkg/memcache"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(provideCodeRepository, provideOtpService, provideOtpSweeper),
	fx.Invoke(runOtpSweeper),
)

// provideCodeRepository selects the code store named by OTP_STORE.
func provideCodeRepository(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB, m *metrics.Metrics, logger *zap.Logger) (repositories.OneTimeCodeRepository, error) {
	switch cfg.Otp.Store {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := infra.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		m.WatchRedis(client)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		logger.Info("otp store: redis")
		return repositories.NewRedisOneTimeCodeRepository(client), nil
	case "memory":
		logger.Warn("otp store: memory, codes are lost on restart and not shared between instances")
		return mem.NewOtpCodes(), nil
	default:
		logger.Info("otp store: database")
		return repositories.NewOneTimeCodeRepository(db), nil
	}
}

func provideOtpService(
	cfg *config.Config,
	sessionRepo repositories.SessionRepository,
	feedbackRepo repositories.FeedbackRepositoryInterface,
	codeRepo repositories.OneTimeCodeRepository,
	mail services.IMailService,
	tokens *utils.JWTIssuer,
	m *metrics.Metrics,
	logger *zap.Logger,
) services.OtpServiceInterface {
	return services.NewOtpService(sessionRepo, feedbackRepo, codeRepo, mail, tokens, m, logger, cfg.Otp.TTL)
}

func provideOtpSweeper(cfg *config.Config, otp services.OtpServiceInterface, logger *zap.Logger) *services.OtpSweeper {
	return services.NewOtpSweeper(otp, cfg.Otp.SweepInterval, logger)
}

func runOtpSweeper(lc fx.Lifecycle, sweeper *services.OtpSweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: sweeper.Stop,
	})
}
