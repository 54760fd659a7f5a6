package mail_fx

import (
	"feedbackportal/internal/config"
	"feedbackportal/internal/services"
	resend "github.com/resend/resend-go/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(provideNotifier, provideMailService)

func provideNotifier(cfg *config.Config, logger *zap.Logger) services.Notifier {
	sender := cfg.Mail.From
	if cfg.Mail.FromName != "" {
		sender = cfg.Mail.FromName + " <" + cfg.Mail.From + ">"
	}

	if cfg.Mail.Provider == "resend" {
		logger.Info("mail provider: resend")
		return services.NewResendNotifier(resend.NewClient(cfg.Mail.ResendAPIKey), sender)
	}

	logger.Info("mail provider: smtp", zap.String("host", cfg.Mail.Host), zap.Int("port", cfg.Mail.Port))
	return services.NewSMTPNotifier(services.SMTPConfig{
		Host:       cfg.Mail.Host,
		Port:       cfg.Mail.Port,
		Username:   cfg.Mail.Username,
		Password:   cfg.Mail.Password,
		From:       cfg.Mail.From,
		FromName:   cfg.Mail.FromName,
		UseSSL:     cfg.Mail.UseSSL,
		RequireTLS: cfg.Mail.RequireTLS,
	})
}

func provideMailService(cfg *config.Config, notifier services.Notifier) services.IMailService {
	return services.NewMailService(notifier, cfg.Portal.AppName)
}
