package feedback_fx

import (
	"feedbackportal/internal/api/controllers"
	"feedbackportal/internal/metrics"
	"feedbackportal/internal/repositories"
	"feedbackportal/internal/services"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideFeedbackRepo, provideFeedbackService, provideFeedbackController,
)

func provideFeedbackRepo(db *gorm.DB) repositories.FeedbackRepositoryInterface {
	return repositories.NewFeedbackRepository(db)
}

func provideFeedbackService(
	feedbackRepo repositories.FeedbackRepositoryInterface,
	sessionRepo repositories.SessionRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) services.FeedbackServiceInterface {
	return services.NewFeedbackService(feedbackRepo, sessionRepo, m, logger)
}

func provideFeedbackController(feedbackService services.FeedbackServiceInterface) *controllers.FeedbackController {
	return controllers.NewFeedbackController(feedbackService)
}
