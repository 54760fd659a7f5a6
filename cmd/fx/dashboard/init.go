package dashboard

import (
	"feedbackportal/internal/repositories"
	"feedbackportal/internal/services"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideDashboardRepo, provideDashboardService,
)

func provideDashboardRepo(db *gorm.DB) repositories.DashboardRepository {
	return repositories.NewDashboardRepository(db)
}

func provideDashboardService(
	dashboardRepo repositories.DashboardRepository,
	feedbackRepo repositories.FeedbackRepositoryInterface,
	sessionRepo repositories.SessionRepository,
) services.DashboardService {
	return services.NewDashboardService(dashboardRepo, feedbackRepo, sessionRepo)
}
