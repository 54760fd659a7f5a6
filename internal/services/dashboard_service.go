package services

import (
	"context"
	"math"
	"time"

	resp "feedbackportal/internal/models/response_models"
	"feedbackportal/internal/repositories"
)

const recentFeedbackLimit = 8

type DashboardService interface {
	BuildOverview(ctx context.Context) (*resp.DashboardOverview, error)
}

type dashboardService struct {
	repo         repositories.DashboardRepository
	feedbackRepo repositories.FeedbackRepositoryInterface
	sessionRepo  repositories.SessionRepository
	now          func() time.Time
}

func NewDashboardService(
	repo repositories.DashboardRepository,
	feedbackRepo repositories.FeedbackRepositoryInterface,
	sessionRepo repositories.SessionRepository,
) DashboardService {
	return &dashboardService{
		repo:         repo,
		feedbackRepo: feedbackRepo,
		sessionRepo:  sessionRepo,
		now:          time.Now,
	}
}

func (s *dashboardService) BuildOverview(ctx context.Context) (*resp.DashboardOverview, error) {
	// ---------- Core counts ----------
	totalSessions, err := s.repo.CountSessions(ctx)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.CountUpcomingSessions(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}
	totalAttendees, err := s.repo.CountAttendees(ctx)
	if err != nil {
		return nil, err
	}
	actualAttendees, err := s.repo.CountActualAttendees(ctx)
	if err != nil {
		return nil, err
	}
	registered, err := s.repo.CountRegisteredAttendees(ctx)
	if err != nil {
		return nil, err
	}
	totalFeedback, err := s.repo.CountFeedback(ctx)
	if err != nil {
		return nil, err
	}

	// ---------- Ratings ----------
	avg, err := s.repo.AverageRating(ctx)
	if err != nil {
		return nil, err
	}

	var responseRate float64
	if registered > 0 {
		responseRate = math.Round(float64(totalFeedback)*10000/float64(registered)) / 100
	}

	// ---------- Recent feedback ----------
	recent, err := s.feedbackRepo.RecentFeedback(ctx, recentFeedbackLimit)
	if err != nil {
		return nil, err
	}
	items, err := attachSessionNames(ctx, s.sessionRepo, recent)
	if err != nil {
		return nil, err
	}

	return &resp.DashboardOverview{
		KPIs: resp.DashboardKPIs{
			TotalSessions:    totalSessions,
			UpcomingSessions: upcoming,
			TotalAttendees:   totalAttendees,
			ActualAttendees:  actualAttendees,
			TotalFeedback:    totalFeedback,
			AverageRating:    roundRating(avg),
			ResponseRate:     responseRate,
		},
		RecentFeedback: items,
	}, nil
}
