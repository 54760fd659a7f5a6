package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOverview(t *testing.T) {
	db := newTestDB(t)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	ctx := context.Background()

	var roster []db_models.Attendee
	for i := 0; i < 10; i++ {
		roster = append(roster, rostered(fmt.Sprintf("Attendee %d", i), fmt.Sprintf("a%d@example.com", i), i%2 == 0))
	}
	session := seedSession(t, db, "Go Workshop", roster...)

	for i := 0; i < 9; i++ {
		rating := 1 + i%5
		require.NoError(t, feedbackRepo.CreateFeedback(ctx, &db_models.Feedback{
			SessionID: session.ID,
			Email:     fmt.Sprintf("a%d@example.com", i),
			Rating:    &rating,
			Status:    db_models.FeedbackStatusNew,
		}))
	}

	svc := NewDashboardService(repositories.NewDashboardRepository(db), feedbackRepo, sessionRepo).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	overview, err := svc.BuildOverview(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, overview.KPIs.TotalSessions)
	assert.EqualValues(t, 1, overview.KPIs.UpcomingSessions)
	assert.EqualValues(t, 10, overview.KPIs.TotalAttendees)
	assert.EqualValues(t, 5, overview.KPIs.ActualAttendees)
	assert.EqualValues(t, 9, overview.KPIs.TotalFeedback)
	assert.Equal(t, 90.0, overview.KPIs.ResponseRate)
	require.NotNil(t, overview.KPIs.AverageRating)
	assert.Equal(t, 2.78, *overview.KPIs.AverageRating)

	require.Len(t, overview.RecentFeedback, recentFeedbackLimit)
	assert.Equal(t, "Go Workshop", overview.RecentFeedback[0].SessionName)
}

func TestBuildOverviewEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(
		repositories.NewDashboardRepository(db),
		repositories.NewFeedbackRepository(db),
		repositories.NewSessionRepository(db),
	)

	overview, err := svc.BuildOverview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, overview.KPIs.ResponseRate)
	assert.Nil(t, overview.KPIs.AverageRating)
	assert.Empty(t, overview.RecentFeedback)
}
