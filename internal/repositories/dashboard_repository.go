package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	dbm "feedbackportal/internal/models/db_models"
)

type DashboardRepository interface {
	// KPIs / counts
	CountSessions(ctx context.Context) (int64, error)
	CountUpcomingSessions(ctx context.Context, now time.Time) (int64, error)
	CountAttendees(ctx context.Context) (int64, error)
	CountActualAttendees(ctx context.Context) (int64, error)
	CountRegisteredAttendees(ctx context.Context) (int64, error)
	CountFeedback(ctx context.Context) (int64, error)

	// Ratings
	AverageRating(ctx context.Context) (*float64, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

// ---------- Counts ----------
func (r *dashboardRepository) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&dbm.Session{}).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountUpcomingSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Session{}).
		Where("date >= ?", now).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountAttendees(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&dbm.Attendee{}).Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountActualAttendees(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Attendee{}).
		Where("is_actual = ?", true).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountRegisteredAttendees(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&dbm.Attendee{}).
		Where("is_registered = ?", true).
		Count(&n).Error
	return n, err
}

func (r *dashboardRepository) CountFeedback(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&dbm.Feedback{}).Count(&n).Error
	return n, err
}

// ---------- Ratings ----------
func (r *dashboardRepository) AverageRating(ctx context.Context) (*float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&dbm.Feedback{}).
		Select("AVG(CAST(rating AS FLOAT))").
		Where("rating > 0").
		Row().Scan(&avg)
	return avg, err
}
