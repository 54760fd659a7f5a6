package repositories

import (
	"context"
	"errors"
	"strings"

	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/models/request_models"
	"feedbackportal/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeedbackRepositoryInterface interface {
	CreateFeedback(ctx context.Context, feedback *db_models.Feedback) error
	ExistsBySessionAndEmail(ctx context.Context, sessionID uuid.UUID, email string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Feedback, error)
	ListFeedback(ctx context.Context, filter request_models.FeedbackFilter) ([]db_models.Feedback, int64, error)
	RecentFeedback(ctx context.Context, limit int) ([]db_models.Feedback, error)
	SaveFeedback(ctx context.Context, feedback *db_models.Feedback) error
	UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status db_models.FeedbackStatus) (int64, error)
	DeleteFeedback(ctx context.Context, id uuid.UUID) (bool, error)
	Stats(ctx context.Context) (*FeedbackStatsRow, error)
	Distribution(ctx context.Context, column string) ([]BucketRow, error)
}

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

type FeedbackStatsRow struct {
	Total         int64    `gorm:"column:total"`
	Positive      int64    `gorm:"column:positive"`
	Neutral       int64    `gorm:"column:neutral"`
	Negative      int64    `gorm:"column:negative"`
	Missed        int64    `gorm:"column:missed"`
	AverageRating *float64 `gorm:"column:average_rating"`
}

type BucketRow struct {
	Key   string `gorm:"column:bucket"`
	Count int64  `gorm:"column:count"`
}

var distributionColumns = map[string]bool{
	"rating":   true,
	"category": true,
	"status":   true,
}

func (r *FeedbackRepository) CreateFeedback(ctx context.Context, feedback *db_models.Feedback) error {
	err := r.db.WithContext(ctx).Create(feedback).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicateSubmission
	}
	return err
}

func (r *FeedbackRepository) ExistsBySessionAndEmail(ctx context.Context, sessionID uuid.UUID, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db_models.Feedback{}).
		Where("session_id = ? AND LOWER(email) = ?", sessionID, strings.ToLower(email)).
		Count(&n).Error
	return n > 0, err
}

func (r *FeedbackRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Feedback, error) {
	var feedback db_models.Feedback
	err := r.db.WithContext(ctx).First(&feedback, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &feedback, nil
}

func (r *FeedbackRepository) ListFeedback(ctx context.Context, filter request_models.FeedbackFilter) ([]db_models.Feedback, int64, error) {
	query := r.db.WithContext(ctx).Model(&db_models.Feedback{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Rating != nil {
		query = query.Where("rating = ?", *filter.Rating)
	}
	if filter.SessionID != nil {
		query = query.Where("session_id = ?", *filter.SessionID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(message) LIKE ? OR LOWER(category) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedbacks []db_models.Feedback
	err := query.
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Order("created_at DESC").
		Find(&feedbacks).Error
	return feedbacks, total, err
}

func (r *FeedbackRepository) RecentFeedback(ctx context.Context, limit int) ([]db_models.Feedback, error) {
	var feedbacks []db_models.Feedback
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&feedbacks).Error
	return feedbacks, err
}

func (r *FeedbackRepository) SaveFeedback(ctx context.Context, feedback *db_models.Feedback) error {
	return r.db.WithContext(ctx).
		Model(feedback).
		Select("rating", "message", "category", "status", "tags", "response", "responded_at", "updated_at").
		Updates(feedback).Error
}

func (r *FeedbackRepository) UpdateStatusBulk(ctx context.Context, ids []uuid.UUID, status db_models.FeedbackStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&db_models.Feedback{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": status})
	return res.RowsAffected, res.Error
}

func (r *FeedbackRepository) DeleteFeedback(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db_models.Feedback{})
	return res.RowsAffected > 0, res.Error
}

// Stats buckets ratings as positive (4-5), neutral (3), negative (1-2) and missed (0).
// The average ignores missed-session entries.
func (r *FeedbackRepository) Stats(ctx context.Context) (*FeedbackStatsRow, error) {
	var row FeedbackStatsRow
	err := r.db.WithContext(ctx).
		Model(&db_models.Feedback{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN rating >= 4 THEN 1 ELSE 0 END), 0) AS positive,
			COALESCE(SUM(CASE WHEN rating = 3 THEN 1 ELSE 0 END), 0) AS neutral,
			COALESCE(SUM(CASE WHEN rating BETWEEN 1 AND 2 THEN 1 ELSE 0 END), 0) AS negative,
			COALESCE(SUM(CASE WHEN rating = 0 THEN 1 ELSE 0 END), 0) AS missed,
			AVG(CASE WHEN rating > 0 THEN CAST(rating AS FLOAT) END) AS average_rating`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *FeedbackRepository) Distribution(ctx context.Context, column string) ([]BucketRow, error) {
	if !distributionColumns[column] {
		return nil, utils.NewValidationError("unsupported distribution column")
	}

	var rows []BucketRow
	err := r.db.WithContext(ctx).
		Model(&db_models.Feedback{}).
		Select("CAST(" + column + " AS TEXT) AS bucket, COUNT(*) AS count").
		Where(column + " IS NOT NULL").
		Group(column).
		Order(column + " ASC").
		Scan(&rows).Error
	return rows, err
}
