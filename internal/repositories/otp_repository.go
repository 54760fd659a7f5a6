package repositories

import (
	"context"
	"time"

	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OneTimeCodeRepository stores at most one pending code per (email, session).
// Consume must be atomic: of any number of concurrent calls for the same
// matching code, exactly one reports true.
type OneTimeCodeRepository interface {
	Upsert(ctx context.Context, code *db_models.OneTimeCode) error
	Consume(ctx context.Context, email string, sessionID uuid.UUID, code string, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}

type oneTimeCodeRepository struct {
	db *gorm.DB
}

func NewOneTimeCodeRepository(db *gorm.DB) OneTimeCodeRepository {
	return &oneTimeCodeRepository{db: db}
}

func (r *oneTimeCodeRepository) Upsert(ctx context.Context, code *db_models.OneTimeCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "created_at", "expires_at"}),
		}).
		Create(code).Error
}

func (r *oneTimeCodeRepository) Consume(ctx context.Context, email string, sessionID uuid.UUID, code string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("email = ? AND session_id = ? AND code = ? AND expires_at > ?", email, sessionID, code, now).
		Delete(&db_models.OneTimeCode{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *oneTimeCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&db_models.OneTimeCode{})
	return res.RowsAffected, res.Error
}

func (r *oneTimeCodeRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&db_models.OneTimeCode{}).Error
}
