package repositories

import (
	"context"
	"errors"

	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *db_models.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Session, error)
	List(ctx context.Context) ([]SessionWithCounts, error)
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Update(ctx context.Context, session *db_models.Session) error
	DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error)

	AddAttendees(ctx context.Context, attendees []db_models.Attendee) error
	NextPosition(ctx context.Context, sessionID uuid.UUID) (int, error)
	FindAttendee(ctx context.Context, sessionID, attendeeID uuid.UUID) (*db_models.Attendee, error)
	SaveAttendee(ctx context.Context, attendee *db_models.Attendee) error
	RemoveAttendee(ctx context.Context, sessionID, attendeeID uuid.UUID) (bool, error)
}

type SessionWithCounts struct {
	db_models.Session
	AttendeeCount int `gorm:"column:attendee_count"`
	ActualCount   int `gorm:"column:actual_count"`
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *db_models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Session, error) {
	var session db_models.Session
	err := r.db.WithContext(ctx).
		Preload("Attendees", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&session, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]SessionWithCounts, error) {
	var rows []SessionWithCounts
	err := r.db.WithContext(ctx).
		Model(&db_models.Session{}).
		Select(`sessions.*,
			(SELECT COUNT(*) FROM attendees a WHERE a.session_id = sessions.id) AS attendee_count,
			(SELECT COUNT(*) FROM attendees a WHERE a.session_id = sessions.id AND a.is_actual = ?) AS actual_count`, true).
		Order("sessions.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *sessionRepository) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	err := r.db.WithContext(ctx).
		Model(&db_models.Session{}).
		Select("id, name").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *db_models.Session) error {
	return r.db.WithContext(ctx).
		Model(session).
		Select("name", "description", "date", "questions", "updated_at").
		Updates(session).Error
}

// DeleteCascade removes the session with its roster, feedback and pending codes.
func (r *sessionRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&db_models.Feedback{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&db_models.OneTimeCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&db_models.Attendee{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&db_models.Session{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *sessionRepository) AddAttendees(ctx context.Context, attendees []db_models.Attendee) error {
	if len(attendees) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&attendees).Error
}

func (r *sessionRepository) NextPosition(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var maxPos *int
	err := r.db.WithContext(ctx).
		Model(&db_models.Attendee{}).
		Select("MAX(position)").
		Where("session_id = ?", sessionID).
		Row().Scan(&maxPos)
	if err != nil {
		return 0, err
	}
	if maxPos == nil {
		return 0, nil
	}
	return *maxPos + 1, nil
}

func (r *sessionRepository) FindAttendee(ctx context.Context, sessionID, attendeeID uuid.UUID) (*db_models.Attendee, error) {
	var attendee db_models.Attendee
	err := r.db.WithContext(ctx).
		First(&attendee, "id = ? AND session_id = ?", attendeeID, sessionID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &attendee, nil
}

func (r *sessionRepository) SaveAttendee(ctx context.Context, attendee *db_models.Attendee) error {
	return r.db.WithContext(ctx).
		Model(attendee).
		Select("is_registered", "is_actual", "photo_id", "updated_at").
		Updates(attendee).Error
}

func (r *sessionRepository) RemoveAttendee(ctx context.Context, sessionID, attendeeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", attendeeID, sessionID).
		Delete(&db_models.Attendee{})
	return res.RowsAffected > 0, res.Error
}
