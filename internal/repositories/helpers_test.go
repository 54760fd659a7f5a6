package repositories

import (
	"context"
	"testing"
	"time"

	"feedbackportal/internal/infra"
	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := infra.OpenDatabase("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func createSession(t *testing.T, repo SessionRepository, name string, date time.Time, attendees ...db_models.Attendee) *db_models.Session {
	t.Helper()

	for i := range attendees {
		attendees[i].Position = i
	}
	session := &db_models.Session{
		Name:      name,
		Date:      date,
		Questions: datatypes.NewJSONType(db_models.QuestionSet{}),
		Attendees: attendees,
	}
	require.NoError(t, repo.Create(context.Background(), session))
	return session
}

func createFeedback(t *testing.T, repo FeedbackRepositoryInterface, sessionID uuid.UUID, email string, rating int, mutate ...func(*db_models.Feedback)) *db_models.Feedback {
	t.Helper()

	feedback := &db_models.Feedback{
		SessionID: sessionID,
		Email:     email,
		Rating:    &rating,
		Source:    db_models.SourceQuiz,
		Status:    db_models.FeedbackStatusNew,
		Tags:      datatypes.JSONSlice[string]{},
	}
	for _, m := range mutate {
		m(feedback)
	}
	require.NoError(t, repo.CreateFeedback(context.Background(), feedback))
	return feedback
}
