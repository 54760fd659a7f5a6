package services

import (
	"context"
	"testing"
	"time"

	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/repositories"
	mem "feedbackportal/pkg/memcache"
	"feedbackportal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sessionFixture struct {
	db     *gorm.DB
	svc    SessionServiceInterface
	mailer *fakeMailer
	codes  *mem.OtpCodes
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	db := newTestDB(t)
	mailer := &fakeMailer{failFor: map[string]bool{}}
	codes := mem.NewOtpCodes()
	svc := NewSessionService(
		repositories.NewSessionRepository(db),
		codes,
		mailer,
		testMetrics(),
		testLogger(),
		NotifyConfig{FeedbackURL: "https://portal.example.com/feedback", Concurrency: 3},
	)
	return &sessionFixture{db: db, svc: svc, mailer: mailer, codes: codes}
}

func boolPtr(b bool) *bool { return &b }

func TestCreateSessionCleansInput(t *testing.T) {
	f := newSessionFixture(t)

	session, err := f.svc.CreateSession(context.Background(), request_models.CreateSessionRequest{
		Name: "  Go Workshop ",
		Date: "2026-03-01",
		Questions: db_models.QuestionSet{
			Initial:  []db_models.Question{{Text: "How was it?"}, {Text: "   "}},
			Positive: []db_models.Question{{Text: "What did you like?", Type: db_models.QuestionText}},
		},
		Attendees: []request_models.AttendeeInput{
			{Name: "Alice", Email: "Alice@Example.com"},
			{Name: "Alice Twin", Email: "alice@example.com"},
			{Name: "Bob", Email: "bob@example.com", IsRegistered: boolPtr(false)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Go Workshop", session.Name)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), session.Date)

	questions, err := f.svc.GetQuestions(context.Background(), session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []db_models.Question{{Text: "How was it?", Type: db_models.QuestionRating}}, questions.Initial)
	assert.Equal(t, db_models.QuestionText, questions.Positive[0].Type)
	assert.Empty(t, questions.Negative)

	loaded, err := f.svc.GetSession(context.Background(), session.ID.String())
	require.NoError(t, err)
	require.Len(t, loaded.Attendees, 2)
	assert.Equal(t, "alice@example.com", loaded.Attendees[0].Email)
	assert.Equal(t, "Alice", loaded.Attendees[0].Name)
	assert.True(t, loaded.Attendees[0].IsRegistered)
	assert.False(t, loaded.Attendees[1].IsRegistered)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSession(ctx, request_models.CreateSessionRequest{Name: " ", Date: "2026-03-01"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.CreateSession(ctx, request_models.CreateSessionRequest{Name: "Go", Date: "next tuesday"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.CreateSession(ctx, request_models.CreateSessionRequest{
		Name: "Go", Date: "2026-03-01",
		Attendees: []request_models.AttendeeInput{{Name: "Alice", Email: "not-an-email"}},
	})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestUpdateSessionLeavesRosterAlone(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	session := seedSession(t, f.db, "Draft", rostered("Alice", "alice@example.com", false))

	name := "Final"
	date := "2026-04-02T14:30"
	updated, err := f.svc.UpdateSession(ctx, session.ID.String(), request_models.UpdateSessionRequest{
		Name: &name,
		Date: &date,
	})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Name)
	assert.Equal(t, time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC), updated.Date)

	loaded, err := f.svc.GetSession(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Final", loaded.Name)
	assert.Len(t, loaded.Attendees, 1)

	blank := ""
	_, err = f.svc.UpdateSession(ctx, session.ID.String(), request_models.UpdateSessionRequest{Name: &blank})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.UpdateSession(ctx, uuid.NewString(), request_models.UpdateSessionRequest{Name: &name})
	assert.ErrorIs(t, err, utils.ErrSessionNotFound)
}

func TestListSessionsCountsAttendees(t *testing.T) {
	f := newSessionFixture(t)
	seedSession(t, f.db, "Go Workshop",
		rostered("Alice", "alice@example.com", true),
		rostered("Bob", "bob@example.com", false),
	)

	sessions, err := f.svc.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].AttendeeCount)
	assert.Equal(t, 1, sessions[0].ActualCount)
}

func TestDeleteSessionCascades(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	session := seedSession(t, f.db, "Doomed", rostered("Alice", "alice@example.com", true))

	rating := 4
	require.NoError(t, repositories.NewFeedbackRepository(f.db).CreateFeedback(ctx, &db_models.Feedback{
		SessionID: session.ID, Email: "alice@example.com", Rating: &rating,
	}))
	now := time.Now()
	require.NoError(t, f.codes.Upsert(ctx, &db_models.OneTimeCode{
		Email: "alice@example.com", SessionID: session.ID, Code: "123456",
		CreatedAt: now, ExpiresAt: now.Add(time.Minute),
	}))

	require.NoError(t, f.svc.DeleteSession(ctx, session.ID.String()))

	var feedback, attendees int64
	require.NoError(t, f.db.Model(&db_models.Feedback{}).Count(&feedback).Error)
	require.NoError(t, f.db.Model(&db_models.Attendee{}).Count(&attendees).Error)
	assert.Zero(t, feedback)
	assert.Zero(t, attendees)
	assert.Zero(t, f.codes.Len())

	assert.ErrorIs(t, f.svc.DeleteSession(ctx, session.ID.String()), utils.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.DeleteSession(ctx, "nope"), utils.ErrSessionNotFound)
}

func TestAddAttendeesSkipsDuplicates(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	session := seedSession(t, f.db, "Go Workshop", rostered("Alice", "alice@example.com", false))

	result, err := f.svc.AddAttendees(ctx, session.ID.String(), []request_models.AttendeeInput{
		{Name: "Alice", Email: "ALICE@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "bob@example.com", result.Added[0].Email)
	assert.Equal(t, 1, result.Added[0].Position)
	assert.Equal(t, []string{"alice@example.com"}, result.Skipped)

	_, err = f.svc.AddAttendees(ctx, session.ID.String(), []request_models.AttendeeInput{
		{Name: "Bob Again", Email: "Bob@Example.com"},
	})
	assert.ErrorIs(t, err, utils.ErrDuplicateAttendee)

	_, err = f.svc.AddAttendees(ctx, session.ID.String(), nil)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestImportAttendeesFromCSV(t *testing.T) {
	f := newSessionFixture(t)
	session := seedSession(t, f.db, "Go Workshop", rostered("Alice", "alice@example.com", false))

	csv := "Full Name,E-mail\nAlice,alice@example.com\nBob,bob@example.com\nCarol,carol@example.com\n"
	result, err := f.svc.ImportAttendees(context.Background(), session.ID.String(), "list.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, result.ParsedRows)
	assert.Len(t, result.Added, 2)
	assert.Equal(t, []string{"alice@example.com"}, result.Skipped)

	_, err = f.svc.ImportAttendees(context.Background(), session.ID.String(), "list.csv", []byte("Name,Email\n"))
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestAttendeeStatusAndRemoval(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	session := seedSession(t, f.db, "Go Workshop", rostered("Alice", "alice@example.com", false))
	attendeeID := session.Attendees[0].ID.String()

	_, err := f.svc.UpdateAttendeeStatus(ctx, session.ID.String(), attendeeID, request_models.UpdateAttendeeStatusRequest{})
	assert.ErrorIs(t, err, utils.ErrValidation)

	attendee, err := f.svc.UpdateAttendeeStatus(ctx, session.ID.String(), attendeeID,
		request_models.UpdateAttendeeStatusRequest{IsActual: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, attendee.IsActual)

	attendance, err := f.svc.GetAttendance(ctx, session.ID.String(), "Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, attendance.IsActual)
	assert.True(t, attendance.IsRegistered)

	_, err = f.svc.GetAttendance(ctx, session.ID.String(), "bob@example.com")
	assert.ErrorIs(t, err, utils.ErrAttendeeNotFound)

	require.NoError(t, f.svc.RemoveAttendee(ctx, session.ID.String(), attendeeID))
	assert.ErrorIs(t, f.svc.RemoveAttendee(ctx, session.ID.String(), attendeeID), utils.ErrAttendeeNotFound)
	assert.ErrorIs(t, f.svc.RemoveAttendee(ctx, session.ID.String(), "bogus"), utils.ErrAttendeeNotFound)
}

func TestNotifyAttendees(t *testing.T) {
	f := newSessionFixture(t)
	session := seedSession(t, f.db, "Go Workshop",
		rostered("Alice", "alice@example.com", false),
		rostered("Bob", "bob@example.com", false),
		db_models.Attendee{Name: "Walk-in", Email: "walkin@example.com", IsActual: true},
	)
	f.mailer.failFor["bob@example.com"] = true

	result, err := f.svc.NotifyAttendees(context.Background(), session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, []string{"bob@example.com"}, result.Failed)

	require.Len(t, f.mailer.invites, 1)
	assert.Equal(t, "alice@example.com", f.mailer.invites[0].To)
	assert.Equal(t, "https://portal.example.com/feedback?sessionId="+session.ID.String(), f.mailer.invites[0].Link)
}

func TestNotifyAttendeesWithoutRegistrations(t *testing.T) {
	f := newSessionFixture(t)
	session := seedSession(t, f.db, "Empty",
		db_models.Attendee{Name: "Walk-in", Email: "walkin@example.com"},
	)

	_, err := f.svc.NotifyAttendees(context.Background(), session.ID.String())
	assert.ErrorIs(t, err, utils.ErrNoRegisteredAttendees)
}
