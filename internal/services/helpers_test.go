package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feedbackportal/internal/infra"
	"feedbackportal/internal/metrics"
	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func seedSession(t *testing.T, db *gorm.DB, name string, attendees ...db_models.Attendee) *db_models.Session {
	t.Helper()

	for i := range attendees {
		attendees[i].Position = i
	}
	session := &db_models.Session{
		Name:      name,
		Date:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Questions: datatypes.NewJSONType(db_models.QuestionSet{}),
		Attendees: attendees,
	}
	require.NoError(t, repositories.NewSessionRepository(db).Create(context.Background(), session))
	return session
}

func rostered(name, email string, actual bool) db_models.Attendee {
	return db_models.Attendee{Name: name, Email: email, IsRegistered: true, IsActual: actual}
}

type sentCode struct {
	To          string
	SessionName string
	Code        string
}

type sentInvite struct {
	To   string
	Name string
	Link string
}

// fakeMailer records outgoing mail instead of delivering it.
type fakeMailer struct {
	mu      sync.Mutex
	codes   []sentCode
	invites []sentInvite
	err     error
	failFor map[string]bool
}

func (f *fakeMailer) SendOtpCode(_ context.Context, to, sessionName, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.codes = append(f.codes, sentCode{To: to, SessionName: sessionName, Code: code})
	return nil
}

func (f *fakeMailer) SendFeedbackInvite(_ context.Context, to, attendeeName, _ string, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to] {
		return errors.New("mailbox unavailable")
	}
	f.invites = append(f.invites, sentInvite{To: to, Name: attendeeName, Link: link})
	return nil
}

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.codes, "no code was sent")
	return f.codes[len(f.codes)-1].Code
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testMetrics() *metrics.Metrics {
	return metrics.New()
}
