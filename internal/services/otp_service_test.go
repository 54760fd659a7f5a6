package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
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

const testOtpTTL = 10 * time.Minute

type otpFixture struct {
	db      *gorm.DB
	svc     *OtpService
	mailer  *fakeMailer
	clock   *clock
	tokens  *utils.JWTIssuer
	session *db_models.Session
}

func newOtpFixture(t *testing.T, codeRepo func(db *gorm.DB) repositories.OneTimeCodeRepository) *otpFixture {
	t.Helper()

	db := newTestDB(t)
	session := seedSession(t, db, "Go Workshop",
		rostered("Alice", "alice@example.com", true),
		rostered("Carol", "carol@example.com", false),
	)

	if codeRepo == nil {
		codeRepo = repositories.NewOneTimeCodeRepository
	}

	mailer := &fakeMailer{}
	tokens := utils.NewJWTIssuer("test-secret", time.Hour, 30*time.Minute)
	clk := newClock()

	svc := NewOtpService(
		repositories.NewSessionRepository(db),
		repositories.NewFeedbackRepository(db),
		codeRepo(db),
		mailer,
		tokens,
		testMetrics(),
		testLogger(),
		testOtpTTL,
	).(*OtpService)
	svc.now = clk.Now

	return &otpFixture{db: db, svc: svc, mailer: mailer, clock: clk, tokens: tokens, session: session}
}

func (f *otpFixture) request(email string) error {
	return f.svc.RequestCode(context.Background(), request_models.RequestOtpRequest{
		Email:     email,
		SessionID: f.session.ID.String(),
	})
}

func (f *otpFixture) verify(email, code string) (bool, error) {
	resp, err := f.svc.VerifyCode(context.Background(), request_models.VerifyOtpRequest{
		Email:     email,
		SessionID: f.session.ID.String(),
		Otp:       code,
	})
	if err != nil {
		return false, err
	}
	return resp.Verified, nil
}

func (f *otpFixture) codeRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&db_models.OneTimeCode{}).Count(&n).Error)
	return n
}

func TestOtpRequestAndVerifyOnce(t *testing.T) {
	f := newOtpFixture(t, nil)

	require.NoError(t, f.request("alice@example.com"))
	code := f.mailer.lastCode(t)
	assert.Len(t, code, otpLength)
	assert.Equal(t, "Go Workshop", f.mailer.codes[0].SessionName)

	resp, err := f.svc.VerifyCode(context.Background(), request_models.VerifyOtpRequest{
		Email:     "alice@example.com",
		SessionID: f.session.ID.String(),
		Otp:       code,
	})
	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.True(t, resp.IsActualAttendee)
	assert.Equal(t, "alice@example.com", resp.Email)

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.RoleAttendee, claims.Role)
	assert.Equal(t, f.session.ID.String(), claims.SessionID)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, err = f.verify("alice@example.com", code)
	assert.ErrorIs(t, err, utils.ErrInvalidOrExpired)
}

func TestOtpVerifyEchoesNormalizedEmail(t *testing.T) {
	f := newOtpFixture(t, nil)

	require.NoError(t, f.request("  Carol@Example.COM "))
	code := f.mailer.lastCode(t)
	assert.Equal(t, "carol@example.com", f.mailer.codes[0].To)

	resp, err := f.svc.VerifyCode(context.Background(), request_models.VerifyOtpRequest{
		Email:     "CAROL@example.com",
		SessionID: f.session.ID.String(),
		Otp:       code,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsActualAttendee)
	assert.Equal(t, "carol@example.com", resp.Email)
}

func TestOtpExpiresAfterTTL(t *testing.T) {
	f := newOtpFixture(t, nil)

	require.NoError(t, f.request("alice@example.com"))
	code := f.mailer.lastCode(t)

	f.clock.Advance(testOtpTTL)

	_, err := f.verify("alice@example.com", code)
	assert.ErrorIs(t, err, utils.ErrInvalidOrExpired)
}

func TestOtpValidJustBeforeExpiry(t *testing.T) {
	f := newOtpFixture(t, nil)

	require.NoError(t, f.request("alice@example.com"))
	code := f.mailer.lastCode(t)

	f.clock.Advance(testOtpTTL - time.Second)

	ok, err := f.verify("alice@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpReissueInvalidatesPreviousCode(t *testing.T) {
	f := newOtpFixture(t, nil)

	require.NoError(t, f.request("alice@example.com"))
	first := f.mailer.lastCode(t)

	// Force the second code to differ so the assertion is meaningful.
	var second string
	for second == "" || second == first {
		require.NoError(t, f.request("alice@example.com"))
		second = f.mailer.lastCode(t)
	}
	assert.EqualValues(t, 1, f.codeRows(t))

	_, err := f.verify("alice@example.com", first)
	assert.ErrorIs(t, err, utils.ErrInvalidOrExpired)

	ok, err := f.verify("alice@example.com", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpRejectsUnregisteredEmail(t *testing.T) {
	f := newOtpFixture(t, nil)

	err := f.request("bob@nowhere.com")
	assert.ErrorIs(t, err, utils.ErrNotRegistered)
	assert.Zero(t, f.codeRows(t))
	assert.Empty(t, f.mailer.codes)
}

func TestOtpRejectsDuplicateSubmission(t *testing.T) {
	f := newOtpFixture(t, nil)

	rating := 5
	require.NoError(t, repositories.NewFeedbackRepository(f.db).CreateFeedback(context.Background(), &db_models.Feedback{
		SessionID: f.session.ID,
		Email:     "alice@example.com",
		Rating:    &rating,
		Status:    db_models.FeedbackStatusNew,
	}))

	err := f.request("ALICE@example.com")
	assert.ErrorIs(t, err, utils.ErrDuplicateSubmission)
	assert.Zero(t, f.codeRows(t))
}

func TestOtpRequestValidation(t *testing.T) {
	f := newOtpFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		request request_models.RequestOtpRequest
		wantErr error
	}{
		{"missing email", request_models.RequestOtpRequest{SessionID: f.session.ID.String()}, utils.ErrValidation},
		{"missing session", request_models.RequestOtpRequest{Email: "alice@example.com"}, utils.ErrValidation},
		{"bad email", request_models.RequestOtpRequest{Email: "alice", SessionID: f.session.ID.String()}, utils.ErrValidation},
		{"unknown session", request_models.RequestOtpRequest{Email: "alice@example.com", SessionID: uuid.NewString()}, utils.ErrSessionNotFound},
		{"malformed session", request_models.RequestOtpRequest{Email: "alice@example.com", SessionID: "not-an-id"}, utils.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.svc.RequestCode(ctx, tt.request), tt.wantErr)
		})
	}
}

func TestOtpRequestAcceptsLegacySessionField(t *testing.T) {
	f := newOtpFixture(t, nil)

	err := f.svc.RequestCode(context.Background(), request_models.RequestOtpRequest{
		Email:           "alice@example.com",
		LegacySessionID: f.session.ID.String(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.codeRows(t))
}

func TestOtpVerifyFailures(t *testing.T) {
	f := newOtpFixture(t, nil)
	require.NoError(t, f.request("alice@example.com"))
	code := f.mailer.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := f.verify("alice@example.com", wrong)
	assert.ErrorIs(t, err, utils.ErrInvalidOrExpired)

	_, err = f.verify("carol@example.com", code)
	assert.ErrorIs(t, err, utils.ErrInvalidOrExpired)

	_, err = f.svc.VerifyCode(context.Background(), request_models.VerifyOtpRequest{
		Email: "alice@example.com", SessionID: "garbage", Otp: code,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidOrExpired)

	_, err = f.svc.VerifyCode(context.Background(), request_models.VerifyOtpRequest{
		Email: "alice@example.com", SessionID: f.session.ID.String(),
	})
	assert.ErrorIs(t, err, utils.ErrValidation)

	// A wrong guess does not burn the real code.
	ok, err := f.verify("alice@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpDeliveryFailureKeepsCode(t *testing.T) {
	f := newOtpFixture(t, nil)
	f.mailer.err = errors.New("smtp: 421 service not available")

	err := f.request("alice@example.com")
	assert.ErrorIs(t, err, utils.ErrDeliveryFailed)
	assert.EqualValues(t, 1, f.codeRows(t))
}

func TestOtpConcurrentVerifySucceedsOnce(t *testing.T) {
	stores := map[string]func(db *gorm.DB) repositories.OneTimeCodeRepository{
		"database": repositories.NewOneTimeCodeRepository,
		"memory": func(*gorm.DB) repositories.OneTimeCodeRepository {
			return mem.NewOtpCodes()
		},
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			f := newOtpFixture(t, store)
			require.NoError(t, f.request("alice@example.com"))
			code := f.mailer.lastCode(t)

			var (
				wg        sync.WaitGroup
				successes atomic.Int32
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if ok, err := f.verify("alice@example.com", code); err == nil && ok {
						successes.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.EqualValues(t, 1, successes.Load())
		})
	}
}

func TestOtpSweepExpired(t *testing.T) {
	f := newOtpFixture(t, nil)

	require.NoError(t, f.request("alice@example.com"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.request("carol@example.com"))

	f.clock.Advance(testOtpTTL - 30*time.Second)

	removed, err := f.svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.EqualValues(t, 1, f.codeRows(t))
}
