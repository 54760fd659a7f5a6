package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind string
	}{
		{NewValidationError("Rating must be between 1 and 5"), http.StatusBadRequest, KindValidation},
		{ErrSessionNotFound, http.StatusNotFound, KindNotFound},
		{fmt.Errorf("lookup: %w", ErrFeedbackNotFound), http.StatusNotFound, KindNotFound},
		{ErrNotRegistered, http.StatusBadRequest, KindNotRegistered},
		{ErrDuplicateSubmission, http.StatusBadRequest, KindDuplicateSubmission},
		{ErrInvalidOrExpired, http.StatusBadRequest, KindInvalidOrExpired},
		{ErrInvalidCredentials, http.StatusUnauthorized, KindUnauthorized},
		{ErrForbidden, http.StatusForbidden, KindForbidden},
		{ErrStorageUnavailable, http.StatusServiceUnavailable, KindStorageUnavailable},
		{fmt.Errorf("%w: dial tcp", ErrDeliveryFailed), http.StatusInternalServerError, KindDeliveryError},
		{fmt.Errorf("%w: conn reset", ErrDatabaseError), http.StatusInternalServerError, KindUnexpected},
		{errors.New("boom"), http.StatusInternalServerError, KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, kind, message := ClassifyError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.kind, kind)
			assert.NotEmpty(t, message)
		})
	}

	_, _, message := ClassifyError(NewValidationError("Rating must be between 1 and 5"))
	assert.Equal(t, "Rating must be between 1 and 5", message)
}

func TestJWTIssuer(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour, 30*time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	token, err := issuer.CreateSubmissionToken("session-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleAttendee, claims.Role)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, now.Add(30*time.Minute), claims.ExpiresAt.Time)

	now = now.Add(31 * time.Minute)
	_, err = issuer.ValidateToken(token)
	assert.Error(t, err)

	admin, err := issuer.CreateAdminToken()
	require.NoError(t, err)
	claims, err = issuer.ValidateToken(admin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = NewJWTIssuer("other", time.Hour, time.Hour).ValidateToken(admin)
	assert.Error(t, err)
}

func TestValidateEmailAddress(t *testing.T) {
	valid := []string{"alice@example.com", " bob@sub.example.org "}
	invalid := []string{"", "alice", "alice@", "@example.com", "Alice <alice@example.com>", "a@b@c"}

	for _, email := range valid {
		assert.NoError(t, ValidateEmailAddress(email), email)
	}
	for _, email := range invalid {
		err := ValidateEmailAddress(email)
		assert.ErrorIs(t, err, ErrValidation, email)
	}

	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}

func TestParseSessionDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-03-01T14:30", time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)},
		{"2026-03-01 14:30", time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)},
		{"2026-03-01T14:30:00+07:00", time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseSessionDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), tt.in)
		assert.Equal(t, time.UTC, got.Location())
	}

	for _, bad := range []string{"", "  ", "03/01/2026", "tomorrow"} {
		_, err := ParseSessionDate(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestGenerateOtpCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateOtpCode(6)
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)

	_, err := GenerateOtpCode(0)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.NoError(t, ComparePasswords(hash, "s3cret"))
	assert.Error(t, ComparePasswords(hash, "wrong"))
}
