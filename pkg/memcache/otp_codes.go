package mem

import (
	"context"
	"sync"
	"time"

	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
)

type codeKey struct {
	email     string
	sessionID uuid.UUID
}

type entry struct {
	code      string
	expiresAt time.Time
}

// OtpCodes is an in-process code store for single-instance deployments and tests.
type OtpCodes struct {
	mu   sync.Mutex
	data map[codeKey]entry
}

func NewOtpCodes() *OtpCodes {
	return &OtpCodes{
		data: make(map[codeKey]entry),
	}
}

func (s *OtpCodes) Upsert(_ context.Context, code *db_models.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[codeKey{email: code.Email, sessionID: code.SessionID}] = entry{
		code:      code.Code,
		expiresAt: code.ExpiresAt,
	}
	return nil
}

// Consume removes the code when it matches, single-use. Expired entries are
// dropped on sight.
func (s *OtpCodes) Consume(_ context.Context, email string, sessionID uuid.UUID, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := codeKey{email: email, sessionID: sessionID}
	e, ok := s.data[k]
	if !ok {
		return false, nil
	}
	if !now.Before(e.expiresAt) {
		delete(s.data, k) // cleanup expired
		return false, nil
	}
	if e.code != code {
		return false, nil
	}
	delete(s.data, k)
	return true, nil
}

func (s *OtpCodes) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, e := range s.data {
		if !now.Before(e.expiresAt) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func (s *OtpCodes) DeleteBySession(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if k.sessionID == sessionID {
			delete(s.data, k)
		}
	}
	return nil
}

// Len reports the number of stored codes, expired or not.
func (s *OtpCodes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
