package db_models

import (
	"time"

	"github.com/google/uuid"
)

// OneTimeCode is the pending OTP for one (email, session) pair. A row is valid only
// while ExpiresAt is in the future; deletion of stale rows is housekeeping.
type OneTimeCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"not null;uniqueIndex:idx_otp_email_session,priority:1"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_otp_email_session,priority:2;index"`
	Code      string    `gorm:"not null;size:6"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (o *OneTimeCode) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
