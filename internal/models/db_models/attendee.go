package db_models

import "github.com/google/uuid"

// Attendee is a roster entry owned by a Session. Email is stored normalized and is
// unique within its session.
type Attendee struct {
	BaseModel
	SessionID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendee_session_email,priority:1" json:"sessionId"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null;uniqueIndex:idx_attendee_session_email,priority:2" json:"email"`
	IsRegistered bool      `gorm:"not null" json:"isRegistered"`
	IsActual     bool      `gorm:"not null" json:"isActual"`
	PhotoID      *string   `json:"photoId,omitempty"`
	Position     int       `gorm:"not null" json:"position"`
}
