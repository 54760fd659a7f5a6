package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FeedbackStatus string

const (
	FeedbackStatusNew        FeedbackStatus = "new"
	FeedbackStatusPending    FeedbackStatus = "pending"
	FeedbackStatusInProgress FeedbackStatus = "in-progress"
	FeedbackStatusResolved   FeedbackStatus = "resolved"
)

func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackStatusNew, FeedbackStatusPending, FeedbackStatusInProgress, FeedbackStatusResolved:
		return true
	}
	return false
}

const (
	CategoryMissedSession = "Missed Session"
	SourceQuiz            = "web-quiz"
	SourceMissedSession   = "web-missed-session"

	// MissedSessionRating marks feedback from attendees who did not attend.
	MissedSessionRating = 0
)

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AnswerSet struct {
	Initial  []Answer `json:"initial"`
	Positive []Answer `json:"positive"`
	Negative []Answer `json:"negative"`
}

// Normalize replaces nil sections with empty lists.
func (a AnswerSet) Normalize() AnswerSet {
	if a.Initial == nil {
		a.Initial = []Answer{}
	}
	if a.Positive == nil {
		a.Positive = []Answer{}
	}
	if a.Negative == nil {
		a.Negative = []Answer{}
	}
	return a
}

// Feedback is unique per (session, email). SessionID is a plain reference, not a
// foreign key.
type Feedback struct {
	BaseModel
	SessionID   uuid.UUID                     `gorm:"type:uuid;not null;index;uniqueIndex:idx_feedback_session_email,priority:1" json:"sessionId"`
	Email       string                        `gorm:"not null;index;uniqueIndex:idx_feedback_session_email,priority:2" json:"email"`
	Rating      *int                          `gorm:"index" json:"rating,omitempty"`
	Answers     datatypes.JSONType[AnswerSet] `json:"answers"`
	Message     string                        `gorm:"type:text" json:"message,omitempty"`
	Category    string                        `gorm:"index" json:"category,omitempty"`
	Source      string                        `json:"source,omitempty"`
	Status      FeedbackStatus                `gorm:"index" json:"status,omitempty"`
	Tags        datatypes.JSONSlice[string]   `json:"tags"`
	Response    string                        `gorm:"type:text" json:"response,omitempty"`
	RespondedAt *time.Time                    `json:"respondedAt,omitempty"`
}
