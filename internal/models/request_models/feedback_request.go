package request_models

import (
	"time"

	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
)

type CreateFeedbackRequest struct {
	SessionID string               `json:"sessionId"`
	Email     string               `json:"email"`
	Rating    *int                 `json:"rating"`
	Answers   *db_models.AnswerSet `json:"answers"`
}

type MissedSessionFeedbackRequest struct {
	SessionID      string `json:"sessionId"`
	Email          string `json:"email"`
	Reason         string `json:"reason"`
	FutureInterest string `json:"futureInterest"`
}

type UpdateFeedbackRequest struct {
	Rating   *int     `json:"rating"`
	Message  *string  `json:"message"`
	Category *string  `json:"category"`
	Status   *string  `json:"status"`
	Tags     []string `json:"tags"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type BulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

type AddResponseRequest struct {
	Message string `json:"message"`
}

// FeedbackFilter narrows the admin feedback listing. Zero values mean "any".
type FeedbackFilter struct {
	Status    string
	Category  string
	Rating    *int
	SessionID *uuid.UUID
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}
