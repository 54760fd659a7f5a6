package response_models

import (
	"time"

	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
)

type SessionSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	AttendeeCount int       `json:"attendeeCount"`
	ActualCount   int       `json:"actualCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RosterChangeResult struct {
	Added   []db_models.Attendee `json:"added"`
	Skipped []string             `json:"skipped"`
}

type ImportResult struct {
	RosterChangeResult
	ParsedRows int `json:"parsedRows"`
}

type AttendanceResponse struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsRegistered bool   `json:"isRegistered"`
	IsActual     bool   `json:"isActual"`
}

type NotifyResult struct {
	Notified int      `json:"notified"`
	Failed   []string `json:"failed"`
}

type PhotoUploadResponse struct {
	PhotoID  string             `json:"photoId"`
	Attendee db_models.Attendee `json:"attendee"`
}
