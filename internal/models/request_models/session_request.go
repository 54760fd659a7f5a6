package request_models

import "feedbackportal/internal/models/db_models"

type AttendeeInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	IsRegistered *bool  `json:"isRegistered"`
	IsActual     *bool  `json:"isActual"`
}

type CreateSessionRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Date        string                `json:"date" binding:"required"`
	Questions   db_models.QuestionSet `json:"questions"`
	Attendees   []AttendeeInput       `json:"attendees"`
}

// UpdateSessionRequest leaves nil fields untouched. The roster has its own endpoints.
type UpdateSessionRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Date        *string                `json:"date"`
	Questions   *db_models.QuestionSet `json:"questions"`
}

type AddAttendeesRequest struct {
	Attendees []AttendeeInput `json:"attendees" binding:"required"`
}

type UpdateAttendeeStatusRequest struct {
	IsActual *bool `json:"isActual"`
}

// UploadPhotoRequest carries a base64 data URL such as "data:image/jpeg;base64,...".
type UploadPhotoRequest struct {
	Image string `json:"image"`
}
