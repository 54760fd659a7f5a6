package utils

import "errors"

var (
	ErrValidation            = errors.New("validation error")
	ErrSessionNotFound       = errors.New("session not found")
	ErrAttendeeNotFound      = errors.New("attendee not found")
	ErrFeedbackNotFound      = errors.New("feedback not found")
	ErrPhotoNotFound         = errors.New("photo not found")
	ErrNotRegistered         = errors.New("email is not registered for this session")
	ErrDuplicateSubmission   = errors.New("feedback has already been submitted for this session")
	ErrDuplicateAttendee     = errors.New("attendee email already exists in this session")
	ErrInvalidOrExpired      = errors.New("invalid OTP or OTP has expired")
	ErrDeliveryFailed        = errors.New("email delivery failed")
	ErrNoRegisteredAttendees = errors.New("no registered attendees to notify")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidPage           = errors.New("invalid page parameter")
	ErrInvalidPageSize       = errors.New("invalid page size parameter")
	ErrDatabaseError         = errors.New("database error")
)

// ValidationError carries a caller-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}
