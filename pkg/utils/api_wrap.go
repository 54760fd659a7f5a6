package utils

import (
	"errors"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error kinds reported in APIResponse.Error.
const (
	KindValidation          = "ValidationError"
	KindNotFound            = "NotFound"
	KindNotRegistered       = "NotRegistered"
	KindDuplicateSubmission = "DuplicateSubmission"
	KindInvalidOrExpired    = "InvalidOrExpired"
	KindDeliveryError       = "DeliveryError"
	KindUnauthorized        = "Unauthorized"
	KindForbidden           = "Forbidden"
	KindStorageUnavailable  = "StorageUnavailable"
	KindUnexpected          = "Unexpected"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	RespondWithStatus(c, http.StatusOK, data, message)
}

func RespondCreated(c *gin.Context, data interface{}, message string) {
	RespondWithStatus(c, http.StatusCreated, data, message)
}

func RespondWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	RespondErrorKind(c, code, kindForStatus(code), message, nil)
}

// RespondErrorKind writes an error envelope; data may carry endpoint-specific fields.
func RespondErrorKind(c *gin.Context, code int, kind, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		Error:   kind,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

// ClassifyError maps a service error onto its HTTP status, error kind and public message.
func ClassifyError(err error) (int, string, string) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, KindValidation, vErr.Message
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, KindValidation, "Invalid request"
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, KindNotFound, "Session not found"
	case errors.Is(err, ErrAttendeeNotFound):
		return http.StatusNotFound, KindNotFound, "Attendee not found"
	case errors.Is(err, ErrFeedbackNotFound):
		return http.StatusNotFound, KindNotFound, "Feedback not found"
	case errors.Is(err, ErrPhotoNotFound):
		return http.StatusNotFound, KindNotFound, "Photo not found"
	case errors.Is(err, ErrNotRegistered):
		return http.StatusBadRequest, KindNotRegistered, "This email is not registered for this session."
	case errors.Is(err, ErrDuplicateSubmission):
		return http.StatusBadRequest, KindDuplicateSubmission, "Feedback has already been submitted for this session."
	case errors.Is(err, ErrDuplicateAttendee):
		return http.StatusBadRequest, KindValidation, "Attendee email already exists in this session."
	case errors.Is(err, ErrNoRegisteredAttendees):
		return http.StatusBadRequest, KindValidation, "No registered attendees to notify."
	case errors.Is(err, ErrInvalidOrExpired):
		return http.StatusBadRequest, KindInvalidOrExpired, "Invalid OTP or OTP has expired."
	case errors.Is(err, ErrInvalidPage):
		return http.StatusBadRequest, KindValidation, "Page must be greater than 0"
	case errors.Is(err, ErrInvalidPageSize):
		return http.StatusBadRequest, KindValidation, "Page size must be between 1 and 100"
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, KindUnauthorized, "Invalid credentials"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, KindUnauthorized, "Authorization missing or invalid"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, KindForbidden, "Forbidden: insufficient permissions"
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable, KindStorageUnavailable, "Photo storage is not configured"
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusInternalServerError, KindDeliveryError, "Error sending email"
	default:
		return http.StatusInternalServerError, KindUnexpected, "Internal server error"
	}
}

// HandleServiceError responds with the mapped error; server-side faults are logged
// and reported to Sentry.
func HandleServiceError(c *gin.Context, err error) {
	HandleServiceErrorWithData(c, err, nil)
}

func HandleServiceErrorWithData(c *gin.Context, err error, data interface{}) {
	code, kind, message := ClassifyError(err)

	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("trace_id", c.GetString("trace_id")),
			zap.String("path", c.FullPath()),
			zap.String("kind", kind),
			zap.Error(err))
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}

	RespondErrorKind(c, code, kind, message, data)
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusServiceUnavailable:
		return KindStorageUnavailable
	default:
		return KindUnexpected
	}
}
