package controllers

import (
	"io"
	"net/http"
	"strings"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/services"
	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
)

const maxRosterUploadBytes = 5 << 20

type SessionController struct {
	sessionService services.SessionServiceInterface
	photoService   services.PhotoServiceInterface
}

func NewSessionController(sessionService services.SessionServiceInterface, photoService services.PhotoServiceInterface) *SessionController {
	return &SessionController{sessionService: sessionService, photoService: photoService}
}

// CreateSession godoc
// @Summary Create a session
// @Description Creates a session with its questionnaire and an optional initial roster
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.CreateSessionRequest true "Session payload"
// @Success 201 {object} utils.APIResponse{data=db_models.Session}
// @Failure 400 {object} utils.APIResponse
// @Router /api/sessions [post]
func (s *SessionController) CreateSession(c *gin.Context) {
	var req request_models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Name and date are required")
		return
	}

	session, err := s.sessionService.CreateSession(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, session, "Session created successfully")
}

// ListSessions godoc
// @Summary List sessions
// @Description Newest first, with attendee counts
// @Tags Sessions
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]response_models.SessionSummary}
// @Router /api/sessions [get]
func (s *SessionController) ListSessions(c *gin.Context) {
	sessions, err := s.sessionService.ListSessions(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, sessions, "Sessions fetched successfully")
}

// GetSession godoc
// @Summary Get a session with its roster
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=db_models.Session}
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id} [get]
func (s *SessionController) GetSession(c *gin.Context) {
	session, err := s.sessionService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, session, "Session fetched successfully")
}

// GetQuestions godoc
// @Summary Get the questionnaire of a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=db_models.QuestionSet}
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/questions [get]
func (s *SessionController) GetQuestions(c *gin.Context) {
	questions, err := s.sessionService.GetQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, questions, "Questions fetched successfully")
}

// UpdateSession godoc
// @Summary Update a session
// @Description Updates name, description, date and questions. The roster is left untouched.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body request_models.UpdateSessionRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=db_models.Session}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id} [put]
func (s *SessionController) UpdateSession(c *gin.Context) {
	var req request_models.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	session, err := s.sessionService.UpdateSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, session, "Session updated successfully")
}

// DeleteSession godoc
// @Summary Delete a session
// @Description Also deletes its attendees, feedback and pending codes
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id} [delete]
func (s *SessionController) DeleteSession(c *gin.Context) {
	if err := s.sessionService.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Session deleted successfully")
}

// AddAttendees godoc
// @Summary Add attendees
// @Description Emails already on the roster are skipped and reported
// @Tags Attendees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body request_models.AddAttendeesRequest true "Attendees"
// @Success 201 {object} utils.APIResponse{data=response_models.RosterChangeResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendees [post]
func (s *SessionController) AddAttendees(c *gin.Context) {
	var req request_models.AddAttendeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Attendees are required")
		return
	}

	result, err := s.sessionService.AddAttendees(c.Request.Context(), c.Param("id"), req.Attendees)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondCreated(c, result, "Attendees added successfully")
}

// ImportAttendees godoc
// @Summary Import attendees from a spreadsheet
// @Description Accepts a .csv or .xlsx file with name and email columns
// @Tags Attendees
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param file formData file true "Roster file"
// @Success 201 {object} utils.APIResponse{data=response_models.ImportResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendees/import [post]
func (s *SessionController) ImportAttendees(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "A roster file is required")
		return
	}
	if header.Size > maxRosterUploadBytes {
		utils.RespondError(c, http.StatusBadRequest, "Roster file is too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Could not read the uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxRosterUploadBytes))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Could not read the uploaded file")
		return
	}

	result, err := s.sessionService.ImportAttendees(c.Request.Context(), c.Param("id"), header.Filename, data)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondCreated(c, result, "Attendees imported successfully")
}

// RemoveAttendee godoc
// @Summary Remove an attendee
// @Tags Attendees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param attendeeId path string true "Attendee ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendees/{attendeeId} [delete]
func (s *SessionController) RemoveAttendee(c *gin.Context) {
	if err := s.sessionService.RemoveAttendee(c.Request.Context(), c.Param("id"), c.Param("attendeeId")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Attendee removed successfully")
}

// UpdateAttendeeStatus godoc
// @Summary Set whether an attendee actually attended
// @Tags Attendees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param attendeeId path string true "Attendee ID"
// @Param request body request_models.UpdateAttendeeStatusRequest true "Attendance flag"
// @Success 200 {object} utils.APIResponse{data=db_models.Attendee}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendees/{attendeeId} [patch]
func (s *SessionController) UpdateAttendeeStatus(c *gin.Context) {
	var req request_models.UpdateAttendeeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "isActual must be a boolean")
		return
	}

	attendee, err := s.sessionService.UpdateAttendeeStatus(c.Request.Context(), c.Param("id"), c.Param("attendeeId"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, attendee, "Attendee updated successfully")
}

// GetAttendance godoc
// @Summary Look up an attendee's attendance by email
// @Tags Attendees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param email path string true "Attendee email"
// @Success 200 {object} utils.APIResponse{data=response_models.AttendanceResponse}
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendance/{email} [get]
func (s *SessionController) GetAttendance(c *gin.Context) {
	attendance, err := s.sessionService.GetAttendance(c.Request.Context(), c.Param("id"), c.Param("email"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, attendance, "Attendance fetched successfully")
}

// NotifyAttendees godoc
// @Summary Email registered attendees a feedback request
// @Tags Attendees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} utils.APIResponse{data=response_models.NotifyResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/notify-attendees [post]
func (s *SessionController) NotifyAttendees(c *gin.Context) {
	result, err := s.sessionService.NotifyAttendees(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Notification emails sent")
}

// UploadPhoto godoc
// @Summary Upload an attendee photo
// @Description Accepts a multipart "photo" file or a JSON body with a base64 data URL. Marks the attendee as present.
// @Tags Attendees
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param attendeeId path string true "Attendee ID"
// @Param photo formData file false "Photo file"
// @Success 200 {object} utils.APIResponse{data=response_models.PhotoUploadResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendees/{attendeeId}/photo [post]
func (s *SessionController) UploadPhoto(c *gin.Context) {
	var data []byte

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("photo")
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Image data is required")
			return
		}
		file, err := header.Open()
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Could not read the uploaded image")
			return
		}
		defer file.Close()

		data, err = io.ReadAll(io.LimitReader(file, services.MaxPhotoBytes+1))
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Could not read the uploaded image")
			return
		}
	} else {
		var req request_models.UploadPhotoRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
			utils.RespondError(c, http.StatusBadRequest, "Image data is required")
			return
		}
		decoded, err := services.DecodeDataURL(req.Image)
		if err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		data = decoded
	}

	result, err := s.photoService.UploadPhoto(c.Request.Context(), c.Param("id"), c.Param("attendeeId"), data)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, "Photo uploaded successfully")
}

// GetPhoto godoc
// @Summary Download an attendee photo
// @Tags Attendees
// @Produce image/jpeg
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param attendeeId path string true "Attendee ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.APIResponse
// @Router /api/sessions/{id}/attendees/{attendeeId}/photo [get]
func (s *SessionController) GetPhoto(c *gin.Context) {
	photo, err := s.photoService.GetPhoto(c.Request.Context(), c.Param("id"), c.Param("attendeeId"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, photo.ContentType, photo.Data)
}
