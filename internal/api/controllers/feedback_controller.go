package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/services"
	"feedbackportal/pkg/middleware"
	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FeedbackController struct {
	feedbackService services.FeedbackServiceInterface
}

func NewFeedbackController(feedbackService services.FeedbackServiceInterface) *FeedbackController {
	return &FeedbackController{feedbackService: feedbackService}
}

// SubmitFeedback godoc
// @Summary Submit session feedback
// @Description Requires the submission token returned by OTP verification; it must match sessionId and email.
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.CreateFeedbackRequest true "Feedback payload"
// @Success 201 {object} utils.APIResponse{data=db_models.Feedback}
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback [post]
func (f *FeedbackController) SubmitFeedback(c *gin.Context) {
	var req request_models.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	feedback, err := f.feedbackService.SubmitFeedback(c.Request.Context(), submitterFrom(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, feedback, "Feedback submitted successfully")
}

// SubmitMissedSession godoc
// @Summary Submit missed-session feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.MissedSessionFeedbackRequest true "Reason and interest"
// @Success 201 {object} utils.APIResponse{data=db_models.Feedback}
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback/missed-session [post]
func (f *FeedbackController) SubmitMissedSession(c *gin.Context) {
	var req request_models.MissedSessionFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	feedback, err := f.feedbackService.SubmitMissedSession(c.Request.Context(), submitterFrom(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, feedback, "Missed session feedback submitted successfully.")
}

// ListFeedback godoc
// @Summary List feedback
// @Description Filtered, paginated, newest first
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10) minimum(1) maximum(100)
// @Param status query string false "new, pending, in-progress or resolved"
// @Param category query string false "Category"
// @Param rating query int false "Exact rating"
// @Param sessionId query string false "Session ID"
// @Param search query string false "Matches email, message or category"
// @Param startDate query string false "Created on or after"
// @Param endDate query string false "Created on or before"
// @Success 200 {object} utils.APIResponse{data=response_models.FeedbackPage}
// @Failure 400 {object} utils.APIResponse
// @Router /api/feedback [get]
func (f *FeedbackController) ListFeedback(c *gin.Context) {
	filter, err := parseFeedbackFilter(c)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	page, err := f.feedbackService.ListFeedback(c.Request.Context(), filter)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, page, "Feedback fetched successfully")
}

// GetStats godoc
// @Summary Feedback statistics
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.APIResponse{data=response_models.FeedbackStats}
// @Router /api/feedback/stats/overview [get]
func (f *FeedbackController) GetStats(c *gin.Context) {
	stats, err := f.feedbackService.GetStats(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, stats, "Feedback stats fetched successfully")
}

// GetFeedback godoc
// @Summary Get feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 200 {object} utils.APIResponse{data=response_models.FeedbackItem}
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback/{id} [get]
func (f *FeedbackController) GetFeedback(c *gin.Context) {
	item, err := f.feedbackService.GetFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, item, "Feedback fetched successfully")
}

// UpdateFeedback godoc
// @Summary Update feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Param request body request_models.UpdateFeedbackRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=db_models.Feedback}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback/{id} [put]
func (f *FeedbackController) UpdateFeedback(c *gin.Context) {
	var req request_models.UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	feedback, err := f.feedbackService.UpdateFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, feedback, "Feedback updated successfully")
}

// UpdateStatus godoc
// @Summary Update feedback status
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Param request body request_models.UpdateStatusRequest true "New status"
// @Success 200 {object} utils.APIResponse{data=db_models.Feedback}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback/{id}/status [patch]
func (f *FeedbackController) UpdateStatus(c *gin.Context) {
	var req request_models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Status is required")
		return
	}

	feedback, err := f.feedbackService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, feedback, "Status updated successfully")
}

// BulkUpdateStatus godoc
// @Summary Update the status of many feedback items
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request_models.BulkStatusRequest true "IDs and status"
// @Success 200 {object} utils.APIResponse{data=response_models.BulkUpdateResult}
// @Failure 400 {object} utils.APIResponse
// @Router /api/feedback/bulk/status [patch]
func (f *FeedbackController) BulkUpdateStatus(c *gin.Context) {
	var req request_models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Please provide feedback IDs")
		return
	}

	result, err := f.feedbackService.BulkUpdateStatus(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, result, strconv.FormatInt(result.ModifiedCount, 10)+" feedback items updated successfully")
}

// AddResponse godoc
// @Summary Respond to feedback
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Param request body request_models.AddResponseRequest true "Response message"
// @Success 200 {object} utils.APIResponse{data=db_models.Feedback}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback/{id}/response [post]
func (f *FeedbackController) AddResponse(c *gin.Context) {
	var req request_models.AddResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Response message is required")
		return
	}

	feedback, err := f.feedbackService.AddResponse(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, feedback, "Response added successfully")
}

// DeleteFeedback godoc
// @Summary Delete feedback
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param id path string true "Feedback ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/feedback/{id} [delete]
func (f *FeedbackController) DeleteFeedback(c *gin.Context) {
	if err := f.feedbackService.DeleteFeedback(c.Request.Context(), c.Param("id")); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Feedback deleted successfully")
}

func submitterFrom(c *gin.Context) services.Submitter {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return services.Submitter{}
	}
	return services.Submitter{SessionID: claims.SessionID, Email: claims.Email}
}

func parseFeedbackFilter(c *gin.Context) (request_models.FeedbackFilter, error) {
	filter := request_models.FeedbackFilter{
		Status:   strings.TrimSpace(c.Query("status")),
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	}

	var err error
	if filter.Page, err = strconv.Atoi(c.DefaultQuery("page", "1")); err != nil {
		return filter, utils.ErrInvalidPage
	}
	if filter.Limit, err = strconv.Atoi(c.DefaultQuery("limit", c.DefaultQuery("pageSize", "10"))); err != nil {
		return filter, utils.ErrInvalidPageSize
	}
	if filter.Page < 1 {
		return filter, utils.ErrInvalidPage
	}
	if filter.Limit < 1 {
		return filter, utils.ErrInvalidPageSize
	}

	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return filter, utils.NewValidationError("Rating must be a number")
		}
		filter.Rating = &rating
	}
	if raw := c.Query("sessionId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, utils.NewValidationError("Invalid session ID")
		}
		filter.SessionID = &id
	}
	if raw := c.Query("startDate"); raw != "" {
		start, err := utils.ParseSessionDate(raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	if raw := c.Query("endDate"); raw != "" {
		end, err := utils.ParseSessionDate(raw)
		if err != nil {
			return filter, err
		}
		if len(strings.TrimSpace(raw)) == len("2006-01-02") {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.EndDate = &end
	}
	return filter, nil
}
