package controllers

import (
	"net/http"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/services"
	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
)

type OtpController struct {
	otpService services.OtpServiceInterface
}

func NewOtpController(otpService services.OtpServiceInterface) *OtpController {
	return &OtpController{otpService: otpService}
}

// SendOtp godoc
// @Summary Request a one-time code
// @Description Emails a 6-digit code to an attendee registered for the session. Re-requesting replaces the previous code.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body request_models.RequestOtpRequest true "Email and session"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /api/otp/send-otp [post]
func (o *OtpController) SendOtp(c *gin.Context) {
	var req request_models.RequestOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := o.otpService.RequestCode(c.Request.Context(), req); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "OTP sent successfully")
}

// VerifyOtp godoc
// @Summary Verify a one-time code
// @Description Consumes the code and returns the attendance flag with a short-lived submission token.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body request_models.VerifyOtpRequest true "Email, session and code"
// @Success 200 {object} utils.APIResponse{data=response_models.VerifyOtpResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/otp/verify-otp [post]
func (o *OtpController) VerifyOtp(c *gin.Context) {
	notVerified := gin.H{"verified": false}

	var req request_models.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorKind(c, http.StatusBadRequest, utils.KindValidation, "Invalid request payload", notVerified)
		return
	}

	resp, err := o.otpService.VerifyCode(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceErrorWithData(c, err, notVerified)
		return
	}

	utils.RespondSuccess(c, resp, "OTP verified successfully")
}
