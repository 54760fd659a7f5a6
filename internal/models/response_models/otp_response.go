package response_models

type VerifyOtpResponse struct {
	Verified         bool   `json:"verified"`
	IsActualAttendee bool   `json:"isActualAttendee"`
	Email            string `json:"email,omitempty"`
	Token            string `json:"token,omitempty"`
}
