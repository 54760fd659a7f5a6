package request_models

import "strings"

// RequestOtpRequest accepts session_id as an alias of sessionId for older clients.
type RequestOtpRequest struct {
	Email           string `json:"email"`
	SessionID       string `json:"sessionId"`
	LegacySessionID string `json:"session_id"`
}

func (r RequestOtpRequest) ResolvedSessionID() string {
	return resolveSessionID(r.SessionID, r.LegacySessionID)
}

type VerifyOtpRequest struct {
	Email           string `json:"email"`
	SessionID       string `json:"sessionId"`
	LegacySessionID string `json:"session_id"`
	Otp             string `json:"otp"`
}

func (r VerifyOtpRequest) ResolvedSessionID() string {
	return resolveSessionID(r.SessionID, r.LegacySessionID)
}

func resolveSessionID(primary, legacy string) string {
	if id := strings.TrimSpace(primary); id != "" {
		return id
	}
	return strings.TrimSpace(legacy)
}
