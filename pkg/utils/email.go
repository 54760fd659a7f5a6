package utils

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lowercases an address. Roster membership, OTP keys and
// feedback uniqueness all compare normalized addresses.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmailAddress reports whether email is a bare, parseable address.
func ValidateEmailAddress(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("Email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationError("Invalid email format")
	}

	if _, err := extractDomain(email); err != nil {
		return NewValidationError("Invalid email format")
	}

	return nil
}

func extractDomain(email string) (string, error) {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", NewValidationError("invalid email format")
	}
	return strings.ToLower(parts[1]), nil
}
