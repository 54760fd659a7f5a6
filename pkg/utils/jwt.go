package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleAttendee = "attendee"
)

type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

// JWTIssuer signs admin and submission tokens with a shared HS256 secret.
type JWTIssuer struct {
	secret        []byte
	adminTTL      time.Duration
	submissionTTL time.Duration
	now           func() time.Time
}

func NewJWTIssuer(secret string, adminTTL, submissionTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:        []byte(secret),
		adminTTL:      adminTTL,
		submissionTTL: submissionTTL,
		now:           time.Now,
	}
}

func (j *JWTIssuer) AdminTTL() time.Duration { return j.adminTTL }

func (j *JWTIssuer) CreateAdminToken() (string, error) {
	return j.sign(&Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: RoleAdmin,
		},
	}, j.adminTTL)
}

// CreateSubmissionToken proves a verified (session, email) pair to the feedback endpoints.
func (j *JWTIssuer) CreateSubmissionToken(sessionID, email string) (string, error) {
	return j.sign(&Claims{
		Role:      RoleAttendee,
		SessionID: sessionID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: email,
		},
	}, j.submissionTTL)
}

func (j *JWTIssuer) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := j.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWTIssuer) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
