package services

import (
	"context"
	"time"

	"feedbackportal/internal/models/request_models"
	"feedbackportal/pkg/utils"
	"go.uber.org/zap"
)

type AdminServiceInterface interface {
	Login(ctx context.Context, request request_models.AdminLoginRequest) (string, error)
	TokenTTL() time.Duration
}

type AdminService struct {
	passwordHash string
	tokens       *utils.JWTIssuer
	logger       *zap.Logger
}

// NewAdminService uses passwordHash when set, otherwise hashes plainPassword once.
func NewAdminService(passwordHash, plainPassword string, tokens *utils.JWTIssuer, logger *zap.Logger) (AdminServiceInterface, error) {
	if passwordHash == "" {
		hashed, err := utils.HashPassword(plainPassword)
		if err != nil {
			return nil, err
		}
		passwordHash = hashed
	}
	return &AdminService{
		passwordHash: passwordHash,
		tokens:       tokens,
		logger:       logger.Named("admin"),
	}, nil
}

func (a *AdminService) Login(ctx context.Context, request request_models.AdminLoginRequest) (string, error) {
	startTime := time.Now()

	if request.Password == "" {
		return "", utils.NewValidationError("Password is required")
	}

	if err := utils.ComparePasswords(a.passwordHash, request.Password); err != nil {
		a.logger.Warn("admin login rejected")
		return "", utils.ErrInvalidCredentials
	}

	token, err := a.tokens.CreateAdminToken()
	if err != nil {
		return "", err
	}

	a.logger.Debug("admin login", zap.Duration("took", time.Since(startTime)))
	return token, nil
}

func (a *AdminService) TokenTTL() time.Duration {
	return a.tokens.AdminTTL()
}
