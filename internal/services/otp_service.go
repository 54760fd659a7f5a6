package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feedbackportal/internal/metrics"
	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/models/response_models"
	"feedbackportal/internal/repositories"
	"feedbackportal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const otpLength = 6

type OtpServiceInterface interface {
	RequestCode(ctx context.Context, request request_models.RequestOtpRequest) error
	VerifyCode(ctx context.Context, request request_models.VerifyOtpRequest) (*response_models.VerifyOtpResponse, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type OtpService struct {
	sessionRepo  repositories.SessionRepository
	feedbackRepo repositories.FeedbackRepositoryInterface
	codeRepo     repositories.OneTimeCodeRepository
	mail         IMailService
	tokens       *utils.JWTIssuer
	metrics      *metrics.Metrics
	logger       *zap.Logger
	ttl          time.Duration
	now          func() time.Time
}

func NewOtpService(
	sessionRepo repositories.SessionRepository,
	feedbackRepo repositories.FeedbackRepositoryInterface,
	codeRepo repositories.OneTimeCodeRepository,
	mail IMailService,
	tokens *utils.JWTIssuer,
	m *metrics.Metrics,
	logger *zap.Logger,
	ttl time.Duration,
) OtpServiceInterface {
	return &OtpService{
		sessionRepo:  sessionRepo,
		feedbackRepo: feedbackRepo,
		codeRepo:     codeRepo,
		mail:         mail,
		tokens:       tokens,
		metrics:      m,
		logger:       logger.Named("otp"),
		ttl:          ttl,
		now:          time.Now,
	}
}

// RequestCode issues a fresh code for a rostered attendee and mails it. Any
// earlier pending code for the same (email, session) is replaced.
func (s *OtpService) RequestCode(ctx context.Context, request request_models.RequestOtpRequest) error {
	err := s.requestCode(ctx, request)
	s.metrics.OtpRequests.WithLabelValues(outcome(err)).Inc()
	return err
}

func (s *OtpService) requestCode(ctx context.Context, request request_models.RequestOtpRequest) error {
	rawEmail := strings.TrimSpace(request.Email)
	rawSessionID := request.ResolvedSessionID()
	if rawEmail == "" || rawSessionID == "" {
		return utils.NewValidationError("Email and session ID are required")
	}
	if err := utils.ValidateEmailAddress(rawEmail); err != nil {
		return err
	}
	email := utils.NormalizeEmail(rawEmail)

	sessionID, parseErr := uuid.Parse(rawSessionID)
	if parseErr == nil {
		exists, err := s.feedbackRepo.ExistsBySessionAndEmail(ctx, sessionID, email)
		if err != nil {
			return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		if exists {
			return utils.ErrDuplicateSubmission
		}
	}

	session, err := s.findSession(ctx, rawSessionID)
	if err != nil {
		return err
	}
	if session.FindAttendee(email) == nil {
		return utils.ErrNotRegistered
	}

	code, err := utils.GenerateOtpCode(otpLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	now := s.now().UTC()
	if err := s.codeRepo.Upsert(ctx, &db_models.OneTimeCode{
		Email:     email,
		SessionID: session.ID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	start := time.Now()
	err = s.mail.SendOtpCode(ctx, email, session.Name, code, s.ttl)
	s.metrics.ObserveMail("otp", start, err)
	if err != nil {
		// The stored code stays valid; the attendee may simply request again.
		s.logger.Warn("otp delivery failed",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		return fmt.Errorf("%w: %v", utils.ErrDeliveryFailed, err)
	}

	s.logger.Info("otp issued", zap.String("session_id", session.ID.String()))
	return nil
}

// VerifyCode consumes a matching unexpired code. A code verifies at most once.
func (s *OtpService) VerifyCode(ctx context.Context, request request_models.VerifyOtpRequest) (*response_models.VerifyOtpResponse, error) {
	resp, err := s.verifyCode(ctx, request)
	s.metrics.OtpVerifications.WithLabelValues(outcome(err)).Inc()
	return resp, err
}

func (s *OtpService) verifyCode(ctx context.Context, request request_models.VerifyOtpRequest) (*response_models.VerifyOtpResponse, error) {
	email := utils.NormalizeEmail(request.Email)
	rawSessionID := request.ResolvedSessionID()
	code := strings.TrimSpace(request.Otp)
	if email == "" || rawSessionID == "" || code == "" {
		return nil, utils.NewValidationError("Email, session ID and OTP are required")
	}

	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		// No code can have been issued for an id that does not parse.
		return nil, utils.ErrInvalidOrExpired
	}

	ok, err := s.codeRepo.Consume(ctx, email, sessionID, code, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !ok {
		return nil, utils.ErrInvalidOrExpired
	}

	session, err := s.findSession(ctx, rawSessionID)
	if err != nil {
		return nil, err
	}

	isActual := false
	if attendee := session.FindAttendee(email); attendee != nil {
		isActual = attendee.IsActual
	}

	token, err := s.tokens.CreateSubmissionToken(session.ID.String(), email)
	if err != nil {
		return nil, fmt.Errorf("sign submission token: %w", err)
	}

	return &response_models.VerifyOtpResponse{
		Verified:         true,
		IsActualAttendee: isActual,
		Email:            email,
		Token:            token,
	}, nil
}

func (s *OtpService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.codeRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return n, nil
}

// findSession treats an unparseable id like an unknown one.
func (s *OtpService) findSession(ctx context.Context, rawID string) (*db_models.Session, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, utils.ErrSessionNotFound
	}
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if session == nil {
		return nil, utils.ErrSessionNotFound
	}
	return session, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	_, kind, _ := utils.ClassifyError(err)
	return kind
}
