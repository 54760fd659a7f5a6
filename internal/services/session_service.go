package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"feedbackportal/internal/metrics"
	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/models/request_models"
	"feedbackportal/internal/models/response_models"
	"feedbackportal/internal/repositories"
	"feedbackportal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type SessionServiceInterface interface {
	CreateSession(ctx context.Context, request request_models.CreateSessionRequest) (*db_models.Session, error)
	ListSessions(ctx context.Context) ([]response_models.SessionSummary, error)
	GetSession(ctx context.Context, id string) (*db_models.Session, error)
	GetQuestions(ctx context.Context, id string) (*db_models.QuestionSet, error)
	UpdateSession(ctx context.Context, id string, request request_models.UpdateSessionRequest) (*db_models.Session, error)
	DeleteSession(ctx context.Context, id string) error

	AddAttendees(ctx context.Context, id string, inputs []request_models.AttendeeInput) (*response_models.RosterChangeResult, error)
	ImportAttendees(ctx context.Context, id, filename string, data []byte) (*response_models.ImportResult, error)
	RemoveAttendee(ctx context.Context, id, attendeeID string) error
	UpdateAttendeeStatus(ctx context.Context, id, attendeeID string, request request_models.UpdateAttendeeStatusRequest) (*db_models.Attendee, error)
	GetAttendance(ctx context.Context, id, email string) (*response_models.AttendanceResponse, error)
	NotifyAttendees(ctx context.Context, id string) (*response_models.NotifyResult, error)
}

// NotifyConfig controls the feedback-request broadcast.
type NotifyConfig struct {
	FeedbackURL   string
	Concurrency   int
	RatePerSecond int
}

type SessionService struct {
	sessionRepo repositories.SessionRepository
	codeRepo    repositories.OneTimeCodeRepository
	mail        IMailService
	metrics     *metrics.Metrics
	logger      *zap.Logger
	notify      NotifyConfig
	limiter     ratelimit.Limiter
}

func NewSessionService(
	sessionRepo repositories.SessionRepository,
	codeRepo repositories.OneTimeCodeRepository,
	mail IMailService,
	m *metrics.Metrics,
	logger *zap.Logger,
	notify NotifyConfig,
) SessionServiceInterface {
	if notify.Concurrency <= 0 {
		notify.Concurrency = 1
	}
	limiter := ratelimit.NewUnlimited()
	if notify.RatePerSecond > 0 {
		limiter = ratelimit.New(notify.RatePerSecond)
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		codeRepo:    codeRepo,
		mail:        mail,
		metrics:     m,
		logger:      logger.Named("sessions"),
		notify:      notify,
		limiter:     limiter,
	}
}

func (s *SessionService) CreateSession(ctx context.Context, request request_models.CreateSessionRequest) (*db_models.Session, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, utils.NewValidationError("Session name is required")
	}
	date, err := utils.ParseSessionDate(request.Date)
	if err != nil {
		return nil, err
	}

	attendees, _, err := buildAttendees(request.Attendees, nil, 0)
	if err != nil {
		return nil, err
	}

	session := &db_models.Session{
		Name:        name,
		Description: strings.TrimSpace(request.Description),
		Date:        date,
		Questions:   datatypes.NewJSONType(request.Questions.Clean()),
		Attendees:   attendees,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID.String()),
		zap.Int("attendees", len(attendees)))
	return session, nil
}

func (s *SessionService) ListSessions(ctx context.Context) ([]response_models.SessionSummary, error) {
	rows, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	summaries := make([]response_models.SessionSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, response_models.SessionSummary{
			ID:            row.ID,
			Name:          row.Name,
			Description:   row.Description,
			Date:          row.Date,
			AttendeeCount: row.AttendeeCount,
			ActualCount:   row.ActualCount,
			CreatedAt:     row.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*db_models.Session, error) {
	return s.loadSession(ctx, id)
}

func (s *SessionService) GetQuestions(ctx context.Context, id string) (*db_models.QuestionSet, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	questions := session.Questions.Data().Clean()
	return &questions, nil
}

func (s *SessionService) UpdateSession(ctx context.Context, id string, request request_models.UpdateSessionRequest) (*db_models.Session, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		if name == "" {
			return nil, utils.NewValidationError("Session name is required")
		}
		session.Name = name
	}
	if request.Description != nil {
		session.Description = strings.TrimSpace(*request.Description)
	}
	if request.Date != nil {
		date, err := utils.ParseSessionDate(*request.Date)
		if err != nil {
			return nil, err
		}
		session.Date = date
	}
	if request.Questions != nil {
		session.Questions = datatypes.NewJSONType(request.Questions.Clean())
	}

	session.UpdatedAt = time.Now().UTC()
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return session, nil
}

// DeleteSession removes the session together with its roster, feedback and codes.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return utils.ErrSessionNotFound
	}

	deleted, err := s.sessionRepo.DeleteCascade(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !deleted {
		return utils.ErrSessionNotFound
	}

	// Codes held outside the database are not covered by the cascade.
	if err := s.codeRepo.DeleteBySession(ctx, sessionID); err != nil {
		s.logger.Warn("failed to purge codes of deleted session",
			zap.String("session_id", id),
			zap.Error(err))
	}

	s.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

// AddAttendees appends new roster entries. Emails already on the roster, or
// repeated within the request, are skipped and reported. A request consisting
// only of duplicates is rejected.
func (s *SessionService) AddAttendees(ctx context.Context, id string, inputs []request_models.AttendeeInput) (*response_models.RosterChangeResult, error) {
	if len(inputs) == 0 {
		return nil, utils.NewValidationError("At least one attendee is required")
	}

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	position, err := s.sessionRepo.NextPosition(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	added, skipped, err := buildAttendees(inputs, session.Attendees, position)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return nil, utils.ErrDuplicateAttendee
	}

	for i := range added {
		added[i].SessionID = session.ID
	}
	if err := s.sessionRepo.AddAttendees(ctx, added); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	return &response_models.RosterChangeResult{Added: added, Skipped: skipped}, nil
}

func (s *SessionService) ImportAttendees(ctx context.Context, id, filename string, data []byte) (*response_models.ImportResult, error) {
	inputs, err := ParseRoster(filename, data)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, utils.NewValidationError("No attendees with both name and email were found")
	}

	result, err := s.AddAttendees(ctx, id, inputs)
	if err != nil {
		return nil, err
	}
	return &response_models.ImportResult{RosterChangeResult: *result, ParsedRows: len(inputs)}, nil
}

func (s *SessionService) RemoveAttendee(ctx context.Context, id, attendeeID string) error {
	sessionID, attID, err := parseAttendeeRef(id, attendeeID)
	if err != nil {
		return err
	}
	if _, err := s.loadSession(ctx, id); err != nil {
		return err
	}

	removed, err := s.sessionRepo.RemoveAttendee(ctx, sessionID, attID)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !removed {
		return utils.ErrAttendeeNotFound
	}
	return nil
}

func (s *SessionService) UpdateAttendeeStatus(ctx context.Context, id, attendeeID string, request request_models.UpdateAttendeeStatusRequest) (*db_models.Attendee, error) {
	if request.IsActual == nil {
		return nil, utils.NewValidationError("isActual must be a boolean")
	}

	attendee, err := s.loadAttendee(ctx, id, attendeeID)
	if err != nil {
		return nil, err
	}

	attendee.IsActual = *request.IsActual
	attendee.UpdatedAt = time.Now().UTC()
	if err := s.sessionRepo.SaveAttendee(ctx, attendee); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return attendee, nil
}

func (s *SessionService) GetAttendance(ctx context.Context, id, email string) (*response_models.AttendanceResponse, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	attendee := session.FindAttendee(email)
	if attendee == nil {
		return nil, utils.ErrAttendeeNotFound
	}
	return &response_models.AttendanceResponse{
		Email:        attendee.Email,
		Name:         attendee.Name,
		IsRegistered: attendee.IsRegistered,
		IsActual:     attendee.IsActual,
	}, nil
}

// NotifyAttendees emails every registered attendee a feedback request. Sends run
// concurrently under a shared rate limit; individual failures are reported, not
// retried.
func (s *SessionService) NotifyAttendees(ctx context.Context, id string) (*response_models.NotifyResult, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	var recipients []db_models.Attendee
	for _, a := range session.Attendees {
		if a.IsRegistered {
			recipients = append(recipients, a)
		}
	}
	if len(recipients) == 0 {
		return nil, utils.ErrNoRegisteredAttendees
	}

	link := feedbackLink(s.notify.FeedbackURL, session.ID)

	var (
		mu     sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.notify.Concurrency)

	for _, attendee := range recipients {
		g.Go(func() error {
			s.limiter.Take()

			start := time.Now()
			err := s.mail.SendFeedbackInvite(gctx, attendee.Email, attendee.Name, session.Name, link)
			s.metrics.ObserveMail("invite", start, err)
			if err != nil {
				s.logger.Warn("feedback invite failed",
					zap.String("session_id", session.ID.String()),
					zap.String("attendee_id", attendee.ID.String()),
					zap.Error(err))
				mu.Lock()
				failed = append(failed, attendee.Email)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed == nil {
		failed = []string{}
	}
	return &response_models.NotifyResult{
		Notified: len(recipients) - len(failed),
		Failed:   failed,
	}, nil
}

func (s *SessionService) loadSession(ctx context.Context, id string) (*db_models.Session, error) {
	sessionID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, utils.ErrSessionNotFound
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if session == nil {
		return nil, utils.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) loadAttendee(ctx context.Context, id, attendeeID string) (*db_models.Attendee, error) {
	sessionID, attID, err := parseAttendeeRef(id, attendeeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadSession(ctx, id); err != nil {
		return nil, err
	}

	attendee, err := s.sessionRepo.FindAttendee(ctx, sessionID, attID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if attendee == nil {
		return nil, utils.ErrAttendeeNotFound
	}
	return attendee, nil
}

func parseAttendeeRef(id, attendeeID string) (uuid.UUID, uuid.UUID, error) {
	sessionID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, uuid.Nil, utils.ErrSessionNotFound
	}
	attID, err := uuid.Parse(strings.TrimSpace(attendeeID))
	if err != nil {
		return uuid.Nil, uuid.Nil, utils.ErrAttendeeNotFound
	}
	return sessionID, attID, nil
}

// buildAttendees validates inputs and drops emails present in existing or earlier
// in inputs. Positions continue from start.
func buildAttendees(inputs []request_models.AttendeeInput, existing []db_models.Attendee, start int) ([]db_models.Attendee, []string, error) {
	seen := make(map[string]bool, len(existing)+len(inputs))
	for _, a := range existing {
		seen[utils.NormalizeEmail(a.Email)] = true
	}

	attendees := make([]db_models.Attendee, 0, len(inputs))
	skipped := []string{}
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, nil, utils.NewValidationError(fmt.Sprintf("Attendee %d: name is required", i+1))
		}
		if err := utils.ValidateEmailAddress(in.Email); err != nil {
			return nil, nil, utils.NewValidationError(fmt.Sprintf("Attendee %d: invalid email", i+1))
		}

		email := utils.NormalizeEmail(in.Email)
		if seen[email] {
			skipped = append(skipped, email)
			continue
		}
		seen[email] = true

		isRegistered := true
		if in.IsRegistered != nil {
			isRegistered = *in.IsRegistered
		}
		isActual := false
		if in.IsActual != nil {
			isActual = *in.IsActual
		}

		attendees = append(attendees, db_models.Attendee{
			Name:         name,
			Email:        email,
			IsRegistered: isRegistered,
			IsActual:     isActual,
			Position:     start + len(attendees),
		})
	}
	return attendees, skipped, nil
}

func feedbackLink(base string, sessionID uuid.UUID) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("sessionId", sessionID.String())
	u.RawQuery = q.Encode()
	return u.String()
}
