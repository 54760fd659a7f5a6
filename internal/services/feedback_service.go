package services

import (
	"context"
	"errors"
	"fmt"
	"math"
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
	"gorm.io/datatypes"
)

const (
	DefaultFeedbackPageSize = 10
	MaxFeedbackPageSize     = 100
	unknownSessionName      = "N/A"
)

// Submitter is the (session, email) pair proven by a submission token.
type Submitter struct {
	SessionID string
	Email     string
}

type FeedbackServiceInterface interface {
	SubmitFeedback(ctx context.Context, submitter Submitter, request request_models.CreateFeedbackRequest) (*db_models.Feedback, error)
	SubmitMissedSession(ctx context.Context, submitter Submitter, request request_models.MissedSessionFeedbackRequest) (*db_models.Feedback, error)

	ListFeedback(ctx context.Context, filter request_models.FeedbackFilter) (*response_models.FeedbackPage, error)
	GetFeedback(ctx context.Context, id string) (*response_models.FeedbackItem, error)
	UpdateFeedback(ctx context.Context, id string, request request_models.UpdateFeedbackRequest) (*db_models.Feedback, error)
	UpdateStatus(ctx context.Context, id string, status string) (*db_models.Feedback, error)
	BulkUpdateStatus(ctx context.Context, request request_models.BulkStatusRequest) (*response_models.BulkUpdateResult, error)
	AddResponse(ctx context.Context, id string, message string) (*db_models.Feedback, error)
	DeleteFeedback(ctx context.Context, id string) error
	GetStats(ctx context.Context) (*response_models.FeedbackStats, error)
}

type FeedbackService struct {
	feedbackRepo repositories.FeedbackRepositoryInterface
	sessionRepo  repositories.SessionRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

func NewFeedbackService(
	feedbackRepo repositories.FeedbackRepositoryInterface,
	sessionRepo repositories.SessionRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) FeedbackServiceInterface {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		sessionRepo:  sessionRepo,
		metrics:      m,
		logger:       logger.Named("feedback"),
		now:          time.Now,
	}
}

func (s *FeedbackService) SubmitFeedback(ctx context.Context, submitter Submitter, request request_models.CreateFeedbackRequest) (*db_models.Feedback, error) {
	if strings.TrimSpace(request.SessionID) == "" || strings.TrimSpace(request.Email) == "" || request.Rating == nil || request.Answers == nil {
		return nil, utils.NewValidationError("Please provide sessionId, email, rating, and answers")
	}
	if *request.Rating < 1 || *request.Rating > 5 {
		return nil, utils.NewValidationError("Rating must be between 1 and 5")
	}

	session, email, err := s.admit(ctx, submitter, request.SessionID, request.Email)
	if err != nil {
		return nil, err
	}

	rating := *request.Rating
	feedback := &db_models.Feedback{
		SessionID: session.ID,
		Email:     email,
		Rating:    &rating,
		Answers:   datatypes.NewJSONType(request.Answers.Normalize()),
		Source:    db_models.SourceQuiz,
		Status:    db_models.FeedbackStatusNew,
		Tags:      datatypes.JSONSlice[string]{},
	}
	return s.store(ctx, feedback)
}

func (s *FeedbackService) SubmitMissedSession(ctx context.Context, submitter Submitter, request request_models.MissedSessionFeedbackRequest) (*db_models.Feedback, error) {
	reason := strings.TrimSpace(request.Reason)
	interest := strings.TrimSpace(request.FutureInterest)
	if strings.TrimSpace(request.SessionID) == "" || strings.TrimSpace(request.Email) == "" || reason == "" || interest == "" {
		return nil, utils.NewValidationError("Please provide all required fields.")
	}

	session, email, err := s.admit(ctx, submitter, request.SessionID, request.Email)
	if err != nil {
		return nil, err
	}

	rating := db_models.MissedSessionRating
	feedback := &db_models.Feedback{
		SessionID: session.ID,
		Email:     email,
		Rating:    &rating,
		Answers:   datatypes.NewJSONType(db_models.AnswerSet{}.Normalize()),
		Message:   fmt.Sprintf("Reason for missing: %s | Interest in future sessions: %s", reason, interest),
		Category:  db_models.CategoryMissedSession,
		Source:    db_models.SourceMissedSession,
		Status:    db_models.FeedbackStatusNew,
		Tags:      datatypes.JSONSlice[string]{},
	}
	return s.store(ctx, feedback)
}

// admit checks that the token matches the body, that no feedback exists yet, and
// that the email is on the session roster.
func (s *FeedbackService) admit(ctx context.Context, submitter Submitter, rawSessionID, rawEmail string) (*db_models.Session, string, error) {
	email := utils.NormalizeEmail(rawEmail)
	rawSessionID = strings.TrimSpace(rawSessionID)

	if submitter.SessionID != rawSessionID || utils.NormalizeEmail(submitter.Email) != email {
		return nil, "", utils.ErrForbidden
	}

	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		return nil, "", utils.ErrSessionNotFound
	}

	exists, err := s.feedbackRepo.ExistsBySessionAndEmail(ctx, sessionID, email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if exists {
		return nil, "", utils.ErrDuplicateSubmission
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if session == nil {
		return nil, "", utils.ErrSessionNotFound
	}
	if session.FindAttendee(email) == nil {
		return nil, "", utils.ErrNotRegistered
	}
	return session, email, nil
}

func (s *FeedbackService) store(ctx context.Context, feedback *db_models.Feedback) (*db_models.Feedback, error) {
	if err := s.feedbackRepo.CreateFeedback(ctx, feedback); err != nil {
		if errors.Is(err, utils.ErrDuplicateSubmission) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	s.metrics.FeedbackCreated.WithLabelValues(feedback.Source).Inc()
	s.logger.Info("feedback stored",
		zap.String("feedback_id", feedback.ID.String()),
		zap.String("session_id", feedback.SessionID.String()),
		zap.String("source", feedback.Source))
	return feedback, nil
}

func (s *FeedbackService) ListFeedback(ctx context.Context, filter request_models.FeedbackFilter) (*response_models.FeedbackPage, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultFeedbackPageSize
	}
	if filter.Page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if filter.Limit < 1 || filter.Limit > MaxFeedbackPageSize {
		return nil, utils.ErrInvalidPageSize
	}
	if filter.Status != "" && !db_models.FeedbackStatus(filter.Status).Valid() {
		return nil, utils.NewValidationError("Invalid status")
	}

	feedbacks, total, err := s.feedbackRepo.ListFeedback(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	items, err := s.withSessionNames(ctx, feedbacks)
	if err != nil {
		return nil, err
	}

	return &response_models.FeedbackPage{
		Items: items,
		Pagination: response_models.Pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	}, nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id string) (*response_models.FeedbackItem, error) {
	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.withSessionNames(ctx, []db_models.Feedback{*feedback})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *FeedbackService) UpdateFeedback(ctx context.Context, id string, request request_models.UpdateFeedbackRequest) (*db_models.Feedback, error) {
	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Rating != nil {
		if *request.Rating < 0 || *request.Rating > 5 {
			return nil, utils.NewValidationError("Rating must be between 0 and 5")
		}
		rating := *request.Rating
		feedback.Rating = &rating
	}
	if request.Message != nil {
		feedback.Message = strings.TrimSpace(*request.Message)
	}
	if request.Category != nil {
		feedback.Category = strings.TrimSpace(*request.Category)
	}
	if request.Status != nil {
		status := db_models.FeedbackStatus(*request.Status)
		if !status.Valid() {
			return nil, utils.NewValidationError("Invalid status")
		}
		feedback.Status = status
	}
	if request.Tags != nil {
		feedback.Tags = datatypes.JSONSlice[string](request.Tags)
	}

	return feedback, s.save(ctx, feedback)
}

func (s *FeedbackService) UpdateStatus(ctx context.Context, id string, status string) (*db_models.Feedback, error) {
	st := db_models.FeedbackStatus(strings.TrimSpace(status))
	if st == "" {
		return nil, utils.NewValidationError("Status is required")
	}
	if !st.Valid() {
		return nil, utils.NewValidationError("Invalid status")
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	feedback.Status = st
	return feedback, s.save(ctx, feedback)
}

func (s *FeedbackService) BulkUpdateStatus(ctx context.Context, request request_models.BulkStatusRequest) (*response_models.BulkUpdateResult, error) {
	if len(request.IDs) == 0 {
		return nil, utils.NewValidationError("Please provide feedback IDs")
	}
	st := db_models.FeedbackStatus(strings.TrimSpace(request.Status))
	if st == "" {
		return nil, utils.NewValidationError("Status is required")
	}
	if !st.Valid() {
		return nil, utils.NewValidationError("Invalid status")
	}

	ids := make([]uuid.UUID, 0, len(request.IDs))
	for _, raw := range request.IDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, utils.NewValidationError(fmt.Sprintf("Invalid feedback id %q", raw))
		}
		ids = append(ids, id)
	}

	n, err := s.feedbackRepo.UpdateStatusBulk(ctx, ids, st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return &response_models.BulkUpdateResult{ModifiedCount: n}, nil
}

func (s *FeedbackService) AddResponse(ctx context.Context, id string, message string) (*db_models.Feedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, utils.NewValidationError("Response message is required")
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	feedback.Response = message
	feedback.RespondedAt = &now
	return feedback, s.save(ctx, feedback)
}

func (s *FeedbackService) DeleteFeedback(ctx context.Context, id string) error {
	feedbackID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return utils.ErrFeedbackNotFound
	}
	deleted, err := s.feedbackRepo.DeleteFeedback(ctx, feedbackID)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if !deleted {
		return utils.ErrFeedbackNotFound
	}
	return nil
}

func (s *FeedbackService) GetStats(ctx context.Context) (*response_models.FeedbackStats, error) {
	row, err := s.feedbackRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	stats := &response_models.FeedbackStats{
		Total:         row.Total,
		Positive:      row.Positive,
		Neutral:       row.Neutral,
		Negative:      row.Negative,
		Missed:        row.Missed,
		AverageRating: roundRating(row.AverageRating),
	}

	for column, dst := range map[string]*[]response_models.BucketCount{
		"rating":   &stats.RatingDistribution,
		"category": &stats.CategoryDistribution,
		"status":   &stats.StatusDistribution,
	} {
		rows, err := s.feedbackRepo.Distribution(ctx, column)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		buckets := make([]response_models.BucketCount, 0, len(rows))
		for _, r := range rows {
			if r.Key == "" {
				continue
			}
			buckets = append(buckets, response_models.BucketCount{Key: r.Key, Count: r.Count})
		}
		*dst = buckets
	}
	return stats, nil
}

func (s *FeedbackService) load(ctx context.Context, id string) (*db_models.Feedback, error) {
	feedbackID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, utils.ErrFeedbackNotFound
	}
	feedback, err := s.feedbackRepo.FindByID(ctx, feedbackID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if feedback == nil {
		return nil, utils.ErrFeedbackNotFound
	}
	return feedback, nil
}

func (s *FeedbackService) save(ctx context.Context, feedback *db_models.Feedback) error {
	feedback.UpdatedAt = s.now().UTC()
	if err := s.feedbackRepo.SaveFeedback(ctx, feedback); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	return nil
}

func (s *FeedbackService) withSessionNames(ctx context.Context, feedbacks []db_models.Feedback) ([]response_models.FeedbackItem, error) {
	return attachSessionNames(ctx, s.sessionRepo, feedbacks)
}

// attachSessionNames pairs feedback with its session name, "N/A" once the session
// is gone.
func attachSessionNames(ctx context.Context, repo repositories.SessionRepository, feedbacks []db_models.Feedback) ([]response_models.FeedbackItem, error) {
	seen := make(map[uuid.UUID]bool, len(feedbacks))
	ids := make([]uuid.UUID, 0, len(feedbacks))
	for _, f := range feedbacks {
		if !seen[f.SessionID] {
			seen[f.SessionID] = true
			ids = append(ids, f.SessionID)
		}
	}

	names, err := repo.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	items := make([]response_models.FeedbackItem, 0, len(feedbacks))
	for _, f := range feedbacks {
		name, ok := names[f.SessionID]
		if !ok {
			name = unknownSessionName
		}
		items = append(items, response_models.FeedbackItem{Feedback: f, SessionName: name})
	}
	return items, nil
}

func roundRating(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}
