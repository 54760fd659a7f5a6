package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"time"

	"feedbackportal/internal/models/db_models"
	"feedbackportal/internal/models/response_models"
	"feedbackportal/internal/repositories"
	"feedbackportal/pkg/utils"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	photoMaxSide     = 512
	photoJPEGQuality = 85
	// MaxPhotoBytes caps the accepted upload size before decoding.
	MaxPhotoBytes = 8 << 20
)

var dataURLPattern = regexp.MustCompile(`^data:([A-Za-z0-9.+/-]+);base64,(.+)$`)

type PhotoServiceInterface interface {
	UploadPhoto(ctx context.Context, id, attendeeID string, data []byte) (*response_models.PhotoUploadResponse, error)
	GetPhoto(ctx context.Context, id, attendeeID string) (*repositories.StoredPhoto, error)
}

type PhotoService struct {
	sessionRepo repositories.SessionRepository
	store       repositories.PhotoStore
	logger      *zap.Logger
}

func NewPhotoService(sessionRepo repositories.SessionRepository, store repositories.PhotoStore, logger *zap.Logger) PhotoServiceInterface {
	return &PhotoService{
		sessionRepo: sessionRepo,
		store:       store,
		logger:      logger.Named("photos"),
	}
}

// UploadPhoto stores a normalized JPEG for the attendee, marks them as actually
// present and removes any photo it replaces.
func (p *PhotoService) UploadPhoto(ctx context.Context, id, attendeeID string, data []byte) (*response_models.PhotoUploadResponse, error) {
	if len(data) == 0 {
		return nil, utils.NewValidationError("Image data is required")
	}
	if len(data) > MaxPhotoBytes {
		return nil, utils.NewValidationError("Image is too large")
	}

	attendee, err := p.loadAttendee(ctx, id, attendeeID)
	if err != nil {
		return nil, err
	}

	jpeg, err := NormalizePhoto(data)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s_%d.jpg", attendee.SessionID, attendee.ID, time.Now().Unix())
	photoID, err := p.store.Save(ctx, filename, "image/jpeg", jpeg)
	if err != nil {
		if errors.Is(err, utils.ErrStorageUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("save photo: %w", err)
	}

	previous := attendee.PhotoID
	attendee.PhotoID = &photoID
	attendee.IsActual = true
	attendee.UpdatedAt = time.Now().UTC()
	if err := p.sessionRepo.SaveAttendee(ctx, attendee); err != nil {
		_ = p.store.Delete(ctx, photoID)
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	if previous != nil && *previous != "" {
		if err := p.store.Delete(ctx, *previous); err != nil && !errors.Is(err, utils.ErrPhotoNotFound) {
			p.logger.Warn("failed to delete replaced photo",
				zap.String("photo_id", *previous),
				zap.Error(err))
		}
	}

	return &response_models.PhotoUploadResponse{PhotoID: photoID, Attendee: *attendee}, nil
}

func (p *PhotoService) GetPhoto(ctx context.Context, id, attendeeID string) (*repositories.StoredPhoto, error) {
	attendee, err := p.loadAttendee(ctx, id, attendeeID)
	if err != nil {
		return nil, err
	}
	if attendee.PhotoID == nil || *attendee.PhotoID == "" {
		return nil, utils.ErrPhotoNotFound
	}
	return p.store.Open(ctx, *attendee.PhotoID)
}

func (p *PhotoService) loadAttendee(ctx context.Context, id, attendeeID string) (*db_models.Attendee, error) {
	sessionID, attID, err := parseAttendeeRef(id, attendeeID)
	if err != nil {
		return nil, err
	}
	session, err := p.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if session == nil {
		return nil, utils.ErrSessionNotFound
	}
	attendee, err := p.sessionRepo.FindAttendee(ctx, sessionID, attID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if attendee == nil {
		return nil, utils.ErrAttendeeNotFound
	}
	return attendee, nil
}

// NormalizePhoto decodes any supported image, applies EXIF orientation, fits it
// within 512x512 and re-encodes it as JPEG.
func NormalizePhoto(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, utils.NewValidationError("Invalid image format")
	}

	b := img.Bounds()
	if b.Dx() > photoMaxSide || b.Dy() > photoMaxSide {
		img = imaging.Fit(img, photoMaxSide, photoMaxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(photoJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDataURL extracts the payload of a base64 "data:<mime>;base64,..." URL.
func DecodeDataURL(value string) ([]byte, error) {
	m := dataURLPattern.FindStringSubmatch(value)
	if m == nil {
		return nil, utils.NewValidationError("Invalid image format")
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, utils.NewValidationError("Invalid image format")
	}
	return data, nil
}
