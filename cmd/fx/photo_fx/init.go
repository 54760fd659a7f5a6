package photo_fx

import (
	"context"
	"time"

	"feedbackportal/internal/config"
	"feedbackportal/internal/infra"
	"feedbackportal/internal/repositories"
	"feedbackportal/internal/services"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(
	providePhotoStore, providePhotoService,
)

func providePhotoStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (repositories.PhotoStore, error) {
	if cfg.Mongo.URI == "" {
		logger.Warn("MONGODB_URI not configured, attendee photos are disabled")
		return repositories.NewDisabledPhotoStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, db, err := infra.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	logger.Info("photo store: gridfs", zap.String("bucket", cfg.Mongo.BucketName))
	return repositories.NewGridFSPhotoStore(db, cfg.Mongo.BucketName)
}

func providePhotoService(sessionRepo repositories.SessionRepository, store repositories.PhotoStore, logger *zap.Logger) services.PhotoServiceInterface {
	return services.NewPhotoService(sessionRepo, store, logger)
}
