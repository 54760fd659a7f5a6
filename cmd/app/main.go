package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"feedbackportal/cmd/fx/admin_fx"
	"feedbackportal/cmd/fx/controllers_fx"
	"feedbackportal/cmd/fx/core_fx"
	"feedbackportal/cmd/fx/dashboard"
	"feedbackportal/cmd/fx/db_fx"
	"feedbackportal/cmd/fx/feedback_fx"
	"feedbackportal/cmd/fx/mail_fx"
	"feedbackportal/cmd/fx/otp_fx"
	"feedbackportal/cmd/fx/photo_fx"
	"feedbackportal/cmd/fx/session_fx"
	"feedbackportal/internal/api/controllers"
	"feedbackportal/internal/config"
	"feedbackportal/internal/infra"
	"feedbackportal/internal/metrics"
	"feedbackportal/internal/repositories"
	"feedbackportal/pkg/middleware"
	"feedbackportal/pkg/utils"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "feedbackportal",
		Short:        "Session feedback portal API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		sweepOtpCmd(),
		hashPasswordCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("feedbackportal version %s\n", version)
			},
		},
	)

	return root
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
			Release:     cfg.Version,
		}); err != nil {
			return fmt.Errorf("sentry init: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	app := fx.New(
		fx.Supply(cfg, logger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		core_fx.Module,
		db_fx.Module,
		mail_fx.Module,
		session_fx.Module,
		otp_fx.Module,
		photo_fx.Module,
		feedback_fx.Module,
		dashboard.Module,
		admin_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
	return app.Err()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.AppEnv == "production" {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			ctx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(
	cfg *config.Config,
	db *gorm.DB,
	logger *zap.Logger,
	m *metrics.Metrics,
	tokens *utils.JWTIssuer,
	otpController *controllers.OtpController,
	sessionController *controllers.SessionController,
	feedbackController *controllers.FeedbackController,
	dashboardController *controllers.DashboardController,
	adminController *controllers.AdminController) *gin.Engine {

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(logger))
	r.Use(m.Middleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			utils.RespondError(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		utils.RespondSuccess(c, gin.H{"version": cfg.Version}, "ok")
	})
	r.GET("/metrics", m.Handler())

	RegisterRoutes(r, tokens, otpController, sessionController, feedbackController, dashboardController, adminController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	tokens *utils.JWTIssuer,
	otpController *controllers.OtpController,
	sessionController *controllers.SessionController,
	feedbackController *controllers.FeedbackController,
	dashboardController *controllers.DashboardController,
	adminController *controllers.AdminController) {

	public := r.Group("/api")
	{
		public.POST("/otp/send-otp", otpController.SendOtp)
		public.POST("/otp/verify-otp", otpController.VerifyOtp)

		public.GET("/sessions", sessionController.ListSessions)
		public.GET("/sessions/:id/questions", sessionController.GetQuestions)

		public.POST("/admin/login", adminController.Login)
		public.POST("/admin/logout", adminController.Logout)
	}

	attendee := r.Group("/api/feedback", middleware.JWTAuthMiddleware(tokens), middleware.RoleMiddleware(utils.RoleAttendee))
	{
		attendee.POST("", feedbackController.SubmitFeedback)
		attendee.POST("/missed-session", feedbackController.SubmitMissedSession)
	}

	admin := r.Group("/api", middleware.JWTAuthMiddleware(tokens), middleware.RoleMiddleware(utils.RoleAdmin))
	{
		sessions := admin.Group("/sessions")
		sessions.POST("", sessionController.CreateSession)
		sessions.GET("/:id", sessionController.GetSession)
		sessions.PUT("/:id", sessionController.UpdateSession)
		sessions.DELETE("/:id", sessionController.DeleteSession)
		sessions.POST("/:id/attendees", sessionController.AddAttendees)
		sessions.POST("/:id/attendees/import", sessionController.ImportAttendees)
		sessions.DELETE("/:id/attendees/:attendeeId", sessionController.RemoveAttendee)
		sessions.PATCH("/:id/attendees/:attendeeId", sessionController.UpdateAttendeeStatus)
		sessions.GET("/:id/attendance/:email", sessionController.GetAttendance)
		sessions.POST("/:id/notify-attendees", sessionController.NotifyAttendees)
		sessions.POST("/:id/attendees/:attendeeId/photo", sessionController.UploadPhoto)
		sessions.GET("/:id/attendees/:attendeeId/photo", sessionController.GetPhoto)

		feedback := admin.Group("/feedback")
		feedback.GET("", feedbackController.ListFeedback)
		feedback.GET("/stats/overview", feedbackController.GetStats)
		feedback.PATCH("/bulk/status", feedbackController.BulkUpdateStatus)
		feedback.GET("/:id", feedbackController.GetFeedback)
		feedback.PUT("/:id", feedbackController.UpdateFeedback)
		feedback.DELETE("/:id", feedbackController.DeleteFeedback)
		feedback.PATCH("/:id/status", feedbackController.UpdateStatus)
		feedback.POST("/:id/response", feedbackController.AddResponse)

		admin.GET("/dashboard/overview", dashboardController.GetOverview)
	}
}

func sweepOtpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-otp",
		Short: "Delete expired one-time codes from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("POSTGRES_URL is required")
			}

			db, err := infra.OpenDatabase(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer infra.CloseDatabase(db)

			removed, err := repositories.NewOneTimeCodeRepository(db).DeleteExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("removed %d expired codes\n", removed)
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := utils.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
