package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv   string
	Version  string
	LogLevel string

	Server struct {
		Port            string
		AllowedOrigins  []string
		ShutdownTimeout time.Duration
	}
	Database struct {
		DSN string
	}
	Mongo struct {
		URI        string
		Database   string
		BucketName string
	}
	Redis struct {
		URL string
	}
	Otp struct {
		// Store is one of "database", "redis" or "memory".
		Store         string
		TTL           time.Duration
		SweepInterval time.Duration
	}
	Auth struct {
		JWTSecret         string
		AdminPasswordHash string
		AdminPassword     string
		AdminTokenTTL     time.Duration
		SubmissionTTL     time.Duration
		CookieSecure      bool
	}
	Mail struct {
		// Provider is "smtp" or "resend".
		Provider      string
		Host          string
		Port          int
		Username      string
		Password      string
		From          string
		FromName      string
		UseSSL        bool
		RequireTLS    bool
		ResendAPIKey  string
		RatePerSecond int
		Concurrency   int
	}
	Portal struct {
		AppName     string
		FeedbackURL string
	}
	Sentry struct {
		DSN string
	}
}

// Load reads configuration from the environment. A .env file is loaded first when
// present; variables already set in the process win. Load only fails on malformed
// values; call Validate before serving.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Version:  getEnv("VERSION", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var err error

	cfg.Server.Port = getEnv("PORT", "5000")
	cfg.Server.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"))
	if cfg.Server.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Database.DSN = getEnv("POSTGRES_URL", "")

	cfg.Mongo.URI = getEnv("MONGODB_URI", "")
	cfg.Mongo.Database = getEnv("MONGODB_DATABASE", "feedback_portal")
	cfg.Mongo.BucketName = getEnv("MONGODB_BUCKET", "uploads")

	cfg.Redis.URL = getEnv("REDIS_URL", "")

	cfg.Otp.Store = strings.ToLower(getEnv("OTP_STORE", "database"))
	if cfg.Otp.TTL, err = getDuration("OTP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Otp.SweepInterval, err = getDuration("OTP_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Auth.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", "")
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "")
	if cfg.Auth.AdminTokenTTL, err = getDuration("ADMIN_TOKEN_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Auth.SubmissionTTL, err = getDuration("SUBMISSION_TOKEN_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Auth.CookieSecure, err = getBool("COOKIE_SECURE", cfg.AppEnv == "production"); err != nil {
		return nil, err
	}

	cfg.Mail.Provider = strings.ToLower(getEnv("MAIL_PROVIDER", "smtp"))
	cfg.Mail.Host = getEnv("SMTP_HOST", "smtp.gmail.com")
	if cfg.Mail.Port, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.Mail.Username = getEnv("EMAIL_USER", "")
	cfg.Mail.Password = getEnv("EMAIL_PASS", "")
	cfg.Mail.From = getEnv("EMAIL_FROM", cfg.Mail.Username)
	cfg.Mail.FromName = getEnv("EMAIL_FROM_NAME", "Feedback Portal")
	if cfg.Mail.UseSSL, err = getBool("SMTP_USE_SSL", false); err != nil {
		return nil, err
	}
	if cfg.Mail.RequireTLS, err = getBool("SMTP_REQUIRE_TLS", true); err != nil {
		return nil, err
	}
	cfg.Mail.ResendAPIKey = getEnv("RESEND_API_KEY", "")
	if cfg.Mail.RatePerSecond, err = getInt("MAIL_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}
	if cfg.Mail.Concurrency, err = getInt("MAIL_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	cfg.Portal.AppName = getEnv("APP_NAME", "Feedback Portal")
	cfg.Portal.FeedbackURL = getEnv("CLIENT_FRONTEND_URL", "http://localhost:3000/feedback")

	cfg.Sentry.DSN = getEnv("SENTRY_DSN", "")

	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("POSTGRES_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.AdminPasswordHash == "" && c.Auth.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}
	switch c.Otp.Store {
	case "database", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when OTP_STORE=redis")
		}
	default:
		return fmt.Errorf("unsupported OTP_STORE %q", c.Otp.Store)
	}
	switch c.Mail.Provider {
	case "smtp":
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when MAIL_PROVIDER=resend")
		}
	default:
		return fmt.Errorf("unsupported MAIL_PROVIDER %q", c.Mail.Provider)
	}
	if c.Otp.TTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.Mail.RatePerSecond <= 0 || c.Mail.Concurrency <= 0 {
		return fmt.Errorf("MAIL_RATE_PER_SECOND and MAIL_CONCURRENCY must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
