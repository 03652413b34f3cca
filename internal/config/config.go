package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int
	AppEnv     string
	LogLevel   string
	CORSOrigin string

	DatabasePath string

	// Access and refresh tokens are signed with separate secrets so that a
	// leak of one does not compromise the other token class.
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	// Turnstile. An empty secret disables CAPTCHA verification entirely
	// (staging mode). FailOpen only changes what happens when the verifier
	// is unreachable; a definitive rejection always fails the sign-in.
	TurnstileSecret   string
	TurnstileFailOpen bool

	// Cron spec for the periodic tally snapshot job.
	SnapshotSchedule string

	// Optional bootstrap admin account, created at startup if missing.
	AdminEmail    string
	AdminPassword string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	accessTTL, err := envSeconds("JWT_ACCESS_EXPIRATION", 900)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := envSeconds("JWT_REFRESH_EXPIRATION", 604800)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:        port,
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "http://localhost:3000"),
		DatabasePath:      getEnv("DATABASE_PATH", "./election.db"),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret:  getEnv("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:    accessTTL,
		RefreshTokenTTL:   refreshTTL,
		TurnstileSecret:   getEnv("TURNSTILE_SECRET_KEY", ""),
		TurnstileFailOpen: getEnv("TURNSTILE_FAIL_OPEN", "false") == "true",
		SnapshotSchedule:  getEnv("SNAPSHOT_SCHEDULE", "@every 1m"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
	}

	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func envSeconds(key string, fallback int) (time.Duration, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(secs) * time.Second, nil
}
