package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"invoicelink/internal/logger"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
)

type Config struct {
	Port string

	// Empty DatabaseURL selects the in-memory repositories.
	DatabaseURL    string
	MigrateOnStart bool

	JWTSecret  string
	JWKSURL    string
	SessionTTL time.Duration

	// AdminEmail is the account that may use the administration endpoints
	// and log in without approval.
	AdminEmail    string
	AdminPassword string

	// Empty RedisAddr keeps sessions in process memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginAttempts int
	LoginWindow   time.Duration

	// Empty MinioEndpoint disables invoice archiving.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string

	TrialSweepEnabled  bool
	TrialSweepApply    bool
	TrialSweepInterval time.Duration
	OverdueInterval    time.Duration

	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string

	// GeneratedSecret is set when JWTSecret was not configured.
	GeneratedSecret bool
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	config := &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MigrateOnStart:     getBool("DATABASE_MIGRATE", true),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWKSURL:            getEnv("JWKS_URL", ""),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		AdminEmail:         strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", "admin@theinvoicelink.com"))),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getInt("REDIS_DB", 0),
		LoginAttempts:      getInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:        getDuration("LOGIN_WINDOW", 15*time.Minute),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:        getBool("MINIO_USE_SSL", false),
		MinioBucket:        getEnv("MINIO_BUCKET", "invoices"),
		TrialSweepEnabled:  getBool("TRIAL_SWEEP_ENABLED", false),
		TrialSweepApply:    getBool("TRIAL_SWEEP_APPLY", false),
		TrialSweepInterval: getDuration("TRIAL_SWEEP_INTERVAL", time.Hour),
		OverdueInterval:    getDuration("INVOICE_OVERDUE_INTERVAL", time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		LogTimeFormat:      getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:          getEnv("LOG_OUTPUT", "stdout"),
	}

	if config.JWTSecret == "" {
		config.JWTSecret = random.String(32)
		config.GeneratedSecret = true
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	var errs []error
	if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_EMAIL is not a valid address: %w", err))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.LoginAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		errs = append(errs, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required with MINIO_ENDPOINT"))
	}
	if c.TrialSweepEnabled && c.TrialSweepInterval < time.Minute {
		errs = append(errs, errors.New("TRIAL_SWEEP_INTERVAL must be at least 1m"))
	}
	if c.OverdueInterval < time.Minute {
		errs = append(errs, errors.New("INVOICE_OVERDUE_INTERVAL must be at least 1m"))
	}
	return errors.Join(errs...)
}

func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
