package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/obraplan/payroll-backend-go/internal/domain/payroll"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	RunMigrations bool
	SeedDefaults  bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// PayrollConfig holds the run pagination and cache settings
type PayrollConfig struct {
	PageSize           int
	MaxPageSize        int
	RunCacheTTL        time.Duration
	CacheSweepInterval time.Duration
}

func Load() (*Config, error) {
	// The .env file is optional; deployed environments set variables directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var errs []error
	config := &Config{}

	config.Database = DatabaseConfig{
		Host:          getEnv("DB_HOST", "localhost"),
		Port:          getEnvInt("DB_PORT", 5432, &errs),
		User:          getEnv("DB_USER", "postgres"),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", "obraplan_payroll"),
		SSLMode:       getEnv("DB_SSL_MODE", "disable"),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true, &errs),
		SeedDefaults:  getEnvBool("SEED_DEFAULTS", true, &errs),
	}

	config.App = AppConfig{
		Port:           getEnvInt("APP_PORT", 8080, &errs),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RequestTimeout: getEnvDuration("APP_REQUEST_TIMEOUT", 60*time.Second, &errs),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour, &errs),
	}

	config.Payroll = PayrollConfig{
		PageSize:           getEnvInt("PAYROLL_PAGE_SIZE", 50, &errs),
		MaxPageSize:        getEnvInt("PAYROLL_MAX_PAGE_SIZE", 500, &errs),
		RunCacheTTL:        getEnvDuration("PAYROLL_RUN_CACHE_TTL", 30*time.Minute, &errs),
		CacheSweepInterval: getEnvDuration("PAYROLL_CACHE_SWEEP_INTERVAL", 5*time.Minute, &errs),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.PageSize <= 0 {
		return fmt.Errorf("PAYROLL_PAGE_SIZE must be positive")
	}
	if c.Payroll.MaxPageSize < c.Payroll.PageSize {
		return fmt.Errorf("PAYROLL_MAX_PAGE_SIZE must be at least PAYROLL_PAGE_SIZE")
	}
	if c.Payroll.MaxPageSize > payroll.MaxRunLimit {
		return fmt.Errorf("PAYROLL_MAX_PAGE_SIZE must not exceed %d", payroll.MaxRunLimit)
	}
	if c.Payroll.RunCacheTTL <= 0 || c.Payroll.CacheSweepInterval <= 0 {
		return fmt.Errorf("PAYROLL_RUN_CACHE_TTL and PAYROLL_CACHE_SWEEP_INTERVAL must be positive")
	}
	if c.App.RequestTimeout <= 0 {
		return fmt.Errorf("APP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
