package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Database.RunMigrations)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 60*time.Second, cfg.App.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.Equal(t, 50, cfg.Payroll.PageSize)
	assert.Equal(t, 500, cfg.Payroll.MaxPageSize)
	assert.Equal(t, 30*time.Minute, cfg.Payroll.RunCacheTTL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PAYROLL_RUN_CACHE_TTL", "10m")
	t.Setenv("SEED_DEFAULTS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Payroll.RunCacheTTL)
	assert.False(t, cfg.Database.SeedDefaults)
}

func TestLoad_ReportsEveryMalformedValue(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PORT", "five")
	t.Setenv("PAYROLL_RUN_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "PAYROLL_RUN_CACHE_TTL")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Password: "secret"},
			JWT:      JWTConfig{Secret: "jwt"},
			App:      AppConfig{RequestTimeout: time.Minute},
			Payroll:  PayrollConfig{PageSize: 50, MaxPageSize: 500, RunCacheTTL: time.Minute, CacheSweepInterval: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing password", mutate: func(c *Config) { c.Database.Password = "" }, wantErr: "DB_PASSWORD"},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET_KEY"},
		{name: "max below page size", mutate: func(c *Config) { c.Payroll.MaxPageSize = 10 }, wantErr: "PAYROLL_MAX_PAGE_SIZE"},
		{name: "max above run limit", mutate: func(c *Config) { c.Payroll.MaxPageSize = 20000 }, wantErr: "PAYROLL_MAX_PAGE_SIZE"},
		{name: "zero ttl", mutate: func(c *Config) { c.Payroll.RunCacheTTL = 0 }, wantErr: "PAYROLL_RUN_CACHE_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseURLAndLogLevel(t *testing.T) {
	c := &Config{
		Database: DatabaseConfig{User: "payroll", Password: "pw", Host: "db", Port: 5433, Name: "obra", SSLMode: "require"},
		App:      AppConfig{LogLevel: "WARN"},
	}

	assert.Equal(t, "postgres://payroll:pw@db:5433/obra?sslmode=require", c.DatabaseURL())
	assert.Equal(t, slog.LevelWarn, c.SlogLevel())

	c.App.LogLevel = "verbose"
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
}
