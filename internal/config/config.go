package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Server     ServerConfig
	Email      EmailConfig
	Cron       CronConfig
	Security   SecurityConfig
	SelfHosted bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings for the org config cache.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	CacheTTL time.Duration
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server and tenant routing settings. RootDomain is
// the apex domain that org portals hang off of as subdomains; DevMode
// switches the tenant router to localhost-friendly resolution.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	RootDomain   string
	DevMode      bool
}

// EmailConfig holds outbound email settings. Sending is disabled when
// FromEmail is empty.
type EmailConfig struct {
	AWSRegion string
	FromEmail string
	FromName  string
}

// CronConfig holds the shared secret for scheduler-triggered endpoints.
type CronConfig struct {
	Secret string //nolint:gosec // G117: cron auth config
}

// SecurityConfig holds the key material for sealing per-org Stripe
// credentials at rest. When CredentialKey is unset, the vault key is
// derived from the JWT secret instead.
type SecurityConfig struct {
	CredentialKey string //nolint:gosec // G117: encryption key config
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("ORGHUB_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("ORGHUB_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("ORGHUB_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cacheTTL, err := getEnvDuration("ORGHUB_CONFIG_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("ORGHUB_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("ORGHUB_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("ORGHUB_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("ORGHUB_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	devMode, err := getEnvBool("ORGHUB_DEV_MODE", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool("ORGHUB_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("ORGHUB_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("ORGHUB_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("ORGHUB_DB_USER", "orghub"),
			Password: getEnv("ORGHUB_DB_PASSWORD", ""),
			DBName:   getEnv("ORGHUB_DB_NAME", "orghub_dev"),
			SSLMode:  getEnv("ORGHUB_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("ORGHUB_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("ORGHUB_REDIS_PASSWORD", ""),
			DB:       redisDB,
			CacheTTL: cacheTTL,
		},
		JWT: JWTConfig{
			Secret:     getEnv("ORGHUB_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("ORGHUB_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
			RootDomain:   getEnv("ORGHUB_ROOT_DOMAIN", "orghub.test"),
			DevMode:      devMode,
		},
		Email: EmailConfig{
			AWSRegion: getEnv("ORGHUB_AWS_REGION", "us-east-1"),
			FromEmail: getEnv("ORGHUB_EMAIL_FROM", ""),
			FromName:  getEnv("ORGHUB_EMAIL_FROM_NAME", "OrgHub"),
		},
		Cron: CronConfig{
			Secret: getEnv("ORGHUB_CRON_SECRET", ""),
		},
		Security: SecurityConfig{
			CredentialKey: getEnv("ORGHUB_CREDENTIAL_KEY", ""),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("ORGHUB_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("ORGHUB_JWT_SECRET must be at least 32 characters")
	}

	if c.Server.RootDomain == "" {
		return errors.New("ORGHUB_ROOT_DOMAIN is required")
	}

	// DB SSL mode warning for non-self-hosted deployments.
	if c.Database.SSLMode == "disable" && !c.SelfHosted && !c.Server.DevMode {
		log.Warn().Msg("ORGHUB_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Cron.Secret == "" {
		log.Warn().Msg("ORGHUB_CRON_SECRET is unset; renewal reminder endpoint is disabled")
	}

	if c.Security.CredentialKey == "" {
		log.Warn().Msg("ORGHUB_CREDENTIAL_KEY is unset; credential vault key will be derived from the JWT secret, so rotating the JWT secret invalidates stored Stripe credentials")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("ORGHUB_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("ORGHUB_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("ORGHUB_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("ORGHUB_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("ORGHUB_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("ORGHUB_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("ORGHUB_CONFIG_CACHE_TTL must be positive, got %s", c.Redis.CacheTTL)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
