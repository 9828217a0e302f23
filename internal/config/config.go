// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every server setting.
type Config struct {
	Env      string
	LogLevel string
	Port     string

	// LogDBLevel is the lowest level copied to sys_log; "off" disables it.
	LogDBLevel string

	DatabaseURL     string
	DBMaxConns      int
	DBMinConns      int
	QueryReadOnlyTx bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OrgCacheTTL   time.Duration

	JWTSecret string
	JWTIssuer string
	AccessTTL time.Duration

	DataPermissionEnabled bool
	AuditWriteTimeout     time.Duration
	ShutdownTimeout       time.Duration

	// AuditRetention is how long operation log records are kept; 0 keeps
	// them forever.
	AuditRetention     time.Duration
	AuditPurgeInterval time.Duration
}

var dbLogLevels = map[string]struct{}{
	"off": {}, "debug": {}, "info": {}, "warn": {}, "error": {},
}

// DBLogEnabled reports whether log entries are copied to sys_log.
func (c *Config) DBLogEnabled() bool {
	return c.LogDBLevel != "off"
}

// Development reports whether the server runs in development mode.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads the optional .env files then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("APP_PORT", "8080"),

		LogDBLevel: getEnv("LOG_DB_LEVEL", "warn"),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:      getEnvInt("DB_MIN_CONNS", 2),
		QueryReadOnlyTx: getEnvBool("QUERY_READ_ONLY_TX", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		OrgCacheTTL:   getEnvDuration("ORG_CACHE_TTL", 10*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "easyadmin"),
		AccessTTL: getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),

		DataPermissionEnabled: getEnvBool("DATA_PERMISSION_ENABLED", true),
		AuditWriteTimeout:     getEnvDuration("AUDIT_WRITE_TIMEOUT", 5*time.Second),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		AuditRetention:     getEnvDuration("AUDIT_RETENTION", 90*24*time.Hour),
		AuditPurgeInterval: getEnvDuration("AUDIT_PURGE_INTERVAL", time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the required settings are present. JWT_SECRET is
// checked by the commands that sign or verify tokens, see RequireJWTSecret.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if _, ok := dbLogLevels[c.LogDBLevel]; !ok {
		return fmt.Errorf("LOG_DB_LEVEL %q is not one of off, debug, info, warn, error", c.LogDBLevel)
	}
	if c.AuditRetention > 0 && c.AuditPurgeInterval <= 0 {
		return errors.New("AUDIT_PURGE_INTERVAL must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// RequireJWTSecret fails when no signing secret is configured.
func (c *Config) RequireJWTSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
