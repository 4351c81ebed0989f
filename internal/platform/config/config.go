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
)

const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	APIPort    string
	JWTKey     []byte
	SessionTTL time.Duration
	AdminKey   string

	StoreBackend string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisLockKey   string

	UpstreamTimeout    time.Duration
	UpstreamSSRFGuard  bool
	LoginRatePerMinute int
	TrustProxyHeaders  bool
	RefreshConcurrency int
	RefreshInterval    time.Duration

	LogLevel slog.Level
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		JWTKey:             []byte(getEnv("JWT_SECRET", "")),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		AdminKey:           getEnv("ADMIN_KEY", ""),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreRedis)),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "subhub"),
		DBPassword:         getEnv("DB_PASSWORD", "password"),
		DBName:             getEnv("DB_NAME", "subhub"),
		DBSslMode:          getEnv("DB_SSLMODE", "disable"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		RedisKeyPrefix:     getEnv("REDIS_KEY_PREFIX", "subhub:user"),
		RedisLockKey:       getEnv("REDIS_LOCK_KEY", "subhub:refresh-lock"),
		UpstreamTimeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamSSRFGuard:  getEnvAsBool("UPSTREAM_SSRF_GUARD", true),
		LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MIN", 10),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
		RefreshConcurrency: getEnvAsInt("REFRESH_CONCURRENCY", 4),
		RefreshInterval:    getEnvAsDuration("REFRESH_INTERVAL", 0),
		LogLevel:           parseLevel(getEnv("LOG_LEVEL", "info")),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.JWTKey) == 0 {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AdminKey == "" {
		errs = append(errs, errors.New("ADMIN_KEY is required"))
	}
	switch c.StoreBackend {
	case StoreRedis, StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of redis, postgres, memory", c.StoreBackend))
	}
	// Record listing scans <prefix>:*, so the lock must live outside it.
	if c.RedisLockKey == "" || strings.HasPrefix(c.RedisLockKey, c.RedisKeyPrefix+":") {
		errs = append(errs, fmt.Errorf("REDIS_LOCK_KEY %q must be set and outside REDIS_KEY_PREFIX %q", c.RedisLockKey, c.RedisKeyPrefix))
	}
	if c.SessionTTL < time.Second {
		errs = append(errs, errors.New("SESSION_TTL must be at least 1s"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.LoginRatePerMinute <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MIN must be positive"))
	}
	if c.RefreshConcurrency <= 0 {
		errs = append(errs, errors.New("REFRESH_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
