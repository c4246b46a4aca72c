package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tuckshop-au/tuckshop/internal/auth/service"
)

type Config struct {
	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Required: HMAC secret for refresh tokens, must differ from AccessSecret
	Issuer        string // Optional: issuer claim for tokens (default: tuckshop-auth)
	Audience      string // Optional: audience claim for tokens (default: tuckshop-api)

	AccessTTL          time.Duration // Optional: access token lifetime (default: 1h)
	RefreshTTL         time.Duration // Optional: refresh token lifetime (default: 168h)
	AccessRememberTTL  time.Duration // Optional: access token lifetime with remember-me (default: 720h)
	RefreshRememberTTL time.Duration // Optional: refresh token lifetime with remember-me (default: 2160h)

	LockoutThreshold int64         // Optional: failed logins before lockout (default: 5)
	LockoutWindow    time.Duration // Optional: failure counter TTL and lockout duration (default: 30m)

	DatabaseFile  string // Optional: path to SQLite credential store (default: ./auth.db)
	RedisAddr     string // Optional: redis address; empty selects the in-memory session store
	RedisPassword string // Optional: redis password
	RedisDB       int    // Optional: redis logical database (default: 0)

	AllowInsecureLogin bool // Optional: accept credentials over plaintext HTTP (dev only)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		AccessSecret:  os.Getenv("AUTH_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("AUTH_REFRESH_SECRET"),
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "tuckshop-auth"),
		Audience:      getEnvOrDefault("AUTH_AUDIENCE", "tuckshop-api"),

		AccessTTL:          getEnvDurationOrDefault("AUTH_ACCESS_TTL", time.Hour),
		RefreshTTL:         getEnvDurationOrDefault("AUTH_REFRESH_TTL", 7*24*time.Hour),
		AccessRememberTTL:  getEnvDurationOrDefault("AUTH_ACCESS_REMEMBER_TTL", 30*24*time.Hour),
		RefreshRememberTTL: getEnvDurationOrDefault("AUTH_REFRESH_REMEMBER_TTL", 90*24*time.Hour),

		LockoutThreshold: int64(getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", service.DefaultLockoutThreshold)),
		LockoutWindow:    getEnvDurationOrDefault("AUTH_LOCKOUT_WINDOW", service.DefaultLockoutWindow),

		DatabaseFile:  getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		AllowInsecureLogin: getEnvBoolOrDefault("AUTH_ALLOW_INSECURE_LOGIN", false),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects configurations the services would otherwise only trip
// over at request time. Secret strength itself is enforced by the token
// codec at construction.
func (cfg Config) Validate() error {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 ||
		cfg.AccessRememberTTL <= 0 || cfg.RefreshRememberTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return fmt.Errorf("access token lifetime must be shorter than refresh token lifetime")
	}
	if cfg.LockoutThreshold < 1 {
		return fmt.Errorf("lockout threshold must be at least 1")
	}
	if cfg.LockoutWindow <= 0 {
		return fmt.Errorf("lockout window must be positive")
	}
	if cfg.AllowInsecureLogin && cfg.Env == "prod" {
		return fmt.Errorf("insecure login cannot be enabled in prod")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accepts Go duration strings (e.g. "1h", "30m", "90s").
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
