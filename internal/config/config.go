package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Notify    NotifyConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. Access and refresh tokens
// are signed with separate secrets.
type AuthConfig struct {
	JWTAccessSecret         string
	JWTRefreshSecret        string
	AccessTokenTTLMinutes   int
	RefreshTokenTTLHours    int
	VerificationTTLHours    int
	PasswordResetTTLMinutes int
	BcryptCost              int
	TokenByteLength         int
}

// RateLimitConfig tunes the fixed-window login limiter.
type RateLimitConfig struct {
	MaxRequests          int
	WindowSeconds        int
	SweepIntervalSeconds int
	UseRedis             bool
}

// NotifyConfig controls the outbound notification queue.
type NotifyConfig struct {
	EmailFrom        string
	BaseURL          string
	QueueCapacity    int
	MaxAttempts      int
	RetryBaseDelayMS int
	DrainIntervalMS  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", "dev-access-secret"),
			JWTRefreshSecret:        getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("JWT_ACCESS_TTL_MINUTES", 15),
			RefreshTokenTTLHours:    getEnvAsInt("JWT_REFRESH_TTL_HOURS", 168),
			VerificationTTLHours:    getEnvAsInt("AUTH_VERIFICATION_TTL_HOURS", 24),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			TokenByteLength:         getEnvAsInt("AUTH_TOKEN_BYTE_LENGTH", 32),
		},
		RateLimit: RateLimitConfig{
			MaxRequests:          getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 5),
			WindowSeconds:        getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			SweepIntervalSeconds: getEnvAsInt("RATE_LIMIT_SWEEP_INTERVAL_SECONDS", 60),
			UseRedis:             getEnvAsBool("RATE_LIMIT_USE_REDIS", false),
		},
		Notify: NotifyConfig{
			EmailFrom:        getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			BaseURL:          getEnv("AUTH_SERVICE_URL", "http://localhost:8080"),
			QueueCapacity:    getEnvAsInt("NOTIFY_QUEUE_CAPACITY", 256),
			MaxAttempts:      getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			RetryBaseDelayMS: getEnvAsInt("NOTIFY_RETRY_BASE_DELAY_MS", 60000),
			DrainIntervalMS:  getEnvAsInt("NOTIFY_DRAIN_INTERVAL_MS", 1000),
		},
	}

	if cfg.App.Env == "production" {
		if cfg.Auth.JWTAccessSecret == "dev-access-secret" || cfg.Auth.JWTRefreshSecret == "dev-refresh-secret" {
			return nil, fmt.Errorf("JWT secrets must be configured in production")
		}
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLHours) * time.Hour
}

// VerificationTTL returns the email verification token lifetime.
func (a AuthConfig) VerificationTTL() time.Duration {
	return time.Duration(a.VerificationTTLHours) * time.Hour
}

// PasswordResetTTL returns the reset token lifetime.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// Window returns the rate limit window duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// SweepInterval returns how often expired counters are removed.
func (r RateLimitConfig) SweepInterval() time.Duration {
	return time.Duration(r.SweepIntervalSeconds) * time.Second
}

// RetryBaseDelay returns the base delay between delivery retries.
func (n NotifyConfig) RetryBaseDelay() time.Duration {
	return time.Duration(n.RetryBaseDelayMS) * time.Millisecond
}

// DrainInterval returns how often the queue worker polls for due jobs.
func (n NotifyConfig) DrainInterval() time.Duration {
	return time.Duration(n.DrainIntervalMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
