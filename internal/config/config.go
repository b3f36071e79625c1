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
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Session      SessionConfig
	Verify       VerifyConfig
	Accounts     AccountsConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
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

// SessionConfig defines signed session cookie parameters.
type SessionConfig struct {
	Secret     string
	CookieName string
	TTLMinutes int
	Secure     bool
}

// VerifyConfig holds credentials for the OTP verification provider.
type VerifyConfig struct {
	AccountSID     string
	AuthToken      string
	ServiceSID     string
	BaseURL        string
	TimeoutSeconds int
}

// AccountsConfig holds credentials for the external account store admin API.
type AccountsConfig struct {
	BaseURL        string
	ServiceKey     string
	TimeoutSeconds int
}

// RateLimitConfig caps OTP sends and check attempts per phone number.
type RateLimitConfig struct {
	MaxSends      int
	MaxChecks     int
	WindowMinutes int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "phone-auth-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", "dev-secret"),
			CookieName: getEnv("SESSION_COOKIE_NAME", "phone_auth_session"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 1440),
			Secure:     getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Verify: VerifyConfig{
			AccountSID:     os.Getenv("VERIFY_ACCOUNT_SID"),
			AuthToken:      os.Getenv("VERIFY_AUTH_TOKEN"),
			ServiceSID:     os.Getenv("VERIFY_SERVICE_SID"),
			BaseURL:        getEnv("VERIFY_BASE_URL", "https://verify.twilio.com/v2"),
			TimeoutSeconds: getEnvAsInt("VERIFY_TIMEOUT_SECONDS", 10),
		},
		Accounts: AccountsConfig{
			BaseURL:        os.Getenv("ACCOUNTS_BASE_URL"),
			ServiceKey:     os.Getenv("ACCOUNTS_SERVICE_KEY"),
			TimeoutSeconds: getEnvAsInt("ACCOUNTS_TIMEOUT_SECONDS", 10),
		},
		RateLimit: RateLimitConfig{
			MaxSends:      getEnvAsInt("OTP_MAX_SENDS", 3),
			MaxChecks:     getEnvAsInt("OTP_MAX_CHECKS", 5),
			WindowMinutes: getEnvAsInt("OTP_LIMIT_WINDOW_MINUTES", 10),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
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

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Timeout returns the outbound HTTP timeout for the verification provider.
func (v VerifyConfig) Timeout() time.Duration {
	if v.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(v.TimeoutSeconds) * time.Second
}

// Timeout returns the outbound HTTP timeout for the account store.
func (a AccountsConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Window returns the fixed rate-limit window.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(r.WindowMinutes) * time.Minute
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
