package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Helpdesk     HelpdeskConfig
	RateLimit    RateLimitConfig
	Storage      StorageConfig
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
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AdminUsername         string
	AdminEmail            string
	AdminPassword         string
}

// NotificationConfig controls the notification outbox.
type NotificationConfig struct {
	EmailFrom string
	QueueKey  string
}

// HelpdeskConfig holds ticket lifecycle tunables.
type HelpdeskConfig struct {
	TicketNumberPrefix      string
	TicketNumberMaxAttempts int
	SLAApproachingHours     int
	DefaultPerPage          int
	MaxPerPage              int
	AssignmentPolicy        string
	SLASweepSchedule        string
}

// RateLimitConfig bounds public, unauthenticated endpoints.
type RateLimitConfig struct {
	ClientSubmitLimit         int
	ClientSubmitWindowSeconds int
}

// StorageConfig locates attachment files. An empty UploadDir keeps files in memory.
type StorageConfig struct {
	UploadDir string
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
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
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
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminUsername:         os.Getenv("AUTH_ADMIN_USERNAME"),
			AdminEmail:            getEnv("AUTH_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
		},
		Notification: NotificationConfig{
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			QueueKey:  getEnv("NOTIFY_QUEUE_KEY", "helpdesk:notifications"),
		},
		Helpdesk: HelpdeskConfig{
			TicketNumberPrefix:      getEnv("TICKET_NUMBER_PREFIX", "TKT"),
			TicketNumberMaxAttempts: getEnvAsInt("TICKET_NUMBER_MAX_ATTEMPTS", 5),
			SLAApproachingHours:     getEnvAsInt("SLA_APPROACHING_HOURS", 4),
			DefaultPerPage:          getEnvAsInt("PAGINATION_DEFAULT_PER_PAGE", 20),
			MaxPerPage:              getEnvAsInt("PAGINATION_MAX_PER_PAGE", 100),
			AssignmentPolicy:        strings.ToLower(getEnv("ASSIGNMENT_POLICY", "round_robin")),
			SLASweepSchedule:        os.Getenv("SLA_SWEEP_SCHEDULE"),
		},
		RateLimit: RateLimitConfig{
			ClientSubmitLimit:         getEnvAsInt("CLIENT_SUBMIT_LIMIT", 5),
			ClientSubmitWindowSeconds: getEnvAsInt("CLIENT_SUBMIT_WINDOW_SECONDS", 3600),
		},
		Storage: StorageConfig{
			UploadDir: os.Getenv("UPLOAD_DIR"),
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

// ApproachingWindow is how close to the resolution deadline a ticket counts as approaching breach.
func (h HelpdeskConfig) ApproachingWindow() time.Duration {
	if h.SLAApproachingHours <= 0 {
		return 4 * time.Hour
	}
	return time.Duration(h.SLAApproachingHours) * time.Hour
}

// Window returns the rate limit window duration.
func (r RateLimitConfig) Window() time.Duration {
	if r.ClientSubmitWindowSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(r.ClientSubmitWindowSeconds) * time.Second
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
