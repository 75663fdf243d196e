package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AuthMode selects how caller identities are resolved. It is decided
// exactly once at process start; nothing re-checks environment flags
// per request.
type AuthMode string

const (
	// AuthModeVerified exchanges identity-provider tokens for user records.
	AuthModeVerified AuthMode = "verified"
	// AuthModeDevelopment substitutes a fixed synthetic identity. Refused
	// when APP_ENV is production.
	AuthModeDevelopment AuthMode = "development"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Community    CommunityConfig
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

// AuthConfig defines identity resolution parameters.
type AuthConfig struct {
	Mode      AuthMode
	JWTSecret string
}

// CommunityConfig bounds the unauthenticated listing surface.
type CommunityConfig struct {
	MaxPageSize     int
	CacheTTLSeconds int
}

// NotificationConfig points the event sink at a broker. Empty brokers
// disable outbound publishing.
type NotificationConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where possible. AuthMode is validated here and nowhere else.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civicaid-intake-service"),
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
			Mode:      AuthMode(strings.ToLower(getEnv("AUTH_MODE", string(AuthModeVerified)))),
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Community: CommunityConfig{
			MaxPageSize:     getEnvAsInt("COMMUNITY_MAX_PAGE_SIZE", 50),
			CacheTTLSeconds: getEnvAsInt("COMMUNITY_CACHE_TTL_SECONDS", 15),
		},
		Notification: NotificationConfig{
			KafkaBrokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			KafkaTopic:   getEnv("KAFKA_TICKET_EVENTS_TOPIC", "ticket-events"),
		},
	}

	if err := validateAuthMode(cfg.Auth.Mode, cfg.App.Env); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateAuthMode(mode AuthMode, env string) error {
	switch mode {
	case AuthModeVerified:
		return nil
	case AuthModeDevelopment:
		if strings.EqualFold(env, "production") {
			return fmt.Errorf("AUTH_MODE=development is not allowed when APP_ENV=production")
		}
		return nil
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", mode)
	}
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

// CacheTTL returns the community listing cache expiry.
func (c CommunityConfig) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func splitNonEmpty(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
