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
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	OTP      OTPConfig
	Queues   QueuesConfig
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
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	QueryTimeoutSec int
	RetryAttempts   int
	RetryBackoffMs  int
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

// AuthConfig defines admin authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	BootstrapUsername     string
	BootstrapPassword     string
}

// OTPConfig controls the optional mobile verification precondition.
type OTPConfig struct {
	Required           bool
	CodeTTLSeconds     int
	VerifiedTTLSeconds int
	DevExposeCode      bool
}

// QueuesConfig defines the queue categories and per-category service catalogs.
type QueuesConfig struct {
	Categories []string
	Services   map[string][]string
}

var defaultServices = map[string][]string{
	"male":   {"Haircut", "Beard Trim", "Head Massage"},
	"female": {"Haircut", "Facial", "Manicure"},
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	categories := splitCSV(getEnv("QUEUE_CATEGORIES", "male,female"))
	if len(categories) == 0 {
		return nil, fmt.Errorf("QUEUE_CATEGORIES must name at least one queue")
	}
	services := make(map[string][]string, len(categories))
	for _, category := range categories {
		key := "QUEUE_SERVICES_" + strings.ToUpper(category)
		if val := os.Getenv(key); val != "" {
			services[category] = splitCSV(val)
		} else if defaults, ok := defaultServices[category]; ok {
			services[category] = defaults
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "salon-token-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			QueryTimeoutSec: getEnvAsInt("STORE_TIMEOUT_SECONDS", 5),
			RetryAttempts:   getEnvAsInt("STORE_RETRY_ATTEMPTS", 3),
			RetryBackoffMs:  getEnvAsInt("STORE_RETRY_BACKOFF_MS", 100),
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
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapUsername:     getEnv("AUTH_ADMIN_USERNAME", "admin"),
			BootstrapPassword:     getEnv("AUTH_ADMIN_PASSWORD", "admin"),
		},
		OTP: OTPConfig{
			Required:           getEnvAsBool("OTP_REQUIRED", false),
			CodeTTLSeconds:     getEnvAsInt("OTP_CODE_TTL_SECONDS", 300),
			VerifiedTTLSeconds: getEnvAsInt("OTP_VERIFIED_TTL_SECONDS", 900),
			DevExposeCode:      getEnvAsBool("OTP_DEV_EXPOSE", false),
		},
		Queues: QueuesConfig{
			Categories: categories,
			Services:   services,
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

// QueryTimeout returns the per-call store timeout.
func (p PostgresConfig) QueryTimeout() time.Duration {
	if p.QueryTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.QueryTimeoutSec) * time.Second
}

// RetryBackoff returns the base delay between store retries.
func (p PostgresConfig) RetryBackoff() time.Duration {
	if p.RetryBackoffMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(p.RetryBackoffMs) * time.Millisecond
}

// CodeTTL returns the OTP code lifetime.
func (o OTPConfig) CodeTTL() time.Duration {
	return time.Duration(o.CodeTTLSeconds) * time.Second
}

// VerifiedTTL returns how long a verified mobile stays usable for submission.
func (o OTPConfig) VerifiedTTL() time.Duration {
	return time.Duration(o.VerifiedTTLSeconds) * time.Second
}

func splitCSV(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
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
