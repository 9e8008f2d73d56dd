package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// RootDomain is the platform apex; hosts ending in it resolve by
	// subdomain slug, everything else by verified custom domain.
	RootDomain string

	LogLevel string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	// RedisAddr enables the atomic Redis window counter when set.
	RedisAddr     string
	RedisPassword string

	RateLimit RateLimitConfig
	UsageJob  UsageJobConfig

	Metrics MetricsConfig
}

// RateLimitConfig carries the per-surface defaults for the request limiter.
type RateLimitConfig struct {
	APILimit     int
	APIWindow    time.Duration
	PublicLimit  int
	PublicWindow time.Duration
	SweepEvery   time.Duration
}

// UsageJobConfig controls the scheduled usage recalculation.
type UsageJobConfig struct {
	Schedule     string
	Concurrency  int
	RunTimeout   time.Duration
	TriggerToken string
}

type MetricsConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "warden"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		RootDomain:  strings.ToLower(strings.TrimSpace(getenv("PLATFORM_ROOT_DOMAIN", "platform.tld"))),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "warden"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		RateLimit: RateLimitConfig{
			APILimit:     getenvInt("RATE_LIMIT_API", 100),
			APIWindow:    getenvDuration("RATE_LIMIT_API_WINDOW", time.Minute),
			PublicLimit:  getenvInt("RATE_LIMIT_PUBLIC", 20),
			PublicWindow: getenvDuration("RATE_LIMIT_PUBLIC_WINDOW", time.Minute),
			SweepEvery:   getenvDuration("RATE_LIMIT_SWEEP_EVERY", 5*time.Minute),
		},

		UsageJob: UsageJobConfig{
			Schedule:     getenv("USAGE_JOB_SCHEDULE", "0 2 * * *"),
			Concurrency:  getenvInt("USAGE_JOB_CONCURRENCY", 10),
			RunTimeout:   getenvDuration("USAGE_JOB_TIMEOUT", 10*time.Minute),
			TriggerToken: strings.TrimSpace(getenv("JOB_TRIGGER_TOKEN", "")),
		},

		Metrics: MetricsConfig{
			Enabled:          getenvBool("METRICS_ENABLED", false),
			ExporterEndpoint: strings.TrimSpace(getenv("METRICS_ENDPOINT", "localhost:4317")),
			ExporterProtocol: strings.ToLower(getenv("METRICS_PROTOCOL", "grpc")),
		},
	}
}

// Provide exposes Load to the fx graph.
func Provide() Config { return Load() }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
