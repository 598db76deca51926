package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Media       MediaConfig
	Email       EmailConfig
	Messages    MessagesConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	Environment string
}

type ServerConfig struct {
	Host        string
	Port        int
	MetricsPort int
	BaseURL     string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

type RateLimitConfig struct {
	PublicPerMinute int
	LoginPerMinute  int
	// TrustedProxyCIDRs lists proxies whose X-Forwarded-For header is
	// trusted when identifying clients.
	TrustedProxyCIDRs []string
}

type CORSConfig struct {
	AllowAllOrigins bool
	AllowedOrigins  []string
}

// MediaConfig selects where uploaded images are stored. Backend is either
// "fs" (local disk under Root) or "s3".
type MediaConfig struct {
	Backend    string
	Root       string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
}

type EmailConfig struct {
	Enabled      bool
	ResendAPIKey string
	From         string
}

// MessagesConfig points at an optional YAML catalog that overrides the
// built-in Spanish user-facing messages.
type MessagesConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			MetricsPort: getEnvInt("METRICS_PORT", 9090),
			BaseURL:     getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "happenit"),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 120),
			LoginPerMinute:  getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		Media: MediaConfig{
			Backend:    getEnv("MEDIA_BACKEND", "fs"),
			Root:       getEnv("MEDIA_ROOT", "static"),
			S3Bucket:   getEnv("MEDIA_S3_BUCKET", ""),
			S3Region:   getEnv("MEDIA_S3_REGION", ""),
			S3Endpoint: getEnv("MEDIA_S3_ENDPOINT", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "Happenit <no-reply@happenit.app>"),
		},
		Messages: MessagesConfig{
			Path: getEnv("MESSAGES_PATH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "happenit-server"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	cfg.Email.Enabled = cfg.Email.ResendAPIKey != ""

	if proxies := getEnv("RATE_LIMIT_TRUSTED_PROXIES", ""); proxies != "" {
		for _, cidr := range strings.Split(proxies, ",") {
			if trimmed := strings.TrimSpace(cidr); trimmed != "" {
				cfg.RateLimit.TrustedProxyCIDRs = append(cfg.RateLimit.TrustedProxyCIDRs, trimmed)
			}
		}
	}

	origins := getEnv("CORS_ALLOWED_ORIGINS", "")
	if origins == "" {
		cfg.CORS.AllowAllOrigins = cfg.Environment == "development"
	} else {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, trimmed)
			}
		}
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.Media.Backend {
	case "fs":
	case "s3":
		if cfg.Media.S3Bucket == "" {
			return Config{}, fmt.Errorf("MEDIA_S3_BUCKET is required when MEDIA_BACKEND=s3")
		}
	default:
		return Config{}, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.Media.Backend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
