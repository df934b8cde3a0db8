package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DefaultSignedURLTTL is how long a presigned image URL stays valid.
// SigV4 presigned URLs cannot outlive seven days.
const DefaultSignedURLTTL = 7 * 24 * time.Hour

// DefaultMaxUploadSize is the per-file ceiling for image uploads (5 MiB).
const DefaultMaxUploadSize int64 = 5 << 20

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the connection string for the configured driver
func (c *DBConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == "sqlite" {
		return c.DBName
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	BodyLimit      string
}

// IsProduction reports whether the service runs with production settings
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// SessionConfig holds session cookie and token configuration
type SessionConfig struct {
	SigningKey string
	CookieName string
	TTL        time.Duration
	Store      string
}

// RedisConfig holds the Redis connection used by the redis session store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig holds S3-compatible object storage configuration
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	SignedURLTTL    time.Duration
	MaxUploadSize   int64
}

// Configured reports whether credentials and a bucket are present
func (s StorageConfig) Configured() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != "" && s.Bucket != ""
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// TracingConfig holds OpenTelemetry exporter configuration
type TracingConfig struct {
	Endpoint string
	Insecure bool
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	Session     SessionConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
	RateLimit   RateLimitConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{
		ServiceName: getEnv("SERVICE_NAME", "catalog-service"),
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "catalog"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			BodyLimit:      getEnv("SERVER_BODY_LIMIT", "32M"),
		},
		Session: SessionConfig{
			SigningKey: getEnv("SESSION_SIGNING_KEY", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "catalog_session"),
			TTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			Store:      getEnv("SESSION_STORE", "database"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "https://s3.filebase.com"),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:          getEnv("STORAGE_BUCKET", ""),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			SignedURLTTL:    getEnvAsDuration("STORAGE_SIGNED_URL_TTL", DefaultSignedURLTTL),
			MaxUploadSize:   int64(getEnvAsInt("STORAGE_MAX_UPLOAD_SIZE", int(DefaultMaxUploadSize))),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "catalog"),
		},
		Tracing: TracingConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:     getEnvAsInt("LOGIN_RATE_BURST", 5),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks settings the service cannot run without
func (c *Config) Validate() error {
	if c.Session.SigningKey == "" {
		if c.Server.IsProduction() {
			return fmt.Errorf("SESSION_SIGNING_KEY is required in production")
		}
		c.Session.SigningKey = "development-session-key"
	}
	switch c.Session.Store {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Storage.SignedURLTTL <= 0 || c.Storage.SignedURLTTL > DefaultSignedURLTTL {
		c.Storage.SignedURLTTL = DefaultSignedURLTTL
	}
	if c.Storage.MaxUploadSize <= 0 {
		c.Storage.MaxUploadSize = DefaultMaxUploadSize
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("session_store", c.Session.Store),
		zap.String("storage_endpoint", c.Storage.Endpoint),
		zap.String("storage_bucket", c.Storage.Bucket),
		zap.Bool("storage_configured", c.Storage.Configured()),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma separated environment variables
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
