package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Mongo       MongoConfig
	JWT         JWTConfig
	ImageHost   ImageHostConfig
	Geocoder    GeocoderConfig
	Replication ReplicationConfig
}

// DatabaseConfig holds the PostgreSQL settings backing the device pending
// store and the replication outbox.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// MongoConfig holds the canonical and secondary document store settings.
// SecondaryURI may point at an unreachable cluster; the replication layer
// tolerates that.
type MongoConfig struct {
	URI           string
	Database      string
	SecondaryURI  string
	SecondaryName string
}

// JWTConfig holds JWT verification configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	// Timezone used to derive the date and check-in time stored on
	// canonical records.
	RecordTimezone string
}

// ImageHostConfig holds the third-party image host settings.
type ImageHostConfig struct {
	UploadURL   string
	APIKey      string
	MaxAttempts int
}

type GeocoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ReplicationConfig struct {
	DrainInterval time.Duration
	BatchSize     int
}

func Load() (*Config, error) {
	// Missing .env is fine in deployed environments; env vars win either way.
	_ = godotenv.Load()

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "fieldforce"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.Mongo = MongoConfig{
		URI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:      getEnv("MONGO_DB", "fieldforce"),
		SecondaryURI:  getEnv("MONGO_SECONDARY_URI", "mongodb://localhost:27017"),
		SecondaryName: getEnv("MONGO_SECONDARY_DB", "fieldforce_hr"),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RecordTimezone: getEnv("RECORD_TIMEZONE", "Asia/Kolkata"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	maxAttempts, err := strconv.Atoi(getEnv("IMAGE_HOST_MAX_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_HOST_MAX_ATTEMPTS: %w", err)
	}

	config.ImageHost = ImageHostConfig{
		UploadURL:   getEnv("IMAGE_HOST_UPLOAD_URL", ""),
		APIKey:      getEnv("IMAGE_HOST_API_KEY", ""),
		MaxAttempts: maxAttempts,
	}

	geocoderTimeout, err := time.ParseDuration(getEnv("GEOCODER_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODER_TIMEOUT: %w", err)
	}

	config.Geocoder = GeocoderConfig{
		BaseURL: getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		Timeout: geocoderTimeout,
	}

	drainInterval, err := time.ParseDuration(getEnv("REPLICATION_DRAIN_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPLICATION_DRAIN_INTERVAL: %w", err)
	}

	batchSize, err := strconv.Atoi(getEnv("REPLICATION_BATCH_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPLICATION_BATCH_SIZE: %w", err)
	}

	config.Replication = ReplicationConfig{
		DrainInterval: drainInterval,
		BatchSize:     batchSize,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.ImageHost.UploadURL == "" {
		return fmt.Errorf("IMAGE_HOST_UPLOAD_URL is required")
	}
	if c.ImageHost.MaxAttempts < 1 {
		return fmt.Errorf("IMAGE_HOST_MAX_ATTEMPTS must be at least 1")
	}
	if strings.TrimSpace(c.App.RecordTimezone) == "" {
		return fmt.Errorf("RECORD_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.App.RecordTimezone); err != nil {
		return fmt.Errorf("invalid RECORD_TIMEZONE: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
