package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Payment modes.
const (
	PaymentModeTesting    = "testing"
	PaymentModeProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Logger        LoggerConfig
	Auth          AuthConfig
	Payment       PaymentConfig
	S3            S3Config
	BulkUpload    BulkUploadConfig
	Notifications NotificationConfig
	Analytics     AnalyticsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds admin authentication configuration.
type AuthConfig struct {
	// AdminAPIKeyHash is the bcrypt hash of the admin API key.
	AdminAPIKeyHash string
}

// PaymentConfig holds payment gateway configuration.
type PaymentConfig struct {
	Mode           string
	APIKey         string
	SecretKey      string
	BaseURL        string
	Currency       string
	Timeout        time.Duration
	SimulatedDelay time.Duration
}

// Testing reports whether gateway calls are simulated.
func (c *PaymentConfig) Testing() bool {
	return c.Mode == PaymentModeTesting
}

// S3Config holds AWS S3 configuration for bulk upload files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "uploads/")
}

// BulkUploadConfig holds bulk CSV upload configuration.
type BulkUploadConfig struct {
	LocalDir string
	MaxBytes int64
}

// NotificationConfig holds customer notification configuration.
type NotificationConfig struct {
	Enabled bool
	From    string
}

// AnalyticsConfig holds admin analytics configuration.
type AnalyticsConfig struct {
	LowStockThreshold int
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "pottery"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			AdminAPIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
		},
		Payment: PaymentConfig{
			Mode:           strings.ToLower(getEnv("PAYMENT_MODE", PaymentModeProduction)),
			APIKey:         getEnv("IYZICO_API_KEY", ""),
			SecretKey:      getEnv("IYZICO_SECRET_KEY", ""),
			BaseURL:        getEnv("IYZICO_BASE_URL", "https://sandbox-api.iyzipay.com"),
			Currency:       getEnv("PAYMENT_CURRENCY", "TRY"),
			Timeout:        time.Duration(getEnvAsInt("PAYMENT_TIMEOUT_SECONDS", 30)) * time.Second,
			SimulatedDelay: time.Duration(getEnvAsInt("PAYMENT_SIMULATED_DELAY_MS", 1000)) * time.Millisecond,
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "eu-central-1"),
			Prefix:  getEnv("S3_PREFIX", "uploads/"),
		},
		BulkUpload: BulkUploadConfig{
			LocalDir: getEnv("BULK_UPLOAD_DIR", "data/uploads"),
			MaxBytes: int64(getEnvAsInt("BULK_UPLOAD_MAX_BYTES", 10<<20)),
		},
		Notifications: NotificationConfig{
			Enabled: getEnvAsBool("NOTIFICATIONS_ENABLED", false),
			From:    getEnv("NOTIFICATIONS_FROM", "orders@pottery.local"),
		},
		Analytics: AnalyticsConfig{
			LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.AdminAPIKeyHash == "" {
		return fmt.Errorf("admin API key hash is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Payment.Mode != PaymentModeTesting && c.Payment.Mode != PaymentModeProduction {
		return fmt.Errorf("invalid payment mode: %s (must be testing or production)", c.Payment.Mode)
	}

	// Missing gateway keys in production are reported per payment attempt, not at startup.
	if c.Payment.BaseURL == "" {
		return fmt.Errorf("payment base URL is required")
	}

	if c.Payment.SimulatedDelay < 0 {
		return fmt.Errorf("payment simulated delay cannot be negative")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.BulkUpload.MaxBytes < 1 {
		return fmt.Errorf("bulk upload max bytes must be positive")
	}

	if c.Analytics.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold cannot be negative")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
