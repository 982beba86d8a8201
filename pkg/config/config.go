package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Billing       BillingConfig
	Notifications NotificationConfig
	Clinical      ClinicalConfig
	OTEL          OTELConfig
	Environment   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// BillingConfig holds billing provider and credit ledger configuration.
// TestMode turns every debit into a no-op success; it is injected into the
// credit ledger at construction time and must never be enabled in production.
// PriceTierMap maps billing provider price ids onto subscription tiers, loaded
// from BILLING_PRICE_TIER_MAP as "price_id:tier" pairs separated by commas.
type BillingConfig struct {
	TestMode      bool
	WebhookSecret string
	PriceTierMap  map[string]string
}

// NotificationConfig holds outbound notification configuration
type NotificationConfig struct {
	APIBaseURL string
	APIKey     string
	FromEmail  string
}

// ClinicalConfig holds the external clinical service endpoints
type ClinicalConfig struct {
	Provider          string
	ValidationBaseURL string
	ValidationAPIKey  string
	ParserBaseURL     string
	ParserAPIKey      string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "radiology_order_platform"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Billing: BillingConfig{
			TestMode:      getEnvAsBool("BILLING_TEST_MODE", false),
			WebhookSecret: getEnv("BILLING_WEBHOOK_SECRET", ""),
			PriceTierMap:  getEnvAsMap("BILLING_PRICE_TIER_MAP"),
		},
		Notifications: NotificationConfig{
			APIBaseURL: getEnv("NOTIFICATION_API_URL", "https://api.mailchannel.dev/v1"),
			APIKey:     getEnv("NOTIFICATION_API_KEY", ""),
			FromEmail:  getEnv("NOTIFICATION_FROM_EMAIL", "no-reply@radorder.dev"),
		},
		Clinical: ClinicalConfig{
			Provider:          getEnv("CLINICAL_PROVIDER", "mock"),
			ValidationBaseURL: getEnv("VALIDATION_ENGINE_URL", ""),
			ValidationAPIKey:  getEnv("VALIDATION_ENGINE_API_KEY", ""),
			ParserBaseURL:     getEnv("EMR_PARSER_URL", ""),
			ParserAPIKey:      getEnv("EMR_PARSER_API_KEY", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "radiology-order-platform"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Environment: env,
	}

	// A production environment must never run with the billing bypass on.
	if env == "production" && cfg.Billing.TestMode {
		return nil, fmt.Errorf("BILLING_TEST_MODE must not be enabled when APP_ENV=production")
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsMap(key string) map[string]string {
	result := make(map[string]string)
	value := os.Getenv(key)
	if value == "" {
		return result
	}
	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			result[parts[0]] = parts[1]
		}
	}
	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
