package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Payments PaymentsConfig
	Checkout CheckoutConfig
	Kafka    KafkaConfig
	Search   SearchConfig
}

// AppConfig holds values shown to customers and payment providers.
type AppConfig struct {
	Name string
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
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
// APIKey guards the admin surface, JWTSecret verifies customer bearer tokens.
type AuthConfig struct {
	APIKey    string
	JWTSecret string
}

// S3Config holds AWS S3 configuration for coupon catalogue files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "coupons/")
}

// StripeConfig holds Stripe credentials. An empty SecretKey disables the provider.
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
}

// RazorpayConfig holds Razorpay credentials. WebhookSecret falls back to KeySecret.
type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

// PaymentsConfig holds payment provider configuration.
type PaymentsConfig struct {
	Currency        string
	ProviderTimeout time.Duration
	Stripe          StripeConfig
	Razorpay        RazorpayConfig
}

// CheckoutConfig holds order placement policy.
type CheckoutConfig struct {
	LowStockThreshold     int
	RedeemCoupons         bool
	LowStockDigestEvery   time.Duration // 0 disables the periodic digest
	NotificationQueueSize int
}

// KafkaConfig holds the notification broker configuration.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

// SearchConfig holds product search cache configuration.
type SearchConfig struct {
	CacheTTL  time.Duration
	CacheSize int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Storefront"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey:    getEnv("API_KEY", ""),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "coupons/"),
		},
		Payments: PaymentsConfig{
			Currency:        strings.ToUpper(getEnv("PAYMENT_CURRENCY", "INR")),
			ProviderTimeout: getEnvAsDuration("PAYMENT_PROVIDER_TIMEOUT", 10*time.Second),
			Stripe: StripeConfig{
				SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
				PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
				WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			},
			Razorpay: RazorpayConfig{
				KeyID:         getEnv("RAZORPAY_KEY_ID", ""),
				KeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
				WebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			},
		},
		Checkout: CheckoutConfig{
			LowStockThreshold:     getEnvAsInt("LOW_STOCK_THRESHOLD", 5),
			RedeemCoupons:         getEnvAsBool("CHECKOUT_REDEEM_COUPONS", true),
			LowStockDigestEvery:   getEnvAsDuration("LOW_STOCK_DIGEST_INTERVAL", 0),
			NotificationQueueSize: getEnvAsInt("NOTIFICATION_QUEUE_SIZE", 256),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_NOTIFICATIONS_TOPIC", "storefront.notifications"),
			GroupID: getEnv("KAFKA_GROUP_ID", "storefront-notifier"),
		},
		Search: SearchConfig{
			CacheTTL:  getEnvAsDuration("SEARCH_CACHE_TTL", 5*time.Minute),
			CacheSize: getEnvAsInt("SEARCH_CACHE_SIZE", 1024),
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

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
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

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if len(c.Payments.Currency) != 3 {
		return fmt.Errorf("invalid payment currency: %q (must be an ISO 4217 code)", c.Payments.Currency)
	}

	if c.Payments.ProviderTimeout <= 0 {
		return fmt.Errorf("payment provider timeout must be positive")
	}

	if c.Checkout.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold cannot be negative")
	}

	if c.Checkout.NotificationQueueSize < 1 {
		return fmt.Errorf("notification queue size must be at least 1")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.Search.CacheSize < 1 {
		return fmt.Errorf("search cache size must be at least 1")
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

// RazorpayWebhookSecret returns the secret used to sign Razorpay webhooks.
func (c *RazorpayConfig) RazorpayWebhookSecret() string {
	if c.WebhookSecret != "" {
		return c.WebhookSecret
	}
	return c.KeySecret
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

// getEnvAsDuration retrieves an environment variable as a time.Duration ("10s", "5m").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList retrieves a comma separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
