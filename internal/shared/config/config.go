package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the gateway
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Upstream ticketing backend
	Upstream UpstreamConfig

	// Database configuration (cancelled-ticket ledger)
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Booking session configuration
	Session SessionConfig

	// Cancelled-ticket ledger configuration
	Ledger LedgerConfig

	// Kafka relay for cancellation events
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// UpstreamConfig holds the calling conventions for the externally-owned
// ticketing REST backend. The gateway never owns bookings, payments or
// refunds; it only consumes these endpoints.
type UpstreamConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for the advisory caches
	BookedSeatsTTL time.Duration
	RoleCacheTTL   time.Duration
	EventInfoTTL   time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// SessionConfig holds booking-session behaviour
type SessionConfig struct {
	// Duration is the seat-hold countdown window. Sessions always start
	// fresh; elapsed time is never persisted across restarts.
	Duration         time.Duration
	WarningThreshold time.Duration
	// RedirectDelay is how long a success message stays visible before the
	// client is told to navigate away.
	RedirectDelay time.Duration
	// JanitorInterval controls eviction of finished sessions.
	JanitorInterval time.Duration
}

// LedgerConfig holds cancelled-ticket ledger behaviour
type LedgerConfig struct {
	// Retention is how long ledger entries survive before the lazy prune
	// removes them.
	Retention     time.Duration
	PruneInterval time.Duration
}

// KafkaConfig holds the optional cancellation-event relay settings
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	SessionRequests int           `json:"session_requests"`
	TicketRequests  int           `json:"ticket_requests"`
	HealthRequests  int           `json:"health_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Upstream: UpstreamConfig{
			BaseURL:        getEnv("UPSTREAM_BASE_URL", "http://localhost:5000/api"),
			RequestTimeout: getDurationEnv("UPSTREAM_REQUEST_TIMEOUT", 15*time.Second),
		},

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "ticketgate_db"),
			User:     getEnv("DB_USER", "ticketgate_user"),
			Password: getEnv("DB_PASSWORD", "ticketgate_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			BookedSeatsTTL: getDurationEnv("REDIS_BOOKED_SEATS_TTL", 30*time.Second),
			RoleCacheTTL:   getDurationEnv("REDIS_ROLE_CACHE_TTL", 6*time.Hour),
			EventInfoTTL:   getDurationEnv("REDIS_EVENT_INFO_TTL", 10*time.Minute),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		},

		Session: SessionConfig{
			Duration:         getDurationEnv("SESSION_DURATION", 10*time.Minute),
			WarningThreshold: getDurationEnv("SESSION_WARNING_THRESHOLD", 60*time.Second),
			RedirectDelay:    getDurationEnv("SESSION_REDIRECT_DELAY", 2*time.Second),
			JanitorInterval:  getDurationEnv("SESSION_JANITOR_INTERVAL", 1*time.Minute),
		},

		Ledger: LedgerConfig{
			Retention:     getDurationEnv("LEDGER_RETENTION", 30*24*time.Hour),
			PruneInterval: getDurationEnv("LEDGER_PRUNE_INTERVAL", 24*time.Hour),
		},

		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_CANCELLATION_TOPIC", "ticket-cancellations"),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			SessionRequests: getIntEnv("RATE_LIMIT_SESSION_REQUESTS", 30),
			TicketRequests:  getIntEnv("RATE_LIMIT_TICKET_REQUESTS", 20),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 120),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
