package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LiveKit  LiveKitConfig
	Storage  StorageConfig
	Session  SessionConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// LiveKitConfig holds LiveKit configuration
type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string
	UseMock   bool
	// AllowUnsignedWebhooks accepts webhook bodies without a valid signature (development only)
	AllowUnsignedWebhooks bool
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// SessionConfig tunes the live session engine. Read from SESSION_* variables.
type SessionConfig struct {
	PersistWorkers         int           `envconfig:"PERSIST_WORKERS" default:"4"`
	FinalizeTimeout        time.Duration `envconfig:"FINALIZE_TIMEOUT" default:"30s"`
	SummaryTTL             time.Duration `envconfig:"SUMMARY_TTL" default:"24h"`
	PreserveStartOnRestart bool          `envconfig:"PRESERVE_START_ON_RESTART" default:"false"`
	LateFragmentWindow     time.Duration `envconfig:"LATE_FRAGMENT_WINDOW" default:"2m"`
	AgentAPIKey            string        `envconfig:"AGENT_API_KEY"`
	AgentName              string        `envconfig:"AGENT_NAME" default:"transcriber"`
	DispatchMaxElapsed     time.Duration `envconfig:"DISPATCH_MAX_ELAPSED" default:"10s"`
	EventChannel           string        `envconfig:"EVENT_CHANNEL" default:"meeting-events"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	config, err := Read()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Read loads configuration from environment variables without validating
// the service settings. Used by tools that only need the database.
func Read() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "meetings"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LiveKit: LiveKitConfig{
			URL:                   getEnv("LIVEKIT_URL", "ws://localhost:7880"),
			APIKey:                getEnv("LIVEKIT_API_KEY", ""),
			APISecret:             getEnv("LIVEKIT_API_SECRET", ""),
			UseMock:               getEnvAsBool("LIVEKIT_USE_MOCK", false),
			AllowUnsignedWebhooks: getEnvAsBool("LIVEKIT_ALLOW_UNSIGNED_WEBHOOKS", false),
		},
		Storage: StorageConfig{
			Enabled:         getEnvAsBool("STORAGE_ENABLED", false),
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "meeting-transcripts"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
	}

	if err := envconfig.Process("SESSION", &config.Session); err != nil {
		return nil, fmt.Errorf("failed to read session config: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.LiveKit.UseMock {
		if c.LiveKit.APIKey == "" {
			return fmt.Errorf("LIVEKIT_API_KEY is required")
		}
		if c.LiveKit.APISecret == "" {
			return fmt.Errorf("LIVEKIT_API_SECRET is required")
		}
	}
	if c.Session.PersistWorkers < 1 {
		return fmt.Errorf("SESSION_PERSIST_WORKERS must be at least 1")
	}
	if c.Session.FinalizeTimeout <= 0 {
		return fmt.Errorf("SESSION_FINALIZE_TIMEOUT must be positive")
	}
	if c.IsProduction() && c.LiveKit.AllowUnsignedWebhooks {
		return fmt.Errorf("LIVEKIT_ALLOW_UNSIGNED_WEBHOOKS must be disabled in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
