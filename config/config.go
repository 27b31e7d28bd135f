package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"

	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

type Config struct {
	Env                 string
	ServerPort          int
	RequestTimeout      time.Duration
	ShutdownGracePeriod time.Duration
	Database            DatabaseConfig
	Auth                AuthConfig
	Log                 LogConfig
	RateLimit           RateLimitConfig
	MQ                  MQConfig
	Client              ClientConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuthConfig holds the process-wide credential secrets. They are read once at
// startup and never mutated afterwards.
type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens (HS256).
	JWTSecret string

	// TokenTTL is the lifetime of an issued token.
	TokenTTL time.Duration

	// AdminKey must be presented to self-register a privileged role.
	// Empty disables privileged self-registration entirely.
	AdminKey string

	BcryptCost      int
	HashConcurrency int
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig throttles the credential endpoints per client IP.
// A zero AuthRequestsPerMinute disables throttling.
type RateLimitConfig struct {
	AuthRequestsPerMinute int
	AuthBurst             int
}

type MQConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// ClientConfig configures the command line client.
type ClientConfig struct {
	BaseURL     string
	SessionFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", DatabaseDriverPostgres),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "daycare"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "daycare_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	authConfig := AuthConfig{
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:        getEnvDuration("JWT_TTL", time.Hour),
		AdminKey:        strings.TrimSpace(os.Getenv("ADMIN_KEY")),
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		HashConcurrency: getEnvInt("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),
	}

	mqConfig := MQConfig{
		Backend: strings.ToLower(getEnv("MQ_BACKEND", MQBackendNone)),
		Channel: getEnv("MQ_CHANNEL", "daycare.accounts"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 10),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	return Config{
		Env:                 getEnv("ENV", "prod"),
		ServerPort:          getEnvInt("SERVER_PORT", 8080),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		Database:            dbConfig,
		Auth:                authConfig,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 20),
			AuthBurst:             getEnvInt("AUTH_RATE_LIMIT_BURST", 20),
		},
		MQ: mqConfig,
		Client: ClientConfig{
			BaseURL:     getEnv("DAYCARE_URL", "http://localhost:8080"),
			SessionFile: getEnv("DAYCARE_SESSION_FILE", defaultSessionFile()),
		},
	}
}

// Validate reports configuration that the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL))
	}
	switch c.Database.Driver {
	case DatabaseDriverPostgres, DatabaseDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	switch c.MQ.Backend {
	case MQBackendNone, MQBackendRabbitMQ, MQBackendPubSub:
	default:
		errs = append(errs, fmt.Errorf("unknown MQ_BACKEND %q", c.MQ.Backend))
	}
	return errors.Join(errs...)
}

// DevMode reports whether internal error details may be exposed to callers.
func (c Config) DevMode() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(strings.TrimSpace(valueStr)); err == nil {
		return d
	}
	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return defaultValue
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".daycare-session.json"
	}
	return filepath.Join(dir, "daycare", "session.json")
}
