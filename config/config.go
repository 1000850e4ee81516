// Package config loads client, dev server and telemetry settings from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/pamojavote/pamoja-go/devserver"
	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/otel"
	"github.com/pamojavote/pamoja-go/queue"
	"github.com/pamojavote/pamoja-go/session"
	"github.com/pamojavote/pamoja-go/utils/logger"
)

const (
	DefaultBaseURL        = "http://localhost:8000/api"
	DefaultStationsSource = "polling_stations.geojson"
	DefaultEnv            = "development"
	DefaultRedisPrefix    = "pamoja:session:"
)

type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Queue     QueueConfig
	Log       LogConfig
	Otel      OtelConfig
	Stations  StationsConfig
	Devserver DevserverConfig
}

type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type StorageConfig struct {
	Backend       string `validate:"required,oneof=memory file redis"`
	SessionFile   string `validate:"required_if=Backend file"`
	RedisAddr     string `validate:"required_if=Backend redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
	RedisPrefix   string
}

// QueueConfig enables session event publishing when URI is set.
type QueueConfig struct {
	URI      string `validate:"omitempty,url"`
	Exchange string `validate:"required_with=URI"`
}

type LogConfig struct {
	Level       string `validate:"required"`
	Env         string
	ServiceName string `validate:"required"`
}

type OtelConfig struct {
	Enabled    bool
	Endpoint   string  `validate:"required_if=Enabled true"`
	SampleRate float64 `validate:"gte=0,lte=1"`
}

type StationsConfig struct {
	Source string `validate:"required"`
}

type DevserverConfig struct {
	Addr       string        `validate:"required"`
	JWTSecret  string        `validate:"required"`
	AccessTTL  time.Duration `validate:"gt=0"`
	RefreshTTL time.Duration `validate:"gt=0,gtfield=AccessTTL"`
	OTP        string        `validate:"required,numeric"`

	// RotateRefresh makes the refresh endpoint issue a new refresh token.
	RotateRefresh bool
}

// Load reads files (".env" when none are given) into the environment
// without overriding variables already set, then builds and validates the
// configuration. Missing env files are not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("PAMOJA_API_BASE_URL", DefaultBaseURL),
			Timeout: getEnvAsDuration("PAMOJA_TIMEOUT", gateway.DefaultTimeout),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(getEnv("PAMOJA_STORAGE", enums.StorageFile)),
			SessionFile:   getEnv("PAMOJA_SESSION_FILE", defaultSessionFile()),
			RedisAddr:     getEnv("PAMOJA_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("PAMOJA_REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("PAMOJA_REDIS_DB", 0),
			RedisPrefix:   getEnv("PAMOJA_REDIS_PREFIX", DefaultRedisPrefix),
		},
		Queue: QueueConfig{
			URI:      getEnv("PAMOJA_AMQP_URI", ""),
			Exchange: getEnv("PAMOJA_AMQP_EXCHANGE", queue.DefaultExchange),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", enums.LogLevelInfo),
			Env:         getEnv("ENV", DefaultEnv),
			ServiceName: getEnv("SERVICE_NAME", gateway.DefaultServiceName),
		},
		Otel: OtelConfig{
			Enabled:    getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:   getEnv("OTEL_ENDPOINT", ""),
			SampleRate: getEnvAsFloat("OTEL_SAMPLE_RATE", 1.0),
		},
		Stations: StationsConfig{
			Source: getEnv("PAMOJA_STATIONS_SOURCE", DefaultStationsSource),
		},
		Devserver: DevserverConfig{
			Addr:          getEnv("DEVSERVER_ADDR", devserver.DefaultAddr),
			JWTSecret:     getEnv("DEVSERVER_JWT_SECRET", devserver.DefaultJWTSecret),
			AccessTTL:     getEnvAsDuration("DEVSERVER_ACCESS_TTL", devserver.DefaultAccessTTL),
			RefreshTTL:    getEnvAsDuration("DEVSERVER_REFRESH_TTL", devserver.DefaultRefreshTTL),
			OTP:           getEnv("DEVSERVER_OTP", devserver.DefaultOTP),
			RotateRefresh: getEnvAsBool("DEVSERVER_ROTATE_REFRESH", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Backend:       c.Storage.Backend,
		FilePath:      c.Storage.SessionFile,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		RedisPrefix:   c.Storage.RedisPrefix,
	}
}

// PublisherConfig returns the publisher settings and whether publishing is
// enabled at all.
func (c *Config) PublisherConfig() (queue.Config, bool) {
	return queue.Config{URI: c.Queue.URI, Exchange: c.Queue.Exchange}, c.Queue.URI != ""
}

func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:       c.Log.Level,
		Env:         c.Log.Env,
		ServiceName: c.Log.ServiceName,
	}
}

func (c *Config) TelemetryConfig(serviceName string) otel.Config {
	return otel.Config{
		Enabled:     c.Otel.Enabled,
		Endpoint:    c.Otel.Endpoint,
		ServiceName: serviceName,
		Environment: c.Log.Env,
		SampleRate:  c.Otel.SampleRate,
	}
}

func (c *Config) ServerConfig() devserver.Config {
	return devserver.Config{
		Addr:                c.Devserver.Addr,
		JWTSecret:           c.Devserver.JWTSecret,
		AccessTTL:           c.Devserver.AccessTTL,
		RefreshTTL:          c.Devserver.RefreshTTL,
		OTP:                 c.Devserver.OTP,
		RotateRefreshTokens: c.Devserver.RotateRefresh,
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pamoja", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
