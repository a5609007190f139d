// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads at startup. Values come from the
// environment (optionally seeded from a .env file during development).
type Config struct {
	MongoURI  string        `envconfig:"MONGODB_URI" required:"true"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	Port int `envconfig:"PORT" default:"8080"`

	// RATE_LIMIT_RPM controls requests per minute for the sensitive
	// register/login endpoints.
	RateLimitRPM int `envconfig:"RATE_LIMIT_RPM" default:"10"`

	// ENCRYPTION_KEY enables at-rest sealing of message content when set.
	// Must be 16, 24 or 32 bytes.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY"`

	// WebSocket tuning.
	WriteTimeout  time.Duration `envconfig:"WS_WRITE_TIMEOUT" default:"10s"`
	PongTimeout   time.Duration `envconfig:"WS_PONG_TIMEOUT" default:"60s"`
	SendQueueSize int           `envconfig:"WS_SEND_QUEUE" default:"64"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	return &cfg, nil
}
