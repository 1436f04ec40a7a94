// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string        `env:"ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	JWTSecretKey   string `env:"JWT_SECRET_KEY"`
	InternalAPIKey string `env:"INTERNAL_API_KEY"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBDebug     bool   `env:"DB_DEBUG" envDefault:"false"`

	ModerationProvider string   `env:"MODERATION_PROVIDER" envDefault:"keyword"`
	BannedTerms        []string `env:"BANNED_TERMS" envSeparator:","`
	ChatThreshold      int      `env:"MODERATION_CHAT_THRESHOLD" envDefault:"60"`
	CommentThreshold   int      `env:"MODERATION_COMMENT_THRESHOLD" envDefault:"80"`
	OpenAIAPIKey       string   `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string   `env:"OPENAI_BASE_URL"`
	OpenAIModel        string   `env:"OPENAI_MODERATION_MODEL"`

	WSSendBuffer         int `env:"WS_SEND_BUFFER" envDefault:"64"`
	WSMaxFramesPerSecond int `env:"WS_MAX_FRAMES_PER_SECOND" envDefault:"20"`
	WSMaxDecodeErrors    int `env:"WS_MAX_DECODE_ERRORS" envDefault:"0"`
	WSMaxPayloadBytes    int `env:"WS_MAX_PAYLOAD_BYTES" envDefault:"65536"`

	HandshakeMaxFailures int           `env:"HANDSHAKE_MAX_FAILURES" envDefault:"10"`
	HandshakeBanDuration time.Duration `env:"HANDSHAKE_BAN_DURATION" envDefault:"15m"`
	APIRequestsPerMinute int           `env:"API_REQUESTS_PER_MINUTE" envDefault:"120"`
}

// IsProduction reports whether ENV is "production", case-insensitively.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables, falling back to a
// .env file outside production.
func Load() (*Config, error) {
	if !strings.EqualFold(os.Getenv("ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}
	return Parse()
}

// Parse builds a Config from the current process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}
	if c.WSSendBuffer <= 0 || c.WSMaxFramesPerSecond <= 0 || c.WSMaxPayloadBytes <= 0 {
		return fmt.Errorf("websocket limits must be positive")
	}
	if c.WSMaxDecodeErrors < 0 {
		return fmt.Errorf("WS_MAX_DECODE_ERRORS cannot be negative")
	}
	if c.HandshakeMaxFailures <= 0 {
		return fmt.Errorf("HANDSHAKE_MAX_FAILURES must be positive")
	}

	// Validation for production environments
	if c.IsProduction() {
		missing := []string{}
		if c.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if c.InternalAPIKey == "" {
			missing = append(missing, "INTERNAL_API_KEY")
		}
		if strings.EqualFold(c.DBDriver, "postgres") && c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
		if strings.EqualFold(c.ModerationProvider, "openai") && c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required production environment variables: %v", missing)
		}
	} else if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return nil
}
