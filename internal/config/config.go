package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Provider exposes read-only configuration to components that should not
// depend on the concrete Config struct.
type Provider interface {
	GetServerAddr() string
	GetChatRoute() string
	GetChatAuthor() string
	GetHistorySize() int
	GetPeerBuffer() int
	GetMaxMessageBytes() int64
	GetPollTimeout() time.Duration
	GetWriteTimeout() time.Duration
	GetAllowedOrigins() []string
	GetRateLimit() float64
	GetBusDriver() string
	GetKafkaBrokers() []string
	GetKafkaTopic() string
	GetKafkaGroupID() string
}

// Bus drivers accepted by BUS_DRIVER.
const (
	BusGoChannel = "gochannel"
	BusKafka     = "kafka"
)

// Config holds all configuration for the application.
type Config struct {
	ServerAddr      string        `env:"SERVER_ADDR,default=:8080" validate:"required"`
	ChatRoute       string        `env:"CHAT_ROUTE,default=/chat" validate:"required,startswith=/"`
	ChatAuthor      string        `env:"CHAT_AUTHOR,default=Anonymous" validate:"required"`
	HistorySize     int           `env:"CHAT_HISTORY_SIZE,default=100" validate:"min=1,max=10000"`
	PeerBuffer      int           `env:"CHAT_PEER_BUFFER,default=256" validate:"min=1"`
	MaxMessageBytes int64         `env:"CHAT_MAX_MESSAGE_BYTES,default=65536" validate:"min=512"`
	PollTimeout     time.Duration `env:"CHAT_POLL_TIMEOUT,default=25s" validate:"min=0"`
	WriteTimeout    time.Duration `env:"CHAT_WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	AllowedOrigins  string        `env:"CHAT_ALLOWED_ORIGINS"`
	RateLimit       float64       `env:"CHAT_RATE_LIMIT,default=20" validate:"gt=0"`

	BusDriver    string `env:"BUS_DRIVER,default=gochannel" validate:"oneof=gochannel kafka"`
	KafkaBrokers string `env:"KAFKA_BROKERS" validate:"required_if=BusDriver kafka"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=chatwire.events"`
	KafkaGroupID string `env:"KAFKA_GROUP_ID"`

	LogFormat string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	TracingEnabled     bool   `env:"PUBSUB_TRACING_ENABLED,default=false"`
	TracingServiceName string `env:"PUBSUB_TRACING_SERVICE_NAME,default=chatwire"`
	ZipkinURL          string `env:"PUBSUB_TRACING_ZIPKIN_URL,default=http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

// Load reads configuration from an optional .env file and the environment,
// then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// slog is not configured yet, so the standard logger is used here.
		log.Println("No .env file found, relying on environment variables")
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and enums.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) GetServerAddr() string { return c.ServerAddr }
func (c *Config) GetChatRoute() string { return c.ChatRoute }
func (c *Config) GetChatAuthor() string { return c.ChatAuthor }
func (c *Config) GetHistorySize() int { return c.HistorySize }
func (c *Config) GetPeerBuffer() int { return c.PeerBuffer }
func (c *Config) GetMaxMessageBytes() int64 { return c.MaxMessageBytes }
func (c *Config) GetPollTimeout() time.Duration { return c.PollTimeout }
func (c *Config) GetWriteTimeout() time.Duration { return c.WriteTimeout }
func (c *Config) GetAllowedOrigins() []string { return splitList(c.AllowedOrigins) }
func (c *Config) GetRateLimit() float64 { return c.RateLimit }
func (c *Config) GetBusDriver() string { return c.BusDriver }
func (c *Config) GetKafkaBrokers() []string { return splitList(c.KafkaBrokers) }
func (c *Config) GetKafkaTopic() string { return c.KafkaTopic }
func (c *Config) GetKafkaGroupID() string { return c.KafkaGroupID }

// splitList turns a comma separated value into its trimmed, non-empty parts.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
