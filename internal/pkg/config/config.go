// Package config reads the service configuration from the environment.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Razorpay RazorpayConfig
	AMQP     AMQPConfig
	Admin    AdminConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=localkart"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=5s"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RazorpayConfig struct {
	KeyID     string        `env:"RAZORPAY_KEY_ID"`
	KeySecret string        `env:"RAZORPAY_KEY_SECRET"`
	BaseURL   string        `env:"RAZORPAY_BASE_URL, default=https://api.razorpay.com"`
	Currency  string        `env:"RAZORPAY_CURRENCY, default=INR"`
	Timeout   time.Duration `env:"RAZORPAY_TIMEOUT,  default=5s"`
}

// AMQPConfig configures domain event publishing. An empty URL disables the broker.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE, default=localkart.events"`
	Workers  int    `env:"EVENT_WORKERS, default=4"`
}

// AdminConfig seeds the bootstrap administrator. Seeding is skipped unless
// both Email and Password are set.
type AdminConfig struct {
	Name     string `env:"ADMIN_NAME,     default=Administrator"`
	Username string `env:"ADMIN_USERNAME, default=admin"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
	DOB      string `env:"ADMIN_DOB"`
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
// It panics when a required variable is missing or malformed.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
