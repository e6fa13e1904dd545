package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; defaults are chosen so a developer can start the
// server against a local MySQL without exporting anything but SESSION_SECRET.
type Config struct {
	Env  string `env:"APP_ENV" env-default:"dev"`   // application environment (dev, test, prod)
	Port string `env:"APP_PORT" env-default:"3000"` // HTTP port to listen on

	DB      DBConfig
	Session SessionConfig
	Redis   RedisConfig
	Events  EventsConfig

	BcryptCost    int  `env:"BCRYPT_COST" env-default:"10"`
	RehashOnLogin bool `env:"AUTH_REHASH_ON_LOGIN" env-default:"false"`
}

// DBConfig selects the SQL dialect and its connection parameters.
type DBConfig struct {
	Driver string `env:"DB_DRIVER" env-default:"mysql"` // mysql | postgres | sqlite3
	Host   string `env:"DB_HOST" env-default:"localhost"`
	Port   string `env:"DB_PORT"`
	User   string `env:"DB_USER" env-default:"root"`
	Pass   string `env:"DB_PASS"`
	Name   string `env:"DB_NAME" env-default:"cars"`
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET"`
	CookieName string        `env:"SESSION_COOKIE" env-default:"car_session"`
	TTL        time.Duration `env:"SESSION_TTL" env-default:"24h"`
	Secure     bool          `env:"SESSION_SECURE" env-default:"false"`
}

// RedisConfig mirrors the REDIS_* variables understood by NewRedisClient.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	TLS      bool   `env:"REDIS_TLS" env-default:"false"`
}

// EventsConfig configures the RabbitMQ listing events.
type EventsConfig struct {
	AMQPURL     string `env:"AMQP_URL"`
	RabbitURL   string `env:"RABBITMQ_URL"`
	AuditLog    string `env:"EVENTS_LOG_PATH" env-default:"logs/listings.log"`
	RunConsumer bool   `env:"EVENTS_CONSUMER" env-default:"false"`
}

// URL returns the broker URL, preferring RABBITMQ_URL like the publisher always did.
func (e EventsConfig) URL() string {
	if e.RabbitURL != "" {
		return e.RabbitURL
	}
	return e.AMQPURL
}

// ErrMissingSecret is returned outside dev/test when SESSION_SECRET is empty.
var ErrMissingSecret = errors.New("missing required env var: SESSION_SECRET")

// devSecret signs cookies in dev/test when no secret was configured.
const devSecret = "dev-only-session-secret"

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}
	if cfg.Session.Secret == "" {
		if !cfg.IsDev() {
			return Config{}, ErrMissingSecret
		}
		cfg.Session.Secret = devSecret
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("config: invalid BCRYPT_COST %d", cfg.BcryptCost)
	}
	if cfg.DB.Port == "" {
		cfg.DB.Port = defaultPort(cfg.DB.Driver)
	}
	return cfg, nil
}

// IsDev reports whether development conveniences are allowed.
func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "test" }

// IsTest enables the test-only routes.
func (c Config) IsTest() bool { return c.Env == "test" }

func defaultPort(driver string) string {
	switch driver {
	case "postgres":
		return "5432"
	case "mysql":
		return "3306"
	}
	return ""
}
