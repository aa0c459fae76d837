package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	LockBackendRedis = "redis"
	LockBackendLocal = "local"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=168h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Invites InviteConfig
	Lock    LockConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type InviteConfig struct {
	// AppURL is the client origin invite links point at.
	AppURL        string        `env:"APP_URL,               default=http://localhost:3000"`
	TTL           time.Duration `env:"INVITE_TTL,            default=168h"`
	SweepInterval time.Duration `env:"INVITE_SWEEP_INTERVAL, default=10m"`
}

type LockConfig struct {
	Backend string        `env:"LOCK_BACKEND, default=redis"`
	TTL     time.Duration `env:"LOCK_TTL,     default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=groupsplit"`
}

type RedisConfig struct {
	// URL takes precedence over the discrete fields when set.
	URL      string `env:"REDIS_URL"`
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the service runs with developer conveniences
// such as pretty logs.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Invites.TTL <= 0 {
		errs = append(errs, errors.New("INVITE_TTL must be positive"))
	}
	if c.Invites.SweepInterval < 0 {
		errs = append(errs, errors.New("INVITE_SWEEP_INTERVAL must not be negative"))
	}
	switch c.Lock.Backend {
	case LockBackendRedis, LockBackendLocal:
	default:
		errs = append(errs, fmt.Errorf("LOCK_BACKEND must be %q or %q, got %q", LockBackendRedis, LockBackendLocal, c.Lock.Backend))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
