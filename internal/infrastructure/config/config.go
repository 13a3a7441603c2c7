package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,           default=8080"`
	Env           string `env:"ENV,            default=development"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=account_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// RateLimitConfig controls the two per-IP limiters: a global one over the
// whole API surface (off by default) and a stricter one over credential
// endpoints. Durations are in seconds.
type RateLimitConfig struct {
	GlobalEnabled    bool  `env:"RATE_LIMIT_GLOBAL_ENABLED,  default=false"`
	GlobalRequests   int   `env:"RATE_LIMIT_GLOBAL_NUM,      default=180"`
	GlobalDuration   int64 `env:"RATE_LIMIT_GLOBAL_DURATION, default=180"`
	CriticalRequests int   `env:"RATE_LIMIT_CRITICAL_NUM,    default=20"`
	CriticalDuration int64 `env:"RATE_LIMIT_CRITICAL_DURATION, default=1200"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
