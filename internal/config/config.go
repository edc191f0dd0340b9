// Package config loads settings from .env, config.yml and the environment.
// Variables with an explicit env tag are read by that name; everything else
// can be overridden with the LUNYSSE_ prefix, e.g. LUNYSSE_LOG_LEVEL.
package config

import (
	"time"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"

	"lunysse-scheduler/internal/ledger"
)

type Config struct {
	Server struct {
		GRPCPort string   `yaml:"grpc_port" default:"50051" env:"PORT"`
		WebPort  string   `yaml:"web_port" default:"8080" env:"WEB_PORT"`
		HTTPPort string   `yaml:"http_port" default:"8000" env:"HTTP_PORT"`
		Cors     []string `yaml:"cors"`
	} `yaml:"server"`

	DB struct {
		URL        string `yaml:"url" env:"DATABASE_URL"`
		Migrations string `yaml:"migrations" default:"db/migrations/001_init.sql"`
	} `yaml:"db"`

	Auth struct {
		Secret       string `yaml:"secret" required:"true" env:"JWT_SECRET"`
		TokenMinutes int    `yaml:"token_minutes" default:"15"`
	} `yaml:"auth"`

	Redis struct {
		Addr   string `yaml:"addr" env:"REDIS_ADDR"`
		Stream string `yaml:"stream" default:"lunysse:events"`
		MaxLen int64  `yaml:"max_len" default:"10000"`
	} `yaml:"redis"`

	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"5"`
		Burst int     `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
	} `yaml:"log"`

	Ledger struct {
		Slots []string `yaml:"slots"`
	} `yaml:"ledger"`
}

// Load reads .env when present, then the given yml files.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := configor.New(&configor.Config{ENVPrefix: "LUNYSSE", Silent: true}).Load(&c, files...); err != nil {
		return nil, err
	}
	if len(c.Ledger.Slots) == 0 {
		c.Ledger.Slots = ledger.DefaultSlots
	}
	return &c, nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenMinutes) * time.Minute
}

// UsePostgres reports whether a database is configured. Without one the
// service runs on the seeded in-memory store.
func (c *Config) UsePostgres() bool { return c.DB.URL != "" }
