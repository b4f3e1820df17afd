package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBPath     string `env:"DB_PATH" envDefault:"db.sqlite"`
	Port       string `env:"PORT" envDefault:"8080"`
	APIKey     string `env:"API_KEY"`
	AdminToken string `env:"ADMIN_TOKEN"`
	IPNSecret  string `env:"IPN_SECRET"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	ProviderURL string `env:"PROVIDER_URL" envDefault:"https://api.nowpayments.io"`
	ProviderKey string `env:"PROVIDER_KEY"`

	// Wagering limits, minor units.
	MinStake int64 `env:"MIN_STAKE" envDefault:"100"`
	MaxStake int64 `env:"MAX_STAKE" envDefault:"100000"`

	// Crash round.
	LobbyTimeout time.Duration `env:"LOBBY_TIMEOUT" envDefault:"30s"`

	// Withdrawals, minor units unless stated.
	WithdrawMin      int64   `env:"WITHDRAW_MIN" envDefault:"5000"`
	WithdrawMax      int64   `env:"WITHDRAW_MAX" envDefault:"1000000"`
	AutoApproveLimit int64   `env:"AUTO_APPROVE_LIMIT" envDefault:"50000"`
	FeePercent       float64 `env:"FEE_PERCENT" envDefault:"2.0"`
	FeeMin           int64   `env:"FEE_MIN" envDefault:"500"`
	FeeMax           int64   `env:"FEE_MAX" envDefault:"5000"`

	// Bet placement rate limit.
	RateLimitPerMin int `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
}

// Load reads the environment. Missing credentials are fatal at startup, the
// same as running without a database would be.
func Load() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}

	if cfg.APIKey == "" || cfg.AdminToken == "" || cfg.IPNSecret == "" {
		log.Fatal("API_KEY, ADMIN_TOKEN and IPN_SECRET must be set")
	}

	return cfg
}
