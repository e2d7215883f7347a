package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		BotToken string `env:"BOT_TOKEN,required"`

		// Channel the miniboss winners are granted access to, and where
		// miniboss results are announced. Optional.
		MinibossChannelID string `env:"MINIBOSS_CHANNEL_ID" envDefault:""`

		// Alternate channel for secret giveaway results. Optional.
		SecretResultsChannelID string `env:"SECRET_RESULTS_CHANNEL_ID" envDefault:""`
	}

	Giveaway struct {
		SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`
		RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`
		JoinCooldown    time.Duration `env:"JOIN_COOLDOWN" envDefault:"10s"`
		MaxDuration     time.Duration `env:"MAX_GIVEAWAY_DURATION" envDefault:"8760h"`
	}
}

func Load() *Config {
	// A missing .env file is fine; in production the variables are set
	// directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
