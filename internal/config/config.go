package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":3000"`

	BackendBaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8080/api"`

	GoogleClientID    string `env:"GOOGLE_CLIENT_ID"`
	GoogleRedirectURL string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:3000/auth"`

	// Storage selects where session state persists: "file", "redis" or
	// "memory".
	Storage   string `env:"STORAGE" envDefault:"file"`
	StateFile string `env:"STATE_FILE" envDefault:"taskmarket-state.json"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"en"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
