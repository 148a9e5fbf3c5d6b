package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	HTTPServer HTTPServer
	Provider   Provider
	Cache      Cache
	Redis      Redis
	Storage    Storage
	Limiter    Limiter
	Log        Log
}

type HTTPServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"8082"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Provider struct {
	Name             string        `env:"PROVIDER_NAME" env-default:"fixer"`
	FixerURL         string        `env:"PROVIDER_FIXER_URL" env-default:"https://api.fixer.io"`
	FixerKey         string        `env:"PROVIDER_FIXER_KEY"`
	CurrencyLayerURL string        `env:"PROVIDER_CURRENCYLAYER_URL" env-default:"http://apilayer.net/api"`
	CurrencyLayerKey string        `env:"PROVIDER_CURRENCYLAYER_KEY"`
	Timeout          time.Duration `env:"PROVIDER_TIMEOUT" env-default:"10s"`
}

type Cache struct {
	Backend       string        `env:"CACHE_BACKEND" env-default:"memory"`
	TTL           time.Duration `env:"CACHE_TTL" env-default:"10800s"`
	Prefix        string        `env:"CACHE_PREFIX" env-default:"converter:"`
	DefaultLocale string        `env:"CACHE_DEFAULT_LOCALE" env-default:"en_US"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type Storage struct {
	Timeout  time.Duration `env:"BD_TIMEOUT" env-default:"10s"`
	Host     string        `env:"BD_HOST" env-default:"localhost"`
	Port     int           `env:"BD_PORT" env-default:"5432"`
	User     string        `env:"BD_USER" env-default:"postgres"`
	Password string        `env:"BD_PASSWORD"`
	DBName   string        `env:"BD_DBNAME" env-default:"converter"`
	SSLMode  string        `env:"BD_SSL_MODE" env-default:"disable"`
	Schema   string        `env:"BD_SCHEMA" env-default:"public"`
}

type Limiter struct {
	Rate string `env:"LIMITER_RATE" env-default:"100-M"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"debug"`
}

func NewConfig() *Config {
	_ = godotenv.Load(".env")

	cfg, err := Read()
	if err != nil {
		log.Fatal("Error reading env: ", err)
	}

	return cfg
}

// Read fills a Config from the process environment only.
func Read() (*Config, error) {
	const op = "config.Read"

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return cfg, nil
}
