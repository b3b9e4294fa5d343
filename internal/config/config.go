package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

type Config struct {
	Env       string `env:"ENV" env-default:"local"`
	Firebase  FirebaseConfig
	N8N       N8NConfig
	HTTP      HTTPConfig
	State     StateConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type FirebaseConfig struct {
	URL     string        `env:"FIREBASE_URL" env-required:"true"`
	Timeout time.Duration `env:"FIREBASE_TIMEOUT" env-default:"10s"`
}

type N8NConfig struct {
	WebhookURL     string        `env:"N8N_WEBHOOK_URL"`
	FormWebhookURL string        `env:"N8N_FORM_WEBHOOK_URL"`
	BaseURL        string        `env:"N8N_BASE_URL"`
	WebhookSecret  string        `env:"N8N_WEBHOOK_SECRET"`
	Timeout        time.Duration `env:"N8N_TIMEOUT" env-default:"10s"`
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type StateConfig struct {
	DBPath string `env:"STATE_DB_PATH" env-default:"./board-state.db"`
}

type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	TTL        time.Duration `env:"JWT_TTL" env-default:"24h"`
}

type RateLimitConfig struct {
	DailyMax  int `env:"RATE_LIMIT_DAILY_MAX" env-default:"10"`
	ClientMax int `env:"RATE_LIMIT_CLIENT_MAX" env-default:"3"`
}

// Load reads envFile into the environment when it exists, then the
// environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTooling reads the subset used by the maintenance commands, which never
// serve HTTP and so have no signing key.
func LoadTooling(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := new(Config)
	if err := cleanenv.ReadEnv(&cfg.Firebase); err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(&cfg.State); err != nil {
		return nil, err
	}
	cfg.Env = EnvLocal
	return cfg, nil
}
