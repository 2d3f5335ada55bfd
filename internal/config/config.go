package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	httpapi "github.com/aliskhannn/jlpt-n1-study/internal/delivery/http"
	"github.com/aliskhannn/jlpt-n1-study/internal/delivery/http/middleware"
	"github.com/aliskhannn/jlpt-n1-study/internal/domain/srs"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/openai"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/postgres"
	"github.com/aliskhannn/jlpt-n1-study/internal/infra/redis"
	"github.com/aliskhannn/jlpt-n1-study/internal/service"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       string                `mapstructure:"env"` // current application environment (local, dev, production)
	HTTP      httpapi.Config        `mapstructure:"http"`
	DB        DB                    `mapstructure:"database"`
	Auth      middleware.AuthConfig `mapstructure:"auth"`
	AI        AI                    `mapstructure:"ai"`
	Redis     redis.Config          `mapstructure:"redis"`
	Telegram  Telegram              `mapstructure:"telegram"`
	Reminders Reminders             `mapstructure:"reminders"`
	SRS       srs.MasteryPolicy     `mapstructure:"srs"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int32         `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

func (db DB) Pool() postgres.PoolConfig {
	return postgres.PoolConfig{
		MaxConns:        db.MaxConnections,
		MaxConnLifetime: db.MaxConnLifetime,
		ConnectTimeout:  db.ConnectTimeout,
	}
}

// AI configures content generation. Generation is off without an API key.
type AI struct {
	OpenAI     openai.Config            `mapstructure:"openai"`
	Generation service.GenerationConfig `mapstructure:"generation"`
}

func (a AI) Enabled() bool { return a.OpenAI.APIKey != "" }

// Telegram configures reminder delivery. Delivery is off without a token.
type Telegram struct {
	Token       string `mapstructure:"-"`
	BotUsername string `mapstructure:"bot_username"`
	AppURL      string `mapstructure:"app_url"`
	Debug       bool   `mapstructure:"debug"`
}

func (t Telegram) Enabled() bool { return t.Token != "" }

type Reminders struct {
	Schedule string `mapstructure:"schedule"` // cron expression, evaluated in UTC
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	return load("./config")
}

func load(configPath string) (*Config, error) {
	// .env is optional, real environment wins.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("auth_jwt_secret", "AUTH_JWT_SECRET")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Secrets come from the environment only.
	cfg.DB.URL = v.GetString("database_url")
	cfg.Auth.JWTSecret = v.GetString("auth_jwt_secret")
	cfg.AI.OpenAI.APIKey = v.GetString("openai_api_key")
	cfg.Redis.URL = v.GetString("redis_url")
	cfg.Telegram.Token = v.GetString("telegram_api_token")

	var missing []string
	if cfg.DB.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnvironmentVariables, strings.Join(missing, ", "))
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.cors_origins", []string{})

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "5s")

	v.SetDefault("auth.leeway", "30s")

	v.SetDefault("ai.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", "30s")
	v.SetDefault("ai.openai.max_retries", 2)
	v.SetDefault("ai.generation.daily_quota", 30)
	v.SetDefault("ai.generation.cache_ttl", "168h")

	v.SetDefault("redis.key_prefix", "n1study:")

	v.SetDefault("reminders.schedule", service.DefaultReminderSpec)

	p := srs.DefaultMasteryPolicy()
	v.SetDefault("srs.mastered_min_accuracy", p.MasteredMinAccuracy)
	v.SetDefault("srs.mastered_min_attempts", p.MasteredMinAttempts)
	v.SetDefault("srs.mastered_flag_min_interval", p.MasteredFlagMinInterval)
	v.SetDefault("srs.review_min_accuracy", p.ReviewMinAccuracy)
	v.SetDefault("srs.review_min_attempts", p.ReviewMinAttempts)
	v.SetDefault("srs.review_interval_above", p.ReviewIntervalAbove)
}
