package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port          string          `mapstructure:"port"`
	AppEnv        string          `mapstructure:"app_env"`
	LogLevel      string          `mapstructure:"log_level"`
	SessionSecret string          `mapstructure:"session_secret"`
	Database      DBConfig        `mapstructure:"database"`
	ListCache     CacheConfig     `mapstructure:"list_cache"`
	Reconcile     ReconcileConfig `mapstructure:"reconcile"`
}

type DBConfig struct {
	Driver      string `mapstructure:"driver"` // postgres, mysql or sqlite
	URL         string `mapstructure:"url"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"` // minutes
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type ReconcileConfig struct {
	Schedule  string `mapstructure:"schedule"` // cron spec, empty disables
	BatchSize int    `mapstructure:"batch_size"`
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads .env (if any), configs/config.yaml (if any) and the process
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default: an unset secret must stay empty so the caller can warn.
	_ = v.BindEnv("session_secret")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "production")
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "host=localhost user=postgres password=postgres dbname=tldrit port=5432 sslmode=disable")
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_lifetime", 30)

	v.SetDefault("list_cache.size", 500)
	v.SetDefault("list_cache.ttl", "15s")

	v.SetDefault("reconcile.schedule", "")
	v.SetDefault("reconcile.batch_size", 200)
}
