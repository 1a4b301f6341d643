// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const RepositoryPostgres = "postgres"
const RepositoryInMemory = "inmemory"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections" validate:"gte=1"`
	MinConnections int32         `mapstructure:"min_connections" validate:"gte=0,ltefield=MaxConnections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	Migrate        bool          `mapstructure:"migrate"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url" validate:"required"`
	QueueKey string `mapstructure:"queue_key" validate:"required"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups  int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays  int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type" validate:"oneof=postgres inmemory"` // "postgres" или "inmemory"
}

type WorkerConfig struct {
	LogDir      string        `mapstructure:"log_dir" validate:"required"`
	Backoff     time.Duration `mapstructure:"backoff" validate:"gt=0"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

// Load читает config.yml (путь можно переопределить через CONFIG_PATH),
// затем переменные окружения. Файл не обязателен
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка парсинга конфига: %w", err)
		}
	}

	v.SetEnvPrefix("TASKREMINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфига: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("неверный конфиг: %w", err)
	}
	return nil
}

// ValidateStorage нужен только API: воркер работает с очередью и хранилище не открывает
func (c *Config) ValidateStorage() error {
	if c.Repository.Type == RepositoryPostgres && c.Database.URL == "" {
		return fmt.Errorf("неверный конфиг: database.url обязателен для репозитория postgres")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.host", "")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.queue_key", "notifications")

	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("repository.type", RepositoryPostgres)

	v.SetDefault("worker.log_dir", "logs")
	v.SetDefault("worker.backoff", time.Second)
	v.SetDefault("worker.metrics_addr", "")
}

// короткие имена переменных, которые уже используются в docker-compose
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"server.port":    "PORT",
		"database.url":   "POSTGRES_URL",
		"redis.url":      "REDIS_URL",
		"worker.log_dir": "LOG_DIR",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "TASKREMINDER_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return fmt.Errorf("привязка переменной %s: %w", env, err)
		}
	}
	return nil
}
