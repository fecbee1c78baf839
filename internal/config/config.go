package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StatsDriverRedis    = "redis"
	StatsDriverSQLite   = "sqlite"
	StatsDriverPostgres = "postgres"
	StatsDriverMemory   = "memory"

	StorageDriverRedis  = "redis"
	StorageDriverMemory = "memory"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Log       Log       `yaml:"log"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090" validate:"required,numeric"`
	Redis     Redis     `yaml:"redis"`
	Lock      Lock      `yaml:"lock"`
	Stats     Stats     `yaml:"stats"`
	Storage   Storage   `yaml:"storage"`
	RateLimit RateLimit `yaml:"rate-limit"`
}

// Log - rotating file sink. An empty Dir logs to stderr only.
type Log struct {
	Dir        string `yaml:"dir" env:"LOG_DIR" env-default:""`
	MaxSizeMB  int    `yaml:"max-size-mb" env-default:"50" validate:"gte=1"`
	MaxBackups int    `yaml:"max-backups" env-default:"5" validate:"gte=1"`
	MaxAgeDays int    `yaml:"max-age-days" env-default:"14" validate:"gte=1"`
	Compress   bool   `yaml:"compress"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost" validate:"required"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379" validate:"required,numeric"`
}

type Lock struct {
	TTL  time.Duration `yaml:"ttl" env-default:"5s" validate:"gte=1s"`
	Wait time.Duration `yaml:"wait" env-default:"2s" validate:"gt=0"`
}

type Stats struct {
	Driver     string `yaml:"driver" env:"STATS_DRIVER" env-default:"redis" validate:"oneof=redis sqlite postgres memory"`
	DSN        string `yaml:"dsn" env:"STATS_DSN" env-default:"tictactoe.db" validate:"required_if=Driver sqlite,required_if=Driver postgres"`
	DrawPolicy string `yaml:"draw-policy" env:"STATS_DRAW_POLICY" env-default:"shared" validate:"oneof=shared credit-both"`
}

type Storage struct {
	Driver          string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis" validate:"oneof=redis memory"`
	FinishedGameTTL time.Duration `yaml:"finished-game-ttl" env-default:"24h" validate:"gte=0"`
}

// RateLimit - requests per second across all clients. Zero disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"50" validate:"gte=0"`
	Burst int     `yaml:"burst" env-default:"100" validate:"gte=0"`
}

// Load - reads .env (if present) and the yml file at path, applies env overrides and validates.
// A missing yml file is not an error: defaults and env are used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	config := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	} else {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
