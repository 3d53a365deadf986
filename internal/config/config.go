package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel       string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	HTTPPort       string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090" validate:"required,numeric"`
	AllowedOrigins []string `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-default:"*" validate:"min=1"`
	Socket         Socket   `yaml:"socket"`
	Redis          Redis    `yaml:"redis"`
}

type Socket struct {
	PongWait       time.Duration `yaml:"pong-wait" env:"SOCKET_PONG_WAIT" env-default:"60s" validate:"gte=1s"`
	WriteWait      time.Duration `yaml:"write-wait" env:"SOCKET_WRITE_WAIT" env-default:"10s" validate:"gte=1s"`
	MaxMessageSize int64         `yaml:"max-message-size" env:"SOCKET_MAX_MESSAGE_SIZE" env-default:"4096" validate:"gt=0"`
	EgressBuffer   int           `yaml:"egress-buffer" env:"SOCKET_EGRESS_BUFFER" env-default:"16" validate:"gt=0"`
}

// PingPeriod must stay below PongWait so the peer answers before the read deadline passes.
func (that *Socket) PingPeriod() time.Duration {
	return that.PongWait * 9 / 10
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost" validate:"required_if=Enabled true"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379" validate:"numeric"`
	Channel string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"tictactoe:results" validate:"required_if=Enabled true"`
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Load reads the yaml file at path, or only the environment when the file does not exist, and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	if err = validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}
