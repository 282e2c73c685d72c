package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Environment holds connection settings and secrets, read from WATCHTOWER_* variables
type Environment struct {
	Database struct {
		Dialect string `env:"DIALECT" envDefault:"sqlite" validate:"oneof=postgres sqlite"`
		DSN     string `env:"DSN" envDefault:"file:watchtower.db?_foreign_keys=on" validate:"required"`
	} `envPrefix:"DB_"`
	Redis struct {
		Addr     string `env:"ADDR"`
		Password string `env:"PASSWORD"`
		LockTTL  int    `env:"LOCK_TTL" envDefault:"900" validate:"min=1"`
	} `envPrefix:"REDIS_"`
	Events struct {
		URL            string `env:"URL"`
		Queue          string `env:"QUEUE" envDefault:"roster_events"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10" validate:"min=1"`
	} `envPrefix:"AMQP_"`
	Feed struct {
		URL     string `env:"URL" validate:"omitempty,url"`
		Token   string `env:"TOKEN"`
		Timeout int    `env:"TIMEOUT" envDefault:"30" validate:"min=1"`
	} `envPrefix:"FEED_"`
	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// LoadEnvironment reads the environment from the process
func LoadEnvironment() (*Environment, error) {
	return loadEnvironment(env.Options{Prefix: "WATCHTOWER_"})
}

func loadEnvironment(opts env.Options) (*Environment, error) {
	cfg := &Environment{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, fmt.Errorf("failed to read environment: %w", aggErr.Errors[0])
		}
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("environment validation failed: %w", err)
	}

	return cfg, nil
}
