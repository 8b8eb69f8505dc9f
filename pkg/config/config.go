// Package config loads typed configuration structs from environment
// variables, reading an optional .env file once per process first.
// Field mapping follows github.com/caarlos0/env tags:
//
//	type Config struct {
//	    ConnURL string `env:"PG_CONN_URL,required"`
//	    Retries int    `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//	}
//
//	cfg, err := config.Load[Config]()
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParsingConfig wraps any env parsing failure, including missing
// required variables.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

var dotenvOnce sync.Once

// Load parses environment variables into a fresh T. The .env file is
// optional and only consulted on the first Load in the process.
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cfg, err := env.ParseAs[T]()
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
