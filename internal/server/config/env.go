package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig uses pointer fields so that only variables actually present in
// the environment override earlier layers.
type envConfig struct {
	EndpointAddrHTTP      *string        `env:"MESSAGELY_ADDRESS"`
	DatabaseDSN           *string        `env:"MESSAGELY_DATABASE_DSN"`
	SecretKey             *string        `env:"MESSAGELY_SECRET_KEY"`
	TokenValidityDuration *time.Duration `env:"MESSAGELY_TOKEN_VALIDITY"`
	BcryptCost            *int           `env:"MESSAGELY_BCRYPT_COST"`
}

// parseEnv overlays configuration from environment variables onto Config.
// A malformed variable panics, same as a malformed JSON config file.
func parseEnv(config *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = *c.TokenValidityDuration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
}
