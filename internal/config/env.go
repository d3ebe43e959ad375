// Package config reads process configuration from the environment and
// builds the structured logger.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/customobjects/internal/source"
)

// Env is the configuration read from CUSTOMOBJECTS_* variables. Flags on
// the command line take precedence over these.
type Env struct {
	// DB is the history database. Empty disables history.
	DB string `env:"CUSTOMOBJECTS_DB"`

	LogLevel  string `env:"CUSTOMOBJECTS_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"CUSTOMOBJECTS_LOG_FORMAT" envDefault:"text"`

	S3Region          string `env:"CUSTOMOBJECTS_S3_REGION"`
	S3Endpoint        string `env:"CUSTOMOBJECTS_S3_ENDPOINT"`
	S3PathStyle       bool   `env:"CUSTOMOBJECTS_S3_PATH_STYLE"`
	S3AccessKeyID     string `env:"CUSTOMOBJECTS_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"CUSTOMOBJECTS_S3_SECRET_ACCESS_KEY"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Env.
func Load() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Env{}, err
	}
	return cfg, nil
}

// Validate rejects unknown log levels and formats.
func (e Env) Validate() error {
	if _, ok := levels[e.LogLevel]; !ok {
		return fmt.Errorf("CUSTOMOBJECTS_LOG_LEVEL: unknown level %q (want debug, info, warn or error)", e.LogLevel)
	}
	if e.LogFormat != "text" && e.LogFormat != "json" {
		return fmt.Errorf("CUSTOMOBJECTS_LOG_FORMAT: unknown format %q (want text or json)", e.LogFormat)
	}
	if (e.S3AccessKeyID == "") != (e.S3SecretAccessKey == "") {
		return fmt.Errorf("CUSTOMOBJECTS_S3_ACCESS_KEY_ID and CUSTOMOBJECTS_S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// S3 returns the client settings for s3:// sources.
func (e Env) S3() source.S3Config {
	return source.S3Config{
		Region:          e.S3Region,
		Endpoint:        e.S3Endpoint,
		UsePathStyle:    e.S3PathStyle,
		AccessKeyID:     e.S3AccessKeyID,
		SecretAccessKey: e.S3SecretAccessKey,
	}
}
