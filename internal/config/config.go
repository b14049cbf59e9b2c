package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

type Config interface {
	EnvConfig
	StorageConfig
	IdentityConfig
}

type EnvConfig interface {
	GetAPIBaseURL() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() zerolog.Level
	GetHTTPTimeout() time.Duration
	GetDevBackendPort() string
}

type StorageConfig interface {
	GetStorageBackend() StorageBackend
	GetStoragePath() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type IdentityConfig interface {
	GetGoogleClientID() string
	GetAppleClientID() string
}

// StorageBackend selects where the session is persisted.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
)

type mainConfig struct {
	EnvVars
}

var _ Config = mainConfig{}

// New reads the configuration from the environment.
func New() (Config, error) {
	var vars EnvVars
	if err := env.Parse(&vars); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	vars.StorageBackend = StorageBackend(strings.ToLower(string(vars.StorageBackend)))
	switch vars.StorageBackend {
	case StorageSQLite, StorageRedis:
	default:
		return nil, fmt.Errorf("[config New] unsupported STORAGE_BACKEND %q", vars.StorageBackend)
	}
	level, err := zerolog.ParseLevel(strings.ToLower(vars.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("[config New] LOG_LEVEL: %w", err)
	}
	vars.level = level
	if vars.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("[config New] HTTP_TIMEOUT must be positive, got %s", vars.HTTPTimeout)
	}
	return mainConfig{EnvVars: vars}, nil
}
