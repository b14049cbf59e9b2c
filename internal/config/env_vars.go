package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvVars holds the raw environment values.
type EnvVars struct {
	APIBaseURL     string         `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	AppName        string         `env:"APP_NAME" envDefault:"Session Client"`
	Env            string         `env:"ENV" envDefault:"DEV"`
	LogLevel       string         `env:"LOG_LEVEL" envDefault:"info"`
	HTTPTimeout    time.Duration  `env:"HTTP_TIMEOUT" envDefault:"30s"`
	DevBackendPort string         `env:"DEV_BACKEND_PORT" envDefault:"8080"`
	StorageBackend StorageBackend `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	StoragePath    string         `env:"STORAGE_PATH"`
	RedisAddr      string         `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix    string         `env:"REDIS_PREFIX" envDefault:"session-client"`
	GoogleClientID string         `env:"GOOGLE_CLIENT_ID"`
	AppleClientID  string         `env:"APPLE_CLIENT_ID"`

	level zerolog.Level
}

const dataFolder = "./data"

func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.APIBaseURL, "/")
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return e.Env
}

func (e EnvVars) GetLogLevel() zerolog.Level {
	return e.level
}

func (e EnvVars) GetHTTPTimeout() time.Duration {
	return e.HTTPTimeout
}

// GetDevBackendPort returns the listen address for the development backend, e.g. ":8080".
func (e EnvVars) GetDevBackendPort() string {
	port := e.DevBackendPort
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetStorageBackend() StorageBackend {
	return e.StorageBackend
}

// GetStoragePath returns STORAGE_PATH, or session.db under ./data.
func (e EnvVars) GetStoragePath() string {
	if e.StoragePath != "" {
		return e.StoragePath
	}
	return filepath.Join(dataFolder, "session.db")
}

func (e EnvVars) GetRedisAddr() string {
	return e.RedisAddr
}

func (e EnvVars) GetRedisPrefix() string {
	return e.RedisPrefix
}

func (e EnvVars) GetGoogleClientID() string {
	return e.GoogleClientID
}

func (e EnvVars) GetAppleClientID() string {
	return e.AppleClientID
}
