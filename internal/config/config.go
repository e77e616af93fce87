// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/database"
)

// Config holds everything the web server and the check-in station need.
type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	APIBaseURL    string        `env:"EVENTSYNC_API_URL" envDefault:"http://localhost:3333"`
	APITimeout    time.Duration `env:"EVENTSYNC_API_TIMEOUT" envDefault:"10s"`
	CSRFKey       string        `env:"EVENTSYNC_CSRF_KEY"`
	SecureCookies bool          `env:"EVENTSYNC_SECURE_COOKIES" envDefault:"false"`
	SessionFile   string        `env:"EVENTSYNC_SESSION_FILE" envDefault:"data/session.json"`
	// SessionStore selects where browser sessions live: "postgres" or "memory".
	SessionStore string        `env:"EVENTSYNC_SESSION_STORE" envDefault:"postgres"`
	SessionPrune time.Duration `env:"EVENTSYNC_SESSION_PRUNE_INTERVAL" envDefault:"1h"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LOG_FORMAT" envDefault:"console"`
	OTLPEndpoint string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string        `env:"OTEL_SERVICE_NAME" envDefault:"eventsync-web"`

	Database database.Config
}

// Load reads an optional .env file and then parses the environment.
// Variables already set in the process environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
