// Package config loads the service configuration. Values resolve in order:
// built-in defaults, config.toml, config.<PDFDESK_ENV>.toml, then
// PDFDESK_* environment variables, with .env filling unset variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/pdfdesk/pkg/database"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/settings"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvPdfdeskEnv             = "PDFDESK_ENV"
	EnvPdfdeskShutdownTimeout = "PDFDESK_SHUTDOWN_TIMEOUT"
	EnvPdfdeskVersion         = "PDFDESK_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PDFDESK_DB_HOST",
	Port:            "PDFDESK_DB_PORT",
	Name:            "PDFDESK_DB_NAME",
	User:            "PDFDESK_DB_USER",
	Password:        "PDFDESK_DB_PASSWORD",
	SSLMode:         "PDFDESK_DB_SSL_MODE",
	ApplicationName: "PDFDESK_DB_APPLICATION_NAME",
	MaxOpenConns:    "PDFDESK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PDFDESK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PDFDESK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PDFDESK_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "PDFDESK_STORAGE_PROVIDER",
	ContainerName:    "PDFDESK_STORAGE_CONTAINER_NAME",
	ConnectionString: "PDFDESK_STORAGE_CONNECTION_STRING",
	ServiceURL:       "PDFDESK_STORAGE_SERVICE_URL",
	MaxRetries:       "PDFDESK_STORAGE_MAX_RETRIES",
}

var serviceEnv = &pdfservice.Env{
	BaseURL: "PDFDESK_SERVICE_BASE_URL",
	Timeout: "PDFDESK_SERVICE_TIMEOUT",
}

// Config is the root configuration for the pdfdesk service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Logging         LoggingConfig     `toml:"logging"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	API             APIConfig         `toml:"api"`
	Service         pdfservice.Config `toml:"service"`
	Uploads         UploadsConfig     `toml:"uploads"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the PDFDESK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPdfdeskEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns how long shutdown hooks may run.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load resolves the configuration from the working directory.
func Load() (*Config, error) {
	return LoadDir(".")
}

// LoadDir resolves the configuration from the files in dir. Variables
// already set in the process environment win over .env entries.
func LoadDir(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, DotEnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}
	if err := decode(filepath.Join(dir, BaseConfigFile), cfg); err != nil {
		return nil, err
	}

	if env := os.Getenv(EnvPdfdeskEnv); env != "" {
		overlay := &Config{}
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if err := decode(path, overlay); err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge applies the non-zero fields of overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	settings.Overlay(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	settings.Overlay(&c.Version, overlay.Version)

	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Service.Merge(&overlay.Service)
	c.Uploads.Merge(&overlay.Uploads)
}

// Finalize applies defaults, environment overrides, and validation to every
// section. The first failing section is reported by name.
func (c *Config) Finalize() error {
	settings.Default(&c.ShutdownTimeout, "30s")
	settings.Default(&c.Version, "0.1.0")

	err := settings.Apply(
		settings.Duration(EnvPdfdeskShutdownTimeout, &c.ShutdownTimeout),
		settings.String(EnvPdfdeskVersion, &c.Version),
	)
	if err != nil {
		return err
	}
	if _, err := settings.PositiveDuration("shutdown_timeout", c.ShutdownTimeout); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"logging", c.Logging.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"service", func() error { return c.Service.Finalize(serviceEnv) }},
		{"uploads", c.Uploads.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// decode reads a TOML file into cfg. A missing file leaves cfg untouched.
func decode(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
