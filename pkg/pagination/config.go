package pagination

import (
	"errors"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

// Config bounds page sizes for list endpoints.
type Config struct {
	DefaultPageSize int `toml:"default_page_size" json:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size" json:"max_page_size"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	settings.Default(&c.DefaultPageSize, 20)
	settings.Default(&c.MaxPageSize, 100)

	if env != nil {
		err := settings.Apply(
			settings.Int(env.DefaultPageSize, &c.DefaultPageSize),
			settings.Int(env.MaxPageSize, &c.MaxPageSize),
		)
		if err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge applies the positive values of overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize > 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize > 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func (c *Config) validate() error {
	switch {
	case c.DefaultPageSize < 1:
		return errors.New("default_page_size must be positive")
	case c.MaxPageSize < 1:
		return errors.New("max_page_size must be positive")
	case c.DefaultPageSize > c.MaxPageSize:
		return errors.New("default_page_size cannot exceed max_page_size")
	}
	return nil
}
