package pdfservice

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

// Config addresses the PDF backend. BaseURL ends at the versioned API
// root, e.g. http://localhost:8000/api/v1; a trailing slash is dropped.
type Config struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	BaseURL string
	Timeout string
}

// TimeoutDuration returns Timeout parsed. It bounds a whole backend call,
// upload and download included.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	settings.Default(&c.BaseURL, "http://localhost:8000/api/v1")
	settings.Default(&c.Timeout, "2m")

	if env != nil {
		err := settings.Apply(
			settings.String(env.BaseURL, &c.BaseURL),
			settings.Duration(env.Timeout, &c.Timeout),
		)
		if err != nil {
			return err
		}
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c.validate()
}

// Merge applies the non-empty fields of overlay.
func (c *Config) Merge(overlay *Config) {
	settings.Overlay(&c.BaseURL, overlay.BaseURL)
	settings.Overlay(&c.Timeout, overlay.Timeout)
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	_, err = settings.PositiveDuration("timeout", c.Timeout)
	return err
}
