package middleware

import (
	"errors"
	"slices"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

// ErrWildcardCredentials rejects a "*" origin combined with credentials.
var ErrWildcardCredentials = errors.New(`origin "*" cannot be combined with allow_credentials`)

// CORSConfig holds the CORS policy. An origin of "*" allows any origin.
// ExposedHeaders defaults to Content-Disposition so browsers can read the
// filename of a downloaded document.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that override CORSConfig fields.
// List values are comma separated.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	ExposedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Allows reports whether origin may make cross-origin requests.
func (c *CORSConfig) Allows(origin string) bool {
	return slices.Contains(c.Origins, "*") || slices.Contains(c.Origins, origin)
}

// Finalize applies defaults, environment overrides, and validation.
func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	if env != nil {
		err := settings.Apply(
			settings.Bool(env.Enabled, &c.Enabled),
			settings.List(env.Origins, &c.Origins),
			settings.List(env.AllowedMethods, &c.AllowedMethods),
			settings.List(env.AllowedHeaders, &c.AllowedHeaders),
			settings.List(env.ExposedHeaders, &c.ExposedHeaders),
			settings.Bool(env.AllowCredentials, &c.AllowCredentials),
			settings.Int(env.MaxAge, &c.MaxAge),
		)
		if err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Booleans always apply; lists apply
// when set and MaxAge when positive.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	for _, f := range []struct{ dst, src *[]string }{
		{&c.Origins, &overlay.Origins},
		{&c.AllowedMethods, &overlay.AllowedMethods},
		{&c.AllowedHeaders, &overlay.AllowedHeaders},
		{&c.ExposedHeaders, &overlay.ExposedHeaders},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type"}
	}
	if c.ExposedHeaders == nil {
		c.ExposedHeaders = []string{"Content-Disposition"}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && slices.Contains(c.Origins, "*") {
		return ErrWildcardCredentials
	}
	return nil
}
