package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

// Config addresses the Postgres database holding the operation history
// and sizes its connection pool.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	ApplicationName string `toml:"application_name"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

// URL returns the postgres:// connection URL shared by the pool and the
// migration tool.
func (c *Config) URL() string {
	q := url.Values{"sslmode": {c.SSLMode}}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime parsed.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration returns ConnTimeout parsed.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	settings.Default(&c.Host, "localhost")
	settings.Default(&c.Port, 5432)
	settings.Default(&c.Name, "pdfdesk")
	settings.Default(&c.User, "pdfdesk")
	settings.Default(&c.SSLMode, "disable")
	settings.Default(&c.ApplicationName, "pdfdesk")
	settings.Default(&c.MaxOpenConns, 10)
	settings.Default(&c.MaxIdleConns, 2)
	settings.Default(&c.ConnMaxLifetime, "15m")
	settings.Default(&c.ConnTimeout, "5s")

	if env != nil {
		err := settings.Apply(
			settings.String(env.Host, &c.Host),
			settings.Int(env.Port, &c.Port),
			settings.String(env.Name, &c.Name),
			settings.String(env.User, &c.User),
			settings.String(env.Password, &c.Password),
			settings.String(env.SSLMode, &c.SSLMode),
			settings.String(env.ApplicationName, &c.ApplicationName),
			settings.Int(env.MaxOpenConns, &c.MaxOpenConns),
			settings.Int(env.MaxIdleConns, &c.MaxIdleConns),
			settings.Duration(env.ConnMaxLifetime, &c.ConnMaxLifetime),
			settings.Duration(env.ConnTimeout, &c.ConnTimeout),
		)
		if err != nil {
			return err
		}
	}

	return c.validate()
}

// Merge applies the non-zero fields of overlay.
func (c *Config) Merge(overlay *Config) {
	settings.Overlay(&c.Host, overlay.Host)
	settings.Overlay(&c.Port, overlay.Port)
	settings.Overlay(&c.Name, overlay.Name)
	settings.Overlay(&c.User, overlay.User)
	settings.Overlay(&c.Password, overlay.Password)
	settings.Overlay(&c.SSLMode, overlay.SSLMode)
	settings.Overlay(&c.ApplicationName, overlay.ApplicationName)
	settings.Overlay(&c.MaxOpenConns, overlay.MaxOpenConns)
	settings.Overlay(&c.MaxIdleConns, overlay.MaxIdleConns)
	settings.Overlay(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	settings.Overlay(&c.ConnTimeout, overlay.ConnTimeout)
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be positive")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot exceed max_open_conns")
	}
	if _, err := settings.ParseDuration("conn_max_lifetime", c.ConnMaxLifetime); err != nil {
		return err
	}
	if _, err := settings.PositiveDuration("conn_timeout", c.ConnTimeout); err != nil {
		return err
	}
	return nil
}
