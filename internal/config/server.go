package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

const (
	EnvServerHost              = "PDFDESK_SERVER_HOST"
	EnvServerPort              = "PDFDESK_SERVER_PORT"
	EnvServerReadHeaderTimeout = "PDFDESK_SERVER_READ_HEADER_TIMEOUT"
	EnvServerReadTimeout       = "PDFDESK_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout      = "PDFDESK_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "PDFDESK_SERVER_IDLE_TIMEOUT"
)

// ServerConfig holds the HTTP listener settings. WriteTimeout must cover
// the slowest tool call, since the response is written only after the
// backend returns.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	ReadTimeout       string `toml:"read_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts holds the parsed server durations.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// Timeouts returns the server durations parsed. Call after Finalize.
func (c *ServerConfig) Timeouts() Timeouts {
	return Timeouts{
		ReadHeader: duration(c.ReadHeaderTimeout),
		Read:       duration(c.ReadTimeout),
		Write:      duration(c.WriteTimeout),
		Idle:       duration(c.IdleTimeout),
	}
}

// Finalize applies defaults, environment overrides, and validation.
func (c *ServerConfig) Finalize() error {
	settings.Default(&c.Host, "0.0.0.0")
	settings.Default(&c.Port, 8080)
	settings.Default(&c.ReadHeaderTimeout, "10s")
	settings.Default(&c.ReadTimeout, "1m")
	settings.Default(&c.WriteTimeout, "15m")
	settings.Default(&c.IdleTimeout, "2m")

	err := settings.Apply(
		settings.String(EnvServerHost, &c.Host),
		settings.Int(EnvServerPort, &c.Port),
		settings.Duration(EnvServerReadHeaderTimeout, &c.ReadHeaderTimeout),
		settings.Duration(EnvServerReadTimeout, &c.ReadTimeout),
		settings.Duration(EnvServerWriteTimeout, &c.WriteTimeout),
		settings.Duration(EnvServerIdleTimeout, &c.IdleTimeout),
	)
	if err != nil {
		return err
	}
	return c.validate()
}

// Merge applies the non-zero fields of overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	settings.Overlay(&c.Host, overlay.Host)
	settings.Overlay(&c.Port, overlay.Port)
	settings.Overlay(&c.ReadHeaderTimeout, overlay.ReadHeaderTimeout)
	settings.Overlay(&c.ReadTimeout, overlay.ReadTimeout)
	settings.Overlay(&c.WriteTimeout, overlay.WriteTimeout)
	settings.Overlay(&c.IdleTimeout, overlay.IdleTimeout)
}

func (c *ServerConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for field, value := range map[string]string{
		"read_header_timeout": c.ReadHeaderTimeout,
		"read_timeout":        c.ReadTimeout,
		"write_timeout":       c.WriteTimeout,
		"idle_timeout":        c.IdleTimeout,
	} {
		if _, err := settings.PositiveDuration(field, value); err != nil {
			return err
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
