package storage

import (
	"fmt"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

// Storage providers.
const (
	ProviderMemory = "memory"
	ProviderAzure  = "azure"
)

// Config selects and configures the blob storage provider.
// The azure provider authenticates with ConnectionString when set, and with
// the default Azure credential chain against ServiceURL otherwise.
// MaxRetries bounds the retries of each Azure request.
type Config struct {
	Provider         string `toml:"provider"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	MaxRetries       int    `toml:"max_retries"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	Provider         string
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	MaxRetries       string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	settings.Default(&c.Provider, ProviderMemory)
	settings.Default(&c.ContainerName, "workspaces")
	settings.Default(&c.MaxRetries, 3)

	if env != nil {
		err := settings.Apply(
			settings.String(env.Provider, &c.Provider),
			settings.String(env.ContainerName, &c.ContainerName),
			settings.String(env.ConnectionString, &c.ConnectionString),
			settings.String(env.ServiceURL, &c.ServiceURL),
			settings.Int(env.MaxRetries, &c.MaxRetries),
		)
		if err != nil {
			return err
		}
	}

	return c.validate()
}

// Merge applies the non-empty fields of overlay.
func (c *Config) Merge(overlay *Config) {
	settings.Overlay(&c.Provider, overlay.Provider)
	settings.Overlay(&c.ContainerName, overlay.ContainerName)
	settings.Overlay(&c.ConnectionString, overlay.ConnectionString)
	settings.Overlay(&c.ServiceURL, overlay.ServiceURL)
	settings.Overlay(&c.MaxRetries, overlay.MaxRetries)
}

func (c *Config) validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	switch c.Provider {
	case ProviderMemory:
		return nil
	case ProviderAzure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.ConnectionString == "" && c.ServiceURL == "" {
			return fmt.Errorf("connection_string or service_url required")
		}
		return nil
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}
}
