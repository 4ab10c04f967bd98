package openapi

import "github.com/JaimeStill/pdfdesk/pkg/settings"

// Config holds the document metadata of the generated spec.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// ConfigEnv names the environment variables that override Config fields.
type ConfigEnv struct {
	Title       string
	Description string
}

// Finalize applies defaults and environment overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	settings.Default(&c.Title, "pdfdesk API")
	settings.Default(&c.Description, "Backend for the PDF toolbox: staged uploads, page controllers and tool actions.")

	if env == nil {
		return nil
	}
	return settings.Apply(
		settings.String(env.Title, &c.Title),
		settings.String(env.Description, &c.Description),
	)
}

// Merge applies the non-empty fields of overlay.
func (c *Config) Merge(overlay *Config) {
	settings.Overlay(&c.Title, overlay.Title)
	settings.Overlay(&c.Description, overlay.Description)
}
