package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

const (
	EnvLoggingLevel  = "PDFDESK_LOG_LEVEL"
	EnvLoggingFormat = "PDFDESK_LOG_FORMAT"
)

// LoggingConfig selects the slog level and output format ("text" or "json").
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Logger builds the process logger writing to w.
func (c *LoggingConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	level.UnmarshalText([]byte(c.Level))

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Finalize applies defaults, environment overrides, and validation.
func (c *LoggingConfig) Finalize() error {
	settings.Default(&c.Level, "info")
	settings.Default(&c.Format, "text")

	err := settings.Apply(
		settings.String(EnvLoggingLevel, &c.Level),
		settings.String(EnvLoggingFormat, &c.Format),
	)
	if err != nil {
		return err
	}

	c.Level = strings.ToLower(c.Level)
	c.Format = strings.ToLower(c.Format)

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level: %q", c.Level)
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format: %q", c.Format)
	}
	return nil
}

// Merge applies the non-empty fields of overlay.
func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	settings.Overlay(&c.Level, overlay.Level)
	settings.Overlay(&c.Format, overlay.Format)
}
