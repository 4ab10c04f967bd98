package config

import (
	"fmt"
	"time"

	"github.com/JaimeStill/pdfdesk/pkg/formatting"
	"github.com/JaimeStill/pdfdesk/pkg/settings"
)

const (
	EnvUploadsMaxFileSize   = "PDFDESK_UPLOADS_MAX_FILE_SIZE"
	EnvUploadsPreviewSize   = "PDFDESK_UPLOADS_PREVIEW_SIZE"
	EnvUploadsRetention     = "PDFDESK_UPLOADS_RETENTION"
	EnvUploadsSweepInterval = "PDFDESK_UPLOADS_SWEEP_INTERVAL"
	EnvUploadsAllowPrivate  = "PDFDESK_UPLOADS_ALLOW_PRIVATE_REMOTE"
)

// UploadsConfig bounds staged files and how long workspaces keep them.
// MaxFileSize caps every tool's own per-file limit. PreviewSize is the
// longest edge, in pixels, of an image preview. AllowPrivateRemote lets
// remote documents be fetched from loopback and private networks.
type UploadsConfig struct {
	MaxFileSize        string `toml:"max_file_size"`
	PreviewSize        int    `toml:"preview_size"`
	Retention          string `toml:"retention"`
	SweepInterval      string `toml:"sweep_interval"`
	AllowPrivateRemote bool   `toml:"allow_private_remote"`
}

// MaxFileSizeBytes returns MaxFileSize in bytes.
func (c *UploadsConfig) MaxFileSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxFileSize)
	return size
}

// RetentionDuration returns how long an idle workspace lives.
func (c *UploadsConfig) RetentionDuration() time.Duration {
	return duration(c.Retention)
}

// SweepIntervalDuration returns how often expired workspaces are closed.
func (c *UploadsConfig) SweepIntervalDuration() time.Duration {
	return duration(c.SweepInterval)
}

// Finalize applies defaults, environment overrides, and validation.
func (c *UploadsConfig) Finalize() error {
	settings.Default(&c.MaxFileSize, "50MB")
	settings.Default(&c.PreviewSize, 160)
	settings.Default(&c.Retention, "1h")
	settings.Default(&c.SweepInterval, "5m")

	err := settings.Apply(
		settings.String(EnvUploadsMaxFileSize, &c.MaxFileSize),
		settings.Int(EnvUploadsPreviewSize, &c.PreviewSize),
		settings.Duration(EnvUploadsRetention, &c.Retention),
		settings.Duration(EnvUploadsSweepInterval, &c.SweepInterval),
		settings.Bool(EnvUploadsAllowPrivate, &c.AllowPrivateRemote),
	)
	if err != nil {
		return err
	}
	return c.validate()
}

// Merge applies the non-zero fields of overlay.
func (c *UploadsConfig) Merge(overlay *UploadsConfig) {
	settings.Overlay(&c.MaxFileSize, overlay.MaxFileSize)
	settings.Overlay(&c.PreviewSize, overlay.PreviewSize)
	settings.Overlay(&c.Retention, overlay.Retention)
	settings.Overlay(&c.SweepInterval, overlay.SweepInterval)
	settings.Overlay(&c.AllowPrivateRemote, overlay.AllowPrivateRemote)
}

func (c *UploadsConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if c.PreviewSize < 16 {
		return fmt.Errorf("preview_size must be at least 16")
	}
	if _, err := settings.PositiveDuration("retention", c.Retention); err != nil {
		return err
	}
	if _, err := settings.PositiveDuration("sweep_interval", c.SweepInterval); err != nil {
		return err
	}
	return nil
}
