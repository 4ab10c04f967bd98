// Package operations records every call made to the PDF backend so failed
// and slow requests can be inspected after the fact.
package operations

import (
	"time"

	"github.com/google/uuid"
)

// Operation outcomes.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Operation is one backend call issued on behalf of a workspace.
type Operation struct {
	ID             uuid.UUID `json:"id"`
	WorkspaceID    uuid.UUID `json:"workspace_id"`
	Tool           string    `json:"tool"`
	Endpoint       string    `json:"endpoint"`
	InputFiles     []string  `json:"input_files"`
	OutputFilename *string   `json:"output_filename"`
	Status         string    `json:"status"`
	Error          *string   `json:"error"`
	BytesOut       int64     `json:"bytes_out"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordCommand describes a finished backend call.
// A non-empty Error marks the operation failed.
type RecordCommand struct {
	WorkspaceID    uuid.UUID
	Tool           string
	Endpoint       string
	InputFiles     []string
	OutputFilename string
	Error          string
	BytesOut       int64
	Duration       time.Duration
}

func (c RecordCommand) status() string {
	if c.Error != "" {
		return StatusFailed
	}
	return StatusSucceeded
}
