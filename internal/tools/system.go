// Package tools runs the action of each tool page: it validates the
// workspace state, sends the staged files to the PDF service and hands the
// result back as a download. Every backend call is recorded.
package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/internal/workspaces"
)

// Output is a processed document ready for download.
type Output struct {
	Filename    string
	ContentType string
	Data        []byte
}

// System defines the tool action contract.
type System interface {
	Handler() *Handler

	// Run executes the action of tool on the workspace. The workspace is
	// held busy for the duration of the call.
	Run(ctx context.Context, tool workspaces.Tool, workspace uuid.UUID, req Request) (*Output, error)
}
