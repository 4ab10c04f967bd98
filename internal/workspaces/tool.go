package workspaces

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

// Tool names the page a workspace backs. Each tool drives one backend endpoint.
type Tool string

const (
	ToolMerge    Tool = "merge"
	ToolSplit    Tool = "split"
	ToolExtract  Tool = "extract"
	ToolRemove   Tool = "remove"
	ToolReorder  Tool = "reorder"
	ToolSign     Tool = "sign"
	ToolCompress Tool = "compress"
	ToolConvert  Tool = "convert"
)

const mb = 1 << 20

var (
	pdfTypes   = []string{"application/pdf", ".pdf"}
	imageTypes = []string{"image/*", ".jpg", ".jpeg", ".png", ".gif", ".webp"}
)

type profile struct {
	title       string
	maxFiles    int
	maxFileSize int64
	accept      []string
	paged       bool
}

var profiles = map[Tool]profile{
	ToolMerge:    {"Merge PDFs", 10, 10 * mb, pdfTypes, false},
	ToolSplit:    {"Split a PDF", 1, 20 * mb, pdfTypes, true},
	ToolExtract:  {"Extract pages", 1, 20 * mb, pdfTypes, true},
	ToolRemove:   {"Remove pages", 1, 20 * mb, pdfTypes, true},
	ToolReorder:  {"Reorder pages", 1, 20 * mb, pdfTypes, true},
	ToolSign:     {"Sign a PDF", 1, 20 * mb, pdfTypes, true},
	ToolCompress: {"Compress a PDF", 1, 50 * mb, pdfTypes, false},
	ToolConvert:  {"Images to PDF", 20, 10 * mb, imageTypes, false},
}

var toolOrder = []Tool{
	ToolMerge, ToolSplit, ToolExtract, ToolRemove,
	ToolReorder, ToolSign, ToolCompress, ToolConvert,
}

// Tools returns every tool in menu order.
func Tools() []Tool {
	return slices.Clone(toolOrder)
}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	t := Tool(s)
	if _, ok := profiles[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
	}
	return t, nil
}

// Title returns the page heading for the tool.
func (t Tool) Title() string {
	return profiles[t].title
}

// Paged reports whether the tool works on the pages of a single document,
// which requires a page count before any page-level interaction.
func (t Tool) Paged() bool {
	return profiles[t].paged
}

// Limits returns the upload limits of the tool. A positive ceiling caps the
// per-file size.
func (t Tool) Limits(ceiling int64) upload.Limits {
	p := profiles[t]
	size := p.maxFileSize
	if ceiling > 0 && ceiling < size {
		size = ceiling
	}
	return upload.Limits{
		MaxFiles:    p.maxFiles,
		MaxFileSize: size,
		Accept:      slices.Clone(p.accept),
	}
}

func (t Tool) reorders() bool { return t == ToolReorder }

func (t Tool) selects() bool { return t == ToolExtract || t == ToolRemove }

func (t Tool) signs() bool { return t == ToolSign }
