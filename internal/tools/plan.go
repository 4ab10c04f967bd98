package tools

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/formatting"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

// Request carries the options of a tool action. Fields a tool does not use
// are ignored.
type Request struct {
	// Ranges drives split: SplitEach, a JSON range list or "1-3,5".
	Ranges string
	// Prefix names split outputs. Defaults to the document name.
	Prefix string
	// Quality drives compress. Defaults to medium.
	Quality string
	// OutputFilename overrides the derived download name.
	OutputFilename string
}

// plan is a validated backend call. inputs are downloaded from storage
// and handed to call in the same order.
type plan struct {
	endpoint string
	inputs   []upload.File
	output   string
	call     func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error)
}

// prepare validates the workspace state for its tool and builds the call.
// Nothing is sent when validation fails.
func prepare(snap *workspaces.Snapshot, req Request, now time.Time) (*plan, error) {
	if len(snap.Files) == 0 {
		return nil, ErrNoFile
	}
	if snap.Tool.Paged() && snap.Document == nil {
		return nil, workspaces.ErrNoDocument
	}

	doc := snap.Files[0]

	switch snap.Tool {
	case workspaces.ToolMerge:
		if len(snap.Files) < 2 {
			return nil, ErrTooFewFiles
		}
		name := outputName(req.OutputFilename, formatting.StampedName("merged", now, ".pdf"))
		return &plan{
			endpoint: pdfservice.EndpointMerge,
			inputs:   snap.Files,
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.Merge(ctx, parts, name)
			},
		}, nil

	case workspaces.ToolSplit:
		ranges, err := ParseRanges(req.Ranges, snap.Document.PageCount)
		if err != nil {
			return nil, err
		}
		prefix := formatting.SafeName(req.Prefix)
		if prefix == "" {
			prefix = formatting.SafeName(formatting.BaseName(doc.Name))
		}
		return &plan{
			endpoint: pdfservice.EndpointSplit,
			inputs:   []upload.File{doc},
			output:   formatting.OutputName(doc.Name, "split", ".pdf"),
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.Split(ctx, parts[0], ranges, prefix)
			},
		}, nil

	case workspaces.ToolExtract:
		if len(snap.Selection) == 0 {
			return nil, ErrEmptySelection
		}
		pages := snap.Selection
		name := outputName(req.OutputFilename, formatting.OutputName(doc.Name, "extracted", ".pdf"))
		return &plan{
			endpoint: pdfservice.EndpointExtract,
			inputs:   []upload.File{doc},
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.Extract(ctx, parts[0], pages, name)
			},
		}, nil

	case workspaces.ToolRemove:
		if len(snap.Selection) == 0 {
			return nil, ErrEmptySelection
		}
		if len(snap.Selection) >= snap.Document.PageCount {
			return nil, ErrWholeDocument
		}
		pages := snap.Selection
		name := outputName(req.OutputFilename, formatting.OutputName(doc.Name, "pages_removed", ".pdf"))
		return &plan{
			endpoint: pdfservice.EndpointRemovePages,
			inputs:   []upload.File{doc},
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.RemovePages(ctx, parts[0], pages, name)
			},
		}, nil

	case workspaces.ToolReorder:
		order := snap.Order
		name := outputName(req.OutputFilename, formatting.OutputName(doc.Name, "reordered", ".pdf"))
		return &plan{
			endpoint: pdfservice.EndpointReorder,
			inputs:   []upload.File{doc},
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.Reorder(ctx, parts[0], order, name)
			},
		}, nil

	case workspaces.ToolSign:
		if snap.Signature == nil {
			return nil, ErrNoSignature
		}
		if snap.Region == nil {
			return nil, ErrNoPosition
		}
		region := *snap.Region
		data := snap.Signature.Data
		inputs := []upload.File{doc}
		if data == "" && snap.Signature.File != nil {
			inputs = append(inputs, *snap.Signature.File)
		}
		name := outputName(req.OutputFilename, formatting.OutputName(doc.Name, "signed", ".pdf"))
		return &plan{
			endpoint: pdfservice.EndpointSign,
			inputs:   inputs,
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				sig := pdfservice.Signature{Data: data}
				if len(parts) > 1 {
					sig.Image = &parts[1]
				}
				return b.Sign(ctx, parts[0], region, sig, name)
			},
		}, nil

	case workspaces.ToolCompress:
		quality := pdfservice.Quality(strings.ToLower(strings.TrimSpace(req.Quality)))
		if quality == "" {
			quality = pdfservice.QualityMedium
		}
		if !quality.Valid() {
			return nil, ErrInvalidQuality
		}
		name := outputName(req.OutputFilename, formatting.OutputName(doc.Name, "compressed_"+string(quality), ".pdf"))
		return &plan{
			endpoint: pdfservice.EndpointCompress,
			inputs:   []upload.File{doc},
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.Compress(ctx, parts[0], quality, name)
			},
		}, nil

	case workspaces.ToolConvert:
		fallback := "images_converted.pdf"
		if len(snap.Files) == 1 {
			fallback = formatting.OutputName(doc.Name, "converted", ".pdf")
		}
		name := outputName(req.OutputFilename, fallback)
		return &plan{
			endpoint: pdfservice.EndpointImagesToPDF,
			inputs:   snap.Files,
			output:   name,
			call: func(ctx context.Context, b Backend, parts []pdfservice.Part) (*pdfservice.Result, error) {
				return b.ImagesToPDF(ctx, parts, name)
			},
		}, nil

	default:
		return nil, workspaces.ErrUnknownTool
	}
}

// outputName returns the requested name made safe, with a .pdf extension,
// or fallback when none was requested.
func outputName(requested, fallback string) string {
	name := formatting.SafeName(path.Base(strings.TrimSpace(requested)))
	if name == "" || name == "." {
		return fallback
	}
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
