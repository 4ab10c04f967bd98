package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/pdfdesk/internal/operations"
	"github.com/JaimeStill/pdfdesk/internal/workspaces"
	"github.com/JaimeStill/pdfdesk/pkg/pdfservice"
	"github.com/JaimeStill/pdfdesk/pkg/storage"
	"github.com/JaimeStill/pdfdesk/pkg/upload"
)

const loadConcurrency = 4

type service struct {
	rt     *Runtime
	logger *slog.Logger
}

// New creates the tool action system. rt.Operations may be nil, which
// disables the operation history.
func New(rt *Runtime) System {
	if rt.Now == nil {
		rt.Now = time.Now
	}
	return &service{
		rt:     rt,
		logger: rt.Logger.With("system", "tools"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) Run(ctx context.Context, tool workspaces.Tool, id uuid.UUID, req Request) (*Output, error) {
	snap, err := s.rt.Workspaces.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.rt.Workspaces.Release(id)

	if snap.Tool != tool {
		return nil, fmt.Errorf("%w: %s", ErrToolMismatch, snap.Tool)
	}

	p, err := prepare(snap, req, s.rt.Now())
	if err != nil {
		return nil, err
	}

	parts, err := s.load(ctx, p.inputs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := p.call(ctx, s.rt.Backend, parts)
	elapsed := time.Since(start)

	var out *Output
	if err == nil {
		out = output(tool, p, res)
	}
	s.record(ctx, snap.ID, tool, p, out, err, elapsed)

	if err != nil {
		return nil, err
	}

	s.logger.Info("tool action completed",
		"tool", tool,
		"workspace", snap.ID,
		"output", out.Filename,
		"bytes", len(out.Data),
		"duration", elapsed,
	)
	return out, nil
}

// load downloads the staged inputs concurrently, preserving their order.
func (s *service) load(ctx context.Context, files []upload.File) ([]pdfservice.Part, error) {
	parts := make([]pdfservice.Part, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for i, f := range files {
		g.Go(func() error {
			data, ct, err := storage.ReadAll(gctx, s.rt.Storage, f.Key)
			if err != nil {
				return fmt.Errorf("load %s: %w", f.Name, err)
			}
			if f.ContentType != "" {
				ct = f.ContentType
			}
			parts[i] = pdfservice.Part{Filename: f.Name, ContentType: ct, Data: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// record stores the outcome of a backend call. A failure to record never
// fails the action.
func (s *service) record(ctx context.Context, workspace uuid.UUID, tool workspaces.Tool, p *plan, out *Output, callErr error, elapsed time.Duration) {
	if s.rt.Operations == nil {
		return
	}

	names := make([]string, len(p.inputs))
	for i, f := range p.inputs {
		names[i] = f.Name
	}

	cmd := operations.RecordCommand{
		WorkspaceID: workspace,
		Tool:        string(tool),
		Endpoint:    p.endpoint,
		InputFiles:  names,
		Duration:    elapsed,
	}
	if callErr != nil {
		cmd.Error = callErr.Error()
	} else {
		cmd.OutputFilename = out.Filename
		cmd.BytesOut = int64(len(out.Data))
	}

	if _, err := s.rt.Operations.Record(context.WithoutCancel(ctx), cmd); err != nil {
		s.logger.Warn("operation not recorded", "tool", tool, "workspace", workspace, "error", err)
	}
}

// output names the result. Split keeps the name chosen by the backend,
// which may be an archive.
func output(tool workspaces.Tool, p *plan, res *pdfservice.Result) *Output {
	out := &Output{
		Filename:    p.output,
		ContentType: res.ContentType,
		Data:        res.Data,
	}

	if tool == workspaces.ToolSplit {
		switch {
		case res.Filename != "":
			out.Filename = res.Filename
		case strings.HasPrefix(out.ContentType, "application/zip"):
			out.Filename = strings.TrimSuffix(p.output, ".pdf") + ".zip"
		}
	}

	if out.ContentType == "" {
		out.ContentType = "application/pdf"
	}
	return out
}
