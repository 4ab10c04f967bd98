// Package pdfservice is a client for the PDF backend. Every operation is a
// single multipart POST answered with a binary payload, except PageCount which
// answers JSON. Calls are never retried.
package pdfservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/JaimeStill/pdfdesk/pkg/placement"
	"github.com/JaimeStill/pdfdesk/pkg/selection"
)

// Backend endpoints, relative to the configured base URL.
const (
	EndpointMerge       = "/merge"
	EndpointSplit       = "/split-file"
	EndpointExtract     = "/extract"
	EndpointRemovePages = "/remove-pages"
	EndpointReorder     = "/reorder"
	EndpointSign        = "/sign"
	EndpointCompress    = "/compress"
	EndpointImagesToPDF = "/images-to-pdf"
	EndpointPageCount   = "/pagecount"
)

const maxDetail = 512

// Quality is a compression level accepted by the backend.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// Valid reports whether q is one of the accepted levels.
func (q Quality) Valid() bool {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return true
	}
	return false
}

// Part is one file sent to the backend.
type Part struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result is the payload returned by the backend.
// Filename is taken from Content-Disposition and may be empty.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Range is one output document of a split, 1-indexed and inclusive.
type Range struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Name  string `json:"name,omitempty"`
}

// Signature carries the signature as a data URL or as an image file.
// Data takes precedence when both are set.
type Signature struct {
	Data  string
	Image *Part
}

// Client issues requests against the backend.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// New creates a Client for cfg. cfg must be finalized.
func New(cfg *Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.TimeoutDuration()}, logger)
}

// NewWithHTTPClient creates a Client that sends requests through hc.
func NewWithHTTPClient(cfg *Config, hc *http.Client, logger *slog.Logger) *Client {
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logger.With("system", "pdfservice"),
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Merge concatenates files in order. The parts are sent as file0..fileN.
func (c *Client) Merge(ctx context.Context, files []Part, outputName string) (*Result, error) {
	return c.download(ctx, EndpointMerge, func(f *form) {
		for i, p := range files {
			f.file("file"+strconv.Itoa(i), p)
		}
		f.optional("output_filename", outputName)
	})
}

// Split divides file into ranges, or into one document per page when
// ranges is empty. The backend answers a PDF or an archive.
func (c *Client) Split(ctx context.Context, file Part, ranges []Range, prefix string) (*Result, error) {
	value := "each"
	if len(ranges) > 0 {
		data, err := json.Marshal(ranges)
		if err != nil {
			return nil, fmt.Errorf("encode ranges: %w", err)
		}
		value = string(data)
	}

	return c.download(ctx, EndpointSplit, func(f *form) {
		f.file("file", file)
		f.field("ranges", value)
		f.optional("output_filename_prefix", prefix)
	})
}

// Extract keeps only pages.
func (c *Client) Extract(ctx context.Context, file Part, pages []int, outputName string) (*Result, error) {
	return c.download(ctx, EndpointExtract, func(f *form) {
		f.file("file", file)
		f.field("pages", selection.Join(pages))
		f.optional("output_filename", outputName)
	})
}

// RemovePages drops pages.
func (c *Client) RemovePages(ctx context.Context, file Part, pages []int, outputName string) (*Result, error) {
	return c.download(ctx, EndpointRemovePages, func(f *form) {
		f.file("file", file)
		f.field("pages", selection.Join(pages))
		f.optional("output_filename", outputName)
	})
}

// Reorder rearranges pages. order must be a permutation of 1..N.
func (c *Client) Reorder(ctx context.Context, file Part, order []int, outputName string) (*Result, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	return c.download(ctx, EndpointReorder, func(f *form) {
		f.file("file", file)
		f.field("new_order", string(data))
		f.optional("output_filename", outputName)
	})
}

// Sign stamps sig onto the region described by pos.
func (c *Client) Sign(ctx context.Context, file Part, pos placement.Region, sig Signature, outputName string) (*Result, error) {
	data, err := json.Marshal(pos)
	if err != nil {
		return nil, fmt.Errorf("encode position: %w", err)
	}

	return c.download(ctx, EndpointSign, func(f *form) {
		f.file("file", file)
		f.field("position", string(data))
		switch {
		case sig.Data != "":
			f.field("signature_data", sig.Data)
		case sig.Image != nil:
			f.file("signature_image", *sig.Image)
		}
		f.optional("output_filename", outputName)
	})
}

// Compress reduces file size at the given quality.
func (c *Client) Compress(ctx context.Context, file Part, quality Quality, outputName string) (*Result, error) {
	return c.download(ctx, EndpointCompress, func(f *form) {
		f.file("file", file)
		f.field("quality", string(quality))
		f.optional("output_filename", outputName)
	})
}

// ImagesToPDF converts images, in order, into one document.
func (c *Client) ImagesToPDF(ctx context.Context, images []Part, outputName string) (*Result, error) {
	return c.download(ctx, EndpointImagesToPDF, func(f *form) {
		for _, p := range images {
			f.file("files", p)
		}
		f.optional("output_filename", outputName)
	})
}

// PageCount asks the backend how many pages file has.
func (c *Client) PageCount(ctx context.Context, file Part) (int, error) {
	resp, err := c.post(ctx, EndpointPageCount, func(f *form) {
		f.file("file", file)
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body struct {
		PageCount *int `json:"page_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode page count: %v", ErrInvalidResponse, err)
	}
	if body.PageCount == nil || *body.PageCount <= 0 {
		return 0, fmt.Errorf("%w: missing page_count", ErrInvalidResponse)
	}
	return *body.PageCount, nil
}

func (c *Client) download(ctx context.Context, endpoint string, build func(*form)) (*Result, error) {
	resp, err := c.post(ctx, endpoint, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrUnavailable, endpoint, err)
	}

	result := &Result{
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}

	c.logger.Info("request completed",
		"endpoint", endpoint,
		"filename", result.Filename,
		"bytes", len(data),
	)

	return result, nil
}

func (c *Client) post(ctx context.Context, endpoint string, build func(*form)) (*http.Response, error) {
	f := newForm()
	build(f)
	body, contentType, err := f.close()
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		re := &ResponseError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
		c.logger.Error("request rejected",
			"endpoint", endpoint,
			"status", re.StatusCode,
			"detail", re.Detail,
		)
		return nil, re
	}

	return resp, nil
}

// readDetail extracts a FastAPI-style {"detail": ...} message, falling back
// to the raw body.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64*1024))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return truncate(s)
		}
		return truncate(string(body.Detail))
	}
	return truncate(strings.TrimSpace(string(raw)))
}

func truncate(s string) string {
	if len(s) > maxDetail {
		return s[:maxDetail]
	}
	return s
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// form accumulates a multipart body, keeping the first write error.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) optional(name, value string) {
	if value != "" {
		f.field(name, value)
	}
}

func (f *form) file(name string, p Part) {
	if f.err != nil {
		return
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipart.FileContentDisposition(name, p.Filename))
	h.Set("Content-Type", contentType)

	w, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = w.Write(p.Data)
}

func (f *form) close() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.w.FormDataContentType(), nil
}
