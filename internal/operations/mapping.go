package operations

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JaimeStill/pdfdesk/pkg/query"
	"github.com/JaimeStill/pdfdesk/pkg/repository"
)

var projection = query.
	NewProjection("public.operations", "o").
	Field("id", "id").
	Field("workspace_id", "workspace_id").
	Field("tool", "tool").
	Field("endpoint", "endpoint").
	Field("input_files", "input_files").
	Field("output_filename", "output_filename").
	Field("status", "status").
	Field("error", "error").
	Field("bytes_out", "bytes_out").
	Field("duration_ms", "duration_ms").
	Field("created_at", "created_at")

var newestFirst = query.Sort{Field: "created_at", Desc: true}

var dbErrors = repository.ErrorMap{
	NotFound: ErrNotFound,
	Conflict: ErrDuplicate,
	Invalid:  ErrInvalidRecord,
}

// Filters narrows operation queries. Nil fields are ignored.
// OutputFilename matches case-insensitively by substring, Since and Until
// bound created_at as a half-open range, and the rest match exactly.
type Filters struct {
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	Tool           *string    `json:"tool,omitempty"`
	Endpoint       *string    `json:"endpoint,omitempty"`
	Status         *string    `json:"status,omitempty"`
	OutputFilename *string    `json:"output_filename,omitempty"`
	Since          *time.Time `json:"since,omitempty"`
	Until          *time.Time `json:"until,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		Eq("workspace_id", f.WorkspaceID).
		Eq("tool", f.Tool).
		Eq("endpoint", f.Endpoint).
		Eq("status", f.Status).
		Contains("output_filename", f.OutputFilename).
		Since("created_at", f.Since).
		Until("created_at", f.Until)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// since and until are RFC 3339 timestamps. A malformed workspace_id,
// status or timestamp, or a since that is not before until, fails with
// ErrInvalidFilter.
func FiltersFromQuery(values url.Values) (Filters, error) {
	f := Filters{
		Tool:           optional(values, "tool"),
		Endpoint:       optional(values, "endpoint"),
		Status:         optional(values, "status"),
		OutputFilename: optional(values, "output_filename"),
	}

	var errs []error

	if ws := values.Get("workspace_id"); ws != "" {
		id, err := uuid.Parse(ws)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: workspace_id %q", ErrInvalidFilter, ws))
		} else {
			f.WorkspaceID = &id
		}
	}

	if f.Status != nil && *f.Status != StatusSucceeded && *f.Status != StatusFailed {
		errs = append(errs, fmt.Errorf("%w: status %q", ErrInvalidFilter, *f.Status))
	}

	var err error
	if f.Since, err = timestamp(values, "since"); err != nil {
		errs = append(errs, err)
	}
	if f.Until, err = timestamp(values, "until"); err != nil {
		errs = append(errs, err)
	}
	if f.Since != nil && f.Until != nil && !f.Since.Before(*f.Until) {
		errs = append(errs, fmt.Errorf("%w: since must be before until", ErrInvalidFilter))
	}

	return f, errors.Join(errs...)
}

func optional(values url.Values, key string) *string {
	if v := values.Get(key); v != "" {
		return &v
	}
	return nil
}

func timestamp(values url.Values, key string) (*time.Time, error) {
	v := values.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidFilter, key, v)
	}
	return &t, nil
}

func scanOperation(s repository.Scanner) (Operation, error) {
	var o Operation
	err := s.Scan(
		&o.ID,
		&o.WorkspaceID,
		&o.Tool,
		&o.Endpoint,
		pgtype.NewMap().SQLScanner(&o.InputFiles),
		&o.OutputFilename,
		&o.Status,
		&o.Error,
		&o.BytesOut,
		&o.DurationMS,
		&o.CreatedAt,
	)
	return o, err
}
