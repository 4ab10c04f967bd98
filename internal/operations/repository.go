package operations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/pdfdesk/pkg/database"
	"github.com/JaimeStill/pdfdesk/pkg/pagination"
	"github.com/JaimeStill/pdfdesk/pkg/query"
	"github.com/JaimeStill/pdfdesk/pkg/repository"
)

type repo struct {
	db         database.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the operation history System backed by db.
func New(db database.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "operations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Operation], error) {
	conn, err := r.conn()
	if err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.
		From(projection, newestFirst).
		Search(page.Search, "tool", "output_filename", "error").
		OrderBy(page.Sort)

	filters.Apply(qb)

	result, err := repository.Page(ctx, conn, qb, page, scanOperation)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Operation, error) {
	conn, err := r.conn()
	if err != nil {
		return nil, err
	}

	q, args := query.From(projection).One("id", id)

	o, err := repository.One(ctx, conn, q, args, scanOperation)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &o, nil
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Operation, error) {
	conn, err := r.conn()
	if err != nil {
		return nil, err
	}

	q := `
		INSERT INTO operations(id, workspace_id, tool, endpoint, input_files, output_filename, status, error, bytes_out, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, workspace_id, tool, endpoint, input_files, output_filename, status, error, bytes_out, duration_ms, created_at`

	inputs := cmd.InputFiles
	if inputs == nil {
		inputs = []string{}
	}

	args := []any{
		uuid.New(),
		cmd.WorkspaceID,
		cmd.Tool,
		cmd.Endpoint,
		inputs,
		nullable(cmd.OutputFilename),
		cmd.status(),
		nullable(cmd.Error),
		cmd.BytesOut,
		cmd.Duration.Milliseconds(),
	}

	o, err := repository.InTx(ctx, conn, func(tx *sql.Tx) (Operation, error) {
		return repository.One(ctx, tx, q, args, scanOperation)
	})
	if err != nil {
		return nil, fmt.Errorf("record operation: %w", dbErrors.Map(err))
	}

	r.logger.Info("operation recorded",
		"id", o.ID,
		"workspace", o.WorkspaceID,
		"tool", o.Tool,
		"status", o.Status,
		"duration_ms", o.DurationMS,
	)
	return &o, nil
}

// conn returns the pool once the startup ping succeeded.
func (r *repo) conn() (*sql.DB, error) {
	if !r.db.Ready() {
		return nil, database.ErrNotReady
	}
	return r.db.Connection(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
