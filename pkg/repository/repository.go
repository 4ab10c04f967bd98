// Package repository runs projected queries against database/sql and
// scans the rows into domain values.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JaimeStill/pdfdesk/pkg/pagination"
	"github.com/JaimeStill/pdfdesk/pkg/query"
)

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc reads one row into T.
type ScanFunc[T any] func(Scanner) (T, error)

// One runs stmt and scans its single row. A missing row surfaces as
// sql.ErrNoRows.
func One[T any](ctx context.Context, q Querier, stmt string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, stmt, args...))
}

// All runs stmt and scans every row. The result is never nil.
func All[T any](ctx context.Context, q Querier, stmt string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Page counts the rows matched by b and scans the requested page of them.
func Page[T any](
	ctx context.Context,
	q Querier,
	b *query.Builder,
	req pagination.PageRequest,
	scan ScanFunc[T],
) (*pagination.PageResult[T], error) {
	var total int
	stmt, args := b.Count()
	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	stmt, args = b.Page(req.PageSize, req.Offset())
	data, err := All(ctx, q, stmt, args, scan)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}

	result := pagination.NewPageResult(data, total, req.Page, req.PageSize)
	return &result, nil
}

// InTx runs fn inside a transaction, committing when fn succeeds and
// rolling back otherwise.
func InTx[T any](ctx context.Context, db *sql.DB, fn func(*sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	v, err := fn(tx)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit: %w", err)
	}
	return v, nil
}
