package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes.
const (
	codeNotNull = "23502"
	codeUnique  = "23505"
	codeCheck   = "23514"
)

// ErrorMap translates driver errors into a domain's sentinel errors. A
// nil field leaves that class of error unchanged.
type ErrorMap struct {
	NotFound error
	Conflict error
	Invalid  error
}

// Map returns the domain error for err, or err itself when it has none.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}

	if m.NotFound != nil && (errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)) {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == codeUnique && m.Conflict != nil:
		return m.Conflict
	case (pgErr.Code == codeCheck || pgErr.Code == codeNotNull) && m.Invalid != nil:
		return m.Invalid
	}
	return err
}
