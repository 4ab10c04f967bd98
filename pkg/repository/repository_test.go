package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/pdfdesk/pkg/repository"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("conflict")
	errInvalid  = errors.New("invalid")
)

func TestErrorMap(t *testing.T) {
	full := repository.ErrorMap{NotFound: errNotFound, Conflict: errConflict, Invalid: errInvalid}
	other := errors.New("connection reset")

	tests := []struct {
		name string
		m    repository.ErrorMap
		err  error
		want error
	}{
		{"nil", full, nil, nil},
		{"no rows", full, sql.ErrNoRows, errNotFound},
		{"pgx no rows", full, pgx.ErrNoRows, errNotFound},
		{"wrapped no rows", full, fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", full, &pgconn.PgError{Code: "23505"}, errConflict},
		{"check violation", full, &pgconn.PgError{Code: "23514"}, errInvalid},
		{"not null violation", full, &pgconn.PgError{Code: "23502"}, errInvalid},
		{"other pg error", full, &pgconn.PgError{Code: "42P01"}, nil},
		{"other error", full, other, other},
		{"unmapped class", repository.ErrorMap{NotFound: errNotFound}, &pgconn.PgError{Code: "23505"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Map(tt.err)

			want := tt.want
			if want == nil && tt.err != nil {
				want = tt.err
			}
			if got != want {
				t.Errorf("Map(%v) = %v, want %v", tt.err, got, want)
			}
		})
	}
}
