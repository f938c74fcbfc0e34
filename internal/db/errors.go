package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by store operations. Handlers translate these to
// HTTP statuses; anything else is treated as a transient storage failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrAlreadyConfirmed = errors.New("payment already confirmed")
	ErrConflict         = errors.New("conflicting duplicate")
	ErrEmptyCatalog     = errors.New("image catalog is empty")
)

// isUniqueViolation reports whether err is a Postgres duplicate-key error
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
