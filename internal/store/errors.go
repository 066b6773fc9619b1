package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateSlug is returned when a write would create a second row
// with an already-taken slug. The write is rejected wholesale; nothing
// is persisted.
var ErrDuplicateSlug = errors.New("slug already in use")

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// translateError maps database driver errors onto the store's error
// values. Unique violations on the slug constraints become
// ErrDuplicateSlug; everything else passes through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateSlug
	}
	return err
}
