package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write collides with an existing unique value.
	ErrConflict = errors.New("record conflict")
)

const (
	uniqueViolation   = "23505"
	invalidTextFormat = "22P02"
)

// classify maps driver errors onto the package sentinels and wraps
// everything else with the failed operation.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrConflict
		case invalidTextFormat:
			// a malformed uuid can never match a stored row
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
