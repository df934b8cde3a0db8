package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no row matches the lookup
	ErrNotFound = errors.New("record not found")
	// ErrForeignKey is returned when a write breaks a foreign-key constraint
	ErrForeignKey = errors.New("foreign key violation")
	// ErrDuplicate is returned when a write breaks a unique constraint
	ErrDuplicate = errors.New("duplicate key")
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// classify maps driver errors onto the repository sentinels, keeping the original as cause
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return errors.Join(ErrForeignKey, err)
		case pgUniqueViolation:
			return errors.Join(ErrDuplicate, err)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return errors.Join(ErrForeignKey, err)
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return errors.Join(ErrDuplicate, err)
		}
	}

	return err
}
