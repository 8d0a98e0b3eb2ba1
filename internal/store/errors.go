package store

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPath     = errors.New("folder path must be absolute")
	ErrUnsupportedDB   = errors.New("unsupported database type")
	ErrInvalidRef      = errors.New("referenced record does not exist")
)

// MapDBError maps driver-specific constraint errors onto the package
// sentinels. Matching is string based so no driver types leak in here.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	if strings.Contains(le, "foreign key") {
		return ErrInvalidRef
	}
	return err
}
