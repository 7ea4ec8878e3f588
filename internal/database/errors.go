package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
)

const (
	pgInsufficientPrivilege = "42501"
	pgUniqueViolation       = "23505"
)

// Classify turns store failures into domain errors. Permission failures keep the
// collection, operation and payload for diagnosis and are never retried.
func Classify(err error, collection, operation string, payload any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		return &domain.PermissionDeniedError{Collection: collection, Operation: operation, Payload: payload, Err: err}
	}
	if strings.Contains(strings.ToLower(err.Error()), "permission denied") {
		return &domain.PermissionDeniedError{Collection: collection, Operation: operation, Payload: payload, Err: err}
	}

	return err
}

// UniqueKey identifies one unique index. Postgres reports the index name; SQLite
// reports the indexed "table.column" instead.
type UniqueKey struct {
	Index  string
	Column string
}

// IsUniqueViolation reports whether err is a unique-index violation on key. The zero
// key matches any unique violation.
func IsUniqueViolation(err error, key UniqueKey) bool {
	if err == nil {
		return false
	}
	anyKey := key == UniqueKey{}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && (anyKey || pgErr.ConstraintName == key.Index)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return anyKey
	}

	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique constraint failed") {
		return false
	}
	if anyKey {
		return true
	}
	_, cols, _ := strings.Cut(msg, "unique constraint failed:")
	cols, _, _ = strings.Cut(cols, "(")
	for _, c := range strings.Split(cols, ",") {
		if strings.TrimSpace(c) == strings.ToLower(key.Column) {
			return true
		}
	}
	return false
}
