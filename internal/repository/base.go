// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"feeds/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueViolation recognizes duplicate-key failures from postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueViolationField names the column behind a duplicate-key failure when
// the driver reports it.
func uniqueViolationField(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return "username"
		case strings.Contains(pgErr.ConstraintName, "email"):
			return "email"
		}
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return "username"
	case strings.Contains(msg, "users.email"):
		return "email"
	}
	return ""
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound AppError and wraps
// anything else as an internal error.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// forUpdate locks selected rows for the rest of the transaction. Dialects
// without row locks (sqlite) drop the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// likePattern escapes LIKE wildcards in q and wraps it for substring search.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(q)) + "%"
}
