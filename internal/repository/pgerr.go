package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes the repositories translate into domain errors.
const (
	pgUniqueViolation     pq.ErrorCode = "23505"
	pgForeignKeyViolation pq.ErrorCode = "23503"
	pgCheckViolation      pq.ErrorCode = "23514"
)

// pgError extracts a *pq.Error from err's chain.
func pgError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// isPgViolation reports whether err is a PostgreSQL error with the given code
// raised by the named constraint. An empty constraint matches any.
func isPgViolation(err error, code pq.ErrorCode, constraint string) bool {
	pqErr, ok := pgError(err)
	if !ok || pqErr.Code != code {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isPgUniqueViolation checks whether err is a PostgreSQL unique constraint
// violation for the given constraint name.
func isPgUniqueViolation(err error, constraint string) bool {
	return isPgViolation(err, pgUniqueViolation, constraint)
}
